package food

import (
	"fmt"
	"strings"
)

// Category is the coarse dish tag used for grouping and artwork.
type Category string

const (
	CategoryPizza  Category = "pizza"
	CategoryPasta  Category = "pasta"
	CategorySalad  Category = "salad"
	CategoryBurger Category = "burger"
	CategorySushi  Category = "sushi"
	CategoryTacos  Category = "tacos"
	CategoryOther  Category = "other"
)

// Categories is the browsable set, in home screen order. "other" is a
// fallback and is not browsable.
var Categories = []Category{
	CategoryPizza,
	CategoryPasta,
	CategorySalad,
	CategoryBurger,
	CategorySushi,
	CategoryTacos,
}

// unificationMap is the source of truth for category normalization.
// It groups raw category strings returned by the analysis service under a
// known category.
var unificationMap = map[Category][]string{
	CategoryPizza:  {"pizza", "pizzas", "flatbread"},
	CategoryPasta:  {"pasta", "pastas", "noodles", "spaghetti"},
	CategorySalad:  {"salad", "salads", "bowl"},
	CategoryBurger: {"burger", "burgers", "sandwich"},
	CategorySushi:  {"sushi", "sashimi", "maki"},
	CategoryTacos:  {"tacos", "taco", "burrito"},
	CategoryOther:  {"other"},
}

// categoryMap is a reverse map generated from unificationMap for efficient lookups.
var categoryMap map[string]Category

func init() {
	categoryMap = make(map[string]Category)
	for unified, raws := range unificationMap {
		for _, raw := range raws {
			categoryMap[raw] = unified
		}
	}
}

// NormalizeCategory maps a raw category string onto the fixed set. Unknown
// and empty values become "other".
func NormalizeCategory(category string) Category {
	catLower := strings.ToLower(strings.TrimSpace(category))
	if unified, ok := categoryMap[catLower]; ok {
		return unified
	}
	return CategoryOther
}

// Title is the capitalised category name used in screen headers.
func (c Category) Title() string {
	s := string(c)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseCategory is the strict form of NormalizeCategory for user input:
// a value no category groups is an error instead of "other".
func ParseCategory(category string) (Category, error) {
	catLower := strings.ToLower(strings.TrimSpace(category))
	if unified, ok := categoryMap[catLower]; ok {
		return unified, nil
	}
	return "", fmt.Errorf("unknown category %q (available: %s, other)", category, CategoryNames())
}

// CategoryNames lists the browsable categories, comma separated.
func CategoryNames() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
