package food

import (
	"strconv"
	"strings"
)

// DateLayout is the day format meals are listed by (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Meal is a logged eating event. Nutrient values are display strings
// pre-formatted by the analysis service ("12g", "3mg").
type Meal struct {
	ID          int64    `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Calories    int      `json:"calories" yaml:"calories"`
	Date        string   `json:"date" yaml:"date"`
	Protein     string   `json:"protein" yaml:"protein"`
	Carbs       string   `json:"carbs" yaml:"carbs"`
	Fat         string   `json:"fat" yaml:"fat"`
	Fiber       string   `json:"fiber" yaml:"fiber"`
	VitaminD    string   `json:"vitamin_d" yaml:"vitamin_d"`
	VitaminA    string   `json:"vitamin_a" yaml:"vitamin_a"`
	VitaminC    string   `json:"vitamin_c" yaml:"vitamin_c"`
	Iron        string   `json:"iron" yaml:"iron"`
	Calcium     string   `json:"calcium" yaml:"calcium"`
	Magnesium   string   `json:"magnesium" yaml:"magnesium"`
	Potassium   string   `json:"potassium" yaml:"potassium"`
	Zinc        string   `json:"zinc" yaml:"zinc"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
}

// NutrientFields lists the JSON keys of every string nutrient, in display
// order. The API boundary validates each of them.
var NutrientFields = []string{
	"protein", "carbs", "fat", "fiber",
	"vitamin_d", "vitamin_a", "vitamin_c",
	"iron", "calcium", "magnesium", "potassium", "zinc",
}

// Nutrient is one label/value row of the meal detail view.
type Nutrient struct {
	Key   string
	Label string
	Value string
}

var nutrientLabels = map[string]string{
	"protein":   "Protein",
	"carbs":     "Carbs",
	"fat":       "Fat",
	"fiber":     "Fiber",
	"vitamin_d": "Vitamin D",
	"vitamin_a": "Vitamin A",
	"vitamin_c": "Vitamin C",
	"iron":      "Iron",
	"calcium":   "Calcium",
	"magnesium": "Magnesium",
	"potassium": "Potassium",
	"zinc":      "Zinc",
}

// Nutrient returns the value stored under a nutrient JSON key.
func (m *Meal) Nutrient(key string) string {
	if p := m.nutrientField(key); p != nil {
		return *p
	}
	return ""
}

// SetNutrient stores a value under a nutrient JSON key. Unknown keys are
// ignored.
func (m *Meal) SetNutrient(key, value string) {
	if p := m.nutrientField(key); p != nil {
		*p = value
	}
}

func (m *Meal) nutrientField(key string) *string {
	switch key {
	case "protein":
		return &m.Protein
	case "carbs":
		return &m.Carbs
	case "fat":
		return &m.Fat
	case "fiber":
		return &m.Fiber
	case "vitamin_d":
		return &m.VitaminD
	case "vitamin_a":
		return &m.VitaminA
	case "vitamin_c":
		return &m.VitaminC
	case "iron":
		return &m.Iron
	case "calcium":
		return &m.Calcium
	case "magnesium":
		return &m.Magnesium
	case "potassium":
		return &m.Potassium
	case "zinc":
		return &m.Zinc
	}
	return nil
}

// Nutrients lists every nutrient with its label.
func (m Meal) Nutrients() []Nutrient {
	out := make([]Nutrient, 0, len(NutrientFields))
	for _, key := range NutrientFields {
		out = append(out, Nutrient{Key: key, Label: nutrientLabels[key], Value: m.Nutrient(key)})
	}
	return out
}

// MacroGrams parses the protein, carbs and fat strings for the breakdown
// chart. Values that carry no number count as 0.
func (m Meal) MacroGrams() (protein, carbs, fat float64) {
	return ParseGrams(m.Protein), ParseGrams(m.Carbs), ParseGrams(m.Fat)
}

// ParseGrams keeps the digits and dots of s and parses the result, so "12g"
// and "12.5 g" both work.
func ParseGrams(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// HealthScore is the service's daily rating of the user's logged meals.
// NotEnoughData is set when the service has nothing to rate yet; Rating and
// Explanation are then empty.
type HealthScore struct {
	Rating        int    `json:"rating" yaml:"rating"`
	Explanation   string `json:"explanation" yaml:"explanation"`
	NotEnoughData bool   `json:"not_enough_data,omitempty" yaml:"not_enough_data,omitempty"`
}

const (
	MinRating = 0
	MaxRating = 100
)
