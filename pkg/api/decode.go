package api

import (
	"fmt"

	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/tidwall/gjson"
)

// recipePayload is the recipe shape shared by the analysis, list and get
// endpoints.
type recipePayload struct {
	ID          int64
	HasID       bool
	Title       string
	Ingredients []food.Ingredient
	Steps       []string
	Category    string
	Macros      *food.Macros
}

func (p recipePayload) recipe(id int64) food.Recipe {
	return food.NewRecipe(id, p.Title, p.Ingredients, p.Steps, p.Category, p.Macros)
}

func parseRoot(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &DecodeError{Reason: "body is not valid JSON"}
	}
	return gjson.ParseBytes(body), nil
}

func decodeRecipeBody(body []byte, needID bool) (recipePayload, error) {
	root, err := parseRoot(body)
	if err != nil {
		return recipePayload{}, err
	}
	return decodeRecipe(root, "", needID)
}

// decodeAnalysis decodes an analysed dish. Unlike saved recipes it must
// carry macros, since they become the recipe description.
func decodeAnalysis(body []byte) (recipePayload, error) {
	p, err := decodeRecipeBody(body, false)
	if err != nil {
		return p, err
	}
	if p.Macros == nil {
		return p, &DecodeError{Field: "macros", Reason: "missing"}
	}
	return p, nil
}

func decodeRecipeList(body []byte) ([]recipePayload, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, &DecodeError{Reason: "expected an array"}
	}
	items := root.Array()
	out := make([]recipePayload, 0, len(items))
	for i, item := range items {
		p, err := decodeRecipe(item, fmt.Sprintf("[%d].", i), true)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeRecipe(r gjson.Result, prefix string, needID bool) (recipePayload, error) {
	var p recipePayload
	if !r.IsObject() {
		return p, &DecodeError{Field: prefix, Reason: "expected an object"}
	}

	if id := r.Get("id"); id.Exists() {
		if id.Type != gjson.Number {
			return p, &DecodeError{Field: prefix + "id", Reason: "expected a number"}
		}
		p.ID, p.HasID = id.Int(), true
	} else if needID {
		return p, &DecodeError{Field: prefix + "id", Reason: "missing"}
	}

	title := r.Get("title")
	if title.Type != gjson.String {
		return p, &DecodeError{Field: prefix + "title", Reason: "expected a string"}
	}
	p.Title = title.Str

	macros := r.Get("macros")
	switch {
	case !macros.Exists() || macros.Type == gjson.Null:
	case macros.IsObject():
		values := map[string]float64{}
		var bad string
		macros.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.Number {
				bad = key.String()
				return false
			}
			values[key.String()] = value.Num
			return true
		})
		if bad != "" {
			return p, &DecodeError{Field: prefix + "macros." + bad, Reason: "expected a number"}
		}
		m := food.MacrosFromMap(values)
		p.Macros = &m
	default:
		return p, &DecodeError{Field: prefix + "macros", Reason: "expected an object"}
	}

	ingredients := r.Get("ingredients")
	if !ingredients.IsArray() {
		return p, &DecodeError{Field: prefix + "ingredients", Reason: "expected an array"}
	}
	for i, item := range ingredients.Array() {
		ing, err := decodeIngredient(item)
		if err != nil {
			return p, &DecodeError{Field: fmt.Sprintf("%singredients[%d]", prefix, i), Reason: err.Error()}
		}
		p.Ingredients = append(p.Ingredients, ing)
	}
	if p.Ingredients == nil {
		p.Ingredients = []food.Ingredient{}
	}

	steps, err := stringArray(r.Get("steps"), prefix+"steps")
	if err != nil {
		return p, err
	}
	p.Steps = steps

	if category := r.Get("category"); category.Exists() && category.Type != gjson.Null {
		if category.Type != gjson.String {
			return p, &DecodeError{Field: prefix + "category", Reason: "expected a string"}
		}
		p.Category = category.Str
	}
	return p, nil
}

func decodeIngredient(r gjson.Result) (food.Ingredient, error) {
	switch {
	case r.Type == gjson.String:
		return food.PlainIngredient(r.Str), nil
	case r.IsObject():
		name := r.Get("name")
		if name.Type != gjson.String {
			return food.Ingredient{}, fmt.Errorf("name must be a string")
		}
		ing := food.Ingredient{Name: name.Str}
		if q := r.Get("quantity"); q.Exists() && q.Type != gjson.Null {
			if q.Type != gjson.Number {
				return food.Ingredient{}, fmt.Errorf("quantity must be a number")
			}
			v := q.Num
			ing.Quantity = &v
		}
		if u := r.Get("unit"); u.Exists() && u.Type != gjson.Null {
			if u.Type != gjson.String {
				return food.Ingredient{}, fmt.Errorf("unit must be a string")
			}
			ing.Unit = u.Str
		}
		return ing, nil
	}
	return food.Ingredient{}, fmt.Errorf("expected a string or an object")
}

func stringArray(r gjson.Result, field string) ([]string, error) {
	if !r.IsArray() {
		return nil, &DecodeError{Field: field, Reason: "expected an array"}
	}
	items := r.Array()
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, &DecodeError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: "expected a string"}
		}
		out = append(out, item.Str)
	}
	return out, nil
}

func decodeMealBody(body []byte) (food.Meal, error) {
	root, err := parseRoot(body)
	if err != nil {
		return food.Meal{}, err
	}
	return decodeMeal(root, "")
}

func decodeMealList(body []byte) ([]food.Meal, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, &DecodeError{Reason: "expected an array"}
	}
	items := root.Array()
	out := make([]food.Meal, 0, len(items))
	for i, item := range items {
		m, err := decodeMeal(item, fmt.Sprintf("[%d].", i))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// decodeMeal maps the meal object field for field. Title and calories are
// required; nutrients may be missing but must be strings when present.
func decodeMeal(r gjson.Result, prefix string) (food.Meal, error) {
	var m food.Meal
	if !r.IsObject() {
		return m, &DecodeError{Field: prefix, Reason: "expected an object"}
	}
	if id := r.Get("id"); id.Exists() {
		if id.Type != gjson.Number {
			return m, &DecodeError{Field: prefix + "id", Reason: "expected a number"}
		}
		m.ID = id.Int()
	}
	title := r.Get("title")
	if title.Type != gjson.String {
		return m, &DecodeError{Field: prefix + "title", Reason: "expected a string"}
	}
	m.Title = title.Str

	calories := r.Get("calories")
	if calories.Type != gjson.Number {
		return m, &DecodeError{Field: prefix + "calories", Reason: "expected a number"}
	}
	m.Calories = int(calories.Int())

	if date := r.Get("date"); date.Exists() && date.Type != gjson.Null {
		if date.Type != gjson.String {
			return m, &DecodeError{Field: prefix + "date", Reason: "expected a string"}
		}
		m.Date = date.Str
	}

	for _, key := range food.NutrientFields {
		v := r.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if v.Type != gjson.String {
			return m, &DecodeError{Field: prefix + key, Reason: "expected a string"}
		}
		m.SetNutrient(key, v.Str)
	}

	if ings := r.Get("ingredients"); ings.Exists() && ings.Type != gjson.Null {
		list, err := stringArray(ings, prefix+"ingredients")
		if err != nil {
			return m, err
		}
		m.Ingredients = list
	}
	return m, nil
}

func decodeHealthScore(body []byte) (food.HealthScore, error) {
	root, err := parseRoot(body)
	if err != nil {
		return food.HealthScore{}, err
	}
	if !root.IsObject() {
		return food.HealthScore{}, &DecodeError{Reason: "expected an object"}
	}
	if root.Get("not_enough_data").Type == gjson.True {
		return food.HealthScore{NotEnoughData: true}, nil
	}
	rating := root.Get("rating")
	if rating.Type != gjson.Number {
		return food.HealthScore{}, &DecodeError{Field: "rating", Reason: "expected a number"}
	}
	if rating.Num < food.MinRating || rating.Num > food.MaxRating {
		return food.HealthScore{}, &DecodeError{Field: "rating", Reason: "out of range"}
	}
	explanation := root.Get("explanation")
	if explanation.Type != gjson.String {
		return food.HealthScore{}, &DecodeError{Field: "explanation", Reason: "expected a string"}
	}
	return food.HealthScore{Rating: int(rating.Int()), Explanation: explanation.Str}, nil
}
