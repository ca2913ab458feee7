package food

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Recipe is the view model shared by every recipe screen. Ingredients and
// Instructions are fixed once the recipe is built: NewRecipe and Clone copy
// them, and the shared store only hands out clones.
type Recipe struct {
	ID           int64        `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description" yaml:"description"`
	Time         string       `json:"time" yaml:"time"`
	Servings     int          `json:"servings" yaml:"servings"`
	Ingredients  []Ingredient `json:"ingredients" yaml:"ingredients"`
	Instructions []string     `json:"instructions" yaml:"instructions"`
	Category     Category     `json:"category,omitempty" yaml:"category,omitempty"`
	Macros       *Macros      `json:"macros,omitempty" yaml:"macros,omitempty"`
	Image        string       `json:"image,omitempty" yaml:"image,omitempty"`
}

const (
	// DefaultTime and DefaultServings fill recipes built from API payloads,
	// which carry neither.
	DefaultTime     = "30 min"
	DefaultServings = 1
)

// NewRecipe builds a recipe from a remote payload: the description is the
// macro summary and the category is normalised.
func NewRecipe(id int64, title string, ingredients []Ingredient, steps []string, category string, macros *Macros) Recipe {
	r := Recipe{
		ID:           id,
		Name:         title,
		Description:  MacroSummary(macros),
		Time:         DefaultTime,
		Servings:     DefaultServings,
		Ingredients:  cloneIngredients(ingredients),
		Instructions: cloneStrings(steps),
		Category:     NormalizeCategory(category),
	}
	if macros != nil {
		m := macros.Clone()
		r.Macros = &m
	}
	return r
}

// Clone returns a deep copy.
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = cloneIngredients(r.Ingredients)
	out.Instructions = cloneStrings(r.Instructions)
	if r.Macros != nil {
		m := r.Macros.Clone()
		out.Macros = &m
	}
	return out
}

// CloneRecipes deep-copies a recipe list.
func CloneRecipes(rs []Recipe) []Recipe {
	if rs == nil {
		return nil
	}
	out := make([]Recipe, len(rs))
	for i := range rs {
		out[i] = rs[i].Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneIngredients(in []Ingredient) []Ingredient {
	if in == nil {
		return nil
	}
	out := make([]Ingredient, len(in))
	for i, ing := range in {
		out[i] = ing
		if ing.Quantity != nil {
			q := *ing.Quantity
			out[i].Quantity = &q
		}
	}
	return out
}

// Ingredient unifies the two ingredient shapes found in API payloads: a bare
// name, or a {name, quantity, unit} record. A bare name has no quantity and
// no unit.
type Ingredient struct {
	Name     string   `json:"name" yaml:"name"`
	Quantity *float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit     string   `json:"unit" yaml:"unit,omitempty"`
}

// PlainIngredient builds an ingredient from a bare name.
func PlainIngredient(name string) Ingredient {
	return Ingredient{Name: name}
}

// Measured builds a structured ingredient.
func Measured(name string, quantity float64, unit string) Ingredient {
	return Ingredient{Name: name, Quantity: &quantity, Unit: unit}
}

// IsPlain reports whether the ingredient carries only a name.
func (i Ingredient) IsPlain() bool {
	return i.Quantity == nil && i.Unit == ""
}

// String renders "<qty> <unit> <name>", dropping missing parts.
func (i Ingredient) String() string {
	var parts []string
	if i.Quantity != nil {
		parts = append(parts, FormatNumber(*i.Quantity))
	}
	if i.Unit != "" {
		parts = append(parts, i.Unit)
	}
	parts = append(parts, i.Name)
	return strings.Join(parts, " ")
}

// MarshalJSON writes a plain ingredient back as a bare name.
func (i Ingredient) MarshalJSON() ([]byte, error) {
	if i.IsPlain() {
		return json.Marshal(i.Name)
	}
	type record Ingredient
	return json.Marshal(record(i))
}

// MarshalYAML mirrors MarshalJSON.
func (i Ingredient) MarshalYAML() (interface{}, error) {
	if i.IsPlain() {
		return i.Name, nil
	}
	type record Ingredient
	return record(i), nil
}

// UnmarshalJSON accepts either a JSON string or an object.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*i = PlainIngredient(name)
		return nil
	}
	type record Ingredient
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("ingredient: %w", err)
	}
	*i = Ingredient(r)
	return nil
}

// UnmarshalYAML lets recipe files list ingredients as plain strings too.
func (i *Ingredient) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		*i = PlainIngredient(name)
		return nil
	}
	type record Ingredient
	var r record
	if err := unmarshal(&r); err != nil {
		return err
	}
	*i = Ingredient(r)
	return nil
}

// Macros holds the gram breakdown. Keys other than protein, carbs and fat
// are kept in Extra.
type Macros struct {
	Protein float64
	Carbs   float64
	Fat     float64
	Extra   map[string]float64
}

// Clone returns a deep copy.
func (m Macros) Clone() Macros {
	out := m
	if m.Extra != nil {
		out.Extra = make(map[string]float64, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Map flattens the macros into a single key/value map.
func (m Macros) Map() map[string]float64 {
	out := make(map[string]float64, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["protein"] = m.Protein
	out["carbs"] = m.Carbs
	out["fat"] = m.Fat
	return out
}

// MacrosFromMap is the inverse of Map. Missing protein, carbs or fat are 0.
func MacrosFromMap(values map[string]float64) Macros {
	var m Macros
	for k, v := range values {
		switch strings.ToLower(k) {
		case "protein":
			m.Protein = v
		case "carbs":
			m.Carbs = v
		case "fat":
			m.Fat = v
		default:
			if m.Extra == nil {
				m.Extra = map[string]float64{}
			}
			m.Extra[k] = v
		}
	}
	return m
}

// ExtraKeys returns the extra macro names in a stable order.
func (m Macros) ExtraKeys() []string {
	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Macros) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

func (m *Macros) UnmarshalJSON(data []byte) error {
	var values map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("macros: %w", err)
	}
	*m = MacrosFromMap(values)
	return nil
}

func (m Macros) MarshalYAML() (interface{}, error) {
	return m.Map(), nil
}

func (m *Macros) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var values map[string]float64
	if err := unmarshal(&values); err != nil {
		return err
	}
	*m = MacrosFromMap(values)
	return nil
}

// Photo is a captured image after normalisation to JPEG. URI is the local
// reference the picker produced.
type Photo struct {
	URI  string
	JPEG []byte
}

// FormatNumber prints a float in its shortest form: 5, 2.5, 0.25.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
