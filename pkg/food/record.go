package food

// RecipeRecord is the recipe shape on the wire: what the analysis service
// returns, what the save endpoint accepts and what the list endpoints
// serve. It differs from Recipe in naming (title/steps) and carries no
// display fields.
type RecipeRecord struct {
	ID          int64        `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string       `json:"title" yaml:"title"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
	Macros      Macros       `json:"macros" yaml:"macros"`
	Steps       []string     `json:"steps" yaml:"steps"`
	Category    Category     `json:"category,omitempty" yaml:"category,omitempty"`
}

// Record converts r to its wire shape. Nil slices become empty ones.
func (r Recipe) Record() RecipeRecord {
	rec := RecipeRecord{
		ID:          r.ID,
		Title:       r.Name,
		Ingredients: cloneIngredients(r.Ingredients),
		Steps:       cloneStrings(r.Instructions),
		Category:    r.Category,
	}
	if r.Macros != nil {
		rec.Macros = r.Macros.Clone()
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []Ingredient{}
	}
	if rec.Steps == nil {
		rec.Steps = []string{}
	}
	return rec
}

// Recipe maps the record into the view model with the given id.
func (rec RecipeRecord) Recipe(id int64) Recipe {
	m := rec.Macros
	return NewRecipe(id, rec.Title, rec.Ingredients, rec.Steps, string(rec.Category), &m)
}
