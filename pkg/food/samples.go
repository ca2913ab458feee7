package food

// SampleRecipes returns the hard-coded recipes featured on the home screen.
func SampleRecipes() []Recipe {
	plain := func(names ...string) []Ingredient {
		out := make([]Ingredient, len(names))
		for i, n := range names {
			out[i] = PlainIngredient(n)
		}
		return out
	}
	return []Recipe{
		{
			ID:          1,
			Name:        "Veggie Stir Fry",
			Description: "Quick and healthy stir fry with seasonal vegetables",
			Time:        "20 min",
			Servings:    2,
			Ingredients: plain("Bell peppers", "Broccoli", "Carrots", "Soy sauce", "Garlic", "Ginger"),
			Instructions: []string{
				"Chop all vegetables into bite-sized pieces",
				"Heat oil in a wok over high heat",
				"Add garlic and ginger, stir for 30 seconds",
				"Add vegetables and stir fry for 5-7 minutes",
				"Add soy sauce and toss to coat",
			},
			Category: CategoryOther,
		},
		{
			ID:          2,
			Name:        "Pasta Primavera",
			Description: "Classic Italian pasta with fresh garden vegetables",
			Time:        "25 min",
			Servings:    4,
			Ingredients: plain("Pasta", "Zucchini", "Tomatoes", "Parmesan", "Olive oil", "Basil"),
			Instructions: []string{
				"Cook pasta according to package directions",
				"Sauté zucchini in olive oil until tender",
				"Add tomatoes and cook for 2 minutes",
				"Toss with drained pasta",
				"Top with parmesan and fresh basil",
			},
			Category: CategoryPasta,
		},
		{
			ID:          3,
			Name:        "Chicken Salad",
			Description: "Light and refreshing salad with grilled chicken",
			Time:        "15 min",
			Servings:    2,
			Ingredients: plain("Chicken breast", "Mixed greens", "Cucumber", "Cherry tomatoes", "Olive oil", "Lemon"),
			Instructions: []string{
				"Grill chicken breast until cooked through",
				"Let chicken rest, then slice",
				"Arrange greens on plates",
				"Top with cucumber, tomatoes, and chicken",
				"Drizzle with olive oil and lemon juice",
			},
			Category: CategorySalad,
		},
		{
			ID:          4,
			Name:        "Mushroom Omelette",
			Description: "Fluffy eggs with sautéed mushrooms and herbs",
			Time:        "10 min",
			Servings:    1,
			Ingredients: plain("Eggs", "Mushrooms", "Butter", "Chives", "Salt", "Pepper"),
			Instructions: []string{
				"Sauté sliced mushrooms in butter",
				"Beat eggs with salt and pepper",
				"Pour eggs into pan over medium heat",
				"Add mushrooms to one side",
				"Fold omelette and serve with chives",
			},
			Category: CategoryOther,
		},
	}
}
