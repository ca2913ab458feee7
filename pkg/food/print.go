package food

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PrintRecipes writes one line per recipe built from outputFlags:
// i (id), t (title), d (description), c (category), m (time).
func PrintRecipes(w io.Writer, recipes []Recipe, outputFlags string, delimiter string) error {
	for _, r := range recipes {
		line, err := createRecipeLine(r, outputFlags, delimiter)
		if err != nil {
			return err
		}
		if len(line) > 0 {
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

func createRecipeLine(r Recipe, outputFlags, delimiter string) (string, error) {
	var line string
	for _, f := range outputFlags {
		switch f {
		case 'i':
			line += strconv.FormatInt(r.ID, 10) + delimiter
		case 't':
			line += r.Name + delimiter
		case 'd':
			line += r.Description + delimiter
		case 'c':
			line += string(r.Category) + delimiter
		case 'm':
			line += r.Time + delimiter
		default:
			return "", fmt.Errorf("invalid print flag %q", f)
		}
	}
	return strings.TrimSuffix(line, delimiter), nil
}

// PrintRecipe writes the full detail view of one recipe.
func PrintRecipe(w io.Writer, r Recipe) {
	fmt.Fprintln(w, r.Name)
	if r.Description != "" {
		fmt.Fprintln(w, r.Description)
	}
	fmt.Fprintf(w, "%s · %d servings · %s\n", r.Time, r.Servings, r.Category)
	fmt.Fprintln(w, "\nIngredients")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(w, "  • %s\n", ing)
	}
	fmt.Fprintln(w, "\nInstructions")
	for i, step := range r.Instructions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
}

// PrintMeals writes one line per meal. Flags: i (id), t (title),
// k (calories), p (protein/carbs/fat), c (date).
func PrintMeals(w io.Writer, meals []Meal, outputFlags string, delimiter string) error {
	for _, m := range meals {
		var line string
		for _, f := range outputFlags {
			switch f {
			case 'i':
				line += strconv.FormatInt(m.ID, 10) + delimiter
			case 't':
				line += m.Title + delimiter
			case 'k':
				line += strconv.Itoa(m.Calories) + " kcal" + delimiter
			case 'p':
				line += fmt.Sprintf("P %s C %s F %s", m.Protein, m.Carbs, m.Fat) + delimiter
			case 'c':
				line += m.Date + delimiter
			default:
				return fmt.Errorf("invalid print flag %q", f)
			}
		}
		if line = strings.TrimSuffix(line, delimiter); line != "" {
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

// PrintMeal writes the full nutrient breakdown of one meal.
func PrintMeal(w io.Writer, m Meal) {
	fmt.Fprintf(w, "%s (%d kcal) %s\n", m.Title, m.Calories, m.Date)
	for _, n := range m.Nutrients() {
		fmt.Fprintf(w, "  %-10s %s\n", n.Label, n.Value)
	}
	if len(m.Ingredients) > 0 {
		fmt.Fprintf(w, "Detected: %s\n", strings.Join(m.Ingredients, ", "))
	}
}

// PrintHealthScore writes the home screen summary.
func PrintHealthScore(w io.Writer, s HealthScore) {
	if s.NotEnoughData {
		fmt.Fprintln(w, "Not enough data yet. Track a meal to get your health score.")
		return
	}
	fmt.Fprintf(w, "Health score: %d/100\n%s\n", s.Rating, s.Explanation)
}
