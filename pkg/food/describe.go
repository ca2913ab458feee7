package food

import "fmt"

// MacroSummary renders the recipe description used across the app:
// "{protein}g protein, {carbs}g carbs, {fat}g fat". A nil record yields "".
func MacroSummary(m *Macros) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%sg protein, %sg carbs, %sg fat",
		FormatNumber(m.Protein), FormatNumber(m.Carbs), FormatNumber(m.Fat))
}

// MacroShare returns each macro's share of the total grams, in percent.
// All zeros yields all zeros.
func MacroShare(protein, carbs, fat float64) (p, c, f float64) {
	total := protein + carbs + fat
	if total <= 0 {
		return 0, 0, 0
	}
	return protein / total * 100, carbs / total * 100, fat / total * 100
}
