package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/screen"
)

var (
	colorAccent = lipgloss.Color("#5B8DEF")
	colorMuted  = lipgloss.Color("#888888")
	colorError  = lipgloss.Color("#FF6B6B")
	colorGood   = lipgloss.Color("#4CAF50")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	headingStyle   = lipgloss.NewStyle().Bold(true)
	hintStyle      = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	goodStyle      = lipgloss.NewStyle().Foreground(colorGood)
	selectedStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorMuted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(colorAccent).Underline(true)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)

	categoryColors = map[food.Category]lipgloss.Color{
		food.CategoryPizza:  "#FF6B6B",
		food.CategoryPasta:  "#F7B801",
		food.CategorySalad:  "#4CAF50",
		food.CategoryBurger: "#A0522D",
		food.CategorySushi:  "#FF8FAB",
		food.CategoryTacos:  "#FFA500",
		food.CategoryOther:  "#AAAAAA",
	}
)

// Messages for the non-success loader states. Causes go to the log only.
const (
	msgLoadError = "Something went wrong. Press r to try again."
	msgNotFound  = "Recipe not found."
)

// renderStatus renders a loader that is not in the success state. ok is
// false when the caller should render the value instead.
func renderStatus(a *App, status screen.Status, empty string) (string, bool) {
	switch status {
	case screen.StatusIdle, screen.StatusLoading:
		return a.spinner.View() + " Loading...", true
	case screen.StatusError:
		return errorStyle.Render(msgLoadError), true
	case screen.StatusEmpty:
		return mutedStyle.Render(empty), true
	}
	return "", false
}

func categoryBadge(c food.Category) string {
	color, ok := categoryColors[c]
	if !ok {
		color = categoryColors[food.CategoryOther]
	}
	return lipgloss.NewStyle().Foreground(color).Render("● " + c.Title())
}

func cursor(selected bool, s string) string {
	if selected {
		return selectedStyle.Render("> " + s)
	}
	return "  " + s
}

const barWidth = 24

// macroBars renders one bar per macro, scaled to its share of the total.
func macroBars(protein, carbs, fat float64) string {
	p, c, f := food.MacroShare(protein, carbs, fat)
	rows := []struct {
		label string
		grams float64
		share float64
		color lipgloss.Color
	}{
		{"Protein", protein, p, "#5B8DEF"},
		{"Carbs", carbs, c, "#F7B801"},
		{"Fat", fat, f, "#FF6B6B"},
	}
	var b strings.Builder
	for _, r := range rows {
		n := int(r.share/100*barWidth + 0.5)
		bar := lipgloss.NewStyle().Foreground(r.color).Render(strings.Repeat("█", n)) +
			mutedStyle.Render(strings.Repeat("░", barWidth-n))
		fmt.Fprintf(&b, "%-8s %s %sg (%.0f%%)\n", r.label, bar, food.FormatNumber(r.grams), r.share)
	}
	return strings.TrimRight(b.String(), "\n")
}
