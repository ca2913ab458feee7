package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/screen"
	"github.com/foodfriend/foodfriend/pkg/session"
)

// mealsHistoryView lists the meals of one day, stepping a day at a time.
type mealsHistoryView struct {
	base
	day    time.Time
	today  time.Time
	meals  *screen.Loader[[]food.Meal]
	cursor int
}

func newMealsHistoryView(a *App) *mealsHistoryView {
	now := a.opts.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	v := &mealsHistoryView{base: newBase(a), day: today, today: today}
	v.meals = screen.NewLoader[[]food.Meal](func(ctx context.Context, date string) ([]food.Meal, error) {
		return a.opts.API.MealsForDay(ctx, a.userID(), date, api.DayMealsLimit)
	}, nil)
	v.own(v.meals)
	return v
}

func (v *mealsHistoryView) route() session.Route { return session.RouteMealsHistory }

func (v *mealsHistoryView) init(a *App) tea.Cmd {
	v.cursor = 0
	return load(v.ctx, v.meals, v.day.Format(food.DateLayout), "meals for day")
}

func (v *mealsHistoryView) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	meals := v.meals.Value()
	switch key.String() {
	case "left", "h":
		v.day = v.day.AddDate(0, 0, -1)
		return v.init(a)
	case "right", "l":
		if v.day.Before(v.today) {
			v.day = v.day.AddDate(0, 0, 1)
			return v.init(a)
		}
	case "r":
		return v.init(a)
	case "enter":
		if v.meals.Status() == screen.StatusSuccess && v.cursor < len(meals) {
			return a.push(newMealView(a, meals[v.cursor], false))
		}
	default:
		v.cursor = moveCursor(key.String(), v.cursor, len(meals))
	}
	return nil
}

func (v *mealsHistoryView) render(a *App) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Meals"))
	b.WriteString("\n")
	label := v.day.Format("Mon 2 Jan 2006")
	if v.day.Equal(v.today) {
		label += " (today)"
	}
	b.WriteString("‹ " + headingStyle.Render(label) + " ›\n\n")

	if s, ok := renderStatus(a, v.meals.Status(), "No meals logged on this day."); ok {
		b.WriteString(s + "\n")
	} else {
		total := 0
		for i, m := range v.meals.Value() {
			total += m.Calories
			line := fmt.Sprintf("%s %s", m.Title, mutedStyle.Render(fmt.Sprintf("%d kcal · %s protein", m.Calories, orDash(m.Protein))))
			b.WriteString(cursor(v.cursor == i, line) + "\n")
		}
		b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("Total: %d kcal", total)) + "\n")
	}
	return b.String() + hintStyle.Render("←/→ day · enter open · r refresh")
}

// mealView shows a meal's nutrients, either just tracked or from history.
type mealView struct {
	base
	meal    food.Meal
	tracked bool
}

func newMealView(a *App, m food.Meal, tracked bool) *mealView {
	return &mealView{base: newBase(a), meal: m, tracked: tracked}
}

func (v *mealView) route() session.Route { return session.RouteMealTracked }

func (v *mealView) init(a *App) tea.Cmd { return nil }

func (v *mealView) update(a *App, msg tea.Msg) tea.Cmd { return nil }

func (v *mealView) render(a *App) string {
	m := v.meal
	var b strings.Builder
	if v.tracked {
		b.WriteString(goodStyle.Render("Meal tracked") + "\n")
	}
	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(headingStyle.Render(fmt.Sprintf("%d kcal", m.Calories)))
	if m.Date != "" {
		b.WriteString("  " + mutedStyle.Render(m.Date))
	}
	b.WriteString("\n\n")

	p, c, f := m.MacroGrams()
	b.WriteString(macroBars(p, c, f) + "\n\n")

	b.WriteString(headingStyle.Render("Nutrients") + "\n")
	for _, n := range m.Nutrients() {
		b.WriteString(fmt.Sprintf("  %-10s %s\n", n.Label, orDash(n.Value)))
	}
	if len(m.Ingredients) > 0 {
		b.WriteString("\n" + headingStyle.Render("Ingredients") + "\n")
		for _, ing := range m.Ingredients {
			b.WriteString("  • " + ing + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "–"
	}
	return s
}
