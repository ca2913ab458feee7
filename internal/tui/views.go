package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/screen"
	"github.com/foodfriend/foodfriend/pkg/session"
)

// base holds the lifetime of one mounted screen.
type base struct {
	ctx     context.Context
	cancel  context.CancelFunc
	loaders []interface{ Stop() }
}

func newBase(a *App) base {
	ctx, cancel := context.WithCancel(a.ctx)
	return base{ctx: ctx, cancel: cancel}
}

func (b *base) own(l interface{ Stop() }) {
	b.loaders = append(b.loaders, l)
}

func (b *base) stop() {
	for _, l := range b.loaders {
		l.Stop()
	}
	b.cancel()
}

func (b *base) capturesKeys() bool { return false }

func moveCursor(key string, cur, n int) int {
	switch key {
	case "up", "k":
		if cur > 0 {
			cur--
		}
	case "down", "j":
		if cur < n-1 {
			cur++
		}
	}
	return cur
}

// signInView is the only screen reachable without a session.
type signInView struct {
	base
	busy bool
	err  error
}

func newSignInView(a *App) *signInView {
	return &signInView{base: newBase(a)}
}

func (v *signInView) route() session.Route { return session.RouteSignIn }

func (v *signInView) init(a *App) tea.Cmd { return nil }

func (v *signInView) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || key.String() != "enter" || v.busy {
		return nil
	}
	if a.opts.SignIn == nil {
		v.err = errors.New("sign-in is not configured")
		return nil
	}
	v.busy, v.err = true, nil
	ctx, signIn := v.ctx, a.opts.SignIn
	return func() tea.Msg {
		s, err := signIn(ctx)
		return signedInMsg{session: s, err: err}
	}
}

func (v *signInView) render(a *App) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("FoodFriend"))
	b.WriteString("\nSnap a dish, get the recipe. Track what you eat.\n\n")
	switch {
	case v.busy:
		b.WriteString(a.spinner.View() + " Finish signing in in your browser...")
	case v.err != nil:
		b.WriteString(errorStyle.Render("Sign-in failed. Press enter to try again."))
	default:
		b.WriteString("Press enter to sign in.")
	}
	return b.String() + "\n" + hintStyle.Render("enter sign in · q quit")
}

// homeView shows the daily health score, the categories and the featured
// recipes.
type homeView struct {
	base
	score   *screen.Loader[food.HealthScore]
	samples []food.Recipe
	cursor  int
}

func newHomeView(a *App) *homeView {
	v := &homeView{base: newBase(a), samples: food.SampleRecipes()}
	v.score = screen.NewLoader[food.HealthScore](func(ctx context.Context, userID string) (food.HealthScore, error) {
		return a.opts.API.HealthScore(ctx, userID)
	}, func(s food.HealthScore) bool { return s.NotEnoughData })
	v.own(v.score)
	return v
}

func (v *homeView) route() session.Route { return session.RouteHome }

func (v *homeView) init(a *App) tea.Cmd {
	return load(v.ctx, v.score, a.userID(), "health score")
}

func (v *homeView) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	n := len(food.Categories) + len(v.samples)
	switch key.String() {
	case "r":
		return v.init(a)
	case "m":
		return a.push(newMealsHistoryView(a))
	case "enter":
		if v.cursor < len(food.Categories) {
			return a.push(newCategoryView(a, food.Categories[v.cursor]))
		}
		i := v.cursor - len(food.Categories)
		samples := v.samples
		return a.push(newRecipeView(a, func() (food.Recipe, bool) {
			if i < 0 || i >= len(samples) {
				return food.Recipe{}, false
			}
			return samples[i].Clone(), true
		}, false))
	default:
		v.cursor = moveCursor(key.String(), v.cursor, n)
	}
	return nil
}

func (v *homeView) render(a *App) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Today's health score"))
	b.WriteString("\n")
	if s, ok := renderStatus(a, v.score.Status(), "Not enough data yet. Track a meal to get your score."); ok {
		b.WriteString(boxStyle.Render(s))
	} else {
		hs := v.score.Value()
		style := goodStyle
		if hs.Rating < 50 {
			style = errorStyle
		}
		b.WriteString(boxStyle.Render(style.Render(fmt.Sprintf("%d / %d", hs.Rating, food.MaxRating)) + "\n" + hs.Explanation))
	}

	b.WriteString("\n\n" + headingStyle.Render("Categories") + "\n")
	for i, c := range food.Categories {
		b.WriteString(cursor(v.cursor == i, categoryBadge(c)) + "\n")
	}
	b.WriteString("\n" + headingStyle.Render("Featured recipes") + "\n")
	for i, r := range v.samples {
		line := r.Name + " " + mutedStyle.Render(r.Description)
		b.WriteString(cursor(v.cursor == len(food.Categories)+i, line) + "\n")
	}
	return b.String() + hintStyle.Render("↑/↓ move · enter open · m meals · r refresh · 1-3 tabs · q quit")
}

// renderRecipe is the detail layout shared by every recipe screen.
func renderRecipe(r food.Recipe) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Name))
	b.WriteString("\n")
	if r.Category != "" {
		b.WriteString(categoryBadge(r.Category) + "  ")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %d serving(s)", r.Time, r.Servings)))
	b.WriteString("\n")
	if r.Description != "" {
		b.WriteString(r.Description + "\n")
	}

	b.WriteString("\n" + headingStyle.Render("Ingredients") + "\n")
	if len(r.Ingredients) == 0 {
		b.WriteString(mutedStyle.Render("  none listed") + "\n")
	}
	for _, ing := range r.Ingredients {
		b.WriteString("  • " + ing.String() + "\n")
	}

	b.WriteString("\n" + headingStyle.Render("Instructions") + "\n")
	if len(r.Instructions) == 0 {
		b.WriteString(mutedStyle.Render("  none listed") + "\n")
	}
	for i, step := range r.Instructions {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
	}

	if r.Macros != nil {
		b.WriteString("\n" + headingStyle.Render("Macros") + "\n")
		b.WriteString(macroBars(r.Macros.Protein, r.Macros.Carbs, r.Macros.Fat) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
