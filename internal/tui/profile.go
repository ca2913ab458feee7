package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/screen"
	"github.com/foodfriend/foodfriend/pkg/session"
)

// profileView shows the signed-in user and their saved recipes.
type profileView struct {
	base
	saved  *screen.Loader[[]food.Recipe]
	cursor int
}

func newProfileView(a *App) *profileView {
	v := &profileView{base: newBase(a)}
	v.saved = screen.NewLoader[[]food.Recipe](func(ctx context.Context, userID string) ([]food.Recipe, error) {
		return a.opts.API.SavedRecipes(ctx, userID)
	}, nil)
	v.own(v.saved)
	return v
}

func (v *profileView) route() session.Route { return session.RouteProfile }

func (v *profileView) init(a *App) tea.Cmd {
	v.cursor = 0
	return load(v.ctx, v.saved, a.userID(), "saved recipes")
}

func (v *profileView) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	recipes := v.saved.Value()
	switch key.String() {
	case "r":
		return v.init(a)
	case "o":
		return a.signOut()
	case "m":
		return a.push(newMealsHistoryView(a))
	case "enter":
		if v.saved.Status() == screen.StatusSuccess && v.cursor < len(recipes) {
			return a.push(newSavedView(a, recipes[v.cursor].ID))
		}
	default:
		v.cursor = moveCursor(key.String(), v.cursor, len(recipes))
	}
	return nil
}

func (v *profileView) render(a *App) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Profile"))
	b.WriteString("\n")
	if s, err := a.opts.Gate.Session(); err == nil {
		name := s.Name
		if name == "" {
			name = s.UserID
		}
		b.WriteString(headingStyle.Render(name) + "\n")
		if s.Email != "" {
			b.WriteString(mutedStyle.Render(s.Email) + "\n")
		}
	}
	b.WriteString("\n" + headingStyle.Render("Saved recipes") + "\n")
	if s, ok := renderStatus(a, v.saved.Status(), "You have not saved any recipes yet."); ok {
		b.WriteString(s + "\n")
	} else {
		b.WriteString(renderRecipeList(v.saved.Value(), v.cursor))
	}
	return b.String() + hintStyle.Render("enter open · m meals · r refresh · o sign out · 1-3 tabs · q quit")
}
