package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/screen"
	"github.com/foodfriend/foodfriend/pkg/session"
)

type savedMsg struct {
	from view
	name string
	err  error
}

func (m savedMsg) sender() view { return m.from }

// saveRecipe saves r for the signed-in user and reports back to from.
func saveRecipe(ctx context.Context, from view, a *App, r food.Recipe) tea.Cmd {
	client, userID := a.opts.API, a.userID()
	return func() tea.Msg {
		return savedMsg{from: from, name: r.Name, err: client.SaveRecipe(ctx, r, userID)}
	}
}

func saveStatus(msg savedMsg) string {
	if msg.err != nil {
		utils.Log.Warnf("save recipe %q: %v", msg.name, msg.err)
		return errorStyle.Render("Could not save the recipe.")
	}
	return goodStyle.Render("Saved " + msg.name + " to your recipes.")
}

func renderRecipeList(recipes []food.Recipe, cur int) string {
	var b strings.Builder
	for i, r := range recipes {
		line := fmt.Sprintf("%s %s", r.Name, mutedStyle.Render(r.Description))
		b.WriteString(cursor(cur == i, line) + "\n")
	}
	return b.String()
}

// resultsView lists the recipes of the last capture from the shared store.
type resultsView struct {
	base
	cursor int
	status string
}

func newResultsView(a *App) *resultsView {
	return &resultsView{base: newBase(a)}
}

func (v *resultsView) route() session.Route { return session.RouteResults }

func (v *resultsView) init(a *App) tea.Cmd { return nil }

func (v *resultsView) update(a *App, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case savedMsg:
		if msg.from == view(v) {
			v.status = saveStatus(msg)
		}
	case tea.KeyMsg:
		recipes := a.opts.Store.Recipes()
		switch msg.String() {
		case "enter":
			if len(recipes) == 0 {
				return nil
			}
			i, store := v.cursor, a.opts.Store
			return a.push(newRecipeView(a, func() (food.Recipe, bool) { return store.Recipe(i) }, true))
		case "s":
			if r, ok := a.opts.Store.Recipe(v.cursor); ok {
				return saveRecipe(v.ctx, v, a, r)
			}
		default:
			v.cursor = moveCursor(msg.String(), v.cursor, len(recipes))
		}
	}
	return nil
}

func (v *resultsView) render(a *App) string {
	snap := a.opts.Store.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Results"))
	b.WriteString("\n")
	if snap.ImageURI != "" {
		b.WriteString(mutedStyle.Render("Photo: "+snap.ImageURI) + "\n\n")
	}
	if len(snap.Recipes) == 0 {
		b.WriteString(mutedStyle.Render("No recipes yet. Capture a dish from the Create tab.") + "\n")
	} else {
		b.WriteString(renderRecipeList(snap.Recipes, v.cursor))
	}
	if v.status != "" {
		b.WriteString("\n" + v.status + "\n")
	}
	return b.String() + hintStyle.Render("enter open · s save")
}

// recipeView shows one recipe found through lookup, usually an index into
// the shared list.
type recipeView struct {
	base
	lookup   func() (food.Recipe, bool)
	saveable bool
	status   string
}

func newRecipeView(a *App, lookup func() (food.Recipe, bool), saveable bool) *recipeView {
	return &recipeView{base: newBase(a), lookup: lookup, saveable: saveable}
}

func (v *recipeView) route() session.Route { return session.RouteRecipe }

func (v *recipeView) init(a *App) tea.Cmd { return nil }

func (v *recipeView) update(a *App, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case savedMsg:
		if msg.from == view(v) {
			v.status = saveStatus(msg)
		}
	case tea.KeyMsg:
		if msg.String() == "s" && v.saveable {
			if r, ok := v.lookup(); ok {
				return saveRecipe(v.ctx, v, a, r)
			}
		}
	}
	return nil
}

func (v *recipeView) render(a *App) string {
	r, ok := v.lookup()
	if !ok {
		return mutedStyle.Render(msgNotFound)
	}
	out := renderRecipe(r)
	if v.status != "" {
		out += "\n\n" + v.status
	}
	if v.saveable {
		out += "\n" + hintStyle.Render("s save")
	}
	return out
}

// categoryView lists global recipes of one category.
type categoryView struct {
	base
	category food.Category
	recipes  *screen.Loader[[]food.Recipe]
	cursor   int
}

func newCategoryView(a *App, c food.Category) *categoryView {
	v := &categoryView{base: newBase(a), category: c}
	v.recipes = screen.NewLoader[[]food.Recipe](func(ctx context.Context, category string) ([]food.Recipe, error) {
		return a.opts.API.GlobalRecipes(ctx, api.ListOptions{Limit: api.CategoryPageLimit, Category: category})
	}, nil)
	v.own(v.recipes)
	return v
}

func (v *categoryView) route() session.Route { return session.RouteCategory }

func (v *categoryView) init(a *App) tea.Cmd {
	v.cursor = 0
	return load(v.ctx, v.recipes, string(v.category), "category recipes")
}

func (v *categoryView) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	recipes := v.recipes.Value()
	switch key.String() {
	case "r":
		return v.init(a)
	case "enter":
		if v.recipes.Status() == screen.StatusSuccess && v.cursor < len(recipes) {
			return a.push(newSavedView(a, recipes[v.cursor].ID))
		}
	default:
		v.cursor = moveCursor(key.String(), v.cursor, len(recipes))
	}
	return nil
}

func (v *categoryView) render(a *App) string {
	head := titleStyle.Render(v.category.Title()+" recipes") + "\n"
	if s, ok := renderStatus(a, v.recipes.Status(), "No recipes in this category yet."); ok {
		return head + s
	}
	return head + renderRecipeList(v.recipes.Value(), v.cursor) + hintStyle.Render("enter open · r refresh")
}

// savedView fetches one saved recipe by id.
type savedView struct {
	base
	id     int64
	recipe *screen.Loader[food.Recipe]
}

func newSavedView(a *App, id int64) *savedView {
	v := &savedView{base: newBase(a), id: id}
	v.recipe = screen.NewLoader[food.Recipe](func(ctx context.Context, key string) (food.Recipe, error) {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return food.Recipe{}, err
		}
		return a.opts.API.Recipe(ctx, id)
	}, func(food.Recipe) bool { return false })
	v.own(v.recipe)
	return v
}

func (v *savedView) route() session.Route { return session.RouteSaved }

func (v *savedView) init(a *App) tea.Cmd {
	return load(v.ctx, v.recipe, strconv.FormatInt(v.id, 10), "saved recipe")
}

func (v *savedView) update(a *App, msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" {
		return v.init(a)
	}
	return nil
}

func (v *savedView) render(a *App) string {
	if v.recipe.Status() == screen.StatusError && errors.Is(v.recipe.Err(), api.ErrNotFound) {
		return mutedStyle.Render(msgNotFound)
	}
	if s, ok := renderStatus(a, v.recipe.Status(), msgNotFound); ok {
		return s
	}
	return renderRecipe(v.recipe.Value())
}
