package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/screen"
	"github.com/foodfriend/foodfriend/pkg/session"
)

type fakeAPI struct {
	byCategory map[string][]food.Recipe
	saved      []food.Recipe
	recipeErr  error
	scoreErr   error
	uploads    int
	savedCalls int
}

func (f *fakeAPI) AnalyzeForRecipe(ctx context.Context, photo food.Photo) (food.Recipe, error) {
	f.uploads++
	m := food.Macros{Protein: 5, Carbs: 10, Fat: 2}
	return food.NewRecipe(1, "Soup", []food.Ingredient{food.PlainIngredient("Water")}, []string{"Boil"}, "", &m), nil
}

func (f *fakeAPI) AnalyzeForMeal(ctx context.Context, photo food.Photo, userID string) (food.Meal, error) {
	f.uploads++
	return food.Meal{ID: 3, Title: "Oats", Calories: 350, Protein: "12g"}, nil
}

func (f *fakeAPI) SaveRecipe(ctx context.Context, r food.Recipe, userID string) error {
	f.savedCalls++
	return nil
}

func (f *fakeAPI) GlobalRecipes(ctx context.Context, opts api.ListOptions) ([]food.Recipe, error) {
	return f.byCategory[opts.Category], nil
}

func (f *fakeAPI) SavedRecipes(ctx context.Context, userID string) ([]food.Recipe, error) {
	return f.saved, nil
}

func (f *fakeAPI) Recipe(ctx context.Context, id int64) (food.Recipe, error) {
	if f.recipeErr != nil {
		return food.Recipe{}, f.recipeErr
	}
	return food.NewRecipe(id, "Saved", nil, nil, "pasta", nil), nil
}

func (f *fakeAPI) HealthScore(ctx context.Context, userID string) (food.HealthScore, error) {
	if f.scoreErr != nil {
		return food.HealthScore{}, f.scoreErr
	}
	return food.HealthScore{NotEnoughData: true}, nil
}

func (f *fakeAPI) MealsForDay(ctx context.Context, userID, date string, limit int) ([]food.Meal, error) {
	return nil, nil
}

func signedIn() *session.Gate {
	return session.NewGate(&session.Session{Token: "t", UserID: "user_1", Name: "Ann", ExpiresAt: time.Now().Add(time.Hour)})
}

func newTestApp(t *testing.T, fa *fakeAPI, gate *session.Gate) *App {
	t.Helper()
	a, err := NewApp(Options{API: fa, Gate: gate})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

// drain runs cmd and feeds its messages back into the app until nothing
// is left. Spinner ticks are dropped so the loop ends.
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, a, c)
		}
	default:
		_, next := a.Update(msg)
		drain(t, a, next)
	}
}

func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := a.Update(msg)
		drain(t, a, cmd)
	}
}

func TestUnauthenticatedRedirectsToSignIn(t *testing.T) {
	a := newTestApp(t, &fakeAPI{}, session.NewGate(nil))
	drain(t, a, a.Init())
	if a.Route() != session.RouteSignIn {
		t.Fatalf("route = %s, want sign-in", a.Route())
	}
	for _, tab := range []string{"1", "2", "3"} {
		press(t, a, tab)
		if a.Route() != session.RouteSignIn {
			t.Fatalf("tab %s reached %s without a session", tab, a.Route())
		}
	}
}

func TestSignInEstablishesSession(t *testing.T) {
	gate := session.NewGate(nil)
	a, err := NewApp(Options{API: &fakeAPI{}, Gate: gate, SignIn: func(ctx context.Context) (*session.Session, error) {
		return &session.Session{Token: "t", UserID: "user_1"}, nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	drain(t, a, a.Init())
	press(t, a, "enter")
	if a.Route() != session.RouteHome || gate.UserID() != "user_1" {
		t.Fatalf("route = %s, user = %q", a.Route(), gate.UserID())
	}
}

func TestSignOutReturnsToSignIn(t *testing.T) {
	a := newTestApp(t, &fakeAPI{}, signedIn())
	drain(t, a, a.Init())
	press(t, a, "3")
	if a.Route() != session.RouteProfile {
		t.Fatalf("route = %s", a.Route())
	}
	press(t, a, "o")
	if a.Route() != session.RouteSignIn {
		t.Fatalf("route after sign-out = %s", a.Route())
	}
}

func TestCategoryWithNoRecipesIsEmpty(t *testing.T) {
	a := newTestApp(t, &fakeAPI{}, signedIn())
	drain(t, a, a.Init())
	// The first home entry is the pizza category.
	press(t, a, "enter")
	v, ok := a.top().(*categoryView)
	if !ok || v.category != food.CategoryPizza {
		t.Fatalf("expected the pizza category, got %T", a.top())
	}
	if v.recipes.Status() != screen.StatusEmpty {
		t.Fatalf("status = %s, want empty", v.recipes.Status())
	}
	if !strings.Contains(a.View(), "No recipes in this category yet.") {
		t.Fatalf("empty message missing:\n%s", a.View())
	}
}

func TestResultAfterPopIsDropped(t *testing.T) {
	fa := &fakeAPI{byCategory: map[string][]food.Recipe{
		"pizza": {food.NewRecipe(9, "Margherita", nil, nil, "pizza", nil)},
	}}
	a := newTestApp(t, fa, signedIn())
	drain(t, a, a.Init())

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v, ok := a.top().(*categoryView)
	if !ok {
		t.Fatalf("expected category view, got %T", a.top())
	}
	press(t, a, "esc")
	if a.Route() != session.RouteHome {
		t.Fatalf("route after pop = %s", a.Route())
	}

	drain(t, a, cmd)
	if v.recipes.Status() != screen.StatusLoading || v.recipes.Value() != nil {
		t.Fatalf("late result landed: %s %v", v.recipes.Status(), v.recipes.Value())
	}
}

func TestScoreErrorIsShown(t *testing.T) {
	a := newTestApp(t, &fakeAPI{scoreErr: errors.New("boom")}, signedIn())
	drain(t, a, a.Init())
	if !strings.Contains(a.View(), msgLoadError) {
		t.Fatalf("error state missing:\n%s", a.View())
	}
}

func TestSavedRecipeNotFound(t *testing.T) {
	fa := &fakeAPI{recipeErr: fmt.Errorf("get recipe: %w", api.ErrNotFound)}
	a := newTestApp(t, fa, signedIn())
	drain(t, a, a.Init())
	drain(t, a, a.push(newSavedView(a, 42)))
	if !strings.Contains(a.View(), msgNotFound) {
		t.Fatalf("not found placeholder missing:\n%s", a.View())
	}
}

func TestRecipeIndexOutOfRange(t *testing.T) {
	a := newTestApp(t, &fakeAPI{}, signedIn())
	drain(t, a, a.Init())
	store := a.opts.Store
	drain(t, a, a.push(newRecipeView(a, func() (food.Recipe, bool) { return store.Recipe(5) }, true)))
	if !strings.Contains(a.View(), msgNotFound) {
		t.Fatalf("placeholder missing:\n%s", a.View())
	}
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dish.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return path
}

func typeText(a *App, text string) {
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestCaptureFromFileShowsResults(t *testing.T) {
	fa := &fakeAPI{}
	a := newTestApp(t, fa, signedIn())
	drain(t, a, a.Init())
	press(t, a, "2", "down", "down")
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(a, writePNG(t))
	press(t, a, "enter")

	if fa.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", fa.uploads)
	}
	if a.Route() != session.RouteResults {
		t.Fatalf("route = %s, want results", a.Route())
	}
	recipes := a.opts.Store.Recipes()
	if len(recipes) != 1 || recipes[0].Description != "5g protein, 10g carbs, 2g fat" {
		t.Fatalf("store = %+v", recipes)
	}
	press(t, a, "s")
	if fa.savedCalls != 1 || !strings.Contains(a.View(), "Saved Soup") {
		t.Fatalf("save not reported:\n%s", a.View())
	}
}

func TestCanceledCaptureUploadsNothing(t *testing.T) {
	fa := &fakeAPI{}
	a := newTestApp(t, fa, signedIn())
	drain(t, a, a.Init())
	press(t, a, "2", "down", "down")
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	// An empty path closes the picker without an image.
	press(t, a, "enter")

	if fa.uploads != 0 || a.Route() != session.RouteCreate {
		t.Fatalf("uploads = %d, route = %s", fa.uploads, a.Route())
	}
	if !strings.Contains(a.View(), "Capture canceled.") {
		t.Fatalf("cancel message missing:\n%s", a.View())
	}
}

func TestTrackMealFromFile(t *testing.T) {
	fa := &fakeAPI{}
	a := newTestApp(t, fa, signedIn())
	drain(t, a, a.Init())
	press(t, a, "2", "down", "down", "down", "down")
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(a, writePNG(t))
	press(t, a, "enter")

	if a.Route() != session.RouteMealTracked {
		t.Fatalf("route = %s", a.Route())
	}
	view := a.View()
	if !strings.Contains(view, "Oats") || !strings.Contains(view, "350 kcal") {
		t.Fatalf("meal not rendered:\n%s", view)
	}
}

func TestMissingFileIsReported(t *testing.T) {
	fa := &fakeAPI{}
	a := newTestApp(t, fa, signedIn())
	drain(t, a, a.Init())
	press(t, a, "2", "down", "down")
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(a, filepath.Join(t.TempDir(), "typo.jpg"))
	press(t, a, "enter")

	if fa.uploads != 0 || !strings.Contains(a.View(), "No image at that path.") {
		t.Fatalf("uploads = %d, view:\n%s", fa.uploads, a.View())
	}
}

func TestCaptureResultAfterLeavingCreateIsDropped(t *testing.T) {
	fa := &fakeAPI{}
	a := newTestApp(t, fa, signedIn())
	drain(t, a, a.Init())
	press(t, a, "2", "down", "down")
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(a, writePNG(t))
	_, pending := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if pending == nil {
		t.Fatal("expected a capture command")
	}

	// Leave the Create tab and come back before the capture finishes.
	press(t, a, "1", "2")
	fresh := a.top()
	drain(t, a, pending)

	if a.Route() != session.RouteCreate || a.top() != fresh {
		t.Fatalf("route after late capture = %s", a.Route())
	}
	if fa.uploads != 0 || len(a.opts.Store.Recipes()) != 0 {
		t.Fatalf("late capture uploaded %d photos, store = %v", fa.uploads, a.opts.Store.Recipes())
	}
	view := a.View()
	if strings.Contains(view, "Could not analyse") || strings.Contains(view, "Analysing") {
		t.Fatalf("late capture reached the new screen:\n%s", view)
	}
}

func TestLateCaptureMessageIsDropped(t *testing.T) {
	a := newTestApp(t, &fakeAPI{}, signedIn())
	drain(t, a, a.Init())
	press(t, a, "2")
	old, ok := a.top().(*createView)
	if !ok {
		t.Fatalf("expected the create view, got %T", a.top())
	}
	press(t, a, "1", "2")

	msg := captureDoneMsg{from: old, recipe: food.NewRecipe(1, "Soup", nil, nil, "", nil)}
	_, cmd := a.Update(msg)
	drain(t, a, cmd)
	if a.Route() != session.RouteCreate {
		t.Fatalf("route = %s, want create", a.Route())
	}
}
