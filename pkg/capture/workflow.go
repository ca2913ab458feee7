package capture

import (
	"context"
	"fmt"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/appstate"
	"github.com/foodfriend/foodfriend/pkg/food"
	"golang.org/x/sync/semaphore"
)

type RecipeAnalyzer interface {
	AnalyzeForRecipe(ctx context.Context, photo food.Photo) (food.Recipe, error)
}

type MealAnalyzer interface {
	AnalyzeForMeal(ctx context.Context, photo food.Photo, userID string) (food.Meal, error)
}

// Workflow drives one capture from the picker to the analysis service. Only
// one capture runs at a time: a second call while one is in flight gets
// ErrBusy instead of a second upload.
type Workflow struct {
	store     *appstate.Store
	recipes   RecipeAnalyzer
	meals     MealAnalyzer
	guard     *semaphore.Weighted
	normalize func(uri string) (food.Photo, error)
}

func NewWorkflow(store *appstate.Store, recipes RecipeAnalyzer, meals MealAnalyzer) *Workflow {
	return &Workflow{
		store:     store,
		recipes:   recipes,
		meals:     meals,
		guard:     semaphore.NewWeighted(1),
		normalize: Normalize,
	}
}

// Busy reports whether a capture is in flight.
func (w *Workflow) Busy() bool {
	if !w.guard.TryAcquire(1) {
		return true
	}
	w.guard.Release(1)
	return false
}

// AnalyzeRecipe picks an image, publishes its URI, uploads it and on
// success replaces the shared recipe list with the single result.
func (w *Workflow) AnalyzeRecipe(ctx context.Context, picker Picker) (food.Recipe, error) {
	if !w.guard.TryAcquire(1) {
		return food.Recipe{}, ErrBusy
	}
	defer w.guard.Release(1)

	photo, err := w.pick(ctx, picker)
	if err != nil {
		return food.Recipe{}, err
	}
	recipe, err := w.recipes.AnalyzeForRecipe(ctx, photo)
	if err != nil {
		return food.Recipe{}, err
	}
	w.store.SetRecipes([]food.Recipe{recipe})
	utils.Log.Debugf("analysed recipe %q from %s", recipe.Name, photo.URI)
	return recipe, nil
}

// TrackMeal picks an image, publishes its URI and logs it as a meal.
func (w *Workflow) TrackMeal(ctx context.Context, picker Picker, userID string) (food.Meal, error) {
	if !w.guard.TryAcquire(1) {
		return food.Meal{}, ErrBusy
	}
	defer w.guard.Release(1)

	photo, err := w.pick(ctx, picker)
	if err != nil {
		return food.Meal{}, err
	}
	meal, err := w.meals.AnalyzeForMeal(ctx, photo, userID)
	if err != nil {
		return food.Meal{}, err
	}
	utils.Log.Debugf("tracked meal %q from %s", meal.Title, photo.URI)
	return meal, nil
}

func (w *Workflow) pick(ctx context.Context, picker Picker) (food.Photo, error) {
	if err := ctx.Err(); err != nil {
		return food.Photo{}, err
	}
	uri, err := picker.Pick(ctx)
	if err != nil {
		return food.Photo{}, err
	}
	if uri == "" {
		return food.Photo{}, ErrCanceled
	}
	w.store.SetImageURI(uri)

	photo, err := w.normalize(uri)
	if err != nil {
		return food.Photo{}, fmt.Errorf("normalise capture: %w", err)
	}
	// The caller may have gone away while the image was being prepared.
	if err := ctx.Err(); err != nil {
		return food.Photo{}, err
	}
	return photo, nil
}
