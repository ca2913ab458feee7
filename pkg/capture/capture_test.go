package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/foodfriend/foodfriend/pkg/appstate"
	"github.com/foodfriend/foodfriend/pkg/food"
)

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	path := filepath.Join(dir, "dish.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

type fakeRecipes struct {
	calls   int32
	block   chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeRecipes) AnalyzeForRecipe(ctx context.Context, photo food.Photo) (food.Recipe, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return food.Recipe{}, f.err
	}
	if _, err := jpeg.Decode(bytes.NewReader(photo.JPEG)); err != nil {
		return food.Recipe{}, err
	}
	m := food.Macros{Protein: 5, Carbs: 10, Fat: 2}
	return food.NewRecipe(1, "Soup", nil, []string{"Boil"}, "other", &m), nil
}

type fakeMeals struct{ userID string }

func (f *fakeMeals) AnalyzeForMeal(ctx context.Context, photo food.Photo, userID string) (food.Meal, error) {
	f.userID = userID
	return food.Meal{Title: "Oats", Calories: 300}, nil
}

func TestNormalizeReencodesAsJPEG(t *testing.T) {
	path := writePNG(t, t.TempDir())
	photo, err := Normalize("file://" + path)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(photo.JPEG)); err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if photo.URI != "file://"+path {
		t.Fatalf("uri = %q", photo.URI)
	}
}

func TestNormalizeRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	os.WriteFile(path, []byte("hello"), 0o644)
	if _, err := Normalize(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestAnalyzeRecipeUpdatesStore(t *testing.T) {
	store := appstate.New()
	store.SetRecipes(food.SampleRecipes())
	recipes := &fakeRecipes{}
	w := NewWorkflow(store, recipes, &fakeMeals{})

	path := writePNG(t, t.TempDir())
	r, err := w.AnalyzeRecipe(context.Background(), File(path))
	if err != nil {
		t.Fatalf("AnalyzeRecipe: %v", err)
	}
	if r.Description != "5g protein, 10g carbs, 2g fat" {
		t.Fatalf("unexpected description %q", r.Description)
	}
	snap := store.Snapshot()
	if snap.ImageURI != path {
		t.Fatalf("image uri = %q", snap.ImageURI)
	}
	if len(snap.Recipes) != 1 || snap.Recipes[0].Name != "Soup" {
		t.Fatalf("store not replaced with the single result: %+v", snap.Recipes)
	}
}

func TestFailedAnalysisKeepsRecipes(t *testing.T) {
	store := appstate.New()
	store.SetRecipes(food.SampleRecipes())
	w := NewWorkflow(store, &fakeRecipes{err: errors.New("boom")}, &fakeMeals{})

	path := writePNG(t, t.TempDir())
	if _, err := w.AnalyzeRecipe(context.Background(), File(path)); err == nil {
		t.Fatalf("expected error")
	}
	if store.ImageURI() != path {
		t.Fatalf("image uri should be published before upload")
	}
	if len(store.Recipes()) != 4 {
		t.Fatalf("recipes changed on failure")
	}
}

func TestSecondCaptureWhileInFlightIsBusy(t *testing.T) {
	store := appstate.New()
	recipes := &fakeRecipes{block: make(chan struct{}), started: make(chan struct{})}
	w := NewWorkflow(store, recipes, &fakeMeals{})
	path := writePNG(t, t.TempDir())

	done := make(chan error, 1)
	go func() {
		_, err := w.AnalyzeRecipe(context.Background(), File(path))
		done <- err
	}()
	<-recipes.started

	if !w.Busy() {
		t.Fatalf("workflow should report busy")
	}
	if _, err := w.AnalyzeRecipe(context.Background(), File(path)); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(recipes.block)
	if err := <-done; err != nil {
		t.Fatalf("first capture: %v", err)
	}
	if got := atomic.LoadInt32(&recipes.calls); got != 1 {
		t.Fatalf("expected exactly one upload, got %d", got)
	}
	if w.Busy() {
		t.Fatalf("guard not released")
	}
}

func TestCanceledPickUploadsNothing(t *testing.T) {
	store := appstate.New()
	recipes := &fakeRecipes{}
	w := NewWorkflow(store, recipes, &fakeMeals{})

	for _, p := range []Picker{File(""), Captured(filepath.Join(t.TempDir(), "missing.jpg"))} {
		if _, err := w.AnalyzeRecipe(context.Background(), p); !errors.Is(err, ErrCanceled) {
			t.Fatalf("expected ErrCanceled, got %v", err)
		}
	}
	if recipes.calls != 0 || store.ImageURI() != "" {
		t.Fatalf("canceled pick must not upload or publish")
	}
}

func TestMissingFileIsAnError(t *testing.T) {
	recipes := &fakeRecipes{}
	w := NewWorkflow(appstate.New(), recipes, &fakeMeals{})

	_, err := w.AnalyzeRecipe(context.Background(), File(filepath.Join(t.TempDir(), "typo.jpg")))
	if !errors.Is(err, ErrNoImage) || errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if recipes.calls != 0 {
		t.Fatalf("uploads = %d, want 0", recipes.calls)
	}
}

func TestCanceledContextUploadsNothing(t *testing.T) {
	store := appstate.New()
	recipes := &fakeRecipes{}
	w := NewWorkflow(store, recipes, &fakeMeals{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.AnalyzeRecipe(ctx, File(writePNG(t, t.TempDir()))); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if recipes.calls != 0 || store.ImageURI() != "" {
		t.Fatalf("canceled capture must not upload or publish")
	}
}

func TestTrackMealPassesUser(t *testing.T) {
	meals := &fakeMeals{}
	w := NewWorkflow(appstate.New(), &fakeRecipes{}, meals)
	path := writePNG(t, t.TempDir())
	m, err := w.TrackMeal(context.Background(), File(path), "user_9")
	if err != nil {
		t.Fatalf("TrackMeal: %v", err)
	}
	if m.Title != "Oats" || meals.userID != "user_9" {
		t.Fatalf("unexpected meal %+v for %q", m, meals.userID)
	}
}

func TestPermission(t *testing.T) {
	denied, _ := NewPermission("denied", nil)
	if !errors.Is(denied.Check(), ErrPermissionDenied) {
		t.Fatalf("denied permission passed")
	}

	asked := 0
	prompt, _ := NewPermission("prompt", func() bool { asked++; return false })
	prompt.Check()
	prompt.Check()
	if asked != 1 {
		t.Fatalf("prompted %d times, want 1", asked)
	}
	prompt.Set(true)
	if prompt.Check() != nil {
		t.Fatalf("explicit grant ignored")
	}

	if _, err := NewPermission("maybe", nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestTerminalPrompt(t *testing.T) {
	var out bytes.Buffer
	if !TerminalPrompt(strings.NewReader("y\n"), &out)() {
		t.Fatalf("expected yes")
	}
	if TerminalPrompt(strings.NewReader("\n"), &out)() {
		t.Fatalf("empty answer must deny")
	}
}

func TestCameraRunsCommand(t *testing.T) {
	src := writePNG(t, t.TempDir())
	cam := &Camera{Command: "cp " + src + " {output}", Dir: t.TempDir()}
	uri, err := cam.Pick(context.Background())
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(uri), "capture-") || !strings.HasSuffix(uri, ".jpg") {
		t.Fatalf("unexpected capture path %q", uri)
	}
}

func TestCameraNoOutputIsCanceled(t *testing.T) {
	cam := &Camera{Command: "true {output}", Dir: t.TempDir()}
	if _, err := cam.Pick(context.Background()); !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestCameraDeniedNeverRuns(t *testing.T) {
	perm, _ := NewPermission("denied", nil)
	marker := filepath.Join(t.TempDir(), "ran")
	cam := &Camera{Command: "touch " + marker + " {output}", Permission: perm}
	if _, err := cam.Pick(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Fatalf("command ran despite denial")
	}
}
