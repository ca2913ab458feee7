package appstate

import (
	"sync"
	"testing"

	"github.com/foodfriend/foodfriend/pkg/food"
)

func TestStoreCopiesOnWriteAndRead(t *testing.T) {
	s := New()
	in := []food.Recipe{food.NewRecipe(1, "Soup", []food.Ingredient{food.PlainIngredient("Leek")}, []string{"Boil"}, "", nil)}
	s.SetRecipes(in)

	in[0].Instructions[0] = "producer changed"
	out := s.Recipes()
	if out[0].Instructions[0] != "Boil" {
		t.Fatalf("store aliased the producer's slice")
	}

	out[0].Ingredients[0].Name = "consumer changed"
	r, ok := s.Recipe(0)
	if !ok || r.Ingredients[0].Name != "Leek" {
		t.Fatalf("store handed out a shared slice")
	}
}

func TestStoreRecipeIndex(t *testing.T) {
	s := New()
	if _, ok := s.Recipe(0); ok {
		t.Fatalf("empty store resolved index 0")
	}
	s.SetRecipes(food.SampleRecipes())
	if _, ok := s.Recipe(4); ok {
		t.Fatalf("index past the end resolved")
	}
	if _, ok := s.Recipe(-1); ok {
		t.Fatalf("negative index resolved")
	}
	if r, ok := s.Recipe(1); !ok || r.Name != "Pasta Primavera" {
		t.Fatalf("unexpected recipe %+v", r)
	}
}

func TestStoreSnapshotAndReset(t *testing.T) {
	s := New()
	s.SetImageURI("file:///a.jpg")
	s.SetRecipes(food.SampleRecipes()[:1])
	snap := s.Snapshot()
	if snap.ImageURI != "file:///a.jpg" || len(snap.Recipes) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	s.Reset()
	if s.ImageURI() != "" || len(s.Recipes()) != 0 {
		t.Fatalf("reset left state behind")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetRecipes(food.SampleRecipes())
			s.SetImageURI("x")
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_, _ = s.Recipe(0)
		}()
	}
	wg.Wait()
	if len(s.Recipes()) != 4 {
		t.Fatalf("expected 4 recipes")
	}
}
