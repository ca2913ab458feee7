package appstate

import (
	"sync"

	"github.com/foodfriend/foodfriend/pkg/food"
)

// Store is the state shared between the capture workflow and the result
// screens: the last captured image and the last recipe list. Both values are
// replaced wholesale and read back as copies.
type Store struct {
	mu       sync.RWMutex
	imageURI string
	recipes  []food.Recipe
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	ImageURI string
	Recipes  []food.Recipe
}

func New() *Store {
	return &Store{}
}

func (s *Store) SetImageURI(uri string) {
	s.mu.Lock()
	s.imageURI = uri
	s.mu.Unlock()
}

// SetRecipes replaces the recipe list with a copy of recipes.
func (s *Store) SetRecipes(recipes []food.Recipe) {
	cp := food.CloneRecipes(recipes)
	s.mu.Lock()
	s.recipes = cp
	s.mu.Unlock()
}

func (s *Store) ImageURI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imageURI
}

// Recipes returns a copy of the current list.
func (s *Store) Recipes() []food.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return food.CloneRecipes(s.recipes)
}

// Recipe returns the recipe at index, or false when index does not resolve.
func (s *Store) Recipe(index int) (food.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.recipes) {
		return food.Recipe{}, false
	}
	return s.recipes[index].Clone(), true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{ImageURI: s.imageURI, Recipes: food.CloneRecipes(s.recipes)}
}

// Reset clears the store, e.g. on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.imageURI = ""
	s.recipes = nil
	s.mu.Unlock()
}
