package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/foodfriend/foodfriend/pkg/food"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetRecipeRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	macros := food.Macros{Protein: 5, Carbs: 10, Fat: 2, Extra: map[string]float64{"fiber": 3}}
	in := food.NewRecipe(0, "Soup",
		[]food.Ingredient{food.PlainIngredient("Water"), food.Measured("Leek", 1.5, "pc")},
		[]string{"Chop", "Boil"}, "other", &macros)

	id, err := db.SaveRecipe(ctx, "user_1", in)
	if err != nil {
		t.Fatalf("SaveRecipe: %v", err)
	}
	got, err := db.GetRecipe(ctx, id)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Name != in.Name || !reflect.DeepEqual(got.Instructions, in.Instructions) {
		t.Fatalf("title/steps changed: %+v", got)
	}
	if !reflect.DeepEqual(got.Ingredients, in.Ingredients) {
		t.Fatalf("ingredients changed: %#v", got.Ingredients)
	}
	if !reflect.DeepEqual(*got.Macros, macros) {
		t.Fatalf("macros changed: %+v", got.Macros)
	}
	if got.ID != id || got.Category != food.CategoryOther {
		t.Fatalf("unexpected id/category: %+v", got)
	}
}

func TestGetRecipeNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetRecipe(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecipesFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i, c := range []string{"pasta", "salad", "pasta"} {
		r := food.NewRecipe(0, c+" dish", nil, []string{"cook"}, c, nil)
		user := "user_a"
		if i == 2 {
			user = "user_b"
		}
		if _, err := db.SaveRecipe(ctx, user, r); err != nil {
			t.Fatalf("SaveRecipe: %v", err)
		}
	}

	pasta, err := db.ListRecipes(ctx, RecipeFilter{Category: "pasta", Limit: 20})
	if err != nil || len(pasta) != 2 {
		t.Fatalf("pasta: %v %d", err, len(pasta))
	}
	pizza, err := db.ListRecipes(ctx, RecipeFilter{Category: "pizza", Limit: 20})
	if err != nil || len(pizza) != 0 {
		t.Fatalf("pizza: %v %d", err, len(pizza))
	}
	mine, err := db.ListRecipes(ctx, RecipeFilter{UserID: "user_a"})
	if err != nil || len(mine) != 2 {
		t.Fatalf("user_a: %v %d", err, len(mine))
	}
	limited, _ := db.ListRecipes(ctx, RecipeFilter{Limit: 1})
	if len(limited) != 1 || limited[0].Name != "pasta dish" || limited[0].ID != 3 {
		t.Fatalf("limit/order: %+v", limited)
	}
}

func TestSaveRecipeValidation(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SaveRecipe(context.Background(), "", food.Recipe{Name: "x"}); err == nil {
		t.Fatalf("expected error without user")
	}
	if _, err := db.SaveRecipe(context.Background(), "u", food.Recipe{}); err == nil {
		t.Fatalf("expected error without title")
	}
}

func TestMealsForDay(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	meal := food.Meal{Title: "Oats", Calories: 350, Date: "2024-05-01T08:30:00Z", Protein: "12g", Zinc: "2mg", Ingredients: []string{"oats"}}
	if _, err := db.InsertMeal(ctx, "u", meal, "meals/x.jpg"); err != nil {
		t.Fatalf("InsertMeal: %v", err)
	}
	if _, err := db.InsertMeal(ctx, "u", food.Meal{Title: "Soup", Date: "2024-05-02"}, ""); err != nil {
		t.Fatalf("InsertMeal: %v", err)
	}

	meals, err := db.MealsForDay(ctx, "u", "2024-05-01", 50)
	if err != nil {
		t.Fatalf("MealsForDay: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal, got %d", len(meals))
	}
	got := meals[0]
	meal.ID = got.ID
	if !reflect.DeepEqual(got, meal) {
		t.Fatalf("got %+v\nwant %+v", got, meal)
	}

	none, err := db.MealsForDay(ctx, "other", "2024-05-01", 50)
	if err != nil || len(none) != 0 {
		t.Fatalf("other user: %v %d", err, len(none))
	}
	if _, err := db.MealsForDay(ctx, "u", "May 1st", 50); err == nil {
		t.Fatalf("bad date accepted")
	}
}

func TestInsertMealDefaultsDate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if _, err := db.InsertMeal(ctx, "u", food.Meal{Title: "Toast"}, ""); err != nil {
		t.Fatal(err)
	}
	today := time.Now().UTC().Format(food.DateLayout)
	meals, err := db.MealsForDay(ctx, "u", today, 0)
	if err != nil || len(meals) != 1 || meals[0].Ingredients == nil {
		t.Fatalf("today: %v %+v", err, meals)
	}
	recent, err := db.RecentMeals(ctx, "u", 1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("recent: %v %d", err, len(recent))
	}
}

func TestRecentMealsWindowIsCalendarDays(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	for _, date := range []string{"2024-04-30T20:00:00Z", "2024-05-01T23:59:00Z", "2024-05-02T08:00:00Z"} {
		if _, err := db.InsertMeal(ctx, "u", food.Meal{Title: date, Date: date}, ""); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		days int
		want []string
	}{
		{0, []string{"2024-05-02T08:00:00Z"}},
		{1, []string{"2024-05-02T08:00:00Z"}},
		{2, []string{"2024-05-02T08:00:00Z", "2024-05-01T23:59:00Z"}},
	}
	for _, tt := range tests {
		meals, err := db.recentMeals(ctx, "u", tt.days, now)
		if err != nil {
			t.Fatalf("days=%d: %v", tt.days, err)
		}
		var got []string
		for _, m := range meals {
			got = append(got, m.Title)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("days=%d: got %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestEnsureUserAndStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.EnsureUser(ctx, User{ID: "u", Email: "a@b.c"}); err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureUser(ctx, User{ID: "u", FirstName: "Ann"}); err != nil {
		t.Fatal(err)
	}
	db.SaveRecipe(ctx, "u", food.NewRecipe(0, "Margherita", nil, nil, "pizza", nil))
	db.InsertMeal(ctx, "v", food.Meal{Title: "x"}, "")

	s, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if s.Users != 2 || s.Recipes != 1 || s.Meals != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if len(s.ByCategory) != 1 || s.ByCategory[0] != (CategoryCount{Category: "pizza", Recipes: 1}) {
		t.Fatalf("unexpected categories %+v", s.ByCategory)
	}

	users, err := db.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	want := []User{{ID: "u", Email: "a@b.c", FirstName: "Ann"}, {ID: "v"}}
	if !reflect.DeepEqual(users, want) {
		t.Fatalf("users = %+v, want %+v", users, want)
	}
}

func TestImageKey(t *testing.T) {
	key := ImageKey("meals", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(key, "meals/2024/05/01/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}
	if k, err := (NoImages{}).Put(context.Background(), "meals", nil); err != nil || k != "" {
		t.Fatalf("NoImages.Put = %q, %v", k, err)
	}
}
