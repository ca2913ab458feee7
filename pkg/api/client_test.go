package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/foodfriend/foodfriend/pkg/food"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Token: func() string { return "tok" }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func jpegPhoto() food.Photo {
	return food.Photo{URI: "file:///tmp/a.jpg", JPEG: []byte{0xff, 0xd8, 0xff, 0xd9}}
}

func TestAnalyzeForRecipeSoup(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
		} else {
			defer file.Close()
			if header.Filename != "photo.jpg" || header.Header.Get("Content-Type") != "image/jpeg" {
				t.Errorf("unexpected part header %+v", header.Header)
			}
		}
		if r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing auth or request id headers")
		}
		io.WriteString(w, `{"title":"Soup","macros":{"protein":5,"carbs":10,"fat":2},
			"ingredients":["Water",{"name":"Leek","quantity":1,"unit":""}],
			"steps":["Chop","Boil"],"category":"other"}`)
	})

	r, err := c.AnalyzeForRecipe(context.Background(), jpegPhoto())
	if err != nil {
		t.Fatalf("AnalyzeForRecipe: %v", err)
	}
	if r.Name != "Soup" || r.Description != "5g protein, 10g carbs, 2g fat" || r.Category != food.CategoryOther {
		t.Fatalf("unexpected recipe %+v", r)
	}
	if r.ID == 0 || r.Time != food.DefaultTime || r.Servings != food.DefaultServings {
		t.Fatalf("defaults not applied: %+v", r)
	}
	if len(r.Ingredients) != 2 || !r.Ingredients[0].IsPlain() || *r.Ingredients[1].Quantity != 1 {
		t.Fatalf("unexpected ingredients %#v", r.Ingredients)
	}

	again, err := c.AnalyzeForRecipe(context.Background(), jpegPhoto())
	if err != nil {
		t.Fatalf("second AnalyzeForRecipe: %v", err)
	}
	if again.ID == r.ID {
		t.Fatalf("ids must be unique, both %d", r.ID)
	}
}

func TestNon2xxIsAlwaysAFailure(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		var hits int32
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(status)
			// A well-formed body must not leak through as a success.
			io.WriteString(w, `{"title":"Soup","macros":{},"ingredients":[],"steps":[]}`)
		})
		_, err := c.AnalyzeForRecipe(context.Background(), jpegPhoto())
		if !errors.Is(err, ErrFailed) {
			t.Fatalf("status %d: expected ErrFailed, got %v", status, err)
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind != KindStatus || apiErr.Status != status {
			t.Fatalf("status %d: unexpected error %#v", status, err)
		}
		if got := atomic.LoadInt32(&hits); got != 1 {
			t.Fatalf("status %d: upload sent %d times", status, got)
		}
	}
}

func TestMalformedBodiesFailDecode(t *testing.T) {
	bodies := []string{
		`not json`,
		`[]`,
		`{"title":3,"macros":{},"ingredients":[],"steps":[]}`,
		`{"title":"x","macros":{"protein":"5g"},"ingredients":[],"steps":[]}`,
		`{"title":"x","macros":{},"ingredients":[1],"steps":[]}`,
		`{"title":"x","macros":{},"ingredients":[],"steps":"boil"}`,
		`{"title":"x","macros":{},"ingredients":[],"steps":[],"category":7}`,
		`{"title":"Soup","ingredients":["Water"],"steps":["Boil"],"category":"other"}`,
		`{"title":"Soup","macros":null,"ingredients":["Water"],"steps":["Boil"]}`,
	}
	for _, body := range bodies {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		_, err := c.AnalyzeForRecipe(context.Background(), jpegPhoto())
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind != KindDecode || !errors.Is(err, ErrFailed) {
			t.Fatalf("body %s: expected decode failure, got %v", body, err)
		}
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("body %s: expected a DecodeError in chain", body)
		}
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.GlobalRecipes(context.Background(), ListOptions{Limit: 5})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindTransport || !errors.Is(err, ErrFailed) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestAnalyzeForMealVerbatim(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track_meal" || r.URL.Query().Get("user_id") != "user_1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		io.WriteString(w, `{"id":4,"title":"Oats","calories":350,"date":"2024-05-01",
			"protein":"12g","carbs":"60g","fat":"6g","fiber":"8g","vitamin_d":"0ug",
			"vitamin_a":"1ug","vitamin_c":"0mg","iron":"3mg","calcium":"50mg",
			"magnesium":"100mg","potassium":"300mg","zinc":"2mg","ingredients":["oats","milk"]}`)
	})
	m, err := c.AnalyzeForMeal(context.Background(), jpegPhoto(), "user_1")
	if err != nil {
		t.Fatalf("AnalyzeForMeal: %v", err)
	}
	want := food.Meal{
		ID: 4, Title: "Oats", Calories: 350, Date: "2024-05-01",
		Protein: "12g", Carbs: "60g", Fat: "6g", Fiber: "8g", VitaminD: "0ug",
		VitaminA: "1ug", VitaminC: "0mg", Iron: "3mg", Calcium: "50mg",
		Magnesium: "100mg", Potassium: "300mg", Zinc: "2mg",
		Ingredients: []string{"oats", "milk"},
	}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("got %+v\nwant %+v", m, want)
	}
}

func TestSaveRecipeBody(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/recipe/save" || r.URL.Query().Get("user_id") != "u" {
			t.Errorf("unexpected request %s", r.URL)
		}
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		for _, key := range []string{"title", "ingredients", "macros", "steps"} {
			if _, ok := body[key]; !ok {
				t.Errorf("missing %q in save body", key)
			}
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	m := food.Macros{Protein: 1}
	r := food.NewRecipe(1, "Toast", []food.Ingredient{food.PlainIngredient("Bread")}, []string{"Toast it"}, "other", &m)
	if err := c.SaveRecipe(context.Background(), r, "u"); !errors.Is(err, ErrFailed) {
		t.Fatalf("expected failure, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("save must not retry, sent %d times", got)
	}
}

func TestRecipeNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Recipe not found"}`, http.StatusNotFound)
	})
	_, err := c.Recipe(context.Background(), 77)
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrNotFound and ErrFailed, got %v", err)
	}
}

func TestGlobalRecipesQueryAndEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/global_recipe" || q.Get("category") != "pizza" || q.Get("limit") != "20" {
			t.Errorf("unexpected request %s", r.URL)
		}
		io.WriteString(w, `[]`)
	})
	rs, err := c.GlobalRecipes(context.Background(), ListOptions{Category: "pizza", Limit: CategoryPageLimit})
	if err != nil {
		t.Fatalf("GlobalRecipes: %v", err)
	}
	if len(rs) != 0 {
		t.Fatalf("expected no recipes, got %d", len(rs))
	}
}

func TestSavedRecipesPathVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != UserSavedRecipesPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `[{"id":3,"title":"Soup","macros":{"protein":5},"ingredients":[{"name":"Leek","quantity":1,"unit":"pc"}],"steps":["Boil"]}]`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, SavedRecipesPath: UserSavedRecipesPath})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rs, err := c.SavedRecipes(context.Background(), "u")
	if err != nil {
		t.Fatalf("SavedRecipes: %v", err)
	}
	if len(rs) != 1 || rs[0].ID != 3 || rs[0].Description != "5g protein, 0g carbs, 0g fat" {
		t.Fatalf("unexpected recipes %+v", rs)
	}
}

func TestHealthScore(t *testing.T) {
	tests := []struct {
		body    string
		want    food.HealthScore
		wantErr bool
	}{
		{`{"rating":82,"explanation":"Balanced"}`, food.HealthScore{Rating: 82, Explanation: "Balanced"}, false},
		{`{"not_enough_data":true}`, food.HealthScore{NotEnoughData: true}, false},
		{`{"rating":140,"explanation":"?"}`, food.HealthScore{}, true},
		{`{"explanation":"no rating"}`, food.HealthScore{}, true},
	}
	for _, tc := range tests {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/meals/analysis") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			io.WriteString(w, tc.body)
		})
		got, err := c.HealthScore(context.Background(), "u")
		if (err != nil) != tc.wantErr {
			t.Fatalf("body %s: err = %v", tc.body, err)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("body %s: got %+v", tc.body, got)
		}
	}
}

func TestMealsForDayQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user_id") != "u" || q.Get("date") != "2024-05-01" || q.Get("limit") != "50" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		io.WriteString(w, `[{"title":"Oats","calories":350,"protein":"12g"}]`)
	})
	meals, err := c.MealsForDay(context.Background(), "u", "2024-05-01", DayMealsLimit)
	if err != nil {
		t.Fatalf("MealsForDay: %v", err)
	}
	if len(meals) != 1 || meals[0].Protein != "12g" {
		t.Fatalf("unexpected meals %+v", meals)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without base URL")
	}
}

func TestGenerateRecipe(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/recipe/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["message"] != "something with leeks" {
			t.Errorf("message = %q", body["message"])
		}
		io.WriteString(w, `{"title":"Leek soup","ingredients":["Leeks"],"macros":{"protein":3,"carbs":9,"fat":1},"steps":["Simmer"],"category":"soup"}`)
	})
	r, err := c.GenerateRecipe(context.Background(), "something with leeks")
	if err != nil {
		t.Fatalf("GenerateRecipe: %v", err)
	}
	if r.ID != 1 || r.Name != "Leek soup" || r.Description != "3g protein, 9g carbs, 1g fat" || r.Category != food.CategoryOther {
		t.Fatalf("unexpected recipe %+v", r)
	}
}

func TestGenerateRecipeWithoutMacrosFails(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"title":"Leek soup","ingredients":[],"steps":[]}`)
	})
	_, err := c.GenerateRecipe(context.Background(), "soup")
	var decErr *DecodeError
	if !errors.As(err, &decErr) || decErr.Field != "macros" {
		t.Fatalf("expected a macros decode error, got %v", err)
	}
}
