package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	// scoreWindowDays is how many calendar days, today included, the health
	// score looks at.
	scoreWindowDays = 1
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("encode response: %v", err)
	}
}

// writeError replies with a {"detail": msg} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// readPhoto returns the bytes of the multipart "file" field.
func readPhoto(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart upload with a \"file\" field")
		return nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty or unreadable upload")
		return nil, false
	}
	return data, true
}

func (s *Server) requireAnalyzer(w http.ResponseWriter) bool {
	if s.Analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "image analysis is not configured")
		return false
	}
	return true
}

// archive stores the upload. A failing image store does not fail the request.
func (s *Server) archive(r *http.Request, kind string, jpeg []byte) string {
	key, err := s.Images.Put(r.Context(), kind, jpeg)
	if err != nil {
		utils.Log.Warnf("Could not archive %s photo: %v", kind, err)
		return ""
	}
	return key
}

func (s *Server) handleAnalyzeRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalyzer(w) {
		return
	}
	photo, ok := readPhoto(w, r)
	if !ok {
		return
	}
	rec, err := s.Analyzer.RecipeFromImage(r.Context(), photo)
	if err != nil {
		utils.Log.Errorf("Recipe analysis failed: %v", err)
		writeError(w, http.StatusBadGateway, "recipe analysis failed")
		return
	}
	s.archive(r, "recipes", photo)
	writeJSON(w, http.StatusOK, rec)
}

// generateRequest is the body of POST /recipe/generate.
type generateRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleGenerateRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalyzer(w) {
		return
	}
	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	rec, err := s.Analyzer.RecipeFromRequest(r.Context(), req.Message)
	if err != nil {
		utils.Log.Errorf("Recipe generation failed: %v", err)
		writeError(w, http.StatusBadGateway, "recipe generation failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleTrackMeal(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalyzer(w) {
		return
	}
	userID := r.URL.Query().Get("user_id")
	photo, ok := readPhoto(w, r)
	if !ok {
		return
	}
	meal, err := s.Analyzer.MealFromImage(r.Context(), photo)
	if err != nil {
		utils.Log.Errorf("Meal analysis failed: %v", err)
		writeError(w, http.StatusBadGateway, "meal analysis failed")
		return
	}
	if meal.Date == "" {
		meal.Date = time.Now().UTC().Format(time.RFC3339)
	}
	key := s.archive(r, "meals", photo)
	id, err := s.DB.InsertMeal(r.Context(), userID, meal, key)
	if err != nil {
		utils.Log.Errorf("Could not store meal: %v", err)
		writeError(w, http.StatusInternalServerError, "could not store meal")
		return
	}
	meal.ID = id
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleGlobalRecipes(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, defaultListLimit)
	if !ok {
		return
	}
	f := storage.RecipeFilter{Limit: limit}
	if c := r.URL.Query().Get("category"); c != "" {
		f.Category = string(food.NormalizeCategory(c))
	}
	s.listRecipes(w, r, f)
}

func (s *Server) handleUserRecipes(w http.ResponseWriter, r *http.Request) {
	s.listRecipes(w, r, storage.RecipeFilter{UserID: r.URL.Query().Get("user_id")})
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request, f storage.RecipeFilter) {
	recipes, err := s.DB.ListRecipes(r.Context(), f)
	if err != nil {
		utils.Log.Errorf("List recipes: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list recipes")
		return
	}
	out := make([]food.RecipeRecord, 0, len(recipes))
	for _, rc := range recipes {
		out = append(out, rc.Record())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "recipe id must be an integer")
		return
	}
	recipe, err := s.DB.GetRecipe(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Recipe not found")
		return
	}
	if err != nil {
		utils.Log.Errorf("Get recipe %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "could not load recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe.Record())
}

func (s *Server) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	var rec food.RecipeRecord
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe body")
		return
	}
	if rec.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	id, err := s.DB.SaveRecipe(r.Context(), r.URL.Query().Get("user_id"), rec.Recipe(0))
	if err != nil {
		utils.Log.Errorf("Save recipe: %v", err)
		writeError(w, http.StatusInternalServerError, "could not save recipe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": "saved"})
}

func (s *Server) handleMealAnalysis(w http.ResponseWriter, r *http.Request) {
	meals, err := s.DB.RecentMeals(r.Context(), r.URL.Query().Get("user_id"), scoreWindowDays)
	if err != nil {
		utils.Log.Errorf("Recent meals: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load meals")
		return
	}
	if len(meals) == 0 {
		writeJSON(w, http.StatusOK, food.HealthScore{NotEnoughData: true})
		return
	}
	if !s.requireAnalyzer(w) {
		return
	}
	score, err := s.Analyzer.ScoreMeals(r.Context(), meals)
	if err != nil {
		utils.Log.Errorf("Score meals: %v", err)
		writeError(w, http.StatusBadGateway, "meal analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleMealsForDay(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 0)
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format(food.DateLayout)
	}
	if _, err := time.Parse(food.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	meals, err := s.DB.MealsForDay(r.Context(), r.URL.Query().Get("user_id"), date, limit)
	if err != nil {
		utils.Log.Errorf("Meals for day: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load meals")
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, true
}
