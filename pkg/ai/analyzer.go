package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/food"
)

// Config controls how the analyzer talks to the model provider.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
}

// Analyzer turns food photos into recipes and meals, and rates a day of
// meals.
type Analyzer interface {
	RecipeFromImage(ctx context.Context, jpeg []byte) (food.RecipeRecord, error)
	RecipeFromRequest(ctx context.Context, message string) (food.RecipeRecord, error)
	MealFromImage(ctx context.Context, jpeg []byte) (food.Meal, error)
	ScoreMeals(ctx context.Context, meals []food.Meal) (food.HealthScore, error)
}

const (
	defaultProvider = "openai"
	defaultModel    = "gpt-4.1-mini"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
)

// NewAnalyzer builds a concrete Analyzer implementation based on the provided config.
func NewAnalyzer(cfg Config) (Analyzer, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIAnalyzer(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIAnalyzer struct {
	apiKey   string
	model    string
	endpoint string
	client   httpClient
}

func newOpenAIAnalyzer(cfg Config) (*openAIAnalyzer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("image analysis requires an API key (set ai.api_key in config or OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}

	return &openAIAnalyzer{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   httpClient,
	}, nil
}

// RecipeFromImage asks the model for the recipe of the dish in the photo.
func (a *openAIAnalyzer) RecipeFromImage(ctx context.Context, jpeg []byte) (food.RecipeRecord, error) {
	utils.Log.Debugf("[ai] analysing recipe photo (%d bytes)", len(jpeg))
	content, err := a.queryLLM(ctx, recipePrompt, imageMessage("Analyse this dish.", jpeg))
	if err != nil {
		return food.RecipeRecord{}, err
	}
	var rec food.RecipeRecord
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return food.RecipeRecord{}, fmt.Errorf("unable to parse AI response: %w", err)
	}
	return sanitizeRecipe(rec)
}

// RecipeFromRequest writes a recipe for a free-text wish. The wish is first
// broken into a RecipeRequest, then the recipe is written against it.
func (a *openAIAnalyzer) RecipeFromRequest(ctx context.Context, message string) (food.RecipeRecord, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return food.RecipeRecord{}, errors.New("recipe request is empty")
	}
	content, err := a.queryLLM(ctx, requestPrompt, openAIMessage{Role: "user", Content: message})
	if err != nil {
		return food.RecipeRecord{}, err
	}
	var req food.RecipeRequest
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return food.RecipeRecord{}, fmt.Errorf("unable to parse AI response: %w", err)
	}
	req = req.Normalize()
	utils.Log.Debugf("[ai] recipe request: %+v", req)

	payload, err := json.Marshal(req)
	if err != nil {
		return food.RecipeRecord{}, err
	}
	content, err = a.queryLLM(ctx, generatePrompt, openAIMessage{Role: "user", Content: string(payload)})
	if err != nil {
		return food.RecipeRecord{}, err
	}
	var rec food.RecipeRecord
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return food.RecipeRecord{}, fmt.Errorf("unable to parse AI response: %w", err)
	}
	if rec.Title == "" {
		rec.Title = req.Title
	}
	return sanitizeRecipe(rec)
}

// MealFromImage asks the model for the nutrients of the meal in the photo.
func (a *openAIAnalyzer) MealFromImage(ctx context.Context, jpeg []byte) (food.Meal, error) {
	utils.Log.Debugf("[ai] analysing meal photo (%d bytes)", len(jpeg))
	content, err := a.queryLLM(ctx, mealPrompt, imageMessage("Log this meal.", jpeg))
	if err != nil {
		return food.Meal{}, err
	}
	var m food.Meal
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return food.Meal{}, fmt.Errorf("unable to parse AI response: %w", err)
	}
	return sanitizeMeal(m)
}

// ScoreMeals rates meals. With no meals there is nothing to rate and the
// model is not called.
func (a *openAIAnalyzer) ScoreMeals(ctx context.Context, meals []food.Meal) (food.HealthScore, error) {
	if len(meals) == 0 {
		return food.HealthScore{NotEnoughData: true}, nil
	}
	payload, err := json.Marshal(map[string]interface{}{"meals": meals})
	if err != nil {
		return food.HealthScore{}, err
	}
	content, err := a.queryLLM(ctx, scorePrompt, openAIMessage{Role: "user", Content: string(payload)})
	if err != nil {
		return food.HealthScore{}, err
	}
	var s food.HealthScore
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return food.HealthScore{}, fmt.Errorf("unable to parse AI response: %w", err)
	}
	return sanitizeScore(s), nil
}

func imageMessage(text string, jpeg []byte) openAIMessage {
	return openAIMessage{
		Role: "user",
		Content: []openAIContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &openAIImageURL{URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)}},
		},
	}
}

func (a *openAIAnalyzer) queryLLM(ctx context.Context, system string, user openAIMessage) (string, error) {
	reqBody := openAIChatRequest{
		Model: a.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			user,
		},
		Temperature:    0.2,
		ResponseFormat: openAIResponseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErrResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErrResp)
		if apiErrResp.Error.Message != "" {
			return "", fmt.Errorf("image analysis: %s", apiErrResp.Error.Message)
		}
		return "", fmt.Errorf("image analysis failed with HTTP %d", resp.StatusCode)
	}

	var apiResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", err
	}

	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return "", errors.New("image analysis returned an empty response")
	}
	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

const recipePrompt = `You are a chef. Identify the dish in the photo and write a recipe for it.

Return ONLY JSON following this schema:
{
  "title": "string",
  "ingredients": [{"name": "string", "quantity": 1.5, "unit": "string"}],
  "macros": {"protein": 0, "carbs": 0, "fat": 0},
  "steps": ["string"],
  "category": "pizza | pasta | salad | burger | sushi | tacos | other"
}

Macros are grams per serving. Use "other" when no category fits.`

const requestPrompt = `You turn a person's wish for a dish into recipe constraints.

Return ONLY JSON following this schema:
{
  "title": "string",
  "spice_level": "mild | medium | hot",
  "flavor_profile": ["string"],
  "servings": 1,
  "dietary_restrictions": ["string"]
}

Leave out what the person did not ask for.`

const generatePrompt = `You are a chef. Write a recipe that meets the constraints you are given as JSON.

Return ONLY JSON following this schema:
{
  "title": "string",
  "ingredients": [{"name": "string", "quantity": 1.5, "unit": "string"}],
  "macros": {"protein": 0, "carbs": 0, "fat": 0},
  "steps": ["string"],
  "category": "pizza | pasta | salad | burger | sushi | tacos | other"
}

Quantities are for the requested servings. Macros are grams per serving.`

const mealPrompt = `You are a nutritionist. Estimate the nutrients of the meal in the photo.

Return ONLY JSON following this schema:
{
  "title": "string",
  "calories": 0,
  "protein": "12g", "carbs": "30g", "fat": "8g", "fiber": "4g",
  "vitamin_d": "2µg", "vitamin_a": "300µg", "vitamin_c": "15mg",
  "iron": "2mg", "calcium": "120mg", "magnesium": "60mg", "potassium": "400mg", "zinc": "1mg",
  "ingredients": ["string"]
}

Every nutrient is a string with its unit. Calories is an integer.`

const scorePrompt = `You rate how healthy a person's recent meals are.

Return ONLY JSON following this schema:
{"rating": 0, "explanation": "string"}

The rating is an integer from 0 (very unhealthy) to 100 (very healthy). Keep the explanation to two sentences.`

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

// openAIMessage content is a string or a list of parts.
type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func sanitizeRecipe(rec food.RecipeRecord) (food.RecipeRecord, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	if rec.Title == "" {
		return rec, errors.New("image analysis returned a recipe without a title")
	}
	rec.ID = 0
	rec.Category = food.NormalizeCategory(string(rec.Category))

	ings := make([]food.Ingredient, 0, len(rec.Ingredients))
	for _, ing := range rec.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ings = append(ings, ing)
	}
	rec.Ingredients = ings

	steps := make([]string, 0, len(rec.Steps))
	for _, s := range rec.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	rec.Steps = steps
	return rec, nil
}

func sanitizeMeal(m food.Meal) (food.Meal, error) {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return m, errors.New("image analysis returned a meal without a title")
	}
	m.ID = 0
	if m.Calories < 0 {
		m.Calories = 0
	}
	if m.Ingredients == nil {
		m.Ingredients = []string{}
	}
	return m, nil
}

func sanitizeScore(s food.HealthScore) food.HealthScore {
	if s.NotEnoughData {
		return food.HealthScore{NotEnoughData: true}
	}
	if s.Rating < food.MinRating {
		s.Rating = food.MinRating
	}
	if s.Rating > food.MaxRating {
		s.Rating = food.MaxRating
	}
	s.Explanation = strings.TrimSpace(s.Explanation)
	return s
}
