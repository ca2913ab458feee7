package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/whttp"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const (
	SavedRecipesPath     = "/recipe"
	UserSavedRecipesPath = "/user_recipe"

	CategoryPageLimit = 20
	DayMealsLimit     = 50
)

// Config selects the backend and transport behaviour.
type Config struct {
	BaseURL string
	// Retries applies to reads only. Uploads and saves are never retried.
	Retries int
	Timeout time.Duration
	Proxy   string
	// SavedRecipesPath is "/recipe" or "/user_recipe", depending on the
	// backend variant.
	SavedRecipesPath string
	// Token returns the bearer token of the signed-in user, or "".
	Token func() string
}

// Client talks to the recipe and meal analysis API.
type Client struct {
	base   string
	cfg    Config
	reads  *retryablehttp.Client
	writes *retryablehttp.Client
	nextID int64
}

// ListOptions filters GlobalRecipes.
type ListOptions struct {
	Limit    int
	Category string
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: no base URL configured (set api.url or FOODFRIEND_API_URL)")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("api: bad base URL: %w", err)
	}
	if cfg.SavedRecipesPath == "" {
		cfg.SavedRecipesPath = SavedRecipesPath
	}

	reads, err := whttp.NewClient(whttp.ClientOptions{Proxy: cfg.Proxy, Retries: cfg.Retries, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	writes, err := whttp.NewClient(whttp.ClientOptions{Proxy: cfg.Proxy, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}

	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		cfg:    cfg,
		reads:  reads,
		writes: writes,
	}, nil
}

// AnalyzeForRecipe uploads a photo and maps the analysed dish into a Recipe.
// The id comes from a client-local counter.
func (c *Client) AnalyzeForRecipe(ctx context.Context, photo food.Photo) (food.Recipe, error) {
	const op = "analyze recipe"
	res, err := c.upload(ctx, op, c.base+"/", photo)
	if err != nil {
		return food.Recipe{}, err
	}
	p, err := decodeAnalysis(res.Body)
	if err != nil {
		return food.Recipe{}, decodeError(op, err)
	}
	return p.recipe(atomic.AddInt64(&c.nextID, 1)), nil
}

// GenerateRecipe asks for a recipe matching a free-text wish. Like
// AnalyzeForRecipe, the id comes from the client-local counter.
func (c *Client) GenerateRecipe(ctx context.Context, message string) (food.Recipe, error) {
	const op = "generate recipe"
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return food.Recipe{}, &Error{Op: op, Kind: KindDecode, Err: err}
	}
	res, err := c.send(ctx, op, c.writes, "POST", c.base+"/recipe/generate", "application/json", body)
	if err != nil {
		return food.Recipe{}, err
	}
	p, err := decodeAnalysis(res.Body)
	if err != nil {
		return food.Recipe{}, decodeError(op, err)
	}
	return p.recipe(atomic.AddInt64(&c.nextID, 1)), nil
}

// AnalyzeForMeal uploads a photo and logs it as a meal for userID.
func (c *Client) AnalyzeForMeal(ctx context.Context, photo food.Photo, userID string) (food.Meal, error) {
	const op = "track meal"
	res, err := c.upload(ctx, op, c.endpoint("/track_meal", url.Values{"user_id": {userID}}), photo)
	if err != nil {
		return food.Meal{}, err
	}
	m, err := decodeMealBody(res.Body)
	if err != nil {
		return food.Meal{}, decodeError(op, err)
	}
	return m, nil
}

// SaveRecipe stores r in userID's collection.
func (c *Client) SaveRecipe(ctx context.Context, r food.Recipe, userID string) error {
	const op = "save recipe"
	rec := r.Record()
	// The id is client-local; the server assigns its own.
	rec.ID = 0
	body, err := json.Marshal(rec)
	if err != nil {
		return &Error{Op: op, Kind: KindDecode, Err: err}
	}
	_, err = c.send(ctx, op, c.writes, "POST", c.endpoint("/recipe/save", url.Values{"user_id": {userID}}), "application/json", body)
	return err
}

// GlobalRecipes lists recipes from every user, optionally by category.
func (c *Client) GlobalRecipes(ctx context.Context, opts ListOptions) ([]food.Recipe, error) {
	q := url.Values{}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	return c.recipeList(ctx, "list recipes", c.endpoint("/global_recipe", q))
}

// SavedRecipes lists userID's saved recipes.
func (c *Client) SavedRecipes(ctx context.Context, userID string) ([]food.Recipe, error) {
	return c.recipeList(ctx, "saved recipes", c.endpoint(c.cfg.SavedRecipesPath, url.Values{"user_id": {userID}}))
}

// Recipe fetches one saved recipe. A 404 wraps ErrNotFound.
func (c *Client) Recipe(ctx context.Context, id int64) (food.Recipe, error) {
	const op = "get recipe"
	res, err := c.send(ctx, op, c.reads, "GET", c.endpoint("/recipe/"+strconv.FormatInt(id, 10), nil), "", nil)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			apiErr.Err = ErrNotFound
		}
		return food.Recipe{}, err
	}
	p, err := decodeRecipeBody(res.Body, false)
	if err != nil {
		return food.Recipe{}, decodeError(op, err)
	}
	if !p.HasID {
		p.ID = id
	}
	return p.recipe(p.ID), nil
}

// HealthScore fetches the daily rating of userID's meals.
func (c *Client) HealthScore(ctx context.Context, userID string) (food.HealthScore, error) {
	const op = "health score"
	res, err := c.send(ctx, op, c.reads, "GET", c.endpoint("/meals/analysis", url.Values{"user_id": {userID}}), "", nil)
	if err != nil {
		return food.HealthScore{}, err
	}
	s, err := decodeHealthScore(res.Body)
	if err != nil {
		return food.HealthScore{}, decodeError(op, err)
	}
	return s, nil
}

// MealsForDay lists the meals userID logged on date (YYYY-MM-DD).
func (c *Client) MealsForDay(ctx context.Context, userID, date string, limit int) ([]food.Meal, error) {
	const op = "meals for day"
	q := url.Values{"user_id": {userID}, "date": {date}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	res, err := c.send(ctx, op, c.reads, "GET", c.endpoint("/meals/day", q), "", nil)
	if err != nil {
		return nil, err
	}
	meals, err := decodeMealList(res.Body)
	if err != nil {
		return nil, decodeError(op, err)
	}
	return meals, nil
}

func (c *Client) recipeList(ctx context.Context, op, endpoint string) ([]food.Recipe, error) {
	res, err := c.send(ctx, op, c.reads, "GET", endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	payloads, err := decodeRecipeList(res.Body)
	if err != nil {
		return nil, decodeError(op, err)
	}
	out := make([]food.Recipe, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, p.recipe(p.ID))
	}
	return out, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// upload posts photo as the multipart field "file".
func (c *Client) upload(ctx context.Context, op, endpoint string, photo food.Photo) (*whttp.WHTTPRes, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="photo.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, transportError(op, err)
	}
	if _, err := part.Write(photo.JPEG); err != nil {
		return nil, transportError(op, err)
	}
	if err := mw.Close(); err != nil {
		return nil, transportError(op, err)
	}
	return c.send(ctx, op, c.writes, "POST", endpoint, mw.FormDataContentType(), buf.Bytes())
}

func (c *Client) send(ctx context.Context, op string, client *retryablehttp.Client, method, endpoint, contentType string, body []byte) (*whttp.WHTTPRes, error) {
	requestID := uuid.NewString()
	headers := []whttp.WHTTPHeader{{Name: "X-Request-ID", Value: requestID}}
	if contentType != "" {
		headers = append(headers, whttp.WHTTPHeader{Name: "Content-Type", Value: contentType})
	}
	if c.cfg.Token != nil {
		if token := c.cfg.Token(); token != "" {
			headers = append(headers, whttp.WHTTPHeader{Name: "Authorization", Value: "Bearer " + token})
		}
	}

	log := utils.Log.WithFields(logrus.Fields{"op": op, "request_id": requestID})
	log.Debugf("%s %s", method, endpoint)

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  method,
		URL:     endpoint,
		Headers: headers,
		Body:    body,
	}, client)
	if err != nil {
		return nil, transportError(op, err)
	}
	if !res.OK() {
		log.Debugf("status %d: %s", res.StatusCode, res.BodyString)
		return nil, statusError(op, res.StatusCode)
	}
	return res, nil
}
