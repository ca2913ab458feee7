package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/ai"
	"github.com/foodfriend/foodfriend/pkg/session"
	"github.com/foodfriend/foodfriend/pkg/storage"
	"github.com/sirupsen/logrus"
)

// maxUploadBytes caps multipart photo uploads.
const maxUploadBytes = 10 << 20

// Server is the development backend. It serves the same HTTP contract as
// the production recipe and meal analysis API from a local database.
type Server struct {
	DB       *storage.DB
	Analyzer ai.Analyzer // nil disables the photo endpoints
	Images   storage.ImageStore
	// JWTSecret, when set, requires an HS256 bearer token on every request
	// and pins user_id to the token subject.
	JWTSecret string
}

func New(db *storage.DB, analyzer ai.Analyzer, images storage.ImageStore, jwtSecret string) *Server {
	if images == nil {
		images = storage.NoImages{}
	}
	return &Server{
		DB:        db,
		Analyzer:  analyzer,
		Images:    images,
		JWTSecret: jwtSecret,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /{$}", s.auth(s.handleAnalyzeRecipe))
	mux.HandleFunc("POST /track_meal", s.auth(s.withUser(s.handleTrackMeal)))
	mux.HandleFunc("GET /global_recipe", s.auth(s.handleGlobalRecipes))
	mux.HandleFunc("GET /recipe", s.auth(s.withUser(s.handleUserRecipes)))
	mux.HandleFunc("GET /user_recipe", s.auth(s.withUser(s.handleUserRecipes)))
	mux.HandleFunc("GET /recipe/{id}", s.auth(s.handleGetRecipe))
	mux.HandleFunc("POST /recipe/save", s.auth(s.withUser(s.handleSaveRecipe)))
	mux.HandleFunc("POST /recipe/generate", s.auth(s.handleGenerateRecipe))
	mux.HandleFunc("GET /meals/analysis", s.auth(s.withUser(s.handleMealAnalysis)))
	mux.HandleFunc("GET /meals/day", s.auth(s.withUser(s.handleMealsForDay)))

	return logRequests(mux)
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type ctxKey int

const userKey ctxKey = iota

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.JWTSecret == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, err := session.ParseToken(strings.TrimPrefix(header, "Bearer "), s.JWTSecret, time.Now())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, sess)))
	}
}

// withUser requires the user_id query parameter and, with auth enabled,
// that it names the token's subject. The token's profile claims are stored
// on the user row.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if sess, ok := r.Context().Value(userKey).(*session.Session); ok {
			if sess.UserID != userID {
				writeError(w, http.StatusForbidden, "user_id does not match token")
				return
			}
			if err := s.DB.EnsureUser(r.Context(), userFromSession(sess)); err != nil {
				utils.Log.Warnf("Could not store profile of %s: %v", userID, err)
			}
		}
		next(w, r)
	}
}

// userFromSession splits the name claim at its first space.
func userFromSession(sess *session.Session) storage.User {
	u := storage.User{ID: sess.UserID, Email: sess.Email}
	first, last, _ := strings.Cut(strings.TrimSpace(sess.Name), " ")
	u.FirstName = first
	u.LastName = strings.TrimSpace(last)
	return u
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		utils.Log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
			"request_id": r.Header.Get("X-Request-ID"),
		}).Info("request")
	})
}
