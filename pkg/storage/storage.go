package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/foodfriend/foodfriend/pkg/food"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(schema()); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func schema() string {
	nutrientCols := make([]string, len(food.NutrientFields))
	for i, f := range food.NutrientFields {
		nutrientCols[i] = fmt.Sprintf("  %s TEXT NOT NULL DEFAULT ''", f)
	}
	return `
CREATE TABLE IF NOT EXISTS users (
  id          TEXT PRIMARY KEY,
  email       TEXT,
  first_name  TEXT,
  last_name   TEXT,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS recipes (
  id          INTEGER PRIMARY KEY,
  user_id     TEXT NOT NULL REFERENCES users(id),
  title       TEXT NOT NULL,
  macros      TEXT NOT NULL DEFAULT '{}',
  steps       TEXT NOT NULL DEFAULT '[]',
  category    TEXT NOT NULL DEFAULT 'other',
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_recipes_user ON recipes(user_id);
CREATE INDEX IF NOT EXISTS idx_recipes_category ON recipes(category);
CREATE TABLE IF NOT EXISTS ingredients (
  id          INTEGER PRIMARY KEY,
  recipe_id   INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
  position    INTEGER NOT NULL,
  name        TEXT NOT NULL,
  quantity    REAL,
  unit        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_ingredients_recipe ON ingredients(recipe_id, position);
CREATE TABLE IF NOT EXISTS meals (
  id          INTEGER PRIMARY KEY,
  user_id     TEXT NOT NULL REFERENCES users(id),
  title       TEXT NOT NULL,
  calories    INTEGER NOT NULL DEFAULT 0,
  date        TEXT NOT NULL,
` + strings.Join(nutrientCols, ",\n") + `,
  ingredients TEXT NOT NULL DEFAULT '[]',
  image_key   TEXT,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_meals_user_date ON meals(user_id, date);
`
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// User is an account known to the backend. The id is the identity
// provider's subject.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// EnsureUser inserts u, or refreshes its profile fields when present.
func (d *DB) EnsureUser(ctx context.Context, u User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO users(id, email, first_name, last_name) VALUES(?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  email = COALESCE(excluded.email, users.email),
  first_name = COALESCE(excluded.first_name, users.first_name),
  last_name = COALESCE(excluded.last_name, users.last_name)`,
		u.ID, nullIfEmpty(u.Email), nullIfEmpty(u.FirstName), nullIfEmpty(u.LastName))
	return err
}

// ListUsers returns every known user ordered by id.
func (d *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, '')
		FROM users
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Stats summarises the database for `db stats`.
type Stats struct {
	Users      int
	Recipes    int
	Meals      int
	ByCategory []CategoryCount
}

type CategoryCount struct {
	Category string
	Recipes  int
}

func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	row := d.sql.QueryRowContext(ctx, `SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM recipes),
  (SELECT COUNT(*) FROM meals)`)
	if err := row.Scan(&s.Users, &s.Recipes, &s.Meals); err != nil {
		return s, err
	}

	rows, err := d.sql.QueryContext(ctx, `
		SELECT
			category,
			COUNT(*)
		FROM
			recipes
		GROUP BY
			category
		ORDER BY
			category;
	`)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Recipes); err != nil {
			return s, err
		}
		s.ByCategory = append(s.ByCategory, c)
	}
	return s, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
