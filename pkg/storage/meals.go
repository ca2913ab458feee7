package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/foodfriend/foodfriend/pkg/food"
)

// InsertMeal logs m for userID and returns its id. An empty date means
// today (UTC). imageKey is the archived photo, if any.
func (d *DB) InsertMeal(ctx context.Context, userID string, m food.Meal, imageKey string) (int64, error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	if m.Date == "" {
		m.Date = time.Now().UTC().Format(food.DateLayout)
	}
	ings := m.Ingredients
	if ings == nil {
		ings = []string{}
	}
	ingsJSON, err := json.Marshal(ings)
	if err != nil {
		return 0, err
	}

	cols := append([]string{"user_id", "title", "calories", "date"}, food.NutrientFields...)
	cols = append(cols, "ingredients", "image_key")
	args := []interface{}{userID, m.Title, m.Calories, m.Date}
	for _, f := range food.NutrientFields {
		args = append(args, m.Nutrient(f))
	}
	args = append(args, string(ingsJSON), nullIfEmpty(imageKey))

	if _, err := d.sql.ExecContext(ctx, `INSERT OR IGNORE INTO users(id) VALUES(?)`, userID); err != nil {
		return 0, err
	}
	q := "INSERT INTO meals(" + strings.Join(cols, ", ") + ") VALUES(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	res, err := d.sql.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MealsForDay lists userID's meals whose date falls on day (YYYY-MM-DD),
// oldest first. limit <= 0 means no limit.
func (d *DB) MealsForDay(ctx context.Context, userID, day string, limit int) ([]food.Meal, error) {
	if _, err := time.Parse(food.DateLayout, day); err != nil {
		return nil, err
	}
	cols := append([]string{"id", "title", "calories", "date"}, food.NutrientFields...)
	cols = append(cols, "ingredients")
	q := "SELECT " + strings.Join(cols, ", ") + " FROM meals WHERE user_id = ? AND substr(date, 1, 10) = ? ORDER BY id"
	args := []interface{}{userID, day}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return d.queryMeals(ctx, q, args...)
}

// RecentMeals lists userID's meals from the last `days` calendar days (UTC),
// today included, newest first. The health score is computed from it.
func (d *DB) RecentMeals(ctx context.Context, userID string, days int) ([]food.Meal, error) {
	return d.recentMeals(ctx, userID, days, time.Now())
}

func (d *DB) recentMeals(ctx context.Context, userID string, days int, now time.Time) ([]food.Meal, error) {
	if days < 1 {
		days = 1
	}
	since := now.UTC().AddDate(0, 0, 1-days).Format(food.DateLayout)
	cols := append([]string{"id", "title", "calories", "date"}, food.NutrientFields...)
	cols = append(cols, "ingredients")
	q := "SELECT " + strings.Join(cols, ", ") + " FROM meals WHERE user_id = ? AND substr(date, 1, 10) >= ? ORDER BY id DESC"
	return d.queryMeals(ctx, q, userID, since)
}

func (d *DB) queryMeals(ctx context.Context, q string, args ...interface{}) ([]food.Meal, error) {
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []food.Meal{}
	for rows.Next() {
		var (
			m        food.Meal
			ingsJSON string
		)
		nutrients := make([]sql.NullString, len(food.NutrientFields))
		dest := []interface{}{&m.ID, &m.Title, &m.Calories, &m.Date}
		for i := range nutrients {
			dest = append(dest, &nutrients[i])
		}
		dest = append(dest, &ingsJSON)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, f := range food.NutrientFields {
			m.SetNutrient(f, nutrients[i].String)
		}
		if err := json.Unmarshal([]byte(ingsJSON), &m.Ingredients); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
