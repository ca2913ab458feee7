package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/foodfriend/foodfriend/pkg/food"
)

// SaveRecipe stores r under userID with its ingredients, in one
// transaction, and returns the new id.
func (d *DB) SaveRecipe(ctx context.Context, userID string, r food.Recipe) (id int64, err error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return 0, errors.New("recipe title is required")
	}
	macros := food.Macros{}
	if r.Macros != nil {
		macros = *r.Macros
	}
	macrosJSON, err := json.Marshal(macros)
	if err != nil {
		return 0, err
	}
	steps := r.Instructions
	if steps == nil {
		steps = []string{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return 0, err
	}
	category := food.NormalizeCategory(string(r.Category))

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO users(id) VALUES(?)`, userID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO recipes(user_id, title, macros, steps, category) VALUES(?,?,?,?,?)`,
		userID, r.Name, string(macrosJSON), string(stepsJSON), string(category))
	if err != nil {
		return 0, err
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}
	for i, ing := range r.Ingredients {
		var qty interface{}
		if ing.Quantity != nil {
			qty = *ing.Quantity
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO ingredients(recipe_id, position, name, quantity, unit) VALUES(?,?,?,?,?)`,
			id, i, ing.Name, qty, ing.Unit); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRecipe returns one recipe, or ErrNotFound.
func (d *DB) GetRecipe(ctx context.Context, id int64) (food.Recipe, error) {
	rs, err := d.queryRecipes(ctx, "WHERE r.id = ?", []interface{}{id}, 1)
	if err != nil {
		return food.Recipe{}, err
	}
	if len(rs) == 0 {
		return food.Recipe{}, ErrNotFound
	}
	return rs[0], nil
}

// RecipeFilter controls ListRecipes. Zero values mean no filter; Limit <= 0
// means no limit.
type RecipeFilter struct {
	UserID   string
	Category string
	Limit    int
}

// ListRecipes returns recipes newest first.
func (d *DB) ListRecipes(ctx context.Context, f RecipeFilter) ([]food.Recipe, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if f.UserID != "" {
		where += " AND r.user_id = ?"
		args = append(args, f.UserID)
	}
	if f.Category != "" {
		where += " AND r.category = ?"
		args = append(args, string(food.NormalizeCategory(f.Category)))
	}
	return d.queryRecipes(ctx, where, args, f.Limit)
}

func (d *DB) queryRecipes(ctx context.Context, where string, args []interface{}, limit int) ([]food.Recipe, error) {
	q := "SELECT r.id, r.title, r.macros, r.steps, r.category FROM recipes r " + where + " ORDER BY r.id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	type row struct {
		id                   int64
		title, macros, steps string
		category             string
	}
	var found []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.title, &r.macros, &r.steps, &r.category); err != nil {
			rows.Close()
			return nil, err
		}
		found = append(found, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]food.Recipe, 0, len(found))
	for _, r := range found {
		var macros food.Macros
		if err := json.Unmarshal([]byte(r.macros), &macros); err != nil {
			return nil, fmt.Errorf("recipe %d: bad macros: %w", r.id, err)
		}
		var steps []string
		if err := json.Unmarshal([]byte(r.steps), &steps); err != nil {
			return nil, fmt.Errorf("recipe %d: bad steps: %w", r.id, err)
		}
		ings, err := d.ingredients(ctx, r.id)
		if err != nil {
			return nil, err
		}
		out = append(out, food.NewRecipe(r.id, r.title, ings, steps, r.category, &macros))
	}
	return out, nil
}

func (d *DB) ingredients(ctx context.Context, recipeID int64) ([]food.Ingredient, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT name, quantity, unit FROM ingredients WHERE recipe_id = ? ORDER BY position", recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []food.Ingredient{}
	for rows.Next() {
		var ing food.Ingredient
		var qty sql.NullFloat64
		if err := rows.Scan(&ing.Name, &qty, &ing.Unit); err != nil {
			return nil, err
		}
		if qty.Valid {
			v := qty.Float64
			ing.Quantity = &v
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}
