// source: recipes.sql

package db

import (
	"context"
	"database/sql"
	"time"
)

const countRecipes = `-- name: CountRecipes :one
SELECT COUNT(*) FROM recipes
`

func (q *Queries) CountRecipes(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRecipes)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const findRecipesByName = `-- name: FindRecipesByName :many
SELECT id, name, ingredient_lines, updated_at FROM recipes
WHERE name LIKE '%' || ? || '%'
ORDER BY name
LIMIT ?
`

type FindRecipesByNameParams struct {
	Name  sql.NullString
	Limit int64
}

func (q *Queries) FindRecipesByName(ctx context.Context, arg FindRecipesByNameParams) ([]Recipe, error) {
	rows, err := q.db.QueryContext(ctx, findRecipesByName, arg.Name, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecipes(rows)
}

const getIngredientByID = `-- name: GetIngredientByID :one
SELECT id, name, vendor, protein_per_100, carbs_per_100, fat_per_100 FROM ingredients WHERE id = ?
`

func (q *Queries) GetIngredientByID(ctx context.Context, id string) (Ingredient, error) {
	row := q.db.QueryRowContext(ctx, getIngredientByID, id)
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Vendor,
		&i.ProteinPer100,
		&i.CarbsPer100,
		&i.FatPer100,
	)
	return i, err
}

const getRecipeByID = `-- name: GetRecipeByID :one
SELECT id, name, ingredient_lines, updated_at FROM recipes WHERE id = ?
`

func (q *Queries) GetRecipeByID(ctx context.Context, id string) (Recipe, error) {
	row := q.db.QueryRowContext(ctx, getRecipeByID, id)
	var i Recipe
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.IngredientLines,
		&i.UpdatedAt,
	)
	return i, err
}

const listAllRecipes = `-- name: ListAllRecipes :many
SELECT id, name, ingredient_lines, updated_at FROM recipes ORDER BY name
`

func (q *Queries) ListAllRecipes(ctx context.Context) ([]Recipe, error) {
	rows, err := q.db.QueryContext(ctx, listAllRecipes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecipes(rows)
}

const listIngredients = `-- name: ListIngredients :many
SELECT id, name, vendor, protein_per_100, carbs_per_100, fat_per_100 FROM ingredients ORDER BY name
`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.QueryContext(ctx, listIngredients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Ingredient
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Vendor,
			&i.ProteinPer100,
			&i.CarbsPer100,
			&i.FatPer100,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertIngredient = `-- name: UpsertIngredient :exec
INSERT INTO ingredients (id, name, vendor, protein_per_100, carbs_per_100, fat_per_100)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE
SET name = excluded.name, vendor = excluded.vendor, protein_per_100 = excluded.protein_per_100,
    carbs_per_100 = excluded.carbs_per_100, fat_per_100 = excluded.fat_per_100
`

type UpsertIngredientParams struct {
	ID            string
	Name          string
	Vendor        sql.NullString
	ProteinPer100 float64
	CarbsPer100   float64
	FatPer100     float64
}

func (q *Queries) UpsertIngredient(ctx context.Context, arg UpsertIngredientParams) error {
	_, err := q.db.ExecContext(ctx, upsertIngredient,
		arg.ID,
		arg.Name,
		arg.Vendor,
		arg.ProteinPer100,
		arg.CarbsPer100,
		arg.FatPer100,
	)
	return err
}

const upsertRecipe = `-- name: UpsertRecipe :exec
INSERT INTO recipes (id, name, ingredient_lines, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE
SET name = excluded.name, ingredient_lines = excluded.ingredient_lines, updated_at = excluded.updated_at
`

type UpsertRecipeParams struct {
	ID              string
	Name            string
	IngredientLines string
	UpdatedAt       time.Time
}

func (q *Queries) UpsertRecipe(ctx context.Context, arg UpsertRecipeParams) error {
	_, err := q.db.ExecContext(ctx, upsertRecipe,
		arg.ID,
		arg.Name,
		arg.IngredientLines,
		arg.UpdatedAt,
	)
	return err
}

func scanRecipes(rows *sql.Rows) ([]Recipe, error) {
	var items []Recipe
	for rows.Next() {
		var i Recipe
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.IngredientLines,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
