package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	db "shopping-planner/internal/recipe/db"
)

// Repository is a database-backed repository for recipes and ingredients.
type Repository struct {
	queries *db.Queries
	db      *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: db.New(d),
		db:      d,
	}
}

// Save inserts or updates a recipe.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	if rec.ID == "" {
		return fmt.Errorf("recipe has no id")
	}
	lines, err := json.Marshal(rec.IngredientLines)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredient lines: %w", err)
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	return r.queries.UpsertRecipe(ctx, db.UpsertRecipeParams{
		ID:              rec.ID,
		Name:            rec.Name,
		IngredientLines: string(lines),
		UpdatedAt:       updatedAt.UTC(),
	})
}

// Get retrieves a recipe by its ID. A missing recipe is nil, nil.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	row, err := r.queries.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}
	rec, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List retrieves all recipes ordered by name.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.queries.ListAllRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return fromRows(rows), nil
}

// FindByName returns up to limit recipes whose name contains query.
func (r *Repository) FindByName(ctx context.Context, query string, limit int) ([]Recipe, error) {
	rows, err := r.queries.FindRecipesByName(ctx, db.FindRecipesByNameParams{
		Name:  sql.NullString{String: query, Valid: true},
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find recipes: %w", err)
	}
	return fromRows(rows), nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.queries.CountRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return int(count), nil
}

// SaveIngredient inserts or updates a catalogue ingredient.
func (r *Repository) SaveIngredient(ctx context.Context, ing Ingredient) error {
	return r.queries.UpsertIngredient(ctx, db.UpsertIngredientParams{
		ID:            ing.ID,
		Name:          ing.Name,
		Vendor:        sql.NullString{String: ing.Vendor, Valid: ing.Vendor != ""},
		ProteinPer100: ing.ProteinPer100,
		CarbsPer100:   ing.CarbsPer100,
		FatPer100:     ing.FatPer100,
	})
}

// GetIngredient retrieves an ingredient by its ID. A missing ingredient is nil, nil.
func (r *Repository) GetIngredient(ctx context.Context, id string) (*Ingredient, error) {
	row, err := r.queries.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient by ID: %w", err)
	}
	ing := ingredientFromRow(row)
	return &ing, nil
}

// ListIngredients retrieves the whole catalogue ordered by name.
func (r *Repository) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := r.queries.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	out := make([]Ingredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, ingredientFromRow(row))
	}
	return out, nil
}

func fromRow(row db.Recipe) (Recipe, error) {
	var lines []string
	if err := json.Unmarshal([]byte(row.IngredientLines), &lines); err != nil {
		return Recipe{}, fmt.Errorf("failed to unmarshal ingredient lines of %s: %w", row.ID, err)
	}
	return Recipe{ID: row.ID, Name: row.Name, IngredientLines: lines, UpdatedAt: row.UpdatedAt}, nil
}

func fromRows(rows []db.Recipe) []Recipe {
	out := make([]Recipe, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			log.Printf("Warning: skipping recipe: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func ingredientFromRow(row db.Ingredient) Ingredient {
	return Ingredient{
		ID:            row.ID,
		Name:          row.Name,
		Vendor:        row.Vendor.String,
		ProteinPer100: row.ProteinPer100,
		CarbsPer100:   row.CarbsPer100,
		FatPer100:     row.FatPer100,
	}
}
