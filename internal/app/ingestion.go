package app

import (
	"context"
	"fmt"
	"time"

	"shopping-planner/internal/ghost"
	"shopping-planner/internal/recipe"
)

// RecipeStore is the part of the recipe repository ingestion needs.
type RecipeStore interface {
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
	Save(ctx context.Context, rec recipe.Recipe) error
}

// ProcessAndSaveRecipe imports one post and saves it. It reports false when the stored
// recipe is already at the post's revision.
func ProcessAndSaveRecipe(
	ctx context.Context,
	importer *recipe.Importer,
	recipes RecipeStore,
	post ghost.Post,
) (bool, error) {
	if current, err := recipes.Get(ctx, post.ID); err != nil {
		return false, fmt.Errorf("failed to look up recipe: %w", err)
	} else if current != nil && upToDate(current.UpdatedAt, post.UpdatedAt) {
		return false, nil
	}

	rec, err := importer.FromPost(post)
	if err != nil {
		return false, err
	}
	if err := recipes.Save(ctx, rec); err != nil {
		return false, fmt.Errorf("failed to save recipe: %w", err)
	}
	return true, nil
}

func upToDate(stored time.Time, postUpdatedAt string) bool {
	t, err := time.Parse(time.RFC3339, postUpdatedAt)
	if err != nil {
		return false
	}
	return !t.After(stored)
}
