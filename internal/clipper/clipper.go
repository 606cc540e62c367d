package clipper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"shopping-planner/internal/recipe"
)

const maxPageBytes = 5 << 20

// RecipeSaver persists clipped recipes.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// Clipper imports recipes from web pages into the recipe store.
type Clipper struct {
	importer   *recipe.Importer
	recipes    RecipeSaver
	httpClient *http.Client
}

// NewClipper creates a new Clipper instance.
func NewClipper(importer *recipe.Importer, recipes RecipeSaver) *Clipper {
	return &Clipper{
		importer:   importer,
		recipes:    recipes,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the page, extracts its ingredient list and saves it as a recipe. Clipping
// the same URL again updates the same recipe.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*recipe.Recipe, error) {
	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	defer body.Close()

	rec, err := c.importer.FromHTML(recipeID(url), io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to extract recipe from %s: %w", url, err)
	}
	if rec.Name == "" {
		rec.Name = url
	}

	if err := c.recipes.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	return &rec, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// recipeID derives a stable id from the page URL.
func recipeID(url string) string {
	return "clip-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}
