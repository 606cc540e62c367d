package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"shopping-planner/internal/auth"
	"shopping-planner/internal/config"
	"shopping-planner/internal/ghost"
	"shopping-planner/internal/metrics"
	"shopping-planner/internal/planner"
	"shopping-planner/internal/recipe"
	"shopping-planner/internal/shopping"
	"shopping-planner/internal/week"
)

// App holds the dependencies of the command line tool.
type App struct {
	ghostClient  ghost.Client
	importer     *recipe.Importer
	recipeRepo   RecipeStore
	planRepo     *planner.PlanRepository
	metricsStore *metrics.Store
	authority    *auth.Authority
	cfg          *config.Config
	out          io.Writer
}

// NewApp creates and initializes a new App instance. Output goes to out.
func NewApp(
	ghostClient ghost.Client,
	recipeRepo RecipeStore,
	planRepo *planner.PlanRepository,
	metricsStore *metrics.Store,
	authority *auth.Authority,
	cfg *config.Config,
	out io.Writer,
) *App {
	return &App{
		ghostClient:  ghostClient,
		importer:     recipe.NewImporter(),
		recipeRepo:   recipeRepo,
		planRepo:     planRepo,
		metricsStore: metricsStore,
		authority:    authority,
		cfg:          cfg,
		out:          out,
	}
}

// IngestRecipes fetches recipe posts from Ghost and stores their ingredient lists.
// Posts without an ingredient list are skipped.
func (a *App) IngestRecipes(ctx context.Context) (int, error) {
	fmt.Fprintln(a.out, "Fetching recipes...")

	posts, err := a.ghostClient.FetchRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}

	fmt.Fprintf(a.out, "Successfully fetched %d recipe posts from Ghost.\n", len(posts))
	imported := 0
	for _, post := range posts {
		saved, err := ProcessAndSaveRecipe(ctx, a.importer, a.recipeRepo, post)
		switch {
		case errors.Is(err, recipe.ErrNoIngredients):
			log.Printf("Skipping '%s': no ingredient list", post.Title)
		case err != nil:
			log.Printf("Failed to import '%s': %v", post.Title, err)
		case !saved:
			log.Printf("Recipe '%s' is up-to-date. Skipping.", post.Title)
		default:
			imported++
			log.Printf("Successfully imported '%s'.", post.Title)
		}
	}
	fmt.Fprintf(a.out, "Ingestion complete. Imported %d recipe(s).\n", imported)
	return imported, nil
}

// IssueToken prints a bearer token for userID.
func (a *App) IssueToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	token, err := a.authority.Issue(userID)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(a.out, token)
	return token, nil
}

// PrintSummary prints the shopping list of a user's week, index weeks after the base week.
func (a *App) PrintSummary(ctx context.Context, userID string, index int) error {
	k := week.KeyOf(week.At(a.cfg.BaseWeek, index))
	stored, err := a.planRepo.Load(ctx, userID, k.String())
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	fmt.Fprintf(a.out, "=== WEEK %d (%s) ===\n", index, k)
	if stored == nil {
		fmt.Fprintln(a.out, "No plan saved for this week.")
		return nil
	}
	fmt.Fprintf(a.out, "Last saved: %s\n", stored.SavedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(a.out, "Unchecked items: %d\n", planner.CountUnchecked(stored.Plan))

	fmt.Fprintln(a.out, "\n=== SHOPPING LIST ===")
	lines := shopping.NewSummarizer(a.cfg.Collation).Summarize(stored.Plan)
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Nothing left to buy.")
	}
	for _, l := range lines {
		fmt.Fprintf(a.out, "- %s\n", l)
	}
	return nil
}

// CleanupMetrics removes sync events older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, errors.New("days must be positive")
	}
	affected, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(a.out, "Successfully removed %d old metric records.\n", affected)
	return affected, nil
}
