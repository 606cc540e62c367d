package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"shopping-planner/internal/app"
	"shopping-planner/internal/auth"
	"shopping-planner/internal/config"
	"shopping-planner/internal/database"
	"shopping-planner/internal/ghost"
	"shopping-planner/internal/metrics"
	"shopping-planner/internal/planner"
	"shopping-planner/internal/recipe"
	"shopping-planner/internal/week"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	application := app.NewApp(
		ghost.NewClient(cfg.GhostURL, cfg.GhostContentKey),
		recipe.NewRepository(db.SQL),
		planner.NewPlanRepository(db.SQL),
		metrics.NewStore(db.SQL),
		auth.NewAuthority(cfg.AuthJWTSecret, cfg.AuthTokenTTL),
		cfg,
		os.Stdout,
	)

	switch os.Args[1] {
	case "import-recipes":
		if cfg.GhostURL == "" || cfg.GhostContentKey == "" {
			log.Fatal("GHOST_API_URL and GHOST_CONTENT_API_KEY must be set")
		}
		if _, err := application.IngestRecipes(ctx); err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
	case "issue-token":
		tokenCmd := flag.NewFlagSet("issue-token", flag.ExitOnError)
		user := tokenCmd.String("user", "", "User id (token subject)")
		tokenCmd.Parse(os.Args[2:])

		if _, err := application.IssueToken(*user); err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
	case "summary":
		summaryCmd := flag.NewFlagSet("summary", flag.ExitOnError)
		current := week.Index(cfg.BaseWeek, time.Now())
		index := summaryCmd.Int("week", current, "Week index relative to BASE_WEEK")
		user := summaryCmd.String("user", "", "User id")
		summaryCmd.Parse(os.Args[2:])

		if *user == "" {
			log.Fatal("-user is required")
		}
		if err := application.PrintSummary(ctx, *user, *index); err != nil {
			log.Fatalf("Summary failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		if _, err := application.CleanupMetrics(ctx, *days); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: shopping-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  import-recipes     Import recipe ingredient lists from Ghost")
	fmt.Println("  issue-token        Issue a sign-in token (-user <id>)")
	fmt.Println("  summary            Print a week's shopping list (-user <id> -week <n>)")
	fmt.Println("  metrics-cleanup    Remove old sync events (-days N)")
}
