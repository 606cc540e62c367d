package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shopping-planner/internal/app"
	"shopping-planner/internal/auth"
	"shopping-planner/internal/clipper"
	"shopping-planner/internal/config"
	"shopping-planner/internal/database"
	"shopping-planner/internal/metrics"
	"shopping-planner/internal/planclient"
	"shopping-planner/internal/planner"
	"shopping-planner/internal/recipe"
	"shopping-planner/internal/telegram"
	"shopping-planner/internal/weeksync"
)

func main() {
	_ = godotenv.Load()

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. Storage
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	device, closeDevice, err := app.OpenDeviceStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open device store: %v", err)
	}
	defer closeDevice()

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	sessions := telegram.NewSessionRepository(db.SQL)

	if n, err := sessions.CleanupExpired(ctx); err != nil {
		log.Printf("Warning: failed to clean up sessions: %v", err)
	} else if n > 0 {
		log.Printf("Removed %d expired chat session(s)", n)
	}

	// 3. Remote store: the plan server when configured, the local table otherwise
	remote := func(*auth.Session) weeksync.RemoteStore { return planRepo }
	if cfg.PlanServerURL != "" {
		log.Printf("Syncing plans through %s", cfg.PlanServerURL)
		remote = func(s *auth.Session) weeksync.RemoteStore { return planclient.New(cfg.PlanServerURL, s) }
	}

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, telegram.Deps{
		Authority: auth.NewAuthority(cfg.AuthJWTSecret, cfg.AuthTokenTTL),
		Device:    device,
		Remote:    remote,
		Recorder:  metricsStore,
		Recipes:   recipeRepo,
		Clipper:   clipper.NewClipper(recipe.NewImporter(), recipeRepo),
		Metrics:   metricsStore,
		Sessions:  sessions,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 5. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	// Pending plan edits reach the remote store before exit.
	bot.Shutdown(ctxShutdown)

	log.Println("Server exiting")
}
