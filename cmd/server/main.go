package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/storage/redis/v3"

	"salespilot/internal/classify"
	"salespilot/internal/config"
	"salespilot/internal/control"
	"salespilot/internal/db"
	"salespilot/internal/email"
	"salespilot/internal/engine"
	"salespilot/internal/jobs"
	"salespilot/internal/llm"
	"salespilot/internal/metrics"
	"salespilot/internal/progress"
	"salespilot/internal/ratelimit"
	"salespilot/internal/server"
	"salespilot/internal/statestore"
	"salespilot/internal/summary"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := slog.Default()

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	if cfg.IsDev() {
		if err := database.SeedDevTenant(ctx); err != nil {
			log.Printf("Warning: failed to seed demo tenant: %v", err)
		}
	}

	// Fast store: Redis when configured, in-memory otherwise. The
	// in-memory fallback is only correct for a single serving instance.
	var fast statestore.Storage
	if cfg.RedisURL != "" {
		fast = redis.New(redis.Config{URL: cfg.RedisURL})
		log.Println("Fast store: redis")
	} else {
		fast = statestore.NewMemory()
		log.Println("Fast store: in-memory (single instance only)")
	}

	// Optional YAML config for custom ask categories
	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}
	var customCategories []config.AskCategoryConfig
	if yamlCfg != nil {
		customCategories = yamlCfg.AskCategories
	}

	tracker, err := progress.NewTracker(customCategories)
	if err != nil {
		log.Fatalf("Failed to build progress tracker: %v", err)
	}

	metrics.Init()

	// Control plane wiring
	bridge := statestore.NewBridge(fast, database, cfg.CheckTimeout, cfg.RepopulateTTL, logger)
	controller := control.New(bridge, cfg.PauseTTL, cfg.SuppressTTL, logger)
	limiter := ratelimit.New(fast, ratelimit.Config{
		ActorPerMinute:  cfg.RateActorPerMinute,
		ActorPerHour:    cfg.RateActorPerHour,
		GlobalPerMinute: cfg.RateGlobalPerMinute,
		CheckTimeout:    cfg.CheckTimeout,
	}, logger)

	model := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey)
	summarizer := summary.New(model, database, cfg.LLMModel, logger)
	classifier := classify.New(model, database, cfg.ClassifierModel, logger)
	notifier := email.NewNotifier(cfg)
	runner := jobs.NewClassifyRunner(database, classifier, notifier,
		cfg.ClassifyInterval, cfg.ClassifyPause, cfg.ClassifyBatchSize, cfg.ClassifyParallelism, logger)

	eng := engine.New(database, controller, limiter, tracker, summarizer, model, engine.Config{
		Model:        cfg.LLMModel,
		MaxSentences: cfg.MaxSentences,
	}, logger)

	// Background classification loop (disabled unless an interval is set)
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	go runner.Start(jobCtx)

	srv := server.New(cfg)
	srv.RegisterRoutes(database, fast, eng, controller, runner, logger)

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancelJobs()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
