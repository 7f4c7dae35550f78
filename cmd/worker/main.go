// Package main implements the WordBridge background worker: it consumes
// upload jobs from the queue, turns student writing samples into
// AI-generated vocabulary recommendations, and recovers uploads stuck by
// crashed runs.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	gstorage "cloud.google.com/go/storage"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/wordbridge/wordbridge-api/internal/config"
	"github.com/wordbridge/wordbridge-api/internal/contentfilter"
	"github.com/wordbridge/wordbridge-api/internal/platform/gcs"
	"github.com/wordbridge/wordbridge-api/internal/platform/gemini"
	"github.com/wordbridge/wordbridge-api/internal/platform/logger"
	"github.com/wordbridge/wordbridge-api/internal/platform/postgres"
	"github.com/wordbridge/wordbridge-api/internal/queue"
	"github.com/wordbridge/wordbridge-api/internal/worker"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker exited with error: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("worker configuration loaded",
		"log_level", cfg.Server.LogLevel,
		"health_port", cfg.Server.HealthPort,
		"broker_configured", cfg.Queue.AMQPURL != "")

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := postgres.RunMigrations(db, appLogger); err != nil {
		return err
	}

	jobQueue, err := queue.New(cfg.Queue, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up job queue: %w", err)
	}
	defer func() { _ = jobQueue.Close() }()

	fetcher := newFetcher(ctx, appLogger)

	generator, err := gemini.NewGenerator(ctx, appLogger, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to set up recommendation generator: %w", err)
	}

	filterOpts := []contentfilter.Option{contentfilter.WithEnabled(cfg.Analysis.FilterEnabled)}
	if cfg.Analysis.BlockedWordsFile != "" {
		filterOpts = append(filterOpts, contentfilter.WithExtraWordsFile(cfg.Analysis.BlockedWordsFile))
	}
	filter, err := contentfilter.New(appLogger, filterOpts...)
	if err != nil {
		return fmt.Errorf("failed to set up content filter: %w", err)
	}

	uploadStore := postgres.NewPostgresUploadStore(db, appLogger)
	profileStore := postgres.NewPostgresStudentProfileStore(db, appLogger)
	recommendationStore := postgres.NewPostgresRecommendationStore(db, appLogger)

	processor := worker.NewProcessor(
		uploadStore,
		profileStore,
		recommendationStore,
		fetcher,
		generator,
		filter,
		cfg.Retry,
		cfg.Analysis,
		appLogger,
	)

	w := worker.NewWorker(jobQueue, processor, uploadStore, cfg.Worker, cfg.Queue, appLogger)

	health := newHealthServer(cfg, db, w, appLogger)
	health.start(ctx)
	defer health.shutdown()

	appLogger.Info("starting upload worker loop")
	return w.Run(ctx)
}

// newFetcher builds the file fetcher. Cloud Storage credentials are
// optional: without them the worker still serves local file paths, which
// covers development and tests.
func newFetcher(ctx context.Context, appLogger *slog.Logger) gcs.Fetcher {
	storageClient, err := gstorage.NewClient(ctx)
	if err != nil {
		appLogger.Warn("cloud storage unavailable, serving local paths only", "error", err)
		storageClient = nil
	}
	return gcs.NewClient(storageClient, appLogger)
}
