package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
	"github.com/Pankaj-karwasra/product-importer/internal/config"
	"github.com/Pankaj-karwasra/product-importer/internal/importer"
	"github.com/Pankaj-karwasra/product-importer/internal/logging"
	"github.com/Pankaj-karwasra/product-importer/internal/notify"
	"github.com/Pankaj-karwasra/product-importer/internal/progress"
	"github.com/Pankaj-karwasra/product-importer/internal/queue"
	"github.com/Pankaj-karwasra/product-importer/internal/worker"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"queue", cfg.Redis.QueueName,
		"batch_size", cfg.Import.BatchSize,
		"webhook_timeout", cfg.Webhook.Timeout,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Connect to Redis for the job queue and progress snapshots
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to ping redis", "error", err)
		os.Exit(1)
	}

	store := catalog.NewStore(pool)
	progressStore := progress.NewStore(rdb, cfg.Redis.ProgressTTL)
	jobs := queue.NewRedisQueue(rdb, cfg.Redis.QueueName)

	imp := importer.New(store, progressStore, cfg.Import.BatchSize)
	dispatcher := notify.New(store, cfg.Webhook.Timeout, cfg.Webhook.BodyLimit)

	w := worker.New(jobs, imp, dispatcher)

	// The consume loop runs until SIGINT/SIGTERM cancels the context.
	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
