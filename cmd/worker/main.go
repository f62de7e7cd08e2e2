package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kassa-pos/kassa/internal/app"
	"github.com/kassa-pos/kassa/internal/catalog"
	jobmetrics "github.com/kassa-pos/kassa/internal/jobs"
	"github.com/kassa-pos/kassa/internal/platform/db"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	stockLowJob := jobs.NewStockLowJob(shared.NewAuditLogger(pool), logger, metrics)
	resyncJob := jobs.NewQuantityResyncJob(catalog.NewRepository(pool), logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(pool, shared.NewIdempotencyStore(), logger, metrics)

	resyncTask, err := jobs.NewQuantityResyncTask(time.Now().UTC())
	if err != nil {
		logger.Error("build resync task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.DefaultIdempotencyRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Queue:       cfg.JobQueue,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockLow, Handler: stockLowJob.Handle},
			{Type: jobs.TaskQuantityResync, Handler: resyncJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: resyncTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(cfg.JobQueue)}},
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(cfg.JobQueue)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
