package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/kassa-pos/kassa/internal/jobs"
)

// QuantityResyncer recomputes product quantities from branch stock.
type QuantityResyncer interface {
	ResyncProductQuantities(ctx context.Context) (int64, error)
}

// QuantityResyncJob reconciles the global product quantity with branch stock.
type QuantityResyncJob struct {
	Repo    QuantityResyncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewQuantityResyncJob initialises the resync handler.
func NewQuantityResyncJob(repo QuantityResyncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuantityResyncJob {
	return &QuantityResyncJob{Repo: repo, Logger: logger, Metrics: metrics}
}

// Handle processes TaskQuantityResync tasks.
func (j *QuantityResyncJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Repo == nil {
		return errors.New("quantity resync: handler not configured")
	}
	tracker := j.Metrics.Track(TaskQuantityResync)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	changed, err := j.Repo.ResyncProductQuantities(ctx)
	if err != nil {
		logger.Error("quantity resync failed", slog.Any("error", err))
		return err
	}
	logger.Info("product quantities resynced",
		slog.Int64("changed", changed),
		slog.Duration("took", time.Since(start)))
	return nil
}
