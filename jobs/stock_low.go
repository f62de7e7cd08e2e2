package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/kassa-pos/kassa/internal/jobs"
	"github.com/kassa-pos/kassa/internal/shared"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// StockLowJob records low stock alerts.
type StockLowJob struct {
	Audit   AuditRecorder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStockLowJob initialises the low stock handler.
func NewStockLowJob(audit AuditRecorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockLowJob {
	return &StockLowJob{Audit: audit, Logger: logger, Metrics: metrics}
}

// Handle processes TaskStockLow tasks.
func (j *StockLowJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil {
		return errors.New("stock low: handler not configured")
	}
	var payload StockLowPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("stock low: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskStockLow)
	defer func() {
		err = tracker.End(err)
	}()

	j.logger().Warn("product stock at or under limit",
		slog.Int64("branch_id", payload.BranchID),
		slog.Int64("product_id", payload.ProductID),
		slog.String("quantity", payload.Quantity.String()),
		slog.String("limit", payload.Limit.String()))

	if j.Audit != nil {
		if err := j.Audit.Record(ctx, shared.AuditLog{
			Action:   TaskStockLow,
			Entity:   "stock",
			EntityID: strconv.FormatInt(payload.BranchID, 10) + ":" + strconv.FormatInt(payload.ProductID, 10),
			Meta: map[string]any{
				"branch_id":  payload.BranchID,
				"product_id": payload.ProductID,
				"quantity":   payload.Quantity.String(),
				"limit":      payload.Limit.String(),
			},
		}); err != nil {
			return fmt.Errorf("stock low: audit: %w", err)
		}
	}
	j.Metrics.AddLowStockAlert(payload.BranchID)
	return nil
}

func (j *StockLowJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
