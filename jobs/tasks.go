package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskStockLow reports a product at or under its reorder limit.
	TaskStockLow = "stock:low"
	// TaskQuantityResync recomputes product quantities from branch stock.
	TaskQuantityResync = "catalog:quantity-resync"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// StockLowPayload describes a low stock observation.
type StockLowPayload struct {
	BranchID  int64           `json:"branch_id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Limit     decimal.Decimal `json:"limit"`
}

// NewStockLowTask constructs an Asynq task.
func NewStockLowTask(payload StockLowPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLow, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// QuantityResyncPayload carries scheduling metadata.
type QuantityResyncPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewQuantityResyncTask constructs an Asynq task for the nightly resync.
func NewQuantityResyncTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(QuantityResyncPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuantityResync, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload sets the retention window in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task pruning keys older than retention.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
