package stock

import (
	"context"
	"log/slog"
	"sort"
)

// Effects collects what a unit of work did to stock so that cache
// invalidation and low-stock notifications run only after commit.
type Effects struct {
	branches map[int64]struct{}
	low      []LowStockEvent
}

// Touch records a mutated branch.
func (e *Effects) Touch(branchID int64) {
	if e.branches == nil {
		e.branches = make(map[int64]struct{})
	}
	e.branches[branchID] = struct{}{}
}

// Low records a low-stock event.
func (e *Effects) Low(event LowStockEvent) {
	e.low = append(e.low, event)
}

// Branches returns the touched branches in ascending order.
func (e *Effects) Branches() []int64 {
	ids := make([]int64, 0, len(e.branches))
	for id := range e.branches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LowEvents returns the recorded low-stock events.
func (e *Effects) LowEvents() []LowStockEvent {
	return e.low
}

// CacheInvalidator drops cached stock listings.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, branchIDs ...int64)
}

// LowStockNotifier hands low-stock events to background processing.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, event LowStockEvent) error
}

// Publisher applies committed Effects. A nil Publisher does nothing.
type Publisher struct {
	cache    CacheInvalidator
	notifier LowStockNotifier
	logger   *slog.Logger
}

// NewPublisher constructs Publisher; cache and notifier may be nil.
func NewPublisher(cache CacheInvalidator, notifier LowStockNotifier, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{cache: cache, notifier: notifier, logger: logger}
}

// Publish runs after commit. Failures are logged, never returned.
func (p *Publisher) Publish(ctx context.Context, effects *Effects) {
	if p == nil || effects == nil {
		return
	}
	if p.cache != nil {
		if branches := effects.Branches(); len(branches) > 0 {
			p.cache.Invalidate(ctx, branches...)
		}
	}
	if p.notifier == nil {
		return
	}
	for _, event := range effects.low {
		if err := p.notifier.NotifyLowStock(ctx, event); err != nil {
			p.logger.Warn("enqueue low stock", slog.Int64("branch_id", event.BranchID), slog.Int64("product_id", event.ProductID), slog.Any("error", err))
		}
	}
}
