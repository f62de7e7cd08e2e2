package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingCache struct {
	branches []int64
}

func (c *recordingCache) Invalidate(ctx context.Context, branchIDs ...int64) {
	c.branches = append(c.branches, branchIDs...)
}

type recordingNotifier struct {
	events []LowStockEvent
	err    error
}

func (n *recordingNotifier) NotifyLowStock(ctx context.Context, event LowStockEvent) error {
	n.events = append(n.events, event)
	return n.err
}

func TestPublisherFlushesEffects(t *testing.T) {
	cache := &recordingCache{}
	notifier := &recordingNotifier{err: errors.New("queue down")}
	publisher := NewPublisher(cache, notifier, nil)

	var effects Effects
	effects.Touch(3)
	effects.Touch(1)
	effects.Touch(3)
	effects.Low(LowStockEvent{BranchID: 1, ProductID: 7, Quantity: d(1), Limit: d(2)})
	effects.Low(LowStockEvent{BranchID: 3, ProductID: 8, Quantity: d(0), Limit: d(5)})

	publisher.Publish(context.Background(), &effects)

	require.Equal(t, []int64{1, 3}, cache.branches)
	require.Len(t, notifier.events, 2)
}

func TestNilPublisherIsNoop(t *testing.T) {
	var publisher *Publisher
	effects := &Effects{}
	effects.Touch(1)
	publisher.Publish(context.Background(), effects)
	NewPublisher(nil, nil, nil).Publish(context.Background(), effects)
}
