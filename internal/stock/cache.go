package stock

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kassa-pos/kassa/internal/shared"
)

// Cache keeps branch stock listings in Redis. Each branch has a version
// counter; invalidation bumps it so stale listings are never read again and
// expire on their own.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *Cache) version(ctx context.Context, branchID int64) (int64, error) {
	ver, err := c.client.Get(ctx, shared.BranchStockVersionKey(branchID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// FetchBranch returns the cached listing or populates it with loader.
func (c *Cache) FetchBranch(ctx context.Context, branchID int64, search string, loader func(context.Context) ([]BranchStockItem, error)) ([]BranchStockItem, error) {
	if !c.enabled() {
		return loader(ctx)
	}
	ver, err := c.version(ctx, branchID)
	if err != nil {
		c.logger.Warn("stock cache version", slog.Int64("branch_id", branchID), slog.Any("error", err))
		return loader(ctx)
	}
	key := shared.BranchStockCacheKey(branchID, ver, search)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var items []BranchStockItem
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("stock cache get", slog.String("key", key), slog.Any("error", err))
	}

	items, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(items); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("stock cache set", slog.String("key", key), slog.Any("error", err))
		}
	}
	return items, nil
}

// Invalidate drops every cached listing of the given branches.
func (c *Cache) Invalidate(ctx context.Context, branchIDs ...int64) {
	if !c.enabled() {
		return
	}
	for _, id := range branchIDs {
		if err := c.client.Incr(ctx, shared.BranchStockVersionKey(id)).Err(); err != nil {
			c.logger.Warn("stock cache invalidate", slog.Int64("branch_id", id), slog.Any("error", err))
		}
	}
}
