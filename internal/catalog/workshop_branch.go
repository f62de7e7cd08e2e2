package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"golang.org/x/sync/singleflight"

	"github.com/kassa-pos/kassa/internal/shared"
)

// WorkshopBranchStore is the persistence needed to resolve the workshop branch.
type WorkshopBranchStore interface {
	FindWorkshopBranch(ctx context.Context) (Branch, error)
	FindBranchByName(ctx context.Context, name string) (Branch, error)
	MarkWorkshop(ctx context.Context, id int64) (Branch, error)
	CreateWorkshopBranch(ctx context.Context, name string) (Branch, error)
}

// WorkshopResolver finds the singleton workshop branch: by flag, else by the
// reserved name (flagging it), else by creating it.
type WorkshopResolver struct {
	store  WorkshopBranchStore
	locker *redislock.Client
	name   string
	logger *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	cached *Branch
}

// NewWorkshopResolver constructs the resolver. locker may be nil, in which
// case only the unique branch name guards concurrent creation.
func NewWorkshopResolver(store WorkshopBranchStore, locker *redislock.Client, name string, logger *slog.Logger) *WorkshopResolver {
	if name == "" {
		name = DefaultWorkshopBranchName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkshopResolver{store: store, locker: locker, name: name, logger: logger}
}

// WorkshopBranch returns the workshop branch, creating it on first use.
func (r *WorkshopResolver) WorkshopBranch(ctx context.Context) (Branch, error) {
	r.mu.RLock()
	cached := r.cached
	r.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	resultChan := r.group.DoChan("workshop-branch", func() (interface{}, error) {
		return r.resolve(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Branch{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Branch{}, res.Err
		}
		branch := res.Val.(Branch)
		r.mu.Lock()
		r.cached = &branch
		r.mu.Unlock()
		return branch, nil
	}
}

func (r *WorkshopResolver) resolve(ctx context.Context) (Branch, error) {
	branch, err := r.store.FindWorkshopBranch(ctx)
	if err == nil {
		return branch, nil
	}
	if !errors.Is(err, ErrBranchNotFound) {
		return Branch{}, err
	}

	if r.locker != nil {
		lock, err := r.locker.Obtain(ctx, shared.WorkshopBranchLockKey(), 10*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
		})
		switch {
		case errors.Is(err, redislock.ErrNotObtained):
			r.logger.Warn("workshop branch lock not obtained, relying on unique name")
		case err != nil:
			r.logger.Warn("workshop branch lock", slog.Any("error", err))
		default:
			defer func() {
				_ = lock.Release(ctx)
			}()
			// another process may have finished while we waited
			if branch, err := r.store.FindWorkshopBranch(ctx); err == nil {
				return branch, nil
			}
		}
	}

	branch, err = r.store.FindBranchByName(ctx, r.name)
	switch {
	case err == nil:
		r.logger.Info("flagging existing branch as workshop", slog.Int64("branch_id", branch.ID))
		return r.store.MarkWorkshop(ctx, branch.ID)
	case errors.Is(err, ErrBranchNotFound):
		branch, err = r.store.CreateWorkshopBranch(ctx, r.name)
		if err != nil {
			return Branch{}, err
		}
		r.logger.Info("workshop branch created", slog.Int64("branch_id", branch.ID))
		return branch, nil
	default:
		return Branch{}, err
	}
}
