package stock

import (
	"context"
	"strings"

	"github.com/kassa-pos/kassa/internal/shared"
)

// ReadRepository abstracts the stock read queries.
type ReadRepository interface {
	GetStock(ctx context.Context, branchID, productID int64) (Stock, error)
	ListBranchStock(ctx context.Context, branchID int64, search string) ([]BranchStockItem, error)
}

// Service exposes branch stock reads.
type Service struct {
	repo  ReadRepository
	cache *Cache
}

// NewService builds Service. cache may be nil.
func NewService(repo ReadRepository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ListBranchStock lists a branch's stock. Branch-bound actors only see their own branch.
func (s *Service) ListBranchStock(ctx context.Context, actor shared.Actor, branchID int64, search string) ([]BranchStockItem, error) {
	branchID, err := actor.EffectiveBranch(branchID)
	if err != nil {
		return nil, err
	}
	search = strings.TrimSpace(search)
	return s.cache.FetchBranch(ctx, branchID, search, func(ctx context.Context) ([]BranchStockItem, error) {
		return s.repo.ListBranchStock(ctx, branchID, search)
	})
}

// GetStock returns the quantity of one product at a branch.
func (s *Service) GetStock(ctx context.Context, actor shared.Actor, branchID, productID int64) (Stock, error) {
	branchID, err := actor.EffectiveBranch(branchID)
	if err != nil {
		return Stock{}, err
	}
	return s.repo.GetStock(ctx, branchID, productID)
}
