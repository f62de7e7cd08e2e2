// Package returns reverses sale lines: stock goes back to the selling
// branch and, for credit sales, the client balance is lowered.
package returns

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/observability"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListReturns(ctx context.Context, filter ListFilter) ([]Return, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ServiceDeps groups the optional collaborators of Service.
type ServiceDeps struct {
	Audit     AuditPort
	Publisher *stock.Publisher
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Service processes returns.
type Service struct {
	repo RepositoryPort
	deps ServiceDeps
}

// NewService builds Service.
func NewService(repo RepositoryPort, deps ServiceDeps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{repo: repo, deps: deps}
}

// CreateReturn records a return of quantity units of productID from a sale.
// The running total of returned units may never exceed the units sold.
func (s *Service) CreateReturn(ctx context.Context, input CreateReturnInput) (Return, error) {
	if !shared.ValidQuantity(input.Quantity) {
		return Return{}, ErrInvalidQuantity
	}
	if !shared.ValidAmount(input.Amount) {
		return Return{}, ErrInvalidAmount
	}

	var (
		ret     Return
		effects stock.Effects
		clamped bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		effects = stock.Effects{}
		sale, err := tx.LockSale(ctx, input.SaleID)
		if err != nil {
			return err
		}
		if input.Actor.BranchBound() && sale.BranchID != input.Actor.BranchID {
			return shared.ErrForbiddenBranch
		}
		sold, ok, err := tx.SoldQuantity(ctx, sale.ID, input.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: product %d not on sale %d", ErrInvalidReturnQuantity, input.ProductID, sale.ID)
		}
		returned, err := tx.ReturnedQuantity(ctx, sale.ID, input.ProductID)
		if err != nil {
			return err
		}
		if returned.Add(input.Quantity).GreaterThan(sold) {
			return fmt.Errorf("%w: sold %s, already returned %s, requested %s", ErrInvalidReturnQuantity, sold, returned, input.Quantity)
		}

		adj, err := stock.Adjust(ctx, tx, sale.BranchID, input.ProductID, input.Quantity)
		if err != nil {
			return err
		}
		clamped = adj.Clamped
		if err := tx.ShiftProductQuantity(ctx, input.ProductID, input.Quantity); err != nil {
			return fmt.Errorf("returns: product quantity: %w", err)
		}
		if sale.Credit.IsPositive() && sale.ClientID != nil {
			if _, err := debt.Reduce(ctx, tx, *sale.ClientID, input.Amount); err != nil {
				return err
			}
		}
		ret, err = tx.InsertReturn(ctx, Return{
			SaleID:      sale.ID,
			ProductID:   input.ProductID,
			Quantity:    input.Quantity,
			Amount:      input.Amount,
			ProcessedBy: input.Actor.ID,
		})
		if err != nil {
			return err
		}
		effects.Touch(sale.BranchID)
		return nil
	})
	if err != nil {
		return Return{}, err
	}

	if clamped {
		s.deps.Metrics.StockClamped("return")
	}
	s.deps.Publisher.Publish(ctx, &effects)
	s.deps.Metrics.LedgerOperation("return")
	s.deps.Logger.Info("return created",
		slog.Int64("return_id", ret.ID),
		slog.Int64("sale_id", ret.SaleID),
		slog.Int64("product_id", ret.ProductID),
		slog.String("quantity", ret.Quantity.String()))
	if s.deps.Audit != nil {
		if err := s.deps.Audit.Record(ctx, shared.AuditLog{
			ActorID:  input.Actor.ID,
			Action:   "returns:create",
			Entity:   "sale",
			EntityID: strconv.FormatInt(ret.SaleID, 10),
			Meta:     map[string]any{"return_id": ret.ID, "product_id": ret.ProductID, "quantity": ret.Quantity.String(), "amount": ret.Amount.String()},
		}); err != nil {
			s.deps.Logger.Warn("audit return", slog.Any("error", err))
		}
	}
	return ret, nil
}

// ListReturns lists returns, optionally for one sale. Branch-bound actors see
// only their branch.
func (s *Service) ListReturns(ctx context.Context, actor shared.Actor, filter ListFilter) ([]Return, error) {
	if actor.BranchBound() {
		branchID, err := actor.EffectiveBranch(filter.BranchID)
		if err != nil {
			return nil, err
		}
		filter.BranchID = branchID
	}
	return s.repo.ListReturns(ctx, filter)
}
