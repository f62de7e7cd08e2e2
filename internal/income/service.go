// Package income books stock intakes. An intake raises branch stock and
// overwrites the product master prices with the latest intake prices;
// deleting it is a clamped compensation that leaves prices untouched.
package income

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/observability"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListIncome(ctx context.Context, filter ListFilter) ([]Income, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// WorkshopBranchResolver yields the singleton workshop branch.
type WorkshopBranchResolver interface {
	WorkshopBranch(ctx context.Context) (catalog.Branch, error)
}

// ServiceDeps groups the optional collaborators of Service.
type ServiceDeps struct {
	Audit     AuditPort
	Publisher *stock.Publisher
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	Workshop  WorkshopBranchResolver
}

// Service coordinates stock intakes.
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

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	for i, item := range items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: item %d product id", shared.ErrInvalidInput, i)
		}
		if !shared.ValidQuantity(item.Quantity) {
			return fmt.Errorf("%w: item %d quantity %s", ErrInvalidQuantity, i, item.Quantity)
		}
		if !shared.ValidAmount(item.PurchasePrice) || !shared.ValidAmount(item.SalePrice) {
			return fmt.Errorf("%w: item %d", ErrInvalidPrice, i)
		}
	}
	return nil
}

// CreateIncome books an intake at the actor's effective branch.
func (s *Service) CreateIncome(ctx context.Context, input CreateIncomeInput) (Income, error) {
	branchID, err := input.Actor.EffectiveBranch(input.BranchID)
	if err != nil {
		return Income{}, err
	}
	inc, _, err := s.create(ctx, input.Actor, branchID, input.Items)
	return inc, err
}

// CreateWorkshopIncome books an intake at the workshop branch and returns the
// resulting stock of each received product.
func (s *Service) CreateWorkshopIncome(ctx context.Context, actor shared.Actor, items []ItemInput) (WorkshopIncome, error) {
	if s.deps.Workshop == nil {
		return WorkshopIncome{}, fmt.Errorf("income: workshop resolver not configured")
	}
	branch, err := s.deps.Workshop.WorkshopBranch(ctx)
	if err != nil {
		return WorkshopIncome{}, err
	}
	if actor.BranchBound() && actor.BranchID != branch.ID {
		return WorkshopIncome{}, shared.ErrForbiddenBranch
	}
	inc, levels, err := s.create(ctx, actor, branch.ID, items)
	if err != nil {
		return WorkshopIncome{}, err
	}
	return WorkshopIncome{Income: inc, Stock: levels}, nil
}

func (s *Service) create(ctx context.Context, actor shared.Actor, branchID int64, inputs []ItemInput) (Income, []stock.Stock, error) {
	if err := validateItems(inputs); err != nil {
		return Income{}, nil, err
	}
	var (
		inc     Income
		levels  []stock.Stock
		effects stock.Effects
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		effects = stock.Effects{}
		if _, err := tx.GetBranch(ctx, branchID); err != nil {
			return err
		}
		items := make([]Item, 0, len(inputs))
		for _, in := range inputs {
			if _, err := tx.GetProduct(ctx, in.ProductID); err != nil {
				return err
			}
			items = append(items, Item{
				ProductID:     in.ProductID,
				Quantity:      in.Quantity,
				PurchasePrice: in.PurchasePrice,
				SalePrice:     in.SalePrice,
			})
		}
		order := lockOrder(items)
		levels = make([]stock.Stock, len(items))
		for _, i := range order {
			adj, err := stock.Adjust(ctx, tx, branchID, items[i].ProductID, items[i].Quantity)
			if err != nil {
				return err
			}
			levels[i] = adj.Stock
		}
		for _, i := range order {
			in := items[i]
			if err := tx.UpdateProductPrices(ctx, in.ProductID, in.PurchasePrice, in.SalePrice); err != nil {
				return fmt.Errorf("income: update prices: %w", err)
			}
			if err := tx.ShiftProductQuantity(ctx, in.ProductID, in.Quantity); err != nil {
				return fmt.Errorf("income: product quantity: %w", err)
			}
		}
		created, err := tx.InsertIncome(ctx, Income{BranchID: branchID, CreatedByID: actor.ID})
		if err != nil {
			return err
		}
		created.Items, err = tx.InsertIncomeItems(ctx, created.ID, items)
		if err != nil {
			return err
		}
		inc = created
		effects.Touch(branchID)
		return nil
	})
	if err != nil {
		return Income{}, nil, err
	}

	s.deps.Publisher.Publish(ctx, &effects)
	s.deps.Metrics.LedgerOperation("income")
	s.deps.Logger.Info("income created", slog.Int64("income_id", inc.ID), slog.Int64("branch_id", inc.BranchID), slog.Int("items", len(inc.Items)))
	s.audit(ctx, actor.ID, "income:create", inc.ID, map[string]any{"branch_id": inc.BranchID, "items": len(inc.Items)})
	return inc, levels, nil
}

// DeleteIncome reverses an intake: each item is taken back out of stock and
// the product quantity, both floored at zero, then the intake is removed.
// Prices are not restored.
func (s *Service) DeleteIncome(ctx context.Context, actor shared.Actor, id int64) error {
	var (
		inc     Income
		clamps  int
		effects stock.Effects
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		effects = stock.Effects{}
		clamps = 0
		var err error
		inc, err = tx.LockIncome(ctx, id)
		if err != nil {
			return err
		}
		if actor.BranchBound() && actor.BranchID != inc.BranchID {
			return shared.ErrForbiddenBranch
		}
		order := lockOrder(inc.Items)
		for _, i := range order {
			item := inc.Items[i]
			adj, err := stock.Adjust(ctx, tx, inc.BranchID, item.ProductID, item.Quantity.Neg())
			if err != nil {
				return err
			}
			if adj.Clamped {
				clamps++
				s.deps.Logger.Warn("income delete clamped stock at zero",
					slog.Int64("income_id", inc.ID),
					slog.Int64("branch_id", inc.BranchID),
					slog.Int64("product_id", item.ProductID),
					slog.String("quantity", item.Quantity.String()))
			}
		}
		for _, i := range order {
			item := inc.Items[i]
			if err := tx.ShiftProductQuantity(ctx, item.ProductID, item.Quantity.Neg()); err != nil {
				return fmt.Errorf("income: product quantity: %w", err)
			}
		}
		if err := tx.DeleteIncome(ctx, inc.ID); err != nil {
			return fmt.Errorf("income: delete: %w", err)
		}
		effects.Touch(inc.BranchID)
		return nil
	})
	if err != nil {
		return err
	}

	for i := 0; i < clamps; i++ {
		s.deps.Metrics.StockClamped("income_delete")
	}
	s.deps.Publisher.Publish(ctx, &effects)
	s.deps.Metrics.LedgerOperation("income_delete")
	s.deps.Logger.Info("income deleted", slog.Int64("income_id", inc.ID), slog.Int64("branch_id", inc.BranchID))
	s.audit(ctx, actor.ID, "income:delete", inc.ID, map[string]any{"branch_id": inc.BranchID, "clamped": clamps})
	return nil
}

// ListIncome lists intakes. Branch-bound actors only see their branch.
func (s *Service) ListIncome(ctx context.Context, actor shared.Actor, filter ListFilter) ([]Income, error) {
	if actor.BranchBound() {
		branchID, err := actor.EffectiveBranch(filter.BranchID)
		if err != nil {
			return nil, err
		}
		filter.BranchID = branchID
	}
	return s.repo.ListIncome(ctx, filter)
}

func (s *Service) audit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.deps.Audit == nil {
		return
	}
	if err := s.deps.Audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "income",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}); err != nil {
		s.deps.Logger.Warn("audit income", slog.String("action", action), slog.Any("error", err))
	}
}

// lockOrder returns item indexes by ascending product id. The sort is stable
// so the last line for a product still sets its prices.
func lockOrder(items []Item) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].ProductID < items[order[b]].ProductID
	})
	return order
}
