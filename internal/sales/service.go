// Package sales records point-of-sale transactions. A sale moves stock,
// money and client debt in one unit of work: every line is checked against
// locked stock rows before any of them is decremented.
package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/observability"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSaleDetail(ctx context.Context, id int64) (SaleDetail, error)
	ListSales(ctx context.Context, filter ListFilter) ([]Sale, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates sale operations.
type Service struct {
	repo      RepositoryPort
	audit     AuditPort
	publisher *stock.Publisher
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// ServiceDeps groups the optional collaborators of Service.
type ServiceDeps struct {
	Audit     AuditPort
	Publisher *stock.Publisher
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: deps.Audit, publisher: deps.Publisher, metrics: deps.Metrics, logger: logger}
}

// demand is the total quantity requested for one product across lines.
type demand struct {
	productID int64
	quantity  decimal.Decimal
}

// mergeLines sums quantities per product, keeping first-appearance order.
func mergeLines(items []LineInput) []demand {
	index := make(map[int64]int, len(items))
	out := make([]demand, 0, len(items))
	for _, item := range items {
		if pos, ok := index[item.ProductID]; ok {
			out[pos].quantity = out[pos].quantity.Add(item.Quantity)
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, demand{productID: item.ProductID, quantity: item.Quantity})
	}
	return out
}

func validateInput(input CreateSaleInput) (PaymentType, error) {
	if len(input.Items) == 0 {
		return "", ErrEmptyItems
	}
	for i, item := range input.Items {
		if item.ProductID <= 0 {
			return "", fmt.Errorf("%w: item %d product id", shared.ErrInvalidInput, i)
		}
		if !shared.ValidQuantity(item.Quantity) {
			return "", fmt.Errorf("%w: item %d quantity %s", ErrInvalidQuantity, i, item.Quantity)
		}
		if !shared.ValidAmount(item.Price) {
			return "", fmt.Errorf("%w: item %d price %s", ErrInvalidAmount, i, item.Price)
		}
	}
	t := input.Tenders
	if !shared.ValidAmount(t.Cash) || !shared.ValidAmount(t.Card) || !shared.ValidAmount(t.Credit) {
		return "", fmt.Errorf("%w: tenders must be non-negative with at most 2 decimals", ErrInvalidAmount)
	}
	if t.Credit.IsPositive() && input.ClientID == nil {
		return "", ErrCreditRequiresClient
	}
	if input.IdempotencyKey != "" {
		if _, err := uuid.Parse(input.IdempotencyKey); err != nil {
			return "", ErrInvalidIdempotencyKey
		}
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = t.PaymentType()
	}
	if !paymentType.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentType, paymentType)
	}
	return paymentType, nil
}

// CreateSale validates and records a sale, decrementing branch stock and
// booking credit against the client.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (Sale, error) {
	branchID, err := input.Actor.EffectiveBranch(input.BranchID)
	if err != nil {
		return Sale{}, err
	}
	paymentType, err := validateInput(input)
	if err != nil {
		return Sale{}, err
	}
	demands := mergeLines(input.Items)

	var (
		sale    Sale
		effects stock.Effects
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		effects = stock.Effects{}
		if input.IdempotencyKey != "" {
			if err := tx.ClaimIdempotency(ctx, input.IdempotencyKey); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					return ErrDuplicateRequest
				}
				return err
			}
		}
		if _, err := tx.GetBranch(ctx, branchID); err != nil {
			return err
		}
		products := make(map[int64]catalog.Product, len(demands))
		for _, d := range demands {
			p, err := tx.GetProduct(ctx, d.productID)
			if err != nil {
				return err
			}
			products[d.productID] = p
		}
		// row locks follow the global order: stock, products, client
		locked := append([]demand(nil), demands...)
		sort.Slice(locked, func(i, j int) bool { return locked[i].productID < locked[j].productID })
		available := make(map[int64]decimal.Decimal, len(locked))
		for _, d := range locked {
			st, err := tx.LockStock(ctx, branchID, d.productID)
			switch {
			case errors.Is(err, stock.ErrStockNotFound):
				available[d.productID] = decimal.Zero
			case err != nil:
				return fmt.Errorf("sales: lock stock: %w", err)
			default:
				available[d.productID] = st.Quantity
			}
		}
		for _, d := range demands {
			if have := available[d.productID]; have.LessThan(d.quantity) {
				return fmt.Errorf("%w: product %d at branch %d: available %s, requested %s", stock.ErrInsufficientStock, d.productID, branchID, have, d.quantity)
			}
		}

		for _, d := range locked {
			st, err := stock.Withdraw(ctx, tx, branchID, d.productID, d.quantity)
			if err != nil {
				return err
			}
			if p := products[d.productID]; p.BelowLimit(st.Quantity) {
				effects.Low(stock.LowStockEvent{BranchID: branchID, ProductID: d.productID, Quantity: st.Quantity, Limit: p.Limit})
			}
		}
		for _, d := range locked {
			if err := tx.ShiftProductQuantity(ctx, d.productID, d.quantity.Neg()); err != nil {
				return fmt.Errorf("sales: product quantity: %w", err)
			}
		}
		if input.ClientID != nil {
			if _, err := tx.LockClient(ctx, *input.ClientID); err != nil {
				return err
			}
		}
		effects.Touch(branchID)

		items := make([]SaleItem, 0, len(input.Items))
		for _, line := range input.Items {
			items = append(items, SaleItem{ProductID: line.ProductID, Quantity: line.Quantity, Price: line.Price})
		}
		inserted, err := tx.InsertSale(ctx, Sale{
			BranchID:    branchID,
			SellerID:    input.Actor.ID,
			ClientID:    input.ClientID,
			Cash:        input.Tenders.Cash,
			Card:        input.Tenders.Card,
			Credit:      input.Tenders.Credit,
			Total:       Total(items),
			PaymentType: paymentType,
		})
		if err != nil {
			return err
		}
		inserted.Items, err = tx.InsertSaleItems(ctx, inserted.ID, items)
		if err != nil {
			return err
		}
		if input.Tenders.Credit.IsPositive() {
			if _, err := debt.Charge(ctx, tx, *input.ClientID, inserted.ID, input.Tenders.Credit); err != nil {
				return err
			}
		}
		sale = inserted
		return nil
	})
	if err != nil {
		if isInsufficient(err) {
			s.metrics.StockRejected("sale")
		}
		return Sale{}, err
	}

	s.publisher.Publish(ctx, &effects)
	s.metrics.LedgerOperation("sale")
	s.logger.Info("sale created",
		slog.Int64("sale_id", sale.ID),
		slog.Int64("branch_id", sale.BranchID),
		slog.Int64("seller_id", sale.SellerID),
		slog.String("total", sale.Total.String()))
	s.recordAudit(ctx, sale)
	return sale, nil
}

func (s *Service) recordAudit(ctx context.Context, sale Sale) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{
		"branch_id":    sale.BranchID,
		"total":        sale.Total.String(),
		"credit":       sale.Credit.String(),
		"payment_type": string(sale.PaymentType),
		"items":        len(sale.Items),
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  sale.SellerID,
		Action:   "sales:create",
		Entity:   "sale",
		EntityID: strconv.FormatInt(sale.ID, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit sale", slog.Int64("sale_id", sale.ID), slog.Any("error", err))
	}
}

// GetSale returns the sale detail. Branch-bound actors only see their branch.
func (s *Service) GetSale(ctx context.Context, actor shared.Actor, id int64) (SaleDetail, error) {
	detail, err := s.repo.GetSaleDetail(ctx, id)
	if err != nil {
		return SaleDetail{}, err
	}
	if actor.BranchBound() && detail.BranchID != actor.BranchID {
		return SaleDetail{}, shared.ErrForbiddenBranch
	}
	return detail, nil
}

// ListSales lists sales in the window, newest first.
func (s *Service) ListSales(ctx context.Context, actor shared.Actor, filter ListFilter) ([]Sale, error) {
	if actor.BranchBound() {
		branchID, err := actor.EffectiveBranch(filter.BranchID)
		if err != nil {
			return nil, err
		}
		filter.BranchID = branchID
	}
	return s.repo.ListSales(ctx, filter)
}
