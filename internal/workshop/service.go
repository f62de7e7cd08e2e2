// Package workshop runs custom production orders on the dedicated workshop
// branch. An order is open until it is closed exactly once; while open it
// draws materials from workshop stock and accrues employee payouts.
package workshop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/observability"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrderDetail(ctx context.Context, id int64) (OrderDetail, error)
	ListOrders(ctx context.Context, branchID int64, status Status) ([]Order, error)
	ListClosures(ctx context.Context, filter ClosureFilter) ([]Closure, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// BranchResolver yields the singleton workshop branch.
type BranchResolver interface {
	WorkshopBranch(ctx context.Context) (catalog.Branch, error)
}

// ServiceDeps groups the optional collaborators of Service.
type ServiceDeps struct {
	Audit     AuditPort
	Publisher *stock.Publisher
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service coordinates workshop orders and employees.
type Service struct {
	repo     RepositoryPort
	resolver BranchResolver
	deps     ServiceDeps
}

// NewService builds Service.
func NewService(repo RepositoryPort, resolver BranchResolver, deps ServiceDeps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{repo: repo, resolver: resolver, deps: deps}
}

// Branch resolves the workshop branch, creating it on first use, and checks
// that a branch-bound actor is bound to it.
func (s *Service) Branch(ctx context.Context, actor shared.Actor) (catalog.Branch, error) {
	branch, err := s.resolver.WorkshopBranch(ctx)
	if err != nil {
		return catalog.Branch{}, err
	}
	if actor.BranchBound() && actor.BranchID != branch.ID {
		return catalog.Branch{}, fmt.Errorf("%w: workshop branch %d", shared.ErrForbiddenBranch, branch.ID)
	}
	return branch, nil
}

// CreateOrder opens a new order on the workshop branch.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Order{}, ErrTitleRequired
	}
	if !shared.ValidAmount(input.Amount) {
		return Order{}, fmt.Errorf("%w: order amount %s", ErrInvalidAmount, input.Amount)
	}
	branch, err := s.Branch(ctx, input.Actor)
	if err != nil {
		return Order{}, err
	}
	var created Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.InsertOrder(ctx, Order{
			Title:           title,
			Amount:          input.Amount,
			CustomerName:    trimmed(input.CustomerName),
			Description:     trimmed(input.Description),
			Status:          StatusOpen,
			BranchID:        branch.ID,
			CreatedByUserID: actorRef(input.Actor),
		})
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.deps.Logger.Info("workshop order created", slog.Int64("order_id", created.ID), slog.String("amount", created.Amount.String()))
	s.audit(ctx, input.Actor.ID, "workshop:order_create", "workshop_order", created.ID, map[string]any{"amount": created.Amount.String()})
	return created, nil
}

// UpdateOrder edits an open order. Closing goes through CloseOrder only.
func (s *Service) UpdateOrder(ctx context.Context, actor shared.Actor, id int64, input UpdateOrderInput) (Order, error) {
	if input.Status != nil {
		switch {
		case *input.Status == StatusClosed:
			return Order{}, ErrCloseViaUpdate
		case !input.Status.IsValid():
			return Order{}, fmt.Errorf("%w: status %q", shared.ErrInvalidInput, *input.Status)
		}
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return Order{}, ErrTitleRequired
	}
	if input.Amount != nil && !shared.ValidAmount(*input.Amount) {
		return Order{}, fmt.Errorf("%w: order amount %s", ErrInvalidAmount, *input.Amount)
	}
	if _, err := s.Branch(ctx, actor); err != nil {
		return Order{}, err
	}
	var saved Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanEdit() {
			return ErrOrderClosed
		}
		if input.Title != nil {
			order.Title = strings.TrimSpace(*input.Title)
		}
		if input.Amount != nil {
			order.Amount = *input.Amount
		}
		if input.CustomerName != nil {
			order.CustomerName = trimmed(input.CustomerName)
		}
		if input.Description != nil {
			order.Description = trimmed(input.Description)
		}
		saved, err = tx.SaveOrder(ctx, order)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.audit(ctx, actor.ID, "workshop:order_update", "workshop_order", saved.ID, nil)
	return saved, nil
}

// DeleteOrder removes an open order with its materials and payouts. Drawn
// materials are not put back into stock.
func (s *Service) DeleteOrder(ctx context.Context, actor shared.Actor, id int64) error {
	if _, err := s.Branch(ctx, actor); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanEdit() {
			return ErrOrderClosed
		}
		return tx.DeleteOrder(ctx, order.ID)
	})
	if err != nil {
		return err
	}
	s.deps.Logger.Info("workshop order deleted", slog.Int64("order_id", id))
	s.audit(ctx, actor.ID, "workshop:order_delete", "workshop_order", id, nil)
	return nil
}

// AddMaterial draws qty of a product from workshop stock into an open order.
// The stock row is read under lock and the draw fails rather than going
// negative.
func (s *Service) AddMaterial(ctx context.Context, actor shared.Actor, orderID int64, input AddMaterialInput) (Material, error) {
	branch, err := s.Branch(ctx, actor)
	if err != nil {
		return Material{}, err
	}
	var (
		material Material
		effects  stock.Effects
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		effects = stock.Effects{}
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanEdit() {
			return ErrOrderClosed
		}
		if order.BranchID != branch.ID {
			return fmt.Errorf("%w: order %d is on branch %d", ErrWrongBranch, order.ID, order.BranchID)
		}
		if !shared.ValidQuantity(input.Quantity) {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, input.Quantity)
		}
		product, err := tx.GetProduct(ctx, input.ProductID)
		if err != nil {
			return err
		}
		level, err := stock.Withdraw(ctx, tx, branch.ID, product.ID, input.Quantity)
		if err != nil {
			return err
		}
		if err := tx.ShiftProductQuantity(ctx, product.ID, input.Quantity.Neg()); err != nil {
			return fmt.Errorf("workshop: product quantity: %w", err)
		}
		unit := input.Unit
		if unit == nil && product.Unit != "" {
			unit = &product.Unit
		}
		material, err = tx.InsertMaterial(ctx, Material{
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  input.Quantity,
			Unit:      unit,
		})
		if err != nil {
			return err
		}
		effects.Touch(branch.ID)
		if product.BelowLimit(level.Quantity) {
			effects.Low(stock.LowStockEvent{BranchID: branch.ID, ProductID: product.ID, Quantity: level.Quantity, Limit: product.Limit})
		}
		return nil
	})
	if err != nil {
		if isInsufficient(err) {
			s.deps.Metrics.StockRejected("workshop_material")
		}
		return Material{}, err
	}

	s.deps.Publisher.Publish(ctx, &effects)
	s.deps.Metrics.LedgerOperation("workshop_material")
	s.deps.Logger.Info("workshop material drawn",
		slog.Int64("order_id", orderID),
		slog.Int64("product_id", material.ProductID),
		slog.String("quantity", material.Quantity.String()))
	s.audit(ctx, actor.ID, "workshop:material_add", "workshop_order", orderID, map[string]any{
		"product_id": material.ProductID,
		"quantity":   material.Quantity.String(),
	})
	return material, nil
}

// AddPayout pays an active employee for an open order and accrues the amount
// onto the employee's total salary.
func (s *Service) AddPayout(ctx context.Context, actor shared.Actor, orderID int64, input AddPayoutInput) (Payout, error) {
	if !input.Amount.IsPositive() || !shared.FitsMoney(input.Amount) {
		return Payout{}, fmt.Errorf("%w: payout amount %s", ErrInvalidAmount, input.Amount)
	}
	if _, err := s.Branch(ctx, actor); err != nil {
		return Payout{}, err
	}
	var payout Payout
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanEdit() {
			return ErrOrderClosed
		}
		emp, err := tx.LockEmployee(ctx, input.EmployeeID)
		if err != nil {
			return err
		}
		if !emp.Active {
			return fmt.Errorf("%w: employee %d is inactive", ErrEmployeeNotFound, emp.ID)
		}
		emp.TotalSalary = emp.TotalSalary.Add(input.Amount)
		if _, err := tx.SaveEmployee(ctx, emp); err != nil {
			return err
		}
		payout, err = tx.InsertPayout(ctx, Payout{
			OrderID:    order.ID,
			EmployeeID: emp.ID,
			Amount:     input.Amount,
			Note:       trimmed(input.Note),
		})
		return err
	})
	if err != nil {
		return Payout{}, err
	}
	s.deps.Logger.Info("workshop payout added",
		slog.Int64("order_id", orderID),
		slog.Int64("employee_id", payout.EmployeeID),
		slog.String("amount", payout.Amount.String()))
	s.audit(ctx, actor.ID, "workshop:payout_add", "workshop_order", orderID, map[string]any{
		"employee_id": payout.EmployeeID,
		"amount":      payout.Amount.String(),
	})
	return payout, nil
}

// CloseOrder moves an open order to closed and records its single closure.
// Closing an already closed order always fails with ErrOrderClosed.
func (s *Service) CloseOrder(ctx context.Context, actor shared.Actor, orderID int64, input CloseInput) (Closure, error) {
	if _, err := s.Branch(ctx, actor); err != nil {
		return Closure{}, err
	}
	var closure Closure
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanClose() {
			return ErrOrderClosed
		}
		if !shared.ValidAmount(input.PaidAmount) {
			return fmt.Errorf("%w: paid amount %s", ErrInvalidAmount, input.PaidAmount)
		}
		now := s.deps.Now()
		order.Status = StatusClosed
		order.ClosedAt = &now
		order.PaidAmount = decimal.NewNullDecimal(input.PaidAmount)
		if _, err := tx.SaveOrder(ctx, order); err != nil {
			return err
		}
		closure, err = tx.InsertClosure(ctx, Closure{
			OrderID:        order.ID,
			OrderAmount:    order.Amount,
			PaidAmount:     input.PaidAmount,
			Note:           trimmed(input.Note),
			ClosedByUserID: actorRef(actor),
			ClosedAt:       now,
		})
		return err
	})
	if err != nil {
		return Closure{}, err
	}
	s.deps.Metrics.LedgerOperation("workshop_close")
	s.deps.Logger.Info("workshop order closed",
		slog.Int64("order_id", orderID),
		slog.String("order_amount", closure.OrderAmount.String()),
		slog.String("paid_amount", closure.PaidAmount.String()))
	s.audit(ctx, actor.ID, "workshop:order_close", "workshop_order", orderID, map[string]any{
		"paid_amount": closure.PaidAmount.String(),
	})
	return closure, nil
}

// GetOrderDetail returns an order with materials and payouts.
func (s *Service) GetOrderDetail(ctx context.Context, actor shared.Actor, id int64) (OrderDetail, error) {
	if _, err := s.Branch(ctx, actor); err != nil {
		return OrderDetail{}, err
	}
	return s.repo.GetOrderDetail(ctx, id)
}

// ListOrders lists workshop orders, optionally by status.
func (s *Service) ListOrders(ctx context.Context, actor shared.Actor, status Status) ([]Order, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", shared.ErrInvalidInput, status)
	}
	branch, err := s.Branch(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, branch.ID, status)
}

// ListClosures reports closures in a date window.
func (s *Service) ListClosures(ctx context.Context, actor shared.Actor, filter ClosureFilter) ([]Closure, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: end before start", shared.ErrInvalidInput)
	}
	if _, err := s.Branch(ctx, actor); err != nil {
		return nil, err
	}
	return s.repo.ListClosures(ctx, filter)
}

func (s *Service) audit(ctx context.Context, actorID int64, action, entity string, id int64, meta map[string]any) {
	if s.deps.Audit == nil {
		return
	}
	if err := s.deps.Audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}); err != nil {
		s.deps.Logger.Warn("audit workshop", slog.String("action", action), slog.Any("error", err))
	}
}

func isInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func actorRef(actor shared.Actor) *int64 {
	if actor.ID == 0 {
		return nil
	}
	id := actor.ID
	return &id
}
