// Package stock owns the per-(branch, product) quantity counter. Every other
// ledger package mutates stock only through Adjust and Withdraw, always on the
// TxStore of its own unit of work.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
)

// TxStore is the stock persistence available inside a unit of work.
type TxStore interface {
	// CreateStock inserts a zero row when none exists; it is a no-op otherwise.
	CreateStock(ctx context.Context, branchID, productID int64) error
	// LockStock reads the row and holds an exclusive lock on it until the unit
	// of work ends. ErrStockNotFound when absent.
	LockStock(ctx context.Context, branchID, productID int64) (Stock, error)
	SaveStock(ctx context.Context, s Stock) (Stock, error)
}

// Adjust applies delta to the (branch, product) row, creating it at zero if
// absent. A negative result is clamped to zero and reported in Clamped rather
// than failing; callers on correction paths rely on always succeeding.
func Adjust(ctx context.Context, tx TxStore, branchID, productID int64, delta decimal.Decimal) (Adjustment, error) {
	if !shared.FitsQuantity(delta) {
		return Adjustment{}, ErrInvalidQuantity
	}
	if err := tx.CreateStock(ctx, branchID, productID); err != nil {
		return Adjustment{}, fmt.Errorf("stock: create row: %w", err)
	}
	current, err := tx.LockStock(ctx, branchID, productID)
	if err != nil {
		return Adjustment{}, fmt.Errorf("stock: lock row: %w", err)
	}
	next := current.Quantity.Add(delta)
	clamped := false
	if next.IsNegative() {
		next = decimal.Zero
		clamped = true
	}
	current.Quantity = next
	saved, err := tx.SaveStock(ctx, current)
	if err != nil {
		return Adjustment{}, fmt.Errorf("stock: save row: %w", err)
	}
	return Adjustment{Stock: saved, Delta: delta, Clamped: clamped}, nil
}

// Withdraw decrements the row by qty under an exclusive lock and fails with
// ErrInsufficientStock instead of clamping.
func Withdraw(ctx context.Context, tx TxStore, branchID, productID int64, qty decimal.Decimal) (Stock, error) {
	if !shared.ValidQuantity(qty) {
		return Stock{}, ErrInvalidQuantity
	}
	current, err := tx.LockStock(ctx, branchID, productID)
	if err != nil {
		if errors.Is(err, ErrStockNotFound) {
			return Stock{}, fmt.Errorf("%w: product %d at branch %d: available 0, requested %s", ErrInsufficientStock, productID, branchID, qty)
		}
		return Stock{}, fmt.Errorf("stock: lock row: %w", err)
	}
	if current.Quantity.LessThan(qty) {
		return Stock{}, fmt.Errorf("%w: product %d at branch %d: available %s, requested %s", ErrInsufficientStock, productID, branchID, current.Quantity, qty)
	}
	current.Quantity = current.Quantity.Sub(qty)
	saved, err := tx.SaveStock(ctx, current)
	if err != nil {
		return Stock{}, fmt.Errorf("stock: save row: %w", err)
	}
	return saved, nil
}
