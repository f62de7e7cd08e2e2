// Package debt keeps client credit balances. Client.TotalDebt is a running
// balance moved by credit sales, returns and repayments; it never drops
// below zero.
package debt

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
)

// TxStore is the debt persistence available inside a unit of work.
type TxStore interface {
	// LockClient reads the client and holds a row lock until the unit of work ends.
	LockClient(ctx context.Context, clientID int64) (Client, error)
	SaveClientDebt(ctx context.Context, clientID int64, total decimal.Decimal) error
	InsertDebt(ctx context.Context, d Debt) (Debt, error)
	LockDebt(ctx context.Context, debtID int64) (Debt, error)
	SaveDebtPaid(ctx context.Context, debtID int64, paid decimal.Decimal) error
	InsertDebtPayment(ctx context.Context, p Payment) (Payment, error)
}

// Charge books amount against the client for saleID and raises its balance.
func Charge(ctx context.Context, tx TxStore, clientID, saleID int64, amount decimal.Decimal) (Debt, error) {
	if !amount.IsPositive() || !shared.FitsMoney(amount) {
		return Debt{}, ErrInvalidAmount
	}
	client, err := tx.LockClient(ctx, clientID)
	if err != nil {
		return Debt{}, err
	}
	if err := tx.SaveClientDebt(ctx, clientID, client.TotalDebt.Add(amount)); err != nil {
		return Debt{}, fmt.Errorf("debt: save balance: %w", err)
	}
	d, err := tx.InsertDebt(ctx, Debt{ClientID: clientID, SaleID: &saleID, Amount: amount, Paid: decimal.Zero})
	if err != nil {
		return Debt{}, fmt.Errorf("debt: insert debt: %w", err)
	}
	return d, nil
}

// Reduce lowers the client balance by amount, flooring at zero.
func Reduce(ctx context.Context, tx TxStore, clientID int64, amount decimal.Decimal) (Client, error) {
	if !shared.ValidAmount(amount) {
		return Client{}, ErrInvalidAmount
	}
	client, err := tx.LockClient(ctx, clientID)
	if err != nil {
		return Client{}, err
	}
	next := client.TotalDebt.Sub(amount)
	if next.IsNegative() {
		next = decimal.Zero
	}
	if err := tx.SaveClientDebt(ctx, clientID, next); err != nil {
		return Client{}, fmt.Errorf("debt: save balance: %w", err)
	}
	client.TotalDebt = next
	return client, nil
}
