package debt

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kassa-pos/kassa/internal/platform/db"
)

// TxRepository exposes the debt store bound to one transaction.
type TxRepository interface {
	TxStore
}

// Repository provides PostgreSQL persistence for debts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside one ledger transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewStore(tx))
	})
}

// GetClient loads a client by id.
func (r *Repository) GetClient(ctx context.Context, clientID int64) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone, total_debt FROM clients WHERE id=$1`, clientID).
		Scan(&c.ID, &c.Name, &c.Phone, &c.TotalDebt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, fmt.Errorf("%w: %d", ErrClientNotFound, clientID)
		}
		return Client{}, err
	}
	return c, nil
}

// ListClientDebts returns the client's debts newest first.
func (r *Repository) ListClientDebts(ctx context.Context, clientID int64) ([]Debt, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, client_id, sale_id, amount, paid, created_at
FROM debts WHERE client_id=$1 ORDER BY created_at DESC, id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	debts := make([]Debt, 0)
	for rows.Next() {
		var d Debt
		if err := rows.Scan(&d.ID, &d.ClientID, &d.SaleID, &d.Amount, &d.Paid, &d.CreatedAt); err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}
