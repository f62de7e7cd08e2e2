package debt

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
)

// Store implements TxStore in PostgreSQL.
type Store struct {
	db shared.DBTX
}

// NewStore constructs Store.
func NewStore(db shared.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) LockClient(ctx context.Context, clientID int64) (Client, error) {
	var c Client
	err := s.db.QueryRow(ctx, `SELECT id, name, phone, total_debt FROM clients WHERE id=$1 FOR UPDATE`, clientID).
		Scan(&c.ID, &c.Name, &c.Phone, &c.TotalDebt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, fmt.Errorf("%w: %d", ErrClientNotFound, clientID)
		}
		return Client{}, err
	}
	return c, nil
}

func (s *Store) SaveClientDebt(ctx context.Context, clientID int64, total decimal.Decimal) error {
	_, err := s.db.Exec(ctx, `UPDATE clients SET total_debt=$2 WHERE id=$1`, clientID, total)
	return err
}

func (s *Store) InsertDebt(ctx context.Context, d Debt) (Debt, error) {
	err := s.db.QueryRow(ctx, `INSERT INTO debts (client_id, sale_id, amount, paid) VALUES ($1, $2, $3, $4)
RETURNING id, created_at`, d.ClientID, d.SaleID, d.Amount, d.Paid).Scan(&d.ID, &d.CreatedAt)
	return d, err
}

func (s *Store) LockDebt(ctx context.Context, debtID int64) (Debt, error) {
	var d Debt
	err := s.db.QueryRow(ctx, `SELECT id, client_id, sale_id, amount, paid, created_at FROM debts WHERE id=$1 FOR UPDATE`, debtID).
		Scan(&d.ID, &d.ClientID, &d.SaleID, &d.Amount, &d.Paid, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Debt{}, fmt.Errorf("%w: %d", ErrDebtNotFound, debtID)
		}
		return Debt{}, err
	}
	return d, nil
}

func (s *Store) SaveDebtPaid(ctx context.Context, debtID int64, paid decimal.Decimal) error {
	_, err := s.db.Exec(ctx, `UPDATE debts SET paid=$2 WHERE id=$1`, debtID, paid)
	return err
}

func (s *Store) InsertDebtPayment(ctx context.Context, p Payment) (Payment, error) {
	err := s.db.QueryRow(ctx, `INSERT INTO debt_payments (debt_id, client_id, amount, created_by_id)
VALUES ($1, $2, $3, NULLIF($4, 0)) RETURNING id, created_at`, p.DebtID, p.ClientID, p.Amount, p.CreatedByID).
		Scan(&p.ID, &p.CreatedAt)
	return p, err
}
