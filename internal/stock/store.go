package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/kassa-pos/kassa/internal/shared"
)

// Store implements TxStore in PostgreSQL.
type Store struct {
	db shared.DBTX
}

// NewStore constructs Store over a transaction.
func NewStore(db shared.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) CreateStock(ctx context.Context, branchID, productID int64) error {
	_, err := s.db.Exec(ctx, `INSERT INTO stock (branch_id, product_id, quantity) VALUES ($1, $2, 0)
ON CONFLICT (branch_id, product_id) DO NOTHING`, branchID, productID)
	return err
}

func (s *Store) LockStock(ctx context.Context, branchID, productID int64) (Stock, error) {
	var st Stock
	err := s.db.QueryRow(ctx, `SELECT branch_id, product_id, quantity, updated_at FROM stock
WHERE branch_id=$1 AND product_id=$2 FOR UPDATE`, branchID, productID).
		Scan(&st.BranchID, &st.ProductID, &st.Quantity, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{BranchID: branchID, ProductID: productID}, ErrStockNotFound
		}
		return Stock{}, err
	}
	return st, nil
}

func (s *Store) SaveStock(ctx context.Context, st Stock) (Stock, error) {
	err := s.db.QueryRow(ctx, `UPDATE stock SET quantity=$3, updated_at=NOW()
WHERE branch_id=$1 AND product_id=$2 RETURNING updated_at`, st.BranchID, st.ProductID, st.Quantity).Scan(&st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrStockNotFound
		}
		return Stock{}, err
	}
	return st, nil
}
