package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/platform/db"
	"github.com/kassa-pos/kassa/internal/stock"
)

// TxRepository exposes everything a return touches inside one transaction.
type TxRepository interface {
	stock.TxStore
	catalog.TxStore
	debt.TxStore
	// LockSale reads the sale header FOR UPDATE, serialising returns of one sale.
	LockSale(ctx context.Context, saleID int64) (SaleRef, error)
	// SoldQuantity sums the sale's lines for productID; ok is false when none exist.
	SoldQuantity(ctx context.Context, saleID, productID int64) (qty decimal.Decimal, ok bool, err error)
	ReturnedQuantity(ctx context.Context, saleID, productID int64) (decimal.Decimal, error)
	InsertReturn(ctx context.Context, ret Return) (Return, error)
}

// Repository provides PostgreSQL persistence for returns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type (
	stockTx   interface{ stock.TxStore }
	catalogTx interface{ catalog.TxStore }
	debtTx    interface{ debt.TxStore }
)

type txRepo struct {
	stockTx
	catalogTx
	debtTx
	tx pgx.Tx
}

// WithTx runs fn inside one read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{
			stockTx:   stock.NewStore(tx),
			catalogTx: catalog.NewStore(tx),
			debtTx:    debt.NewStore(tx),
			tx:        tx,
		})
	})
}

func (t *txRepo) LockSale(ctx context.Context, saleID int64) (SaleRef, error) {
	var ref SaleRef
	err := t.tx.QueryRow(ctx, `SELECT id, branch_id, client_id, credit FROM sales WHERE id=$1 FOR UPDATE`, saleID).
		Scan(&ref.ID, &ref.BranchID, &ref.ClientID, &ref.Credit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleRef{}, fmt.Errorf("%w: %d", ErrSaleNotFound, saleID)
		}
		return SaleRef{}, err
	}
	return ref, nil
}

func (t *txRepo) SoldQuantity(ctx context.Context, saleID, productID int64) (decimal.Decimal, bool, error) {
	var qty decimal.NullDecimal
	err := t.tx.QueryRow(ctx, `SELECT SUM(quantity) FROM sale_items WHERE sale_id=$1 AND product_id=$2`, saleID, productID).Scan(&qty)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !qty.Valid {
		return decimal.Zero, false, nil
	}
	return qty.Decimal, true, nil
}

func (t *txRepo) ReturnedQuantity(ctx context.Context, saleID, productID int64) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM returns WHERE sale_id=$1 AND product_id=$2`, saleID, productID).Scan(&qty)
	return qty, err
}

func (t *txRepo) InsertReturn(ctx context.Context, ret Return) (Return, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO returns (sale_id, product_id, quantity, amount, processed_by)
VALUES ($1, $2, $3, $4, NULLIF($5, 0)) RETURNING id, created_at`,
		ret.SaleID, ret.ProductID, ret.Quantity, ret.Amount, ret.ProcessedBy).Scan(&ret.ID, &ret.CreatedAt)
	if err != nil {
		return Return{}, fmt.Errorf("returns: insert: %w", err)
	}
	return ret, nil
}

// ListReturns lists returns newest first.
func (r *Repository) ListReturns(ctx context.Context, filter ListFilter) ([]Return, error) {
	var (
		where []string
		args  []any
	)
	if filter.SaleID != 0 {
		args = append(args, filter.SaleID)
		where = append(where, fmt.Sprintf("r.sale_id = $%d", len(args)))
	}
	if filter.BranchID != 0 {
		args = append(args, filter.BranchID)
		where = append(where, fmt.Sprintf("s.branch_id = $%d", len(args)))
	}
	query := `SELECT r.id, r.sale_id, r.product_id, r.quantity, r.amount, COALESCE(r.processed_by, 0), r.created_at
FROM returns r JOIN sales s ON s.id = r.sale_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Return, 0)
	for rows.Next() {
		var ret Return
		if err := rows.Scan(&ret.ID, &ret.SaleID, &ret.ProductID, &ret.Quantity, &ret.Amount, &ret.ProcessedBy, &ret.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}
