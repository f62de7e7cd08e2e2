package income

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/platform/db"
	"github.com/kassa-pos/kassa/internal/stock"
)

// TxRepository exposes everything an intake touches inside one transaction.
type TxRepository interface {
	stock.TxStore
	catalog.TxStore
	InsertIncome(ctx context.Context, inc Income) (Income, error)
	InsertIncomeItems(ctx context.Context, incomeID int64, items []Item) ([]Item, error)
	// LockIncome reads the income and its items FOR UPDATE.
	LockIncome(ctx context.Context, id int64) (Income, error)
	DeleteIncome(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL persistence for income.
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
)

type txRepo struct {
	stockTx
	catalogTx
	tx pgx.Tx
}

// WithTx runs fn inside one read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{stockTx: stock.NewStore(tx), catalogTx: catalog.NewStore(tx), tx: tx})
	})
}

func (t *txRepo) InsertIncome(ctx context.Context, inc Income) (Income, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO income (branch_id, created_by_id) VALUES ($1, NULLIF($2, 0)) RETURNING id, created_at`,
		inc.BranchID, inc.CreatedByID).Scan(&inc.ID, &inc.CreatedAt)
	if err != nil {
		return Income{}, fmt.Errorf("income: insert: %w", err)
	}
	return inc, nil
}

func (t *txRepo) InsertIncomeItems(ctx context.Context, incomeID int64, items []Item) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		item.IncomeID = incomeID
		if err := t.tx.QueryRow(ctx, `INSERT INTO income_items (income_id, product_id, quantity, purchase_price, sale_price)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, incomeID, item.ProductID, item.Quantity, item.PurchasePrice, item.SalePrice).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("income: insert item: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (t *txRepo) LockIncome(ctx context.Context, id int64) (Income, error) {
	var inc Income
	err := t.tx.QueryRow(ctx, `SELECT id, branch_id, COALESCE(created_by_id, 0), created_at FROM income WHERE id=$1 FOR UPDATE`, id).
		Scan(&inc.ID, &inc.BranchID, &inc.CreatedByID, &inc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Income{}, fmt.Errorf("%w: %d", ErrIncomeNotFound, id)
		}
		return Income{}, err
	}
	items, err := scanItems(t.tx.Query(ctx, `SELECT id, income_id, product_id, quantity, purchase_price, sale_price
FROM income_items WHERE income_id=$1 ORDER BY product_id, id`, id))
	if err != nil {
		return Income{}, err
	}
	inc.Items = items
	return inc, nil
}

func (t *txRepo) DeleteIncome(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM income_items WHERE income_id=$1`, id); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM income WHERE id=$1`, id)
	return err
}

func scanItems(rows pgx.Rows, err error) ([]Item, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.IncomeID, &item.ProductID, &item.Quantity, &item.PurchasePrice, &item.SalePrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListIncome lists intakes newest first with their items.
func (r *Repository) ListIncome(ctx context.Context, filter ListFilter) ([]Income, error) {
	var (
		where []string
		args  []any
	)
	if filter.BranchID != 0 {
		args = append(args, filter.BranchID)
		where = append(where, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	query := `SELECT id, branch_id, COALESCE(created_by_id, 0), created_at FROM income`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]Income, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var inc Income
		if err := rows.Scan(&inc.ID, &inc.BranchID, &inc.CreatedByID, &inc.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		inc.Items = make([]Item, 0)
		index[inc.ID] = len(out)
		ids = append(ids, inc.ID)
		out = append(out, inc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	items, err := scanItems(r.pool.Query(ctx, `SELECT id, income_id, product_id, quantity, purchase_price, sale_price
FROM income_items WHERE income_id = ANY($1) ORDER BY id`, ids))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		pos := index[item.IncomeID]
		out[pos].Items = append(out[pos].Items, item)
	}
	return out, nil
}
