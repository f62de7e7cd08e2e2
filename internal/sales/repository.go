package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/platform/db"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

const idempotencyModule = "sales"

// TxRepository exposes everything a sale touches inside one transaction.
type TxRepository interface {
	stock.TxStore
	catalog.TxStore
	debt.TxStore
	ClaimIdempotency(ctx context.Context, key string) error
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	InsertSaleItems(ctx context.Context, saleID int64, items []SaleItem) ([]SaleItem, error)
}

// Repository provides PostgreSQL persistence for sales.
type Repository struct {
	pool *pgxpool.Pool
	idem *shared.IdempotencyStore
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, idem *shared.IdempotencyStore) *Repository {
	if idem == nil {
		idem = shared.NewIdempotencyStore()
	}
	return &Repository{pool: pool, idem: idem}
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
	tx   pgx.Tx
	idem *shared.IdempotencyStore
}

// WithTx runs fn inside one read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		wrapper := &txRepo{
			stockTx:   stock.NewStore(tx),
			catalogTx: catalog.NewStore(tx),
			debtTx:    debt.NewStore(tx),
			tx:        tx,
			idem:      r.idem,
		}
		return fn(ctx, wrapper)
	})
}

func (t *txRepo) ClaimIdempotency(ctx context.Context, key string) error {
	return t.idem.Claim(ctx, t.tx, key, idempotencyModule)
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO sales (branch_id, seller_id, client_id, cash, card, credit, total, payment_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, total, created_at`,
		sale.BranchID, sale.SellerID, sale.ClientID, sale.Cash, sale.Card, sale.Credit, sale.Total, string(sale.PaymentType)).
		Scan(&sale.ID, &sale.Total, &sale.CreatedAt)
	if err != nil {
		return Sale{}, fmt.Errorf("sales: insert sale: %w", err)
	}
	return sale, nil
}

func (t *txRepo) InsertSaleItems(ctx context.Context, saleID int64, items []SaleItem) ([]SaleItem, error) {
	out := make([]SaleItem, 0, len(items))
	for _, item := range items {
		item.SaleID = saleID
		if err := t.tx.QueryRow(ctx, `INSERT INTO sale_items (sale_id, product_id, quantity, price)
VALUES ($1, $2, $3, $4) RETURNING id`, saleID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("sales: insert item: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

const saleColumns = `s.id, s.branch_id, s.seller_id, s.client_id, s.cash, s.card, s.credit, s.total, s.payment_type, s.created_at`

func scanSale(row pgx.Row, extra ...any) (Sale, error) {
	var s Sale
	var paymentType string
	dest := append([]any{&s.ID, &s.BranchID, &s.SellerID, &s.ClientID, &s.Cash, &s.Card, &s.Credit, &s.Total, &paymentType, &s.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Sale{}, err
	}
	s.PaymentType = PaymentType(paymentType)
	return s, nil
}

// GetSaleDetail loads a sale with branch, seller, client and product names.
func (r *Repository) GetSaleDetail(ctx context.Context, id int64) (SaleDetail, error) {
	var detail SaleDetail
	sale, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+`, b.name, u.name, c.name
FROM sales s
JOIN branches b ON b.id = s.branch_id
JOIN users u ON u.id = s.seller_id
LEFT JOIN clients c ON c.id = s.client_id
WHERE s.id=$1`, id), &detail.BranchName, &detail.SellerName, &detail.ClientName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleDetail{}, fmt.Errorf("%w: %d", ErrSaleNotFound, id)
		}
		return SaleDetail{}, err
	}
	detail.Sale = sale

	rows, err := r.pool.Query(ctx, `SELECT i.id, i.sale_id, i.product_id, i.quantity, i.price, p.name, p.unit
FROM sale_items i JOIN products p ON p.id = i.product_id
WHERE i.sale_id=$1 ORDER BY i.id`, id)
	if err != nil {
		return SaleDetail{}, err
	}
	defer rows.Close()
	detail.Items = make([]ItemDetail, 0)
	for rows.Next() {
		var item ItemDetail
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.Price, &item.ProductName, &item.Unit); err != nil {
			return SaleDetail{}, err
		}
		detail.Sale.Items = append(detail.Sale.Items, item.SaleItem)
		detail.Items = append(detail.Items, item)
	}
	return detail, rows.Err()
}

// ListSales returns sales newest first with their items attached.
func (r *Repository) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	var (
		where []string
		args  []any
	)
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("s.created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("s.created_at <= $%d", len(args)))
	}
	if filter.BranchID != 0 {
		args = append(args, filter.BranchID)
		where = append(where, fmt.Sprintf("s.branch_id = $%d", len(args)))
	}
	query := `SELECT ` + saleColumns + ` FROM sales s`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY s.created_at DESC, s.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	sales := make([]Sale, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sale.Items = make([]SaleItem, 0)
		index[sale.ID] = len(sales)
		ids = append(ids, sale.ID)
		sales = append(sales, sale)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return sales, nil
	}

	itemRows, err := r.pool.Query(ctx, `SELECT id, sale_id, product_id, quantity, price FROM sale_items
WHERE sale_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item SaleItem
		if err := itemRows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		pos := index[item.SaleID]
		sales[pos].Items = append(sales[pos].Items, item)
	}
	return sales, itemRows.Err()
}
