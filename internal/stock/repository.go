package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository serves stock reads outside a unit of work.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetStock returns the row for (branch, product), zero when absent.
func (r *Repository) GetStock(ctx context.Context, branchID, productID int64) (Stock, error) {
	st := Stock{BranchID: branchID, ProductID: productID}
	err := r.pool.QueryRow(ctx, `SELECT quantity, updated_at FROM stock WHERE branch_id=$1 AND product_id=$2`, branchID, productID).
		Scan(&st.Quantity, &st.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Stock{}, err
	}
	return st, nil
}

// ListBranchStock lists the stock rows of a branch joined with product data,
// optionally filtered by product name or barcode.
func (r *Repository) ListBranchStock(ctx context.Context, branchID int64, search string) ([]BranchStockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.unit, p.barcode, s.quantity, p.stock_limit, p.purchase_price, p.sale_price
FROM stock s JOIN products p ON p.id = s.product_id
WHERE s.branch_id=$1 AND ($2 = '' OR p.name ILIKE '%' || $2 || '%' OR p.barcode ILIKE '%' || $2 || '%')
ORDER BY p.name ASC`, branchID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BranchStockItem{}
	for rows.Next() {
		var item BranchStockItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Unit, &item.Barcode, &item.Quantity, &item.Limit, &item.PurchasePrice, &item.SalePrice); err != nil {
			return nil, err
		}
		item.Low = item.Limit.IsPositive() && item.Quantity.LessThanOrEqual(item.Limit)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
