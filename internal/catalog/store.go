package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
)

// TxStore is the catalog surface available inside a ledger unit of work.
type TxStore interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	UpdateProductPrices(ctx context.Context, id int64, purchase, sale decimal.Decimal) error
	ShiftProductQuantity(ctx context.Context, id int64, delta decimal.Decimal) error
	GetBranch(ctx context.Context, id int64) (Branch, error)
}

// Store implements TxStore on a pool or a transaction.
type Store struct {
	db shared.DBTX
}

// NewStore constructs Store.
func NewStore(db shared.DBTX) *Store {
	return &Store{db: db}
}

const productColumns = `id, name, unit, barcode, purchase_price, sale_price, wholesale_price, stock_limit, quantity`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.Barcode, &p.PurchasePrice, &p.SalePrice, &p.WholesalePrice, &p.Limit, &p.Quantity)
	return p, err
}

// GetProduct loads a product by id.
func (s *Store) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		return Product{}, err
	}
	return p, nil
}

// UpdateProductPrices overwrites master purchase and sale prices.
func (s *Store) UpdateProductPrices(ctx context.Context, id int64, purchase, sale decimal.Decimal) error {
	tag, err := s.db.Exec(ctx, `UPDATE products SET purchase_price=$2, sale_price=$3 WHERE id=$1`, id, purchase, sale)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	return nil
}

// ShiftProductQuantity moves the cached global quantity by delta, floored at zero.
func (s *Store) ShiftProductQuantity(ctx context.Context, id int64, delta decimal.Decimal) error {
	_, err := s.db.Exec(ctx, `UPDATE products SET quantity = GREATEST(quantity + $2, 0) WHERE id=$1`, id, delta)
	return err
}

const branchColumns = `id, name, address, active, is_workshop, created_at`

func scanBranch(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Active, &b.IsWorkshop, &b.CreatedAt)
	return b, err
}

// GetBranch loads a branch by id.
func (s *Store) GetBranch(ctx context.Context, id int64) (Branch, error) {
	b, err := scanBranch(s.db.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Branch{}, fmt.Errorf("%w: %d", ErrBranchNotFound, id)
		}
		return Branch{}, err
	}
	return b, nil
}
