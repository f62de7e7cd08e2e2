package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs catalog queries outside a ledger unit of work.
type Repository struct {
	pool *pgxpool.Pool
	*Store
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, Store: NewStore(pool)}
}

// FindWorkshopBranch returns the branch flagged as workshop.
func (r *Repository) FindWorkshopBranch(ctx context.Context) (Branch, error) {
	return r.oneBranch(ctx, `SELECT `+branchColumns+` FROM branches WHERE is_workshop ORDER BY id LIMIT 1`)
}

// FindBranchByName returns the branch with the given name.
func (r *Repository) FindBranchByName(ctx context.Context, name string) (Branch, error) {
	return r.oneBranch(ctx, `SELECT `+branchColumns+` FROM branches WHERE name=$1`, name)
}

// MarkWorkshop flags an existing branch as the workshop.
func (r *Repository) MarkWorkshop(ctx context.Context, id int64) (Branch, error) {
	return r.oneBranch(ctx, `UPDATE branches SET is_workshop=TRUE WHERE id=$1 RETURNING `+branchColumns, id)
}

// CreateWorkshopBranch inserts the workshop branch, adopting a concurrently
// created row of the same name.
func (r *Repository) CreateWorkshopBranch(ctx context.Context, name string) (Branch, error) {
	return r.oneBranch(ctx, `INSERT INTO branches (name, active, is_workshop) VALUES ($1, TRUE, TRUE)
ON CONFLICT (name) DO UPDATE SET is_workshop=TRUE
RETURNING `+branchColumns, name)
}

// ResyncProductQuantities recomputes products.quantity from per-branch stock
// and returns the number of corrected products.
func (r *Repository) ResyncProductQuantities(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE products p SET quantity = s.total
FROM (
    SELECT pr.id, COALESCE(SUM(st.quantity), 0) AS total
    FROM products pr LEFT JOIN stock st ON st.product_id = pr.id
    GROUP BY pr.id
) s
WHERE p.id = s.id AND p.quantity <> s.total`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) oneBranch(ctx context.Context, query string, args ...any) (Branch, error) {
	b, err := scanBranch(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Branch{}, ErrBranchNotFound
		}
		return Branch{}, err
	}
	return b, nil
}
