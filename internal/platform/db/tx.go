package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPoolMissing is returned when a repository was built without a pool.
var ErrPoolMissing = errors.New("platform/db: pool not initialised")

// WithTx executes fn within a read-committed transaction. Row locks taken with
// SELECT ... FOR UPDATE make concurrent writers wait and then see the committed
// row, so stock checks serialise without surfacing serialization failures.
// Any error from fn rolls back every statement issued on tx.
//
// Ledger units of work lock rows in one global order so they cannot
// deadlock each other:
//
//  1. the document being acted on (sale, income, workshop order, debt)
//  2. stock rows of one branch, by ascending product id
//  3. products rows, by ascending id
//  4. the clients row
//
// A unit of work that needs an earlier kind after a later one must take it
// up front instead.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	if pool == nil {
		return ErrPoolMissing
	}
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}
