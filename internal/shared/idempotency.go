package shared

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore persists processed request keys. Claim is meant to run on
// the transaction of the operation it guards so a rolled back operation
// releases its key.
type IdempotencyStore struct {
	now func() time.Time
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{now: time.Now}
}

// Claim records key for module, failing with ErrIdempotencyConflict when the
// pair was already claimed.
func (s *IdempotencyStore) Claim(ctx context.Context, db DBTX, key, module string) error {
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	now := time.Now
	if s != nil && s.now != nil {
		now = s.now
	}
	_, err := db.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`, key, module, now().UTC())
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, db DBTX, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
