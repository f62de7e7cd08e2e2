package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds shared by every ledger package. Package-level sentinels wrap
// one of these so the HTTP layer can map them with errors.Is.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuantity indicates a non-positive or out-of-range quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidAmount indicates a negative or out-of-range money amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidInput covers malformed requests that are not quantity or amount problems.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientStock indicates a decrement larger than the available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates the target is in a state that forbids the mutation.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the actor may not touch the target.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated indicates the request carried no actor identity.
	ErrUnauthenticated = errors.New("unauthenticated")
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
