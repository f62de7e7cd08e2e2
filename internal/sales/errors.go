package sales

import (
	"errors"
	"fmt"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

var (
	// ErrSaleNotFound indicates the sale does not exist.
	ErrSaleNotFound = fmt.Errorf("sales: sale %w", shared.ErrNotFound)
	// ErrEmptyItems indicates a sale without lines.
	ErrEmptyItems = fmt.Errorf("sales: %w: at least one item required", shared.ErrInvalidInput)
	// ErrCreditRequiresClient indicates a credit tender without a client.
	ErrCreditRequiresClient = fmt.Errorf("sales: %w: credit requires a client", shared.ErrInvalidInput)
	// ErrInvalidPaymentType indicates an unknown payment type.
	ErrInvalidPaymentType = fmt.Errorf("sales: %w: payment type", shared.ErrInvalidInput)
	// ErrInvalidQuantity indicates a non-positive line quantity.
	ErrInvalidQuantity = fmt.Errorf("sales: %w", shared.ErrInvalidQuantity)
	// ErrInvalidAmount indicates a negative price or tender.
	ErrInvalidAmount = fmt.Errorf("sales: %w", shared.ErrInvalidAmount)
	// ErrInvalidIdempotencyKey indicates a malformed idempotency key.
	ErrInvalidIdempotencyKey = fmt.Errorf("sales: %w: idempotency key must be a UUID", shared.ErrInvalidInput)
	// ErrDuplicateRequest indicates the idempotency key was already used.
	ErrDuplicateRequest = fmt.Errorf("sales: %w: duplicate request", shared.ErrConflict)

	ErrProductNotFound   = catalog.ErrProductNotFound
	ErrClientNotFound    = debt.ErrClientNotFound
	ErrInsufficientStock = stock.ErrInsufficientStock
)

func isInsufficient(err error) bool {
	return errors.Is(err, shared.ErrInsufficientStock)
}
