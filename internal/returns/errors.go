package returns

import (
	"fmt"

	"github.com/kassa-pos/kassa/internal/shared"
)

var (
	// ErrSaleNotFound indicates the referenced sale does not exist.
	ErrSaleNotFound = fmt.Errorf("returns: sale %w", shared.ErrNotFound)
	// ErrInvalidReturnQuantity indicates more would be returned than was sold.
	ErrInvalidReturnQuantity = fmt.Errorf("returns: %w: exceeds quantity sold", shared.ErrInvalidQuantity)
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = fmt.Errorf("returns: %w", shared.ErrInvalidQuantity)
	// ErrInvalidAmount indicates a negative refund.
	ErrInvalidAmount = fmt.Errorf("returns: %w", shared.ErrInvalidAmount)
)
