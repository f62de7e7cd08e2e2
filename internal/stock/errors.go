package stock

import (
	"errors"
	"fmt"

	"github.com/kassa-pos/kassa/internal/shared"
)

var (
	// ErrInsufficientStock indicates a withdrawal larger than the stock on hand.
	ErrInsufficientStock = fmt.Errorf("stock: %w", shared.ErrInsufficientStock)
	// ErrInvalidQuantity indicates a non-positive withdrawal.
	ErrInvalidQuantity = fmt.Errorf("stock: %w", shared.ErrInvalidQuantity)
	// ErrStockNotFound indicates the (branch, product) row does not exist yet.
	ErrStockNotFound = errors.New("stock: row not found")
)
