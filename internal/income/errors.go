package income

import (
	"fmt"

	"github.com/kassa-pos/kassa/internal/shared"
)

var (
	// ErrIncomeNotFound indicates the income does not exist.
	ErrIncomeNotFound = fmt.Errorf("income: %w", shared.ErrNotFound)
	// ErrEmptyItems indicates an intake without lines.
	ErrEmptyItems = fmt.Errorf("income: %w: at least one item required", shared.ErrInvalidQuantity)
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = fmt.Errorf("income: %w", shared.ErrInvalidQuantity)
	// ErrInvalidPrice indicates a negative price.
	ErrInvalidPrice = fmt.Errorf("income: %w: price", shared.ErrInvalidAmount)
)
