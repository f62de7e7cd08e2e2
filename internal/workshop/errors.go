package workshop

import (
	"fmt"

	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// Domain errors for workshop orders.
var (
	ErrOrderNotFound    = fmt.Errorf("workshop: order %w", shared.ErrNotFound)
	ErrEmployeeNotFound = fmt.Errorf("workshop: employee %w", shared.ErrNotFound)

	// ErrOrderClosed indicates a mutation of a closed order.
	ErrOrderClosed = fmt.Errorf("workshop: %w: order is closed", shared.ErrConflict)
	// ErrCloseViaUpdate indicates an attempt to close through the generic update.
	ErrCloseViaUpdate = fmt.Errorf("workshop: %w: use the close operation to close an order", shared.ErrInvalidInput)
	// ErrWrongBranch indicates an order outside the workshop branch.
	ErrWrongBranch = fmt.Errorf("workshop: %w: materials can only be drawn from workshop stock", shared.ErrForbidden)

	ErrInvalidQuantity = fmt.Errorf("workshop: %w", shared.ErrInvalidQuantity)
	ErrInvalidAmount   = fmt.Errorf("workshop: %w", shared.ErrInvalidAmount)
	ErrTitleRequired   = fmt.Errorf("workshop: %w: title required", shared.ErrInvalidInput)
	ErrNameRequired    = fmt.Errorf("workshop: %w: first name required", shared.ErrInvalidInput)

	ErrInsufficientStock = stock.ErrInsufficientStock
)
