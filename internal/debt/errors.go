package debt

import (
	"fmt"

	"github.com/kassa-pos/kassa/internal/shared"
)

var (
	// ErrClientNotFound indicates the referenced client does not exist.
	ErrClientNotFound = fmt.Errorf("debt: client %w", shared.ErrNotFound)
	// ErrDebtNotFound indicates the referenced debt does not exist.
	ErrDebtNotFound = fmt.Errorf("debt: debt %w", shared.ErrNotFound)
	// ErrInvalidAmount indicates a non-positive or excessive amount.
	ErrInvalidAmount = fmt.Errorf("debt: %w", shared.ErrInvalidAmount)
)
