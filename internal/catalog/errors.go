package catalog

import (
	"fmt"

	"github.com/kassa-pos/kassa/internal/shared"
)

var (
	// ErrProductNotFound indicates the referenced product does not exist.
	ErrProductNotFound = fmt.Errorf("catalog: product %w", shared.ErrNotFound)
	// ErrBranchNotFound indicates the referenced branch does not exist.
	ErrBranchNotFound = fmt.Errorf("catalog: branch %w", shared.ErrNotFound)
)
