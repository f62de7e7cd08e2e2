package returns

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
)

// Return reverses part of a sale line.
type Return struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	ProcessedBy int64           `json:"processed_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SaleRef is the part of a sale a return needs.
type SaleRef struct {
	ID       int64
	BranchID int64
	ClientID *int64
	Credit   decimal.Decimal
}

// CreateReturnInput carries a return request.
type CreateReturnInput struct {
	Actor     shared.Actor
	SaleID    int64
	ProductID int64
	Quantity  decimal.Decimal
	Amount    decimal.Decimal
}

// ListFilter narrows ListReturns; zero fields are ignored.
type ListFilter struct {
	SaleID   int64
	BranchID int64
}
