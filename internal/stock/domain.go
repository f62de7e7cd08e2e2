package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is the authoritative quantity of one product at one branch.
type Stock struct {
	BranchID  int64           `json:"branch_id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Adjustment is the outcome of a clamped adjustment.
type Adjustment struct {
	Stock   Stock
	Delta   decimal.Decimal
	Clamped bool // the raw result was negative and was floored at zero
}

// BranchStockItem is one row of a branch stock listing.
type BranchStockItem struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Barcode       *string         `json:"barcode,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Limit         decimal.Decimal `json:"limit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Low           bool            `json:"low"`
}

// LowStockEvent reports a product at or under its reorder limit after a decrement.
type LowStockEvent struct {
	BranchID  int64           `json:"branch_id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Limit     decimal.Decimal `json:"limit"`
}
