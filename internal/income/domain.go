package income

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// Income is a stock intake at one branch.
type Income struct {
	ID          int64     `json:"id"`
	BranchID    int64     `json:"branch_id"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	Items       []Item    `json:"items"`
}

// Item is one received product with the prices it came in at.
type Item struct {
	ID            int64           `json:"id"`
	IncomeID      int64           `json:"income_id"`
	ProductID     int64           `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
}

// ItemInput is a requested intake line.
type ItemInput struct {
	ProductID     int64
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
}

// CreateIncomeInput carries an intake request.
type CreateIncomeInput struct {
	Actor    shared.Actor
	BranchID int64
	Items    []ItemInput
}

// WorkshopIncome is an intake into the workshop branch together with the
// resulting stock of every received product.
type WorkshopIncome struct {
	Income Income        `json:"income"`
	Stock  []stock.Stock `json:"stock"`
}

// ListFilter narrows ListIncome; zero fields are ignored.
type ListFilter struct {
	BranchID int64
	From     time.Time
	To       time.Time
}
