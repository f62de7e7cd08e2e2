// Package catalog is the ledger's boundary to product and branch master data.
// Catalog management itself lives elsewhere; this package only reads records
// and applies the mutations the ledger is allowed to make.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWorkshopBranchName is the reserved name of the workshop branch.
const DefaultWorkshopBranchName = "Цех"

// Product is a catalog entry. Quantity mirrors the sum of per-branch stock on a
// best-effort basis; per-branch stock is authoritative.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	Barcode        *string         `json:"barcode,omitempty"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Limit          decimal.Decimal `json:"limit"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// BelowLimit reports whether qty is at or under the product reorder limit.
func (p Product) BelowLimit(qty decimal.Decimal) bool {
	return p.Limit.IsPositive() && qty.LessThanOrEqual(p.Limit)
}

// Branch is a location holding its own stock.
type Branch struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Address    *string   `json:"address,omitempty"`
	Active     bool      `json:"active"`
	IsWorkshop bool      `json:"is_workshop"`
	CreatedAt  time.Time `json:"created_at"`
}
