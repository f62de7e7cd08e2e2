package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
)

// ============================================================================
// SALE
// ============================================================================

// PaymentType summarises how a sale was tendered.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCard   PaymentType = "card"
	PaymentCredit PaymentType = "credit"
	PaymentMixed  PaymentType = "mixed"
)

// IsValid reports whether the payment type is known.
func (p PaymentType) IsValid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentCredit, PaymentMixed:
		return true
	default:
		return false
	}
}

// Tenders are the per-channel amounts paid for a sale.
type Tenders struct {
	Cash   decimal.Decimal `json:"cash"`
	Card   decimal.Decimal `json:"card"`
	Credit decimal.Decimal `json:"credit"`
}

// PaymentType derives the payment type from the non-zero tenders.
func (t Tenders) PaymentType() PaymentType {
	var kinds []PaymentType
	if t.Cash.IsPositive() {
		kinds = append(kinds, PaymentCash)
	}
	if t.Card.IsPositive() {
		kinds = append(kinds, PaymentCard)
	}
	if t.Credit.IsPositive() {
		kinds = append(kinds, PaymentCredit)
	}
	switch len(kinds) {
	case 0:
		return PaymentCash
	case 1:
		return kinds[0]
	default:
		return PaymentMixed
	}
}

// Sale is a committed sale header with its items.
type Sale struct {
	ID          int64           `json:"id"`
	BranchID    int64           `json:"branch_id"`
	SellerID    int64           `json:"seller_id"`
	ClientID    *int64          `json:"client_id,omitempty"`
	Cash        decimal.Decimal `json:"cash"`
	Card        decimal.Decimal `json:"card"`
	Credit      decimal.Decimal `json:"credit"`
	Total       decimal.Decimal `json:"total"`
	PaymentType PaymentType     `json:"payment_type"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []SaleItem      `json:"items"`
}

// SaleItem is one sold line. Price is the unit price charged.
type SaleItem struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// LineTotal returns price x quantity.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// Total sums price x quantity over items. With quantities at 3 places and
// prices at 2 the sum is exact at 5 places, the scale of sales.total.
func Total(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ============================================================================
// INPUTS
// ============================================================================

// LineInput is a requested sale line.
type LineInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	Price     decimal.Decimal
}

// CreateSaleInput carries a sale request from an authenticated actor.
type CreateSaleInput struct {
	Actor          shared.Actor
	BranchID       int64
	ClientID       *int64
	Tenders        Tenders
	PaymentType    PaymentType
	Items          []LineInput
	IdempotencyKey string
}

// ListFilter narrows ListSales. Zero times are unbounded.
type ListFilter struct {
	From     time.Time
	To       time.Time
	BranchID int64
}

// ============================================================================
// DETAIL
// ============================================================================

// ItemDetail is a sale item with product data attached.
type ItemDetail struct {
	SaleItem
	ProductName string `json:"product_name"`
	Unit        string `json:"unit"`
}

// SaleDetail is a sale with names resolved for display.
type SaleDetail struct {
	Sale
	BranchName string       `json:"branch_name"`
	SellerName string       `json:"seller_name"`
	ClientName *string      `json:"client_name,omitempty"`
	Items      []ItemDetail `json:"items"`
}
