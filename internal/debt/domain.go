package debt

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer that may buy on credit.
type Client struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Phone     *string         `json:"phone,omitempty"`
	TotalDebt decimal.Decimal `json:"total_debt"`
}

// Debt is the credit portion of one sale.
type Debt struct {
	ID        int64           `json:"id"`
	ClientID  int64           `json:"client_id"`
	SaleID    *int64          `json:"sale_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Paid      decimal.Decimal `json:"paid"`
	CreatedAt time.Time       `json:"created_at"`
}

// Outstanding returns the unpaid remainder.
func (d Debt) Outstanding() decimal.Decimal {
	rest := d.Amount.Sub(d.Paid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Payment is a repayment against a Debt.
type Payment struct {
	ID          int64           `json:"id"`
	DebtID      int64           `json:"debt_id"`
	ClientID    int64           `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedByID int64           `json:"created_by_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PayDebtInput carries a repayment request.
type PayDebtInput struct {
	DebtID  int64
	Amount  decimal.Decimal
	ActorID int64
}

// ClientDebts is a client with its debt history.
type ClientDebts struct {
	Client Client `json:"client"`
	Debts  []Debt `json:"debts"`
}
