package workshop

import (
	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/income"
)

type createOrderRequest struct {
	Title        string          `json:"title" validate:"required,max=255"`
	Amount       decimal.Decimal `json:"amount"`
	CustomerName *string         `json:"customer_name,omitempty" validate:"omitempty,max=255"`
	Description  *string         `json:"description,omitempty"`
}

type updateOrderRequest struct {
	Title        *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	CustomerName *string          `json:"customer_name,omitempty" validate:"omitempty,max=255"`
	Description  *string          `json:"description,omitempty"`
	Status       *Status          `json:"status,omitempty"`
}

type addMaterialRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      *string         `json:"unit,omitempty" validate:"omitempty,max=32"`
}

type addPayoutRequest struct {
	EmployeeID int64           `json:"employee_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	Note       *string         `json:"note,omitempty"`
}

type closeOrderRequest struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Note       *string         `json:"note,omitempty"`
}

type employeeRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Position  *string `json:"position,omitempty" validate:"omitempty,max=100"`
}

type employeeUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Position  *string `json:"position,omitempty" validate:"omitempty,max=100"`
	Active    *bool   `json:"active,omitempty"`
}

type workshopIncomeRequest struct {
	Items []income.ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// orderDetailResponse adds the derived payout total to the order detail.
type orderDetailResponse struct {
	OrderDetail
	PayoutTotal decimal.Decimal `json:"payout_total"`
}

func newOrderDetailResponse(d OrderDetail) orderDetailResponse {
	total := decimal.Zero
	for _, p := range d.Payouts {
		total = total.Add(p.Amount)
	}
	return orderDetailResponse{OrderDetail: d, PayoutTotal: total}
}
