package workshop

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/shared"
)

// Status represents the lifecycle of a workshop order.
type Status string

const (
	StatusOpen   Status = "open"   // accepts edits, materials and payouts
	StatusClosed Status = "closed" // terminal
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// CanEdit checks if the order can be changed in this status.
func (s Status) CanEdit() bool {
	return s == StatusOpen
}

// CanClose checks if the order can be closed.
func (s Status) CanClose() bool {
	return s == StatusOpen
}

// Order is a custom production order fulfilled from workshop stock.
type Order struct {
	ID              int64               `json:"id"`
	Title           string              `json:"title"`
	Amount          decimal.Decimal     `json:"amount"`
	CustomerName    *string             `json:"customer_name,omitempty"`
	Description     *string             `json:"description,omitempty"`
	Status          Status              `json:"status"`
	BranchID        int64               `json:"branch_id"`
	Photo           *string             `json:"photo,omitempty"`
	PaidAmount      decimal.NullDecimal `json:"paid_amount"`
	CreatedByUserID *int64              `json:"created_by_user_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	ClosedAt        *time.Time          `json:"closed_at,omitempty"`
}

// Material records stock drawn from the workshop branch for an order.
type Material struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      *string         `json:"unit,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Payout records money paid to an employee for an order.
type Payout struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	EmployeeID int64           `json:"employee_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       *string         `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Closure is the terminal snapshot of an order. At most one exists per order.
type Closure struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	OrderAmount    decimal.Decimal `json:"order_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Note           *string         `json:"note,omitempty"`
	ClosedByUserID *int64          `json:"closed_by_user_id,omitempty"`
	ClosedAt       time.Time       `json:"closed_at"`
}

// Employee is a workshop worker. TotalSalary only moves through payouts.
type Employee struct {
	ID          int64           `json:"id"`
	FirstName   string          `json:"first_name"`
	LastName    *string         `json:"last_name,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Position    *string         `json:"position,omitempty"`
	TotalSalary decimal.Decimal `json:"total_salary"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	if e.LastName == nil || strings.TrimSpace(*e.LastName) == "" {
		return e.FirstName
	}
	return strings.TrimSpace(e.FirstName + " " + *e.LastName)
}

// MaterialDetail is a material with its product resolved.
type MaterialDetail struct {
	Material
	ProductName    string  `json:"product_name"`
	ProductBarcode *string `json:"product_barcode,omitempty"`
}

// PayoutDetail is a payout with its employee resolved.
type PayoutDetail struct {
	Payout
	EmployeeName     string  `json:"employee_name"`
	EmployeePhone    *string `json:"employee_phone,omitempty"`
	EmployeePosition *string `json:"employee_position,omitempty"`
}

// OrderDetail is an order with materials and payouts attached.
type OrderDetail struct {
	Order
	Materials []MaterialDetail `json:"materials"`
	Payouts   []PayoutDetail   `json:"payouts"`
}

// CreateOrderInput carries a new order.
type CreateOrderInput struct {
	Actor        shared.Actor
	Title        string
	Amount       decimal.Decimal
	CustomerName *string
	Description  *string
}

// UpdateOrderInput carries a partial order update; nil fields are kept.
type UpdateOrderInput struct {
	Title        *string
	Amount       *decimal.Decimal
	CustomerName *string
	Description  *string
	Status       *Status
}

// AddMaterialInput carries a material draw.
type AddMaterialInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	Unit      *string
}

// AddPayoutInput carries an employee payout.
type AddPayoutInput struct {
	EmployeeID int64
	Amount     decimal.Decimal
	Note       *string
}

// CloseInput carries the close request.
type CloseInput struct {
	PaidAmount decimal.Decimal
	Note       *string
}

// EmployeeInput carries a new employee.
type EmployeeInput struct {
	FirstName string
	LastName  *string
	Phone     *string
	Position  *string
}

// EmployeeUpdate carries a partial employee update; nil fields are kept.
type EmployeeUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Position  *string
	Active    *bool
}

// EmployeeFilter narrows ListEmployees.
type EmployeeFilter struct {
	Search          string
	IncludeInactive bool
}

// ClosureFilter narrows ListClosures by closed_at. Zero times are unbounded.
type ClosureFilter struct {
	From time.Time
	To   time.Time
}
