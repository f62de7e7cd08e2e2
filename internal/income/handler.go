package income

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/platform/httpx"
	"github.com/kassa-pos/kassa/internal/shared"
)

// ServicePort is the surface the handler needs.
type ServicePort interface {
	CreateIncome(ctx context.Context, input CreateIncomeInput) (Income, error)
	DeleteIncome(ctx context.Context, actor shared.Actor, id int64) error
	ListIncome(ctx context.Context, actor shared.Actor, filter ListFilter) ([]Income, error)
}

// Handler manages income endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ServicePort
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// ItemRequest is one intake line on the wire. It is shared with the workshop
// intake endpoint.
type ItemRequest struct {
	ProductID     int64           `json:"product_id" validate:"required,gt=0"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
}

// ToInputs converts wire lines to service inputs.
func ToInputs(items []ItemRequest) []ItemInput {
	out := make([]ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, ItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			PurchasePrice: item.PurchasePrice,
			SalePrice:     item.SalePrice,
		})
	}
	return out
}

type createIncomeRequest struct {
	BranchID int64         `json:"branch_id" validate:"gte=0"`
	Items    []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// MountRoutes registers income routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listIncome)
	r.Post("/", h.createIncome)
	r.Delete("/{incomeID}", h.deleteIncome)
}

func (h *Handler) createIncome(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createIncomeRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inc, err := h.service.CreateIncome(r.Context(), CreateIncomeInput{Actor: actor, BranchID: req.BranchID, Items: ToInputs(req.Items)})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inc)
}

func (h *Handler) deleteIncome(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.IDParam(r, "incomeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteIncome(r.Context(), actor, id); err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listIncome(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	from, to, err := httpx.DateRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	branchID, err := httpx.OptionalIDQuery(r, "branch_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ListIncome(r.Context(), actor, ListFilter{BranchID: branchID, From: from, To: to})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
