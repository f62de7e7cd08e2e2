package returns

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
	CreateReturn(ctx context.Context, input CreateReturnInput) (Return, error)
	ListReturns(ctx context.Context, actor shared.Actor, filter ListFilter) ([]Return, error)
}

// Handler manages return endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ServicePort
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type createReturnRequest struct {
	SaleID    int64           `json:"sale_id" validate:"required,gt=0"`
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// MountRoutes registers return routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listReturns)
	r.Post("/", h.createReturn)
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createReturnRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ret, err := h.service.CreateReturn(r.Context(), CreateReturnInput{
		Actor:     actor,
		SaleID:    req.SaleID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Amount:    req.Amount,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

func (h *Handler) listReturns(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	saleID, err := httpx.OptionalIDQuery(r, "sale_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ListReturns(r.Context(), actor, ListFilter{SaleID: saleID})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
