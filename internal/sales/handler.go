package sales

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
	CreateSale(ctx context.Context, input CreateSaleInput) (Sale, error)
	GetSale(ctx context.Context, actor shared.Actor, id int64) (SaleDetail, error)
	ListSales(ctx context.Context, actor shared.Actor, filter ListFilter) ([]Sale, error)
}

// Handler manages sale endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ServicePort
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type saleItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type createSaleRequest struct {
	BranchID       int64             `json:"branch_id" validate:"gte=0"`
	ClientID       *int64            `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Cash           decimal.Decimal   `json:"cash"`
	Card           decimal.Decimal   `json:"card"`
	Credit         decimal.Decimal   `json:"credit"`
	PaymentType    string            `json:"payment_type" validate:"omitempty,oneof=cash card credit mixed"`
	IdempotencyKey string            `json:"idempotency_key" validate:"omitempty,uuid"`
	Items          []saleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listSales)
	r.Post("/", h.createSale)
	r.Get("/{saleID}", h.getSale)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createSaleRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("Idempotency-Key")
	}
	items := make([]LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, LineInput{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	sale, err := h.service.CreateSale(r.Context(), CreateSaleInput{
		Actor:          actor,
		BranchID:       req.BranchID,
		ClientID:       req.ClientID,
		Tenders:        Tenders{Cash: req.Cash, Card: req.Card, Credit: req.Credit},
		PaymentType:    PaymentType(req.PaymentType),
		Items:          items,
		IdempotencyKey: key,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.IDParam(r, "saleID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.GetSale(r.Context(), actor, id)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
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
	sales, err := h.service.ListSales(r.Context(), actor, ListFilter{From: from, To: to, BranchID: branchID})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}
