package stock

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kassa-pos/kassa/internal/platform/httpx"
	"github.com/kassa-pos/kassa/internal/shared"
)

// ServicePort is the read surface the handler needs.
type ServicePort interface {
	ListBranchStock(ctx context.Context, actor shared.Actor, branchID int64, search string) ([]BranchStockItem, error)
	GetStock(ctx context.Context, actor shared.Actor, branchID, productID int64) (Stock, error)
}

// Handler wires HTTP endpoints for branch stock reads.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/branches/{branchID}", h.listBranchStock)
	r.Get("/branches/{branchID}/products/{productID}", h.getStock)
}

func (h *Handler) listBranchStock(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	branchID, err := httpx.IDParam(r, "branchID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListBranchStock(r.Context(), actor, branchID, r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	branchID, err := httpx.IDParam(r, "branchID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := httpx.IDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.GetStock(r.Context(), actor, branchID, productID)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}
