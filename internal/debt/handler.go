package debt

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/platform/httpx"
)

// ServicePort is the surface the handler needs.
type ServicePort interface {
	PayDebt(ctx context.Context, input PayDebtInput) (Payment, error)
	GetClient(ctx context.Context, clientID int64) (Client, error)
	ListClientDebts(ctx context.Context, clientID int64) (ClientDebts, error)
}

// Handler wires client debt endpoints.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler constructs the debt handler.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

type payDebtRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// MountRoutes registers debt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clients/{clientID}", h.getClient)
	r.Get("/clients/{clientID}/debts", h.listDebts)
	r.Post("/debts/{debtID}/payments", h.payDebt)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := httpx.IDParam(r, "clientID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) listDebts(w http.ResponseWriter, r *http.Request) {
	clientID, err := httpx.IDParam(r, "clientID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ListClientDebts(r.Context(), clientID)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) payDebt(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	debtID, err := httpx.IDParam(r, "debtID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req payDebtRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.PayDebt(r.Context(), PayDebtInput{DebtID: debtID, Amount: req.Amount, ActorID: actor.ID})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}
