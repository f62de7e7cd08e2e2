package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/income"
	"github.com/kassa-pos/kassa/internal/observability"
	"github.com/kassa-pos/kassa/internal/platform/httpx"
	"github.com/kassa-pos/kassa/internal/returns"
	"github.com/kassa-pos/kassa/internal/sales"
	"github.com/kassa-pos/kassa/internal/stock"
	"github.com/kassa-pos/kassa/internal/workshop"
	"github.com/kassa-pos/kassa/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	StockHandler    *stock.Handler
	DebtHandler     *debt.Handler
	SalesHandler    *sales.Handler
	ReturnsHandler  *returns.Handler
	IncomeHandler   *income.Handler
	WorkshopHandler *workshop.Handler
	JobHandler      *jobs.Handler

	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(r *http.Request) error
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Ready != nil {
			if err := params.Ready(r); err != nil {
				if params.Logger != nil {
					params.Logger.Warn("readiness check failed", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusServiceUnavailable, "Not Ready", "")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	// RequireActor wraps the whole subrouter so it runs before routing and
	// an anonymous request gets 401 even for paths nothing serves.
	api := chi.NewRouter()
	if params.StockHandler != nil {
		api.Route("/stock", params.StockHandler.MountRoutes)
	}
	if params.DebtHandler != nil {
		params.DebtHandler.MountRoutes(api)
	}
	if params.SalesHandler != nil {
		api.Route("/sales", params.SalesHandler.MountRoutes)
	}
	if params.ReturnsHandler != nil {
		api.Route("/returns", params.ReturnsHandler.MountRoutes)
	}
	if params.IncomeHandler != nil {
		api.Route("/income", params.IncomeHandler.MountRoutes)
	}
	if params.WorkshopHandler != nil {
		api.Route("/workshop", params.WorkshopHandler.MountRoutes)
	}
	r.Mount("/api", httpx.RequireActor(api))

	return r
}
