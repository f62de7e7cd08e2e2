package workshop

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/income"
	"github.com/kassa-pos/kassa/internal/platform/httpx"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// ServicePort is the surface the handler needs.
type ServicePort interface {
	Branch(ctx context.Context, actor shared.Actor) (catalog.Branch, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error)
	UpdateOrder(ctx context.Context, actor shared.Actor, id int64, input UpdateOrderInput) (Order, error)
	DeleteOrder(ctx context.Context, actor shared.Actor, id int64) error
	AddMaterial(ctx context.Context, actor shared.Actor, orderID int64, input AddMaterialInput) (Material, error)
	AddPayout(ctx context.Context, actor shared.Actor, orderID int64, input AddPayoutInput) (Payout, error)
	CloseOrder(ctx context.Context, actor shared.Actor, orderID int64, input CloseInput) (Closure, error)
	GetOrderDetail(ctx context.Context, actor shared.Actor, id int64) (OrderDetail, error)
	ListOrders(ctx context.Context, actor shared.Actor, status Status) ([]Order, error)
	ListClosures(ctx context.Context, actor shared.Actor, filter ClosureFilter) ([]Closure, error)
	CreateEmployee(ctx context.Context, actor shared.Actor, input EmployeeInput) (Employee, error)
	UpdateEmployee(ctx context.Context, actor shared.Actor, id int64, input EmployeeUpdate) (Employee, error)
	DeactivateEmployee(ctx context.Context, actor shared.Actor, id int64) error
	GetEmployee(ctx context.Context, actor shared.Actor, id int64) (Employee, error)
	ListEmployees(ctx context.Context, actor shared.Actor, filter EmployeeFilter) ([]Employee, error)
}

// StockLister lists the stock of a branch.
type StockLister interface {
	ListBranchStock(ctx context.Context, actor shared.Actor, branchID int64, search string) ([]stock.BranchStockItem, error)
}

// IncomeCreator books an intake at the workshop branch.
type IncomeCreator interface {
	CreateWorkshopIncome(ctx context.Context, actor shared.Actor, items []income.ItemInput) (income.WorkshopIncome, error)
}

// Handler manages workshop endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ServicePort
	stock     StockLister
	intake    IncomeCreator
	validator *validator.Validate
}

// NewHandler builds Handler instance. lister and intake may be nil, which
// leaves their routes unmounted.
func NewHandler(logger *slog.Logger, service ServicePort, lister StockLister, intake IncomeCreator) *Handler {
	return &Handler{logger: logger, service: service, stock: lister, intake: intake, validator: validator.New()}
}

// MountRoutes registers workshop routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/branch", h.branch)
	if h.stock != nil {
		r.Get("/stock", h.listStock)
	}
	if h.intake != nil {
		r.Post("/income", h.createIncome)
	}
	r.Get("/report", h.listClosures)

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.listEmployees)
		r.Post("/", h.createEmployee)
		r.Get("/{employeeID}", h.getEmployee)
		r.Put("/{employeeID}", h.updateEmployee)
		r.Delete("/{employeeID}", h.deactivateEmployee)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/{orderID}", h.getOrder)
		r.Put("/{orderID}", h.updateOrder)
		r.Delete("/{orderID}", h.deleteOrder)
		r.Post("/{orderID}/materials", h.addMaterial)
		r.Post("/{orderID}/payouts", h.addPayout)
		r.Post("/{orderID}/close", h.closeOrder)
	})
}

func (h *Handler) branch(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	branch, err := h.service.Branch(r.Context(), actor)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, branch)
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	branch, err := h.service.Branch(r.Context(), actor)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	items, err := h.stock.ListBranchStock(r.Context(), actor, branch.ID, r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createIncome(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req workshopIncomeRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.intake.CreateWorkshopIncome(r.Context(), actor, income.ToInputs(req.Items))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func (h *Handler) listClosures(w http.ResponseWriter, r *http.Request) {
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
	out, err := h.service.ListClosures(r.Context(), actor, ClosureFilter{From: from, To: to})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	filter := EmployeeFilter{Search: q.Get("q"), IncludeInactive: q.Get("all") == "1" || q.Get("all") == "true"}
	out, err := h.service.ListEmployees(r.Context(), actor, filter)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req employeeRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	emp, err := h.service.CreateEmployee(r.Context(), actor, EmployeeInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Position:  req.Position,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, emp)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "employeeID")
	if !ok {
		return
	}
	emp, err := h.service.GetEmployee(r.Context(), actor, id)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, emp)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "employeeID")
	if !ok {
		return
	}
	var req employeeUpdateRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	emp, err := h.service.UpdateEmployee(r.Context(), actor, id, EmployeeUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Position:  req.Position,
		Active:    req.Active,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, emp)
}

func (h *Handler) deactivateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "employeeID")
	if !ok {
		return
	}
	if err := h.service.DeactivateEmployee(r.Context(), actor, id); err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ListOrders(r.Context(), actor, Status(r.URL.Query().Get("status")))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createOrderRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		Actor:        actor,
		Title:        req.Title,
		Amount:       req.Amount,
		CustomerName: req.CustomerName,
		Description:  req.Description,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "orderID")
	if !ok {
		return
	}
	detail, err := h.service.GetOrderDetail(r.Context(), actor, id)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newOrderDetailResponse(detail))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "orderID")
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdateOrder(r.Context(), actor, id, UpdateOrderInput{
		Title:        req.Title,
		Amount:       req.Amount,
		CustomerName: req.CustomerName,
		Description:  req.Description,
		Status:       req.Status,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "orderID")
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(r.Context(), actor, id); err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) addMaterial(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "orderID")
	if !ok {
		return
	}
	var req addMaterialRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	material, err := h.service.AddMaterial(r.Context(), actor, id, AddMaterialInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, material)
}

func (h *Handler) addPayout(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "orderID")
	if !ok {
		return
	}
	var req addPayoutRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payout, err := h.service.AddPayout(r.Context(), actor, id, AddPayoutInput{
		EmployeeID: req.EmployeeID,
		Amount:     req.Amount,
		Note:       req.Note,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payout)
}

func (h *Handler) closeOrder(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r, "orderID")
	if !ok {
		return
	}
	var req closeOrderRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	closure, err := h.service.CloseOrder(r.Context(), actor, id, CloseInput{PaidAmount: req.PaidAmount, Note: req.Note})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, closure)
}

func (h *Handler) actorAndID(w http.ResponseWriter, r *http.Request, param string) (shared.Actor, int64, bool) {
	actor, err := httpx.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return shared.Actor{}, 0, false
	}
	id, err := httpx.IDParam(r, param)
	if err != nil {
		httpx.RespondError(w, err)
		return shared.Actor{}, 0, false
	}
	return actor, id, true
}
