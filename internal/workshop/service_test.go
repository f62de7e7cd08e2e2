package workshop

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
	"github.com/kassa-pos/kassa/internal/testing/memledger"
)

const workshopBranchID = 2

type memoryState struct {
	orders    map[int64]Order
	materials []Material
	payouts   []Payout
	closures  map[int64]Closure
	employees map[int64]Employee
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		orders:    make(map[int64]Order, len(s.orders)),
		materials: append([]Material(nil), s.materials...),
		payouts:   append([]Payout(nil), s.payouts...),
		closures:  make(map[int64]Closure, len(s.closures)),
		employees: make(map[int64]Employee, len(s.employees)),
	}
	for k, v := range s.orders {
		out.orders[k] = v
	}
	for k, v := range s.closures {
		out.closures[k] = v
	}
	for k, v := range s.employees {
		out.employees[k] = v
	}
	return out
}

type memoryRepo struct {
	ledger *memledger.Ledger
	st     memoryState
}

type memoryTx struct {
	*memledger.Tx
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	l := memledger.New()
	l.AddBranch(catalog.Branch{ID: 1, Name: "Main", Active: true})
	l.AddBranch(catalog.Branch{ID: workshopBranchID, Name: catalog.DefaultWorkshopBranchName, Active: true})
	l.AddProduct(catalog.Product{ID: 9, Name: "Plywood", Unit: "sheet", Limit: dec("1")})
	l.AddProduct(catalog.Product{ID: 10, Name: "Glue", Unit: "l"})
	return &memoryRepo{ledger: l, st: memoryState{
		orders:    map[int64]Order{},
		closures:  map[int64]Closure{},
		employees: map[int64]Employee{},
	}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.ledger.WithTx(ctx, func(tx *memledger.Tx) error {
		saved := r.st.clone()
		if err := fn(ctx, &memoryTx{Tx: tx, repo: r}); err != nil {
			r.st = saved
			return err
		}
		return nil
	})
}

func (r *memoryRepo) GetOrderDetail(ctx context.Context, id int64) (OrderDetail, error) {
	var out OrderDetail
	err := r.ledger.WithTx(ctx, func(tx *memledger.Tx) error {
		o, ok := r.st.orders[id]
		if !ok {
			return ErrOrderNotFound
		}
		out = OrderDetail{Order: o, Materials: []MaterialDetail{}, Payouts: []PayoutDetail{}}
		for _, m := range r.st.materials {
			if m.OrderID != id {
				continue
			}
			p, err := tx.GetProduct(ctx, m.ProductID)
			if err != nil {
				return err
			}
			out.Materials = append(out.Materials, MaterialDetail{Material: m, ProductName: p.Name, ProductBarcode: p.Barcode})
		}
		for _, p := range r.st.payouts {
			if p.OrderID != id {
				continue
			}
			e := r.st.employees[p.EmployeeID]
			out.Payouts = append(out.Payouts, PayoutDetail{Payout: p, EmployeeName: e.FullName(), EmployeePhone: e.Phone, EmployeePosition: e.Position})
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) ListOrders(ctx context.Context, branchID int64, status Status) ([]Order, error) {
	out := []Order{}
	for _, o := range r.st.orders {
		if o.BranchID == branchID && (status == "" || o.Status == status) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) ListClosures(ctx context.Context, filter ClosureFilter) ([]Closure, error) {
	out := []Closure{}
	for _, c := range r.st.closures {
		if !filter.From.IsZero() && c.ClosedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && c.ClosedAt.After(filter.To) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, ok := r.st.employees[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (r *memoryRepo) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	out := []Employee{}
	q := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, e := range r.st.employees {
		if !filter.IncludeInactive && !e.Active {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.FullName()), q) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, o Order) (Order, error) {
	o.ID = t.NextID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	t.repo.st.orders[o.ID] = o
	return o, nil
}

func (t *memoryTx) LockOrder(ctx context.Context, id int64) (Order, error) {
	o, ok := t.repo.st.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (t *memoryTx) SaveOrder(ctx context.Context, o Order) (Order, error) {
	o.UpdatedAt = time.Now()
	t.repo.st.orders[o.ID] = o
	return o, nil
}

func (t *memoryTx) DeleteOrder(ctx context.Context, id int64) error {
	delete(t.repo.st.orders, id)
	return nil
}

func (t *memoryTx) InsertMaterial(ctx context.Context, m Material) (Material, error) {
	m.ID = t.NextID()
	t.repo.st.materials = append(t.repo.st.materials, m)
	return m, nil
}

func (t *memoryTx) InsertPayout(ctx context.Context, p Payout) (Payout, error) {
	p.ID = t.NextID()
	t.repo.st.payouts = append(t.repo.st.payouts, p)
	return p, nil
}

func (t *memoryTx) InsertClosure(ctx context.Context, c Closure) (Closure, error) {
	if _, ok := t.repo.st.closures[c.OrderID]; ok {
		return Closure{}, ErrOrderClosed
	}
	c.ID = t.NextID()
	t.repo.st.closures[c.OrderID] = c
	return c, nil
}

func (t *memoryTx) InsertEmployee(ctx context.Context, e Employee) (Employee, error) {
	e.ID = t.NextID()
	t.repo.st.employees[e.ID] = e
	return e, nil
}

func (t *memoryTx) LockEmployee(ctx context.Context, id int64) (Employee, error) {
	e, ok := t.repo.st.employees[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (t *memoryTx) SaveEmployee(ctx context.Context, e Employee) (Employee, error) {
	t.repo.st.employees[e.ID] = e
	return e, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []stock.LowStockEvent
}

func (n *recordingNotifier) NotifyLowStock(ctx context.Context, event stock.LowStockEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

var (
	admin    = shared.Actor{ID: 1, Role: shared.RoleAdmin}
	worker   = shared.Actor{ID: 3, Role: shared.RoleWorkshop}
	cashier  = shared.Actor{ID: 4, Role: shared.RoleEmployee, BranchID: 1}
	resident = shared.Actor{ID: 5, Role: shared.RoleEmployee, BranchID: workshopBranchID}
)

func newService(repo *memoryRepo, deps ServiceDeps) *Service {
	return NewService(repo, catalog.NewWorkshopResolver(repo.ledger, nil, "", nil), deps)
}

func openOrder(t *testing.T, svc *Service, amount string) Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{Actor: worker, Title: "Wardrobe", Amount: dec(amount)})
	require.NoError(t, err)
	return order
}

func hireEmployee(t *testing.T, svc *Service, name string) Employee {
	t.Helper()
	emp, err := svc.CreateEmployee(context.Background(), admin, EmployeeInput{FirstName: name})
	require.NoError(t, err)
	return emp
}

func TestCreateOrderBindsWorkshopBranch(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})

	order := openOrder(t, svc, "5000")
	require.Equal(t, StatusOpen, order.Status)
	require.EqualValues(t, workshopBranchID, order.BranchID)
	require.True(t, order.Amount.Equal(dec("5000")))
	require.False(t, order.PaidAmount.Valid)
	require.NotNil(t, order.CreatedByUserID)
	require.EqualValues(t, worker.ID, *order.CreatedByUserID)
}

func TestCreateOrderCreatesWorkshopBranchWhenMissing(t *testing.T) {
	l := memledger.New()
	l.AddBranch(catalog.Branch{ID: 1, Name: "Main", Active: true})
	repo := &memoryRepo{ledger: l, st: memoryState{orders: map[int64]Order{}, closures: map[int64]Closure{}, employees: map[int64]Employee{}}}
	svc := newService(repo, ServiceDeps{})

	order := openOrder(t, svc, "10")
	branch, err := l.FindWorkshopBranch(context.Background())
	require.NoError(t, err)
	require.Equal(t, catalog.DefaultWorkshopBranchName, branch.Name)
	require.Equal(t, branch.ID, order.BranchID)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newService(newMemoryRepo(), ServiceDeps{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{Actor: worker, Title: "  ", Amount: dec("1")})
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.CreateOrder(ctx, CreateOrderInput{Actor: worker, Title: "x", Amount: dec("-1")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.CreateOrder(ctx, CreateOrderInput{Actor: worker, Title: "x", Amount: dec("1.005")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestBranchBoundActorMustBeOnWorkshop(t *testing.T) {
	svc := newService(newMemoryRepo(), ServiceDeps{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{Actor: cashier, Title: "x", Amount: dec("1")})
	require.ErrorIs(t, err, shared.ErrForbiddenBranch)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Actor: resident, Title: "x", Amount: dec("1")})
	require.NoError(t, err)
	require.EqualValues(t, workshopBranchID, order.BranchID)
}

func TestAddMaterialInsufficientStockLeavesStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.SetStock(workshopBranchID, 9, dec("1"))
	svc := newService(repo, ServiceDeps{})
	order := openOrder(t, svc, "5000")

	_, err := svc.AddMaterial(context.Background(), worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("2")})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.True(t, repo.ledger.Stock(workshopBranchID, 9).Equal(dec("1")))
	require.Empty(t, repo.st.materials)
}

func TestAddMaterialDrawsWorkshopStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.SetStock(workshopBranchID, 9, dec("5"))
	repo.ledger.SetStock(1, 9, dec("100"))
	notifier := &recordingNotifier{}
	svc := newService(repo, ServiceDeps{Publisher: stock.NewPublisher(nil, notifier, nil)})
	order := openOrder(t, svc, "5000")

	m, err := svc.AddMaterial(context.Background(), worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("4")})
	require.NoError(t, err)
	require.True(t, m.Quantity.Equal(dec("4")))
	require.NotNil(t, m.Unit)
	require.Equal(t, "sheet", *m.Unit)

	require.True(t, repo.ledger.Stock(workshopBranchID, 9).Equal(dec("1")))
	require.True(t, repo.ledger.Stock(1, 9).Equal(dec("100")), "other branches are untouched")

	require.Len(t, notifier.events, 1)
	require.EqualValues(t, workshopBranchID, notifier.events[0].BranchID)
}

func TestAddMaterialNoStockRow(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	order := openOrder(t, svc, "1")

	_, err := svc.AddMaterial(context.Background(), worker, order.ID, AddMaterialInput{ProductID: 10, Quantity: dec("1")})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.False(t, repo.ledger.HasStockRow(workshopBranchID, 10))
}

func TestAddMaterialGuards(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.SetStock(workshopBranchID, 9, dec("5"))
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	order := openOrder(t, svc, "1")

	_, err := svc.AddMaterial(ctx, worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("0")})
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)

	_, err = svc.AddMaterial(ctx, worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("0.0004")})
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)
	require.True(t, repo.ledger.Stock(workshopBranchID, 9).Equal(dec("5")))

	_, err = svc.AddMaterial(ctx, worker, order.ID, AddMaterialInput{ProductID: 404, Quantity: dec("1")})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.AddMaterial(ctx, worker, 404, AddMaterialInput{ProductID: 9, Quantity: dec("1")})
	require.ErrorIs(t, err, ErrOrderNotFound)

	// an order left on another branch cannot draw workshop stock
	stray := repo.st.orders[order.ID]
	stray.BranchID = 1
	repo.st.orders[order.ID] = stray
	_, err = svc.AddMaterial(ctx, worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("1")})
	require.ErrorIs(t, err, ErrWrongBranch)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.True(t, repo.ledger.Stock(workshopBranchID, 9).Equal(dec("5")))
}

func TestClosedOrderRejectsMutations(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.SetStock(workshopBranchID, 9, dec("5"))
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	order := openOrder(t, svc, "100")
	emp := hireEmployee(t, svc, "Ivan")

	_, err := svc.CloseOrder(ctx, worker, order.ID, CloseInput{PaidAmount: dec("100")})
	require.NoError(t, err)

	_, err = svc.AddMaterial(ctx, worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("1")})
	require.ErrorIs(t, err, ErrOrderClosed)
	_, err = svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: emp.ID, Amount: dec("10")})
	require.ErrorIs(t, err, ErrOrderClosed)
	title := "renamed"
	_, err = svc.UpdateOrder(ctx, worker, order.ID, UpdateOrderInput{Title: &title})
	require.ErrorIs(t, err, ErrOrderClosed)
	require.ErrorIs(t, svc.DeleteOrder(ctx, worker, order.ID), ErrOrderClosed)

	require.True(t, repo.ledger.Stock(workshopBranchID, 9).Equal(dec("5")))
}

func TestCloseOrderExactlyOnce(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(repo, ServiceDeps{Now: func() time.Time { return now }})
	ctx := context.Background()
	order := openOrder(t, svc, "5000")

	closure, err := svc.CloseOrder(ctx, worker, order.ID, CloseInput{PaidAmount: dec("5000")})
	require.NoError(t, err)
	require.True(t, closure.OrderAmount.Equal(dec("5000")))
	require.True(t, closure.PaidAmount.Equal(dec("5000")))
	require.Equal(t, now, closure.ClosedAt)

	stored := repo.st.orders[order.ID]
	require.Equal(t, StatusClosed, stored.Status)
	require.True(t, stored.PaidAmount.Valid)
	require.True(t, stored.PaidAmount.Decimal.Equal(dec("5000")))
	require.NotNil(t, stored.ClosedAt)

	_, err = svc.CloseOrder(ctx, worker, order.ID, CloseInput{PaidAmount: dec("5000")})
	require.ErrorIs(t, err, ErrOrderClosed)
	require.ErrorIs(t, err, shared.ErrConflict)

	// still OrderClosed even with an invalid amount
	_, err = svc.CloseOrder(ctx, worker, order.ID, CloseInput{PaidAmount: dec("-1")})
	require.ErrorIs(t, err, ErrOrderClosed)
	require.Len(t, repo.st.closures, 1)
}

func TestCloseOrderConcurrentSingleWinner(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	order := openOrder(t, svc, "300")

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		closedN int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CloseOrder(context.Background(), worker, order.ID, CloseInput{PaidAmount: dec("300")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrOrderClosed):
				closedN++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, ok)
	require.Equal(t, n-1, closedN)
	require.Len(t, repo.st.closures, 1)
}

func TestCloseOrderRejectsNegativePaid(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	order := openOrder(t, svc, "10")

	_, err := svc.CloseOrder(context.Background(), worker, order.ID, CloseInput{PaidAmount: dec("-0.01")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
	require.Equal(t, StatusOpen, repo.st.orders[order.ID].Status)
	require.Empty(t, repo.st.closures)

	_, err = svc.CloseOrder(context.Background(), worker, order.ID, CloseInput{PaidAmount: dec("9.999")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
	require.Equal(t, StatusOpen, repo.st.orders[order.ID].Status)

	_, err = svc.CloseOrder(context.Background(), worker, order.ID, CloseInput{PaidAmount: decimal.Zero})
	require.NoError(t, err)
}

func TestUpdateOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	order := openOrder(t, svc, "10")

	closed := StatusClosed
	_, err := svc.UpdateOrder(ctx, worker, order.ID, UpdateOrderInput{Status: &closed})
	require.ErrorIs(t, err, ErrCloseViaUpdate)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Equal(t, StatusOpen, repo.st.orders[order.ID].Status)

	title := " Table "
	amount := dec("25")
	customer := "Olga"
	updated, err := svc.UpdateOrder(ctx, worker, order.ID, UpdateOrderInput{Title: &title, Amount: &amount, CustomerName: &customer})
	require.NoError(t, err)
	require.Equal(t, "Table", updated.Title)
	require.True(t, updated.Amount.Equal(amount))
	require.Equal(t, "Olga", *updated.CustomerName)

	open := StatusOpen
	_, err = svc.UpdateOrder(ctx, worker, order.ID, UpdateOrderInput{Status: &open})
	require.NoError(t, err)
}

func TestDeleteOrderKeepsStockDrawn(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.SetStock(workshopBranchID, 9, dec("5"))
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	order := openOrder(t, svc, "10")

	_, err := svc.AddMaterial(ctx, worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("2")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteOrder(ctx, worker, order.ID))

	_, err = svc.GetOrderDetail(ctx, worker, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	require.True(t, repo.ledger.Stock(workshopBranchID, 9).Equal(dec("3")))
}

func TestAddPayoutAccruesSalary(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	order := openOrder(t, svc, "1000")
	emp := hireEmployee(t, svc, "Ivan")

	_, err := svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: emp.ID, Amount: dec("150")})
	require.NoError(t, err)
	_, err = svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: emp.ID, Amount: dec("50.50")})
	require.NoError(t, err)

	got, err := svc.GetEmployee(ctx, worker, emp.ID)
	require.NoError(t, err)
	require.True(t, got.TotalSalary.Equal(dec("200.50")))
}

func TestAddPayoutGuards(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	order := openOrder(t, svc, "1000")
	emp := hireEmployee(t, svc, "Ivan")

	_, err := svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: emp.ID, Amount: dec("0")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: emp.ID, Amount: dec("10.001")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: 404, Amount: dec("1")})
	require.ErrorIs(t, err, ErrEmployeeNotFound)

	require.NoError(t, svc.DeactivateEmployee(ctx, worker, emp.ID))
	_, err = svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: emp.ID, Amount: dec("1")})
	require.ErrorIs(t, err, ErrEmployeeNotFound)
	require.Empty(t, repo.st.payouts)
	require.True(t, repo.st.employees[emp.ID].TotalSalary.IsZero())
}

func TestOrderDetailExpandsNames(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.SetStock(workshopBranchID, 9, dec("5"))
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	order := openOrder(t, svc, "1000")
	last := "Petrov"
	emp, err := svc.CreateEmployee(ctx, admin, EmployeeInput{FirstName: "Ivan", LastName: &last})
	require.NoError(t, err)

	_, err = svc.AddMaterial(ctx, worker, order.ID, AddMaterialInput{ProductID: 9, Quantity: dec("2")})
	require.NoError(t, err)
	_, err = svc.AddPayout(ctx, worker, order.ID, AddPayoutInput{EmployeeID: emp.ID, Amount: dec("100")})
	require.NoError(t, err)

	detail, err := svc.GetOrderDetail(ctx, worker, order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Materials, 1)
	require.Equal(t, "Plywood", detail.Materials[0].ProductName)
	require.Len(t, detail.Payouts, 1)
	require.Equal(t, "Ivan Petrov", detail.Payouts[0].EmployeeName)
	require.True(t, newOrderDetailResponse(detail).PayoutTotal.Equal(dec("100")))
}

func TestListOrdersAndClosures(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()
	first := openOrder(t, svc, "10")
	openOrder(t, svc, "20")

	_, err := svc.CloseOrder(ctx, worker, first.ID, CloseInput{PaidAmount: dec("10")})
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, worker, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	open, err := svc.ListOrders(ctx, worker, StatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)

	_, err = svc.ListOrders(ctx, worker, Status("lost"))
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	closures, err := svc.ListClosures(ctx, worker, ClosureFilter{})
	require.NoError(t, err)
	require.Len(t, closures, 1)
	require.Equal(t, first.ID, closures[0].OrderID)

	closures, err = svc.ListClosures(ctx, worker, ClosureFilter{From: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.Empty(t, closures)
}

func TestEmployeesLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, ServiceDeps{})
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, admin, EmployeeInput{FirstName: " "})
	require.ErrorIs(t, err, ErrNameRequired)

	ivan := hireEmployee(t, svc, "Ivan")
	hireEmployee(t, svc, "Oleg")

	found, err := svc.ListEmployees(ctx, admin, EmployeeFilter{Search: "iva"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	position := "Carpenter"
	updated, err := svc.UpdateEmployee(ctx, admin, ivan.ID, EmployeeUpdate{Position: &position})
	require.NoError(t, err)
	require.Equal(t, "Carpenter", *updated.Position)

	require.NoError(t, svc.DeactivateEmployee(ctx, admin, ivan.ID))
	active, err := svc.ListEmployees(ctx, admin, EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	all, err := svc.ListEmployees(ctx, admin, EmployeeFilter{IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.ErrorIs(t, svc.DeactivateEmployee(ctx, admin, 404), ErrEmployeeNotFound)
}

func TestStatusTransitions(t *testing.T) {
	require.True(t, StatusOpen.IsValid())
	require.True(t, StatusClosed.IsValid())
	require.False(t, Status("draft").IsValid())
	require.True(t, StatusOpen.CanEdit())
	require.False(t, StatusClosed.CanEdit())
	require.False(t, StatusClosed.CanClose())
}
