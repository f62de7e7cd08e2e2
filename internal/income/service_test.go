package income

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/platform/httpx"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/testing/memledger"
)

type memoryRepo struct {
	ledger *memledger.Ledger
	income map[int64]Income
}

type memoryTx struct {
	*memledger.Tx
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	l := memledger.New()
	l.AddBranch(catalog.Branch{ID: 1, Name: "Main", Active: true})
	l.AddProduct(catalog.Product{ID: 7, Name: "Bolt", PurchasePrice: dec("1"), SalePrice: dec("2")})
	l.AddProduct(catalog.Product{ID: 8, Name: "Nut", PurchasePrice: dec("1"), SalePrice: dec("2")})
	return &memoryRepo{ledger: l, income: make(map[int64]Income)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.ledger.WithTx(ctx, func(tx *memledger.Tx) error {
		saved := make(map[int64]Income, len(r.income))
		for k, v := range r.income {
			saved[k] = v
		}
		if err := fn(ctx, &memoryTx{Tx: tx, repo: r}); err != nil {
			r.income = saved
			return err
		}
		return nil
	})
}

func (r *memoryRepo) ListIncome(ctx context.Context, filter ListFilter) ([]Income, error) {
	var out []Income
	for _, inc := range r.income {
		if filter.BranchID != 0 && inc.BranchID != filter.BranchID {
			continue
		}
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memoryTx) InsertIncome(ctx context.Context, inc Income) (Income, error) {
	inc.ID = t.NextID()
	t.repo.income[inc.ID] = inc
	return inc, nil
}

func (t *memoryTx) InsertIncomeItems(ctx context.Context, incomeID int64, items []Item) ([]Item, error) {
	inc := t.repo.income[incomeID]
	for i := range items {
		items[i].ID = t.NextID()
		items[i].IncomeID = incomeID
	}
	inc.Items = items
	t.repo.income[incomeID] = inc
	return items, nil
}

func (t *memoryTx) LockIncome(ctx context.Context, id int64) (Income, error) {
	inc, ok := t.repo.income[id]
	if !ok {
		return Income{}, ErrIncomeNotFound
	}
	return inc, nil
}

func (t *memoryTx) DeleteIncome(ctx context.Context, id int64) error {
	delete(t.repo.income, id)
	return nil
}

type fixedWorkshop struct {
	branch catalog.Branch
}

func (f fixedWorkshop) WorkshopBranch(ctx context.Context) (catalog.Branch, error) {
	return f.branch, nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

var admin = shared.Actor{ID: 1, Role: shared.RoleAdmin}

func item(productID int64, qty, purchase, sale string) ItemInput {
	return ItemInput{ProductID: productID, Quantity: dec(qty), PurchasePrice: dec(purchase), SalePrice: dec(sale)}
}

func TestCreateIncomeRaisesStockAndPrices(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.SetStock(1, 7, dec("3"))
	svc := NewService(repo, ServiceDeps{})

	inc, err := svc.CreateIncome(context.Background(), CreateIncomeInput{
		Actor:    admin,
		BranchID: 1,
		Items:    []ItemInput{item(7, "5", "10", "15"), item(8, "2", "3", "4")},
	})
	require.NoError(t, err)
	require.Len(t, inc.Items, 2)
	require.True(t, repo.ledger.Stock(1, 7).Equal(dec("8")))
	require.True(t, repo.ledger.Stock(1, 8).Equal(dec("2")))

	p := repo.ledger.Product(7)
	require.True(t, p.PurchasePrice.Equal(dec("10")))
	require.True(t, p.SalePrice.Equal(dec("15")))
	require.True(t, p.Quantity.Equal(dec("5")))
}

func TestCreateIncomeLastWriteWinsPrices(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceDeps{})

	_, err := svc.CreateIncome(context.Background(), CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "1", "10", "15")}})
	require.NoError(t, err)
	_, err = svc.CreateIncome(context.Background(), CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "1", "8", "12")}})
	require.NoError(t, err)
	require.True(t, repo.ledger.Product(7).PurchasePrice.Equal(dec("8")))
	require.True(t, repo.ledger.Product(7).SalePrice.Equal(dec("12")))
}

func TestIncomeLocksRowsInProductOrder(t *testing.T) {
	repo := newMemoryRepo()
	workshop := catalog.Branch{ID: 50, Name: catalog.DefaultWorkshopBranchName, IsWorkshop: true}
	repo.ledger.AddBranch(workshop)
	svc := NewService(repo, ServiceDeps{Workshop: fixedWorkshop{branch: workshop}})
	ctx := context.Background()
	want := []memledger.Lock{
		{Kind: memledger.LockStock, ID: 7},
		{Kind: memledger.LockStock, ID: 8},
		{Kind: memledger.LockProduct, ID: 7},
		{Kind: memledger.LockProduct, ID: 8},
	}

	out, err := svc.CreateWorkshopIncome(ctx, admin, []ItemInput{item(8, "2", "3", "4"), item(7, "1", "10", "15"), item(7, "1", "8", "12")})
	require.NoError(t, err)
	require.Equal(t, want, repo.ledger.Locks())
	// last line for a product still wins, levels stay in input order
	require.True(t, repo.ledger.Product(7).PurchasePrice.Equal(dec("8")))
	require.True(t, repo.ledger.Product(7).SalePrice.Equal(dec("12")))
	require.Len(t, out.Stock, 3)
	require.EqualValues(t, 8, out.Stock[0].ProductID)
	require.True(t, out.Stock[0].Quantity.Equal(dec("2")))
	require.EqualValues(t, 7, out.Stock[2].ProductID)
	require.True(t, out.Stock[2].Quantity.Equal(dec("2")))

	require.NoError(t, svc.DeleteIncome(ctx, admin, out.Income.ID))
	require.Equal(t, want, repo.ledger.Locks())
	require.True(t, memledger.Ordered(repo.ledger.Locks()))
	require.True(t, repo.ledger.Stock(50, 7).IsZero())
}

func TestCreateIncomeUnknownProductRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceDeps{})

	_, err := svc.CreateIncome(context.Background(), CreateIncomeInput{
		Actor:    admin,
		BranchID: 1,
		Items:    []ItemInput{item(7, "5", "10", "15"), item(99, "1", "1", "1")},
	})
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
	require.False(t, repo.ledger.HasStockRow(1, 7))
	require.True(t, repo.ledger.Product(7).PurchasePrice.Equal(dec("1")))
	require.Empty(t, repo.income)
}

func TestCreateIncomeValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), ServiceDeps{})
	ctx := context.Background()

	_, err := svc.CreateIncome(ctx, CreateIncomeInput{Actor: admin, BranchID: 1})
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)
	_, err = svc.CreateIncome(ctx, CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "0", "1", "1")}})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.CreateIncome(ctx, CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "1", "-1", "1")}})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
	_, err = svc.CreateIncome(ctx, CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "1.0005", "1", "1")}})
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)
	_, err = svc.CreateIncome(ctx, CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "1", "1", "1.999")}})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
	_, err = svc.CreateIncome(ctx, CreateIncomeInput{Actor: shared.Actor{ID: 2, Role: shared.RoleEmployee, BranchID: 1}, BranchID: 3, Items: []ItemInput{item(7, "1", "1", "1")}})
	require.ErrorIs(t, err, shared.ErrForbiddenBranch)
}

func TestDeleteIncomeClampsAtZero(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceDeps{})
	ctx := context.Background()

	inc, err := svc.CreateIncome(ctx, CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "5", "10", "15"), item(8, "2", "3", "4")}})
	require.NoError(t, err)

	// simulate stock having been sold since the intake
	repo.ledger.SetStock(1, 7, dec("3"))

	require.NoError(t, svc.DeleteIncome(ctx, admin, inc.ID))
	require.True(t, repo.ledger.Stock(1, 7).IsZero())
	require.True(t, repo.ledger.Stock(1, 8).IsZero())
	require.True(t, repo.ledger.Product(7).Quantity.IsZero())
	require.True(t, repo.ledger.Product(7).PurchasePrice.Equal(dec("10")))
	require.Empty(t, repo.income)

	err = svc.DeleteIncome(ctx, admin, inc.ID)
	require.ErrorIs(t, err, ErrIncomeNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteIncomeForbiddenForOtherBranch(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceDeps{})
	inc, err := svc.CreateIncome(context.Background(), CreateIncomeInput{Actor: admin, BranchID: 1, Items: []ItemInput{item(7, "5", "1", "1")}})
	require.NoError(t, err)

	err = svc.DeleteIncome(context.Background(), shared.Actor{ID: 4, Role: shared.RoleEmployee, BranchID: 2}, inc.ID)
	require.ErrorIs(t, err, shared.ErrForbiddenBranch)
	require.True(t, repo.ledger.Stock(1, 7).Equal(dec("5")))
}

func TestCreateWorkshopIncome(t *testing.T) {
	repo := newMemoryRepo()
	workshop := catalog.Branch{ID: 50, Name: catalog.DefaultWorkshopBranchName, IsWorkshop: true}
	repo.ledger.AddBranch(workshop)
	svc := NewService(repo, ServiceDeps{Workshop: fixedWorkshop{branch: workshop}})

	out, err := svc.CreateWorkshopIncome(context.Background(), shared.Actor{ID: 3, Role: shared.RoleWorkshop}, []ItemInput{item(7, "4", "1", "2")})
	require.NoError(t, err)
	require.EqualValues(t, 50, out.Income.BranchID)
	require.Len(t, out.Stock, 1)
	require.True(t, out.Stock[0].Quantity.Equal(dec("4")))
	require.True(t, repo.ledger.Stock(50, 7).Equal(dec("4")))

	_, err = svc.CreateWorkshopIncome(context.Background(), shared.Actor{ID: 4, Role: shared.RoleEmployee, BranchID: 1}, []ItemInput{item(7, "4", "1", "2")})
	require.ErrorIs(t, err, shared.ErrForbiddenBranch)
}

func TestIncomeHandler(t *testing.T) {
	repo := newMemoryRepo()
	r := chi.NewRouter()
	r.Use(httpx.RequireActor)
	r.Route("/income", NewHandler(nil, NewService(repo, ServiceDeps{})).MountRoutes)

	send := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(httpx.HeaderActorID, "2")
		req.Header.Set(httpx.HeaderActorRole, "employee")
		req.Header.Set(httpx.HeaderActorBranch, "1")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := send(http.MethodPost, "/income", `{"items":[{"product_id":7,"quantity":"5","purchase_price":"1","sale_price":"2"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.True(t, repo.ledger.Stock(1, 7).Equal(dec("5")))

	require.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/income", `{"items":[]}`).Code)
	require.Equal(t, http.StatusOK, send(http.MethodGet, "/income", "").Code)

	var id int64
	for k := range repo.income {
		id = k
	}
	require.Equal(t, http.StatusNoContent, send(http.MethodDelete, "/income/"+strconv.FormatInt(id, 10), "").Code)
	require.Equal(t, http.StatusNotFound, send(http.MethodDelete, "/income/999", "").Code)
}
