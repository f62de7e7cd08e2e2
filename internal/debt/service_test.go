package debt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kassa-pos/kassa/internal/platform/httpx"
	"github.com/kassa-pos/kassa/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	clients  map[int64]Client
	debts    map[int64]Debt
	payments []Payment
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clients: make(map[int64]Client), debts: make(map[int64]Debt)}
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients := make(map[int64]Client, len(r.clients))
	for k, v := range r.clients {
		clients[k] = v
	}
	debts := make(map[int64]Debt, len(r.debts))
	for k, v := range r.debts {
		debts[k] = v
	}
	payments := append([]Payment(nil), r.payments...)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.clients, r.debts, r.payments = clients, debts, payments
		return err
	}
	return nil
}

func (r *memoryRepo) GetClient(ctx context.Context, clientID int64) (Client, error) {
	c, ok := r.clients[clientID]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	return c, nil
}

func (r *memoryRepo) ListClientDebts(ctx context.Context, clientID int64) ([]Debt, error) {
	var out []Debt
	for _, d := range r.debts {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *memoryTx) LockClient(ctx context.Context, clientID int64) (Client, error) {
	return t.repo.GetClient(ctx, clientID)
}

func (t *memoryTx) SaveClientDebt(ctx context.Context, clientID int64, total decimal.Decimal) error {
	c := t.repo.clients[clientID]
	c.TotalDebt = total
	t.repo.clients[clientID] = c
	return nil
}

func (t *memoryTx) InsertDebt(ctx context.Context, d Debt) (Debt, error) {
	t.repo.nextID++
	d.ID = t.repo.nextID
	d.CreatedAt = time.Now()
	t.repo.debts[d.ID] = d
	return d, nil
}

func (t *memoryTx) LockDebt(ctx context.Context, debtID int64) (Debt, error) {
	d, ok := t.repo.debts[debtID]
	if !ok {
		return Debt{}, ErrDebtNotFound
	}
	return d, nil
}

func (t *memoryTx) SaveDebtPaid(ctx context.Context, debtID int64, paid decimal.Decimal) error {
	d := t.repo.debts[debtID]
	d.Paid = paid
	t.repo.debts[debtID] = d
	return nil
}

func (t *memoryTx) InsertDebtPayment(ctx context.Context, p Payment) (Payment, error) {
	t.repo.nextID++
	p.ID = t.repo.nextID
	t.repo.payments = append(t.repo.payments, p)
	return p, nil
}

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func seedDebt(t *testing.T, repo *memoryRepo, clientID int64, amount string) Debt {
	t.Helper()
	repo.clients[clientID] = Client{ID: clientID, Name: "Client"}
	var d Debt
	err := repo.WithTx(context.Background(), func(ctx context.Context, tx TxRepository) error {
		var err error
		d, err = Charge(ctx, tx, clientID, 11, money(amount))
		return err
	})
	require.NoError(t, err)
	return d
}

func TestChargeAndReduceFloorAtZero(t *testing.T) {
	repo := newMemoryRepo()
	d := seedDebt(t, repo, 5, "400")
	require.True(t, repo.clients[5].TotalDebt.Equal(money("400")))
	require.EqualValues(t, 11, *d.SaleID)

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx TxRepository) error {
		client, err := Reduce(ctx, tx, 5, money("450"))
		require.True(t, client.TotalDebt.IsZero())
		return err
	})
	require.NoError(t, err)
	require.True(t, repo.clients[5].TotalDebt.IsZero())
}

func TestChargeUnknownClient(t *testing.T) {
	repo := newMemoryRepo()
	err := repo.WithTx(context.Background(), func(ctx context.Context, tx TxRepository) error {
		_, err := Charge(ctx, tx, 99, 1, money("10"))
		return err
	})
	require.ErrorIs(t, err, ErrClientNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.debts)
}

func TestChargeRejectsNonPositive(t *testing.T) {
	repo := newMemoryRepo()
	repo.clients[1] = Client{ID: 1}
	err := repo.WithTx(context.Background(), func(ctx context.Context, tx TxRepository) error {
		_, err := Charge(ctx, tx, 1, 1, decimal.Zero)
		return err
	})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPayDebt(t *testing.T) {
	repo := newMemoryRepo()
	d := seedDebt(t, repo, 5, "400")
	svc := NewService(repo, nil, nil)

	payment, err := svc.PayDebt(context.Background(), PayDebtInput{DebtID: d.ID, Amount: money("150"), ActorID: 2})
	require.NoError(t, err)
	require.EqualValues(t, 5, payment.ClientID)
	require.True(t, repo.debts[d.ID].Paid.Equal(money("150")))
	require.True(t, repo.clients[5].TotalDebt.Equal(money("250")))

	_, err = svc.PayDebt(context.Background(), PayDebtInput{DebtID: d.ID, Amount: money("251"), ActorID: 2})
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.True(t, repo.clients[5].TotalDebt.Equal(money("250")))
	require.Len(t, repo.payments, 1)

	_, err = svc.PayDebt(context.Background(), PayDebtInput{DebtID: d.ID, Amount: money("250"), ActorID: 2})
	require.NoError(t, err)
	require.True(t, repo.clients[5].TotalDebt.IsZero())
	require.True(t, repo.debts[d.ID].Outstanding().IsZero())
}

func TestPayDebtValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	_, err := svc.PayDebt(context.Background(), PayDebtInput{DebtID: 1, Amount: money("-1")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.PayDebt(context.Background(), PayDebtInput{DebtID: 1, Amount: money("0.001")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.PayDebt(context.Background(), PayDebtInput{DebtID: 1, Amount: money("1")})
	require.ErrorIs(t, err, ErrDebtNotFound)
}

func TestListClientDebts(t *testing.T) {
	repo := newMemoryRepo()
	seedDebt(t, repo, 5, "100")
	svc := NewService(repo, nil, nil)

	out, err := svc.ListClientDebts(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, out.Debts, 1)
	require.True(t, out.Client.TotalDebt.Equal(money("100")))

	_, err = svc.ListClientDebts(context.Background(), 6)
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestPayDebtHandler(t *testing.T) {
	repo := newMemoryRepo()
	d := seedDebt(t, repo, 5, "400")
	r := chi.NewRouter()
	r.Use(httpx.RequireActor)
	NewHandler(nil, NewService(repo, nil, nil)).MountRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/debts/1/payments", strings.NewReader(`{"amount":"100"}`))
	req.Header.Set(httpx.HeaderActorID, "2")
	req.Header.Set(httpx.HeaderActorRole, "manager")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.True(t, repo.debts[d.ID].Paid.Equal(money("100")))

	req = httptest.NewRequest(http.MethodPost, "/debts/1/payments", strings.NewReader(`{"amount":"1000"}`))
	req.Header.Set(httpx.HeaderActorID, "2")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/clients/7", nil)
	req.Header.Set(httpx.HeaderActorID, "2")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
