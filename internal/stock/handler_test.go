package stock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kassa-pos/kassa/internal/platform/httpx"
	"github.com/kassa-pos/kassa/internal/shared"
)

func newTestRouter(svc ServicePort) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequireActor)
	r.Route("/stock", NewHandler(nil, svc).MountRoutes)
	return r
}

func TestListBranchStockHandler(t *testing.T) {
	repo := &countingRepo{items: []BranchStockItem{{ProductID: 7, Name: "Bolt", Quantity: d(2), Limit: d(3), Low: true}}}
	router := newTestRouter(NewService(repo, nil))

	req := httptest.NewRequest(http.MethodGet, "/stock/branches/1?q=bo", nil)
	req.Header.Set(httpx.HeaderActorID, "5")
	req.Header.Set(httpx.HeaderActorRole, "admin")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var items []BranchStockItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.True(t, items[0].Low)
}

func TestListBranchStockHandlerForbidden(t *testing.T) {
	router := newTestRouter(NewService(&countingRepo{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/stock/branches/2", nil)
	req.Header.Set(httpx.HeaderActorID, "5")
	req.Header.Set(httpx.HeaderActorRole, string(shared.RoleEmployee))
	req.Header.Set(httpx.HeaderActorBranch, "1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestStockHandlerRequiresActor(t *testing.T) {
	router := newTestRouter(NewService(&countingRepo{}, nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stock/branches/1/products/7", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/stock/branches/1/products/7", nil)
	req = req.WithContext(context.Background())
	req.Header.Set(httpx.HeaderActorID, "5")
	req.Header.Set(httpx.HeaderActorRole, "manager")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
