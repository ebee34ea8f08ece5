package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	cartsvc "github.com/retailcart/cart-service/internal/cart"
	"github.com/retailcart/cart-service/internal/promotions"
	"github.com/retailcart/cart-service/pkg/config"
	"github.com/retailcart/cart-service/pkg/logger"
	"github.com/retailcart/cart-service/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

var routerToday = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	catalog, err := promotions.NewSeededCatalog(routerToday)
	require.NoError(t, err)

	svc, err := cartsvc.NewService(cartsvc.ServiceParams{
		Store:   cartsvc.NewMemoryStore(),
		Catalog: catalog,
		Clock:   func() time.Time { return routerToday },
		TaxRate: 0.08,
	})
	require.NoError(t, err)

	return NewRouter(RouterParams{
		Config:      &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DBPinger:    stubPinger{},
		RedisPinger: stubPinger{},
		CartService: svc,
		Catalog:     catalog,
		Clock:       func() time.Time { return routerToday },
		HTTPMetrics: metrics.NewHTTPMetrics(prometheus.NewRegistry()),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func createCart(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/cart", `{"customerId":"customer-1","currency":"USD"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get("X-RetailCart-Env"))

	rec = doJSON(t, router, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessFailsWhenDependencyDown(t *testing.T) {
	t.Parallel()

	catalog, err := promotions.NewSeededCatalog(routerToday)
	require.NoError(t, err)
	svc, err := cartsvc.NewService(cartsvc.ServiceParams{
		Store:   cartsvc.NewMemoryStore(),
		Catalog: catalog,
	})
	require.NoError(t, err)

	router := NewRouter(RouterParams{
		Config:      &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DBPinger:    stubPinger{err: fmt.Errorf("connection refused")},
		RedisPinger: stubPinger{},
		CartService: svc,
		Catalog:     catalog,
	})

	rec := doJSON(t, router, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "DEPENDENCY_ERROR", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	// Generate one request so the route-labelled series exist.
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/health/live", "").Code)

	rec := doJSON(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", "")
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "req-123")
	echo := httptest.NewRecorder()
	router.ServeHTTP(echo, req)
	require.Equal(t, "req-123", echo.Header().Get("X-Request-Id"))
}

func TestCartCheckoutFlow(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	cartID := createCart(t, router)

	rec := doJSON(t, router, http.MethodPost, "/cart/"+cartID+"/items", `{"productId":"P001","quantity":2,"price":49.99}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, 99.98, body["subtotal"])

	rec = doJSON(t, router, http.MethodPut, "/cart/"+cartID+"/items/P001", `{"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, 149.97, body["subtotal"])

	rec = doJSON(t, router, http.MethodPost, "/cart/"+cartID+"/promotions", `{"promoCode":"SAVE20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	promos, ok := body["appliedPromotions"].([]any)
	require.True(t, ok)
	require.Len(t, promos, 1)

	rec = doJSON(t, router, http.MethodGet, "/cart/"+cartID+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody(t, rec)
	require.Equal(t, 3.0, summary["itemCount"])
	require.Equal(t, 1.0, summary["uniqueItemCount"])

	rec = doJSON(t, router, http.MethodDelete, "/cart/"+cartID+"/items/P001", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/cart/"+cartID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, 0.0, body["subtotal"])
	require.Equal(t, 0.0, body["total"])
}

func TestPromotionConflictOverHTTP(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	cartID := createCart(t, router)

	rec := doJSON(t, router, http.MethodPost, "/cart/"+cartID+"/items", `{"productId":"P001","quantity":1,"price":100.00}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// SALE30 is exclusive; SAVE20 must be rejected after it.
	rec = doJSON(t, router, http.MethodPost, "/cart/"+cartID+"/promotions", `{"promoCode":"SALE30"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/cart/"+cartID+"/promotions", `{"promoCode":"SAVE20"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "PROMOTION_NOT_COMBINABLE", body["error"])
	require.Contains(t, body["message"], "SALE30")

	// The cart keeps only the first promotion.
	rec = doJSON(t, router, http.MethodGet, "/cart/"+cartID, "")
	cart := decodeBody(t, rec)
	promos, ok := cart["appliedPromotions"].([]any)
	require.True(t, ok)
	require.Len(t, promos, 1)
}

func TestExpiredPromotionOverHTTP(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	cartID := createCart(t, router)

	rec := doJSON(t, router, http.MethodPost, "/cart/"+cartID+"/promotions", `{"promoCode":"EXPIRED21"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "PROMOTION_EXPIRED", body["error"])
}

func TestClearPromotionsOverHTTP(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	cartID := createCart(t, router)

	rec := doJSON(t, router, http.MethodPost, "/cart/"+cartID+"/promotions", `{"promoCode":"SAVE20"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/cart/"+cartID+"/promotions", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/cart/"+cartID, "")
	body := decodeBody(t, rec)
	promos, ok := body["appliedPromotions"].([]any)
	require.True(t, ok)
	require.Empty(t, promos)
}

func TestPromotionCatalogEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/promotions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)

	rec = doJSON(t, router, http.MethodGet, "/promotions/SAVE20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "SAVE20", body["code"])
	require.Equal(t, true, body["active"])

	// The active flag follows the injected clock, so an expired seed is
	// reported inactive regardless of wall-clock time.
	rec = doJSON(t, router, http.MethodGet, "/promotions/EXPIRED21", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, false, body["active"])

	rec = doJSON(t, router, http.MethodGet, "/promotions/NOPE", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
