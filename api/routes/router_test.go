package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/literaryhaven-backend/api/middleware"
	cartsvc "github.com/angelmondragon/literaryhaven-backend/internal/cart"
	"github.com/angelmondragon/literaryhaven-backend/internal/orders"
	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	products "github.com/angelmondragon/literaryhaven-backend/internal/products"
	"github.com/angelmondragon/literaryhaven-backend/pkg/auth"
	"github.com/angelmondragon/literaryhaven-backend/pkg/config"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

type memoryKV struct {
	mu      sync.Mutex
	data    map[string]string
	pingErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryKV) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryKV) DelIfValue(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.data[key]; !ok || current != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memoryKV) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	fmt.Sscan(m.data[key], &n)
	n++
	m.data[key] = fmt.Sprint(n)
	return n, nil
}

func (m *memoryKV) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryKV) CheckoutInFlightKey(sessionID string) string {
	return "checkout:inflight:" + sessionID
}

func (m *memoryKV) Ping(context.Context) error {
	return m.pingErr
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubProducts struct {
	products.Service
	featuredLimit int
}

func (s *stubProducts) Featured(_ context.Context, limit int) ([]products.ProductDTO, error) {
	s.featuredLimit = limit
	return []products.ProductDTO{}, nil
}

type stubOrders struct {
	orders.Service
	adminListCalls int
}

func (s *stubOrders) AdminList(context.Context, orders.AdminFilters, pagination.Params) (*orders.OrderList, error) {
	s.adminListCalls++
	return &orders.OrderList{Orders: []orders.OrderSummary{}}, nil
}

func (s *stubOrders) Track(context.Context, string) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
		Cart: config.CartConfig{
			SessionCookie: "lh_cart_session",
			StorageTTL:    24 * time.Hour,
		},
		Checkout: config.CheckoutConfig{
			InFlightTTL:       time.Minute,
			RateLimitWindow:   10 * time.Minute,
			RateLimitPerIP:    20,
			RateLimitPerEmail: 5,
		},
	}
}

type testRouter struct {
	handler  http.Handler
	kv       *memoryKV
	products *stubProducts
	orders   *stubOrders
}

func newTestRouter(t *testing.T, dbErr error) testRouter {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	registry, err := cartsvc.NewRegistry(cartsvc.RegistryParams{
		Storage: cartsvc.NewMemoryStorage(),
		KeyFor:  func(id string) string { return "cart:" + id },
		Policy:  pricing.DefaultPolicy(),
		Logger:  logg,
	})
	require.NoError(t, err)

	tr := testRouter{kv: newMemoryKV(), products: &stubProducts{}, orders: &stubOrders{}}
	tr.handler = NewRouter(testConfig(), logg, Dependencies{
		DB:       stubPinger{err: dbErr},
		Cache:    tr.kv,
		Products: tr.products,
		Carts:    registry,
		Orders:   tr.orders,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "# metrics")
		}),
	})
	return tr
}

func bearer(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(testConfig().JWT, time.Now(), auth.AccessTokenPayload{
		UserID:   uuid.New(),
		Email:    "reader@example.com",
		FullName: "Ada Reader",
		Role:     role,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthLive(t *testing.T) {
	tr := newTestRouter(t, nil)
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "test", resp.Header().Get("X-LiteraryHaven-Env"))
}

func TestHealthReadyReportsFailedDependency(t *testing.T) {
	tr := newTestRouter(t, errors.New("connection refused"))
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Contains(t, resp.Body.String(), "postgres")
	require.NotContains(t, resp.Body.String(), "connection refused")
}

func TestMetricsMounted(t *testing.T) {
	tr := newTestRouter(t, nil)
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "# metrics", resp.Body.String())
}

func TestFeaturedRouteResolvesBeforeProductID(t *testing.T) {
	tr := newTestRouter(t, nil)
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/featured?limit=4", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 4, tr.products.featuredLimit)
}

func TestCartRoutesIssueSessionCookie(t *testing.T) {
	tr := newTestRouter(t, nil)
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	session := resp.Header().Get(middleware.CartSessionHeader)
	require.NotEmpty(t, session)
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "lh_cart_session", cookies[0].Name)
	require.Equal(t, session, cookies[0].Value)
}

func TestOrderRoutesDoNotIssueSessionCookie(t *testing.T) {
	tr := newTestRouter(t, nil)
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders/track/lh-missing", nil))
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Empty(t, resp.Header().Get(middleware.CartSessionHeader))
}

func TestInvalidBearerRejected(t *testing.T) {
	tr := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminOrdersRequireAdminRole(t *testing.T) {
	tr := newTestRouter(t, nil)

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"guest", "", http.StatusUnauthorized},
		{"customer", bearer(t, enums.UserRoleCustomer), http.StatusForbidden},
		{"admin", bearer(t, enums.UserRoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
		if tt.auth != "" {
			req.Header.Set("Authorization", tt.auth)
		}
		resp := httptest.NewRecorder()
		tr.handler.ServeHTTP(resp, req)
		require.Equal(t, tt.want, resp.Code, tt.name)
	}
	require.Equal(t, 1, tr.orders.adminListCalls)
}

func TestAdminStatusRequiresIdempotencyKey(t *testing.T) {
	tr := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Authorization", bearer(t, enums.UserRoleAdmin))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "Idempotency-Key")
}

func TestCORSPreflight(t *testing.T) {
	tr := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, req)
	require.Equal(t, "http://localhost:3000", resp.Header().Get("Access-Control-Allow-Origin"))
}
