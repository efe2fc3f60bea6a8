package server

import (
	"compress/gzip"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/metrics"
	"github.com/forgo/storefront/api/internal/middleware"
	"github.com/forgo/storefront/api/internal/model"
	"github.com/forgo/storefront/api/internal/service"
)

// ============================================================================
// Test Helpers
// ============================================================================

type mockManager struct {
	connectFunc func(ctx context.Context) error
	state       database.State
	lastErr     error
	connects    int
}

func (m *mockManager) Connect(ctx context.Context) error {
	m.connects++
	if m.connectFunc != nil {
		return m.connectFunc(ctx)
	}
	return nil
}

func (m *mockManager) State() database.State { return m.state }
func (m *mockManager) LastError() error      { return m.lastErr }

type mockProductService struct {
	listFunc   func(ctx context.Context, limit int) ([]*model.Product, error)
	getFunc    func(ctx context.Context, id string) (*model.Product, error)
	createFunc func(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
}

func (m *mockProductService) List(ctx context.Context, limit int) ([]*model.Product, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit)
	}
	return []*model.Product{}, nil
}

func (m *mockProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, service.ErrProductNotFound
}

func (m *mockProductService) Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Product{ID: "p1", Title: req.Title}, nil
}

func newTestDeps() Deps {
	return Deps{
		AllowedOrigins: []string{"http://localhost:3000"},
		DB:             &mockManager{state: database.Connected},
		Tokens:         service.NewTokenService(service.TokenServiceConfig{Secret: "s3cret"}),
		Products:       &mockProductService{},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

// ============================================================================
// Health and Fallback Tests
// ============================================================================

func TestRouter_Root(t *testing.T) {
	t.Parallel()

	rec := do(t, NewRouter(newTestDeps()), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Server is Running!", body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Healthz_ReflectsState(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.DB = &mockManager{state: database.Failed, lastErr: database.ErrConnectivity}

	rec := do(t, NewRouter(deps), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "failed", body["database"])
	assert.Equal(t, "connectivity_error", body["error"])
}

func TestRouter_Healthz_DoesNotConnect(t *testing.T) {
	t.Parallel()

	db := &mockManager{state: database.Disconnected}
	deps := newTestDeps()
	deps.DB = db

	rec := do(t, NewRouter(deps), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, db.connects)
}

func TestRouter_UnknownRoute_Returns404(t *testing.T) {
	t.Parallel()

	rec := do(t, NewRouter(newTestDeps()), http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Requested URL Not Found!", body["message"])
}

func TestRouter_WrongMethod_Returns405(t *testing.T) {
	t.Parallel()

	rec := do(t, NewRouter(newTestDeps()), http.MethodDelete, "/auth", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Preflight_HandledByCORS(t *testing.T) {
	t.Parallel()

	rec := do(t, NewRouter(newTestDeps()), http.MethodOptions, "/auth", "",
		"Origin", "http://localhost:3000")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

// ============================================================================
// Token Route Tests
// ============================================================================

func TestRouter_Auth_IssuesVerifiableToken(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	rec := do(t, NewRouter(deps), http.MethodPost, "/auth", `{"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, ok := decodeBody(t, rec)["token"].(string)
	require.True(t, ok)

	claims, err := deps.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims["email"])
}

func TestRouter_Auth_MissingSecret_Returns500(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.Tokens = service.NewTokenService(service.TokenServiceConfig{})

	rec := do(t, NewRouter(deps), http.MethodPost, "/auth", `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "configuration_error", decodeBody(t, rec)["code"])
}

func TestRouter_Auth_MissingSecret_CountedAsConfiguration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	deps := newTestDeps()
	deps.Metrics = m
	deps.Gatherer = reg
	deps.Tokens = service.NewTokenService(service.TokenServiceConfig{Metrics: m})
	router := NewRouter(deps)

	rec := do(t, router, http.MethodPost, "/auth", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_tokens_issued_total{result="configuration"} 1`)
}

func TestRouter_Auth_InvalidPayload_Returns400(t *testing.T) {
	t.Parallel()

	rec := do(t, NewRouter(newTestDeps()), http.MethodPost, "/auth", `["not","an","object"]`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payload", decodeBody(t, rec)["code"])
}

func TestRouter_Auth_RateLimited(t *testing.T) {
	t.Parallel()

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Rate: 1, Window: time.Hour})
	defer limiter.Stop()

	deps := newTestDeps()
	deps.AuthLimiter = limiter
	router := NewRouter(deps)

	first := do(t, router, http.MethodPost, "/auth", `{"email":"a@b.com"}`)
	second := do(t, router, http.MethodPost, "/auth", `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/", "").Code)
}

// ============================================================================
// Product Route Tests
// ============================================================================

func TestRouter_Products_ConnectsBeforeServing(t *testing.T) {
	t.Parallel()

	db := &mockManager{state: database.Connected}
	deps := newTestDeps()
	deps.DB = db

	rec := do(t, NewRouter(deps), http.MethodGet, "/products", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, db.connects)
}

func TestRouter_Products_ConnectFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"connectivity", fmt.Errorf("%w: refused", database.ErrConnectivity), http.StatusServiceUnavailable, "connectivity_error"},
		{"configuration", fmt.Errorf("%w: endpoint not set", database.ErrConfiguration), http.StatusInternalServerError, "configuration_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			deps := newTestDeps()
			deps.DB = &mockManager{connectFunc: func(ctx context.Context) error { return tt.err }}
			deps.Products = &mockProductService{
				listFunc: func(ctx context.Context, limit int) ([]*model.Product, error) {
					called = true
					return nil, nil
				},
			}

			rec := do(t, NewRouter(deps), http.MethodGet, "/products", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["code"])
			assert.False(t, called, "handler must not run without a connection")
		})
	}
}

func TestRouter_Products_GetByID(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.Products = &mockProductService{
		getFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Title: "Lamp"}, nil
		},
	}

	rec := do(t, NewRouter(deps), http.MethodGet, "/products/abc", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "abc", data["id"])
}

func TestRouter_Products_CreateRequiresToken(t *testing.T) {
	t.Parallel()

	body := `{"title":"Lamp","price":12.5,"productImage":"lamp.png"}`
	deps := newTestDeps()
	router := NewRouter(deps)

	rec := do(t, router, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := deps.Tokens.(*service.TokenService).Issue(service.Claims{"email": "a@b.com"})
	require.NoError(t, err)

	rec = do(t, router, http.MethodPost, "/products", body, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRouter_Products_CreateWithoutToken_DoesNotConnect(t *testing.T) {
	t.Parallel()

	db := &mockManager{state: database.Disconnected}
	deps := newTestDeps()
	deps.DB = db

	rec := do(t, NewRouter(deps), http.MethodPost, "/products", `{"title":"Lamp","price":12.5}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, db.connects)
}

func TestRouter_Products_PanicWithGzip_Returns500(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.Products = &mockProductService{
		listFunc: func(ctx context.Context, limit int) ([]*model.Product, error) {
			panic("boom")
		},
	}

	rec := do(t, NewRouter(deps), http.MethodGet, "/products", "", "Accept-Encoding", "gzip")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Internal Server Error!", body["message"])
}

// ============================================================================
// Metrics Tests
// ============================================================================

func TestRouter_Metrics_RecordsRoutePattern(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	deps := newTestDeps()
	deps.Metrics = metrics.New(reg)
	deps.Gatherer = reg
	deps.Products = &mockProductService{
		getFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, service.ErrProductNotFound
		},
	}
	router := NewRouter(deps)

	do(t, router, http.MethodGet, "/products/xyz", "")

	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="GET",route="/products/{id}",status="404"} 1`)
}
