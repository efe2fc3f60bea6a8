// Package server wires handlers and middleware into the HTTP router.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/handler"
	"github.com/forgo/storefront/api/internal/logger"
	"github.com/forgo/storefront/api/internal/metrics"
	"github.com/forgo/storefront/api/internal/middleware"
	"github.com/forgo/storefront/api/internal/service"
	"github.com/forgo/storefront/api/internal/telemetry"
)

// ConnectionManager is the part of *database.Manager the router needs.
type ConnectionManager interface {
	Connect(ctx context.Context) error
	State() database.State
	LastError() error
}

// TokenService issues and verifies tokens. *service.TokenService implements it.
type TokenService interface {
	CheckIssue() error
	IssueJSON(raw []byte) (string, error)
	Verify(token string) (service.Claims, error)
}

// Deps holds everything the router serves.
type Deps struct {
	Logger         logger.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Tracing        *telemetry.Tracing
	AllowedOrigins []string

	DB       ConnectionManager
	Tokens   TokenService
	Products handler.ProductService

	// AuthLimiter limits POST /auth. Nil disables the limit.
	AuthLimiter middleware.Limiter
}

// NewRouter builds the application router.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}

	healthHandler := handler.NewHealthHandler(d.DB)
	tokenHandler := handler.NewTokenHandler(d.Tokens, d.Logger)
	productHandler := handler.NewProductHandler(d.Products, d.Logger)

	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		d.Tracing.Middleware,
		middleware.Logger(d.Logger, d.Metrics),
		middleware.Compress,
		middleware.Recovery(d.Logger),
		middleware.CORS(d.AllowedOrigins),
	)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/", healthHandler.Root)
	r.Get("/healthz", healthHandler.Healthz)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	r.Group(func(r chi.Router) {
		if d.AuthLimiter != nil {
			r.Use(middleware.RateLimit(d.AuthLimiter, d.Logger))
		}
		r.Post("/auth", tokenHandler.Issue)
	})

	ensureConnected := middleware.EnsureConnected(d.DB, d.Logger)
	r.Route("/products", func(r chi.Router) {
		r.With(ensureConnected).Get("/", productHandler.List)
		r.With(ensureConnected).Get("/{id}", productHandler.Get)
		// Authenticate before dialing.
		r.With(middleware.Auth(d.Tokens), ensureConnected).Post("/", productHandler.Create)
	})

	return r
}
