package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/surrealdb/surrealdb.go"

	"github.com/forgo/storefront/api/internal/config"
	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/logger"
	"github.com/forgo/storefront/api/internal/metrics"
	"github.com/forgo/storefront/api/internal/middleware"
	"github.com/forgo/storefront/api/internal/repository"
	"github.com/forgo/storefront/api/internal/server"
	"github.com/forgo/storefront/api/internal/service"
	"github.com/forgo/storefront/api/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, err := logger.New(cfg.Server.Env, cfg.Telemetry.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	ctx := context.Background()

	// Metrics and tracing
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatalw("failed to set up tracing", "error", err)
	}

	// Database connection manager. Nothing is dialed until Connect.
	manager := database.NewManager(database.ManagerConfig[*surrealdb.DB]{
		Config:  cfg.Database.Connection(),
		Dial:    database.DialSurreal,
		Logger:  log,
		Metrics: m,
	})
	store := database.NewSurrealStore(manager)

	// Repositories and services
	productRepo := repository.NewProductRepository(store)

	productService := service.NewProductService(service.ProductServiceConfig{
		ProductRepo: productRepo,
	})

	tokenService := service.NewTokenService(service.TokenServiceConfig{
		Secret:     cfg.Token.Secret,
		Algorithm:  cfg.Token.Algorithm,
		Issuer:     cfg.Token.Issuer,
		Expiration: cfg.Token.TTL,
		Metrics:    m,
	})

	// Rate limiter for POST /auth
	limiter, stopLimiter := newAuthLimiter(cfg.RateLimit, log)

	// Initial connect. A failure is logged and requests retry through the
	// manager, unless the database is required at start.
	if err := manager.Connect(ctx); err != nil {
		if cfg.Database.RequireOnStart {
			log.Fatalw("database required on start", "error", err)
		}
		log.Warnw("initial database connection failed, serving anyway", "error", err)
	}

	router := server.NewRouter(server.Deps{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Tracing:        tracing,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DB:             manager,
		Tokens:         tokenService,
		Products:       productService,
		AuthLimiter:    limiter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("starting server",
			"port", cfg.Server.Port,
			"env", cfg.Server.Env,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	if err := manager.Close(shutdownCtx); err != nil {
		log.Errorw("failed to close database connection", "error", err)
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Errorw("failed to flush traces", "error", err)
	}
	stopLimiter()

	log.Info("server exited")
}

// newAuthLimiter returns the redis limiter when REDIS_URL is set and the
// in-memory limiter otherwise, with a func that releases it.
func newAuthLimiter(cfg config.RateLimitConfig, log logger.Logger) (middleware.Limiter, func()) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalw("invalid REDIS_URL", "error", err)
		}
		client := redis.NewClient(opts)
		log.Infow("rate limiting POST /auth with redis", "addr", opts.Addr, "limit", cfg.Requests, "window", cfg.Window)
		limiter := middleware.NewRedisLimiter(client, middleware.RedisLimiterConfig{
			Limit:  cfg.Requests,
			Window: cfg.Window,
		})
		return limiter, func() { _ = client.Close() }
	}

	rl := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.Requests,
		Window: cfg.Window,
	})
	log.Infow("rate limiting POST /auth in memory", "limit", cfg.Requests, "window", cfg.Window)
	return rl, rl.Stop
}
