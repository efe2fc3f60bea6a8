// Package telemetry sets up OpenTelemetry tracing for the HTTP server.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/forgo/storefront/api/internal/logger"
)

// Config holds tracing settings.
type Config struct {
	// Endpoint is the OTLP/HTTP collector base URL, e.g. http://localhost:4318.
	// Tracing is disabled when empty.
	Endpoint    string
	ServiceName string
}

// Tracing owns the tracer provider. The zero value is a disabled tracer.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// Setup builds an OTLP exporter and registers a global tracer provider.
// The exporter connects lazily, so an unreachable collector is not an error here.
func Setup(ctx context.Context, cfg Config, log logger.Logger) (*Tracing, error) {
	if log == nil {
		log = logger.Nop()
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		log.Debugw("tracing disabled", "reason", "no OTLP endpoint")
		return &Tracing{}, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid OTLP endpoint %q", endpoint)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}
	if path := strings.TrimSuffix(u.Path, "/"); path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(path+"/v1/traces"))
	}
	if strings.EqualFold(u.Scheme, "http") {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "storefront-api"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	log.Infow("tracing enabled", "endpoint", u.Host, "service", serviceName)
	return &Tracing{provider: tp}, nil
}

// Enabled reports whether spans are exported.
func (t *Tracing) Enabled() bool {
	return t != nil && t.provider != nil
}

// Middleware wraps handlers with otelhttp server spans, or passes through
// when tracing is disabled.
func (t *Tracing) Middleware(next http.Handler) http.Handler {
	if !t.Enabled() {
		return next
	}
	return otelhttp.NewHandler(next, "http",
		otelhttp.WithTracerProvider(t.provider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
