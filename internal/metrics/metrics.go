// Package metrics holds the Prometheus collectors for the storefront API.
//
// All recording methods are safe to call on a nil *Metrics so components can
// be constructed without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Connect attempt results.
const (
	ResultStarted = "started"
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	connectAttempts *prometheus.CounterVec
	connectionState prometheus.Gauge
	tokensIssued    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_connect_attempts_total",
			Help:      "Database connection attempts by result.",
		}, []string{"result"}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connection_state",
			Help:      "Connection state: 0 disconnected, 1 connecting, 2 connected, 3 failed.",
		}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Token issuance requests by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.connectAttempts,
		m.connectionState,
		m.tokensIssued,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ConnectAttempt counts a connection attempt transition.
func (m *Metrics) ConnectAttempt(result string) {
	if m == nil {
		return
	}
	m.connectAttempts.WithLabelValues(result).Inc()
}

// ConnectionState records the current connection state ordinal.
func (m *Metrics) ConnectionState(state int) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(state))
}

// TokenIssued counts an issuance outcome.
func (m *Metrics) TokenIssued(result string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(result).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
