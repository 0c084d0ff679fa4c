// Package metrics provides Prometheus instrumentation for the odds service.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OddsComputations counts aggregations, partitioned by variant and
	// by whether the inputs came from the store or the request body.
	OddsComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prizeodds_computations_total",
		Help: "Total number of odds aggregations computed",
	}, []string{"variant", "source"})

	// AggregationLatency tracks snapshot load plus aggregation time.
	AggregationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prizeodds_aggregation_latency_seconds",
		Help:    "Odds aggregation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant"})

	// VaultsNotReady counts vaults that contributed 0 for lack of inputs.
	VaultsNotReady = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prizeodds_vaults_not_ready_total",
		Help: "Vaults skipped during aggregation because inputs were missing",
	})

	// InputUpdates counts accepted input writes by kind.
	InputUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prizeodds_input_updates_total",
		Help: "Accepted prize pool, vault and balance updates",
	}, []string{"kind"})

	// PrizePools tracks the number of known prize pools.
	PrizePools = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prizeodds_prize_pools",
		Help: "Number of prize pools known to the service",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prizeodds_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prizeodds_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prizeodds_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern returns the chi route pattern (e.g. /api/v1/odds/{userAddress})
// so user addresses do not become label values.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
