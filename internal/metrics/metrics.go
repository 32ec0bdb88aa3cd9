// Package metrics provides Prometheus instrumentation for the options engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ValuationsTotal counts pricing runs, partitioned by model.
	ValuationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optx_valuations_total",
		Help: "Total number of valuations computed",
	}, []string{"model"})

	// ValuationLatency tracks pricing latency per model. Lattice models
	// dominate the upper buckets.
	ValuationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optx_valuation_latency_seconds",
		Help:    "Valuation computation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	// ImpliedVolSolves counts implied volatility solves by outcome:
	// ok, out_of_bounds, no_convergence, invalid.
	ImpliedVolSolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optx_implied_vol_solves_total",
		Help: "Implied volatility solve attempts by outcome",
	}, []string{"outcome"})

	// ActiveListings tracks the number of listed contracts.
	ActiveListings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "optx_active_listings",
		Help: "Number of currently listed contracts",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "optx_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optx_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optx_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})

	// ExposureLimitRejections counts fills rejected by the exposure limiter.
	ExposureLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optx_exposure_limit_rejections_total",
		Help: "Position fills rejected by exposure limiter",
	})
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

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
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
