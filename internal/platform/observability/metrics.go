// Package observability holds the service's prometheus metrics and tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mensa_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mensa_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	renderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mensa_layout_render_requests_total",
		Help: "Layout render calls by outcome",
	}, []string{"result"})

	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mensa_layout_render_duration_seconds",
		Help:    "Duration of layout render round trips",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"result"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mensa_upstream_circuit_state",
		Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
	}, []string{"upstream"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveRender records the outcome of one layout render call.
func ObserveRender(result string, duration time.Duration) {
	renderRequestsTotal.WithLabelValues(result).Inc()
	renderDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// SetBreakerState publishes the circuit state of an upstream.
func SetBreakerState(upstream string, state int) {
	breakerState.WithLabelValues(upstream).Set(float64(state))
}
