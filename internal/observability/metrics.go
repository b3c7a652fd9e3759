package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a dedicated registry.
type Metrics struct {
	registry    *prometheus.Registry
	reqDuration *prometheus.HistogramVec
	reqTotal    *prometheus.CounterVec
	errorTotal  *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "assets",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "assets", Name: "http_requests_total", Help: "Total HTTP requests"},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "assets", Name: "domain_errors_total", Help: "Requests failed by domain error code"},
			[]string{"method", "path", "code"},
		),
	}
	m.registry.MustRegister(m.reqDuration, m.reqTotal, m.errorTotal)
	return m
}

// RecordRequest observes a finished request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.reqDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.reqTotal.WithLabelValues(method, path, code).Inc()
}

// RecordError counts a request that ended in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(method, path, code).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
