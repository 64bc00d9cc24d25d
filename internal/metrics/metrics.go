// Package metrics exposes the dashboard's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invoices"

// Results recorded by InvoiceWrites.
const (
	ResultOK              = "ok"
	ResultInvalid         = "invalid"
	ResultNotFound        = "not_found"
	// ResultUnknownCustomer is a write rejected by the customer foreign key.
	ResultUnknownCustomer = "unknown_customer"
	ResultError           = "error"
)

type Metrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	InvoiceWrites *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers every collector on a fresh registry, so tests can build as many as they need.
func New() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		InvoiceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_writes_total",
			Help:      "Invoice create, update and delete attempts by result.",
		}, []string{"op", "result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_lookups_total",
			Help:      "Rendered page cache lookups by path and result.",
		}, []string{"path", "result"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.Requests, m.LatencyMS, m.InvoiceWrites, m.CacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one served request. r.Pattern is the matched route, so it has to
// be the request the mux saw.
func (m *Metrics) ObserveRequest(r *http.Request, status int, d time.Duration) {
	handler := r.Pattern
	if handler == "" {
		handler = "unmatched"
	}
	m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(d.Milliseconds()))
}

// InvoiceWrite counts one write attempt.
func (m *Metrics) InvoiceWrite(op, result string) {
	m.InvoiceWrites.WithLabelValues(op, result).Inc()
}

// CacheLookup matches the cache.WithObserver callback.
func (m *Metrics) CacheLookup(path string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(path, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
