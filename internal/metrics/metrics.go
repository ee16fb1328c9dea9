// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "casetrack"

// Metrics owns a registry so that tests can build as many as they like.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	caseAssignments *prometheus.CounterVec
	predictions     *prometheus.CounterVec
	modelSwaps      *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests broken down by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP requests.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.025, 0.05,
				0.1, 0.25, 0.5, 1, 2.5, 5,
			},
		}, []string{"route", "method"}),
		caseAssignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "case_assignments_total",
			Help:      "Case assignment attempts broken down by result.",
		}, []string{"result"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served broken down by model.",
		}, []string{"model"}),
		modelSwaps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_swaps_total",
			Help:      "Requests to change the active model broken down by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// CaseAssignment records the outcome of a case assignment
func (m *Metrics) CaseAssignment(result string) {
	if m == nil {
		return
	}
	m.caseAssignments.WithLabelValues(result).Inc()
}

// Prediction records a served prediction
func (m *Metrics) Prediction(model string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(model).Inc()
}

// ModelSwap records a model change request
func (m *Metrics) ModelSwap(result string) {
	if m == nil {
		return
	}
	m.modelSwaps.WithLabelValues(result).Inc()
}
