// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "searchforms"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the collectors registered on one registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	formOps        *prometheus.CounterVec
	renders        *prometheus.CounterVec
	events         *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches executed, by executor and outcome",
		}, []string{"executor", "outcome"}),
		searchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency by executor",
			Buckets:   prometheus.DefBuckets,
		}, []string{"executor"}),
		formOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_operations_total",
			Help:      "Form store operations, by operation and outcome",
		}, []string{"operation", "outcome"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visualization_renders_total",
			Help:      "Visualization renders, by visualization and loader state",
		}, []string{"visualization", "state"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_events_total",
			Help:      "Form notifications published, by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// ObserveSearch records one search.
func (m *Metrics) ObserveSearch(executor string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(executor, outcome(err)).Inc()
	m.searchDuration.WithLabelValues(executor).Observe(d.Seconds())
}

// ObserveFormOp records one store operation (list, get, create, save, delete).
func (m *Metrics) ObserveFormOp(op string, err error) {
	if m == nil {
		return
	}
	m.formOps.WithLabelValues(op, outcome(err)).Inc()
}

// ObserveRender records a render and the loader state it saw.
func (m *Metrics) ObserveRender(visualization, state string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(visualization, state).Inc()
}

// ObserveEvent records a published notification.
func (m *Metrics) ObserveEvent(kind string, err error) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
