// Package metrics holds the Prometheus collectors for drafts and grammar checks.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stylus"

// Metrics methods are safe to call on a nil receiver, which records nothing.
type Metrics struct {
	DraftsSaved   prometheus.Counter
	DraftsDeleted prometheus.Counter

	CorrectionRequests *prometheus.CounterVec
	CorrectionLatency  prometheus.Histogram

	registry *prometheus.Registry
}

// New registers the collectors on a private registry so several instances
// can coexist in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		DraftsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_saved_total",
			Help:      "Total number of draft saves that reached the store",
		}),

		DraftsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_deleted_total",
			Help:      "Total number of draft deletions",
		}),

		// outcome: success or an error kind
		CorrectionRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correction_requests_total",
			Help:      "Grammar correction requests by outcome",
		}, []string{"outcome"}),

		CorrectionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "correction_request_duration_seconds",
			Help:      "Grammar correction round-trip latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		registry: reg,
	}
}

// RegisterGaugeFunc exposes a value computed at scrape time.
func (m *Metrics) RegisterGaugeFunc(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) RecordDraftSaved() {
	if m == nil {
		return
	}
	m.DraftsSaved.Inc()
}

func (m *Metrics) RecordDraftDeleted() {
	if m == nil {
		return
	}
	m.DraftsDeleted.Inc()
}

func (m *Metrics) RecordCorrection(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CorrectionRequests.WithLabelValues(outcome).Inc()
	m.CorrectionLatency.Observe(seconds)
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
