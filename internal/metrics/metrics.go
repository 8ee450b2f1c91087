// Package metrics holds the Prometheus collectors exported by FastClub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fastclub"

// Metrics groups the application collectors
type Metrics struct {
	FeesGenerated        prometheus.Counter
	FeesSkipped          prometheus.Counter
	FeeBatchFailures     prometheus.Counter
	FeeTransitions       *prometheus.CounterVec
	OccurrencesProjected prometheus.Counter
	SweepRuns            *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FeesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_generated_total",
			Help:      "Annual fee obligations created by generation runs.",
		}),
		FeesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_skipped_total",
			Help:      "Members skipped by generation runs because their fee already exists.",
		}),
		FeeBatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fee_batch_failures_total",
			Help:      "Generation runs whose batch insert failed.",
		}),
		FeeTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fee_transitions_total",
			Help:      "Explicit fee status transitions by target status.",
		}, []string{"status"}),
		OccurrencesProjected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meeting_occurrences_projected_total",
			Help:      "Meeting occurrences computed for callers.",
		}),
		SweepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Background sweep passes by result.",
		}, []string{"result"}),
		gatherer: g,
	}
}

// Handler serves the registered metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
