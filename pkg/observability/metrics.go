package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	turns        *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	stateChanges *prometheus.CounterVec
	cascades     *prometheus.CounterVec
	timeouts     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_turns_total",
				Help: "Total number of processed turns",
			},
			[]string{"dialogue", "outcome"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_turn_duration_seconds",
				Help:    "Duration of processed turns",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dialogue"},
		),
		stateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_state_changes_total",
				Help: "Total number of resource state assignments",
			},
			[]string{"dialogue", "state"},
		),
		cascades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_cascades_total",
				Help: "Total number of invalidation cascades",
			},
			[]string{"dialogue"},
		),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_timeouts_total",
				Help: "Total number of dialogues discarded after expiring",
			},
			[]string{"dialogue"},
		),
	}
	m.registry.MustRegister(m.turns, m.turnDuration, m.stateChanges, m.cascades, m.timeouts)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(e *domain.StateEvent) {
			m.stateChanges.WithLabelValues(e.Dialogue, e.To.String()).Inc()
		},
		OnCascade: func(e *domain.CascadeEvent) {
			m.cascades.WithLabelValues(e.Dialogue).Inc()
		},
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(e.Dialogue, e.Outcome()).Inc()
			m.turnDuration.WithLabelValues(e.Dialogue).Observe(e.Duration.Seconds())
		},
		OnTimeout: func(_ context.Context, e *domain.TurnEvent) {
			m.timeouts.WithLabelValues(e.Dialogue).Inc()
		},
	}
}
