package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the instrumentation for the transition executor and the
// cleanup sweep. All methods are safe to call on a nil receiver so
// instrumentation stays optional.
type Metrics struct {
	TransitionsApplied *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	Conflicts          prometheus.Counter
	GamesSwept         prometheus.Counter
	ActiveWatchers     prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		TransitionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_applied_total",
			Help:      "Total number of committed phase transitions",
		}, []string{"action"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Total number of actions rejected by a transition guard",
		}, []string{"reason"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_conflicts_total",
			Help:      "Total number of transactions lost to a concurrent writer",
		}),
		GamesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_swept_total",
			Help:      "Total number of stale games deleted by the cleanup sweep",
		}),
		ActiveWatchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_watchers",
			Help:      "Number of connected game watchers",
		}),
	}

	prometheus.MustRegister(
		m.TransitionsApplied,
		m.Rejections,
		m.Conflicts,
		m.GamesSwept,
		m.ActiveWatchers,
	)

	return m
}

func (m *Metrics) IncTransition(action string) {
	if m == nil {
		return
	}
	m.TransitionsApplied.WithLabelValues(action).Inc()
}

func (m *Metrics) IncRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncConflict() {
	if m == nil {
		return
	}
	m.Conflicts.Inc()
}

func (m *Metrics) IncGamesSwept() {
	if m == nil {
		return
	}
	m.GamesSwept.Inc()
}

func (m *Metrics) IncWatchers() {
	if m == nil {
		return
	}
	m.ActiveWatchers.Inc()
}

func (m *Metrics) DecWatchers() {
	if m == nil {
		return
	}
	m.ActiveWatchers.Dec()
}
