package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type poolMetrics struct {
	registrations prometheus.Counter
	conflicts     *prometheus.CounterVec
	removals      prometheus.Counter
	entries       prometheus.Gauge
}

func newPoolMetrics(reg prometheus.Registerer) *poolMetrics {
	f := promauto.With(reg)
	return &poolMetrics{
		registrations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pyxrd",
			Subsystem: "pool",
			Name:      "registrations_total",
			Help:      "Objects bound to an identifier in the object pool.",
		}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pyxrd",
			Subsystem: "pool",
			Name:      "conflicts_total",
			Help:      "Registrations refused because the identifier was taken.",
		}, []string{"mode"}),
		removals: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pyxrd",
			Subsystem: "pool",
			Name:      "removals_total",
			Help:      "Objects explicitly removed from the object pool.",
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pyxrd",
			Subsystem: "pool",
			Name:      "entries",
			Help:      "Identifiers currently bound in the object pool.",
		}),
	}
}

// All methods accept a nil receiver so pools without metrics need no checks.

func (m *poolMetrics) added() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *poolMetrics) removed() {
	if m != nil {
		m.removals.Inc()
	}
}

func (m *poolMetrics) conflict(mode string) {
	if m != nil {
		m.conflicts.WithLabelValues(mode).Inc()
	}
}

func (m *poolMetrics) setEntries(n int) {
	if m != nil {
		m.entries.Set(float64(n))
	}
}
