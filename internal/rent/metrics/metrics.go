package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rent renewal worker.
type Metrics struct {
	// Per-stall decisions by outcome
	Decisions *prometheus.CounterVec

	// Full scan duration
	TickLatency prometheus.Histogram
}

// New creates a new Metrics instance with all rent worker metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stallworks_rent_decisions_total",
			Help: "Total rent scan decisions by outcome",
		}, []string{"outcome"}), // outcome: "paid", "suspended", "evicted", "retry_failed", "skipped", "error"

		TickLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stallworks_rent_tick_duration_seconds",
			Help:    "Duration of one full rent renewal scan",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementDecision records one per-stall scan outcome.
func (m *Metrics) IncrementDecision(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}

// ObserveTickLatency records how long a full scan took.
func (m *Metrics) ObserveTickLatency(d time.Duration) {
	if m != nil {
		m.TickLatency.Observe(d.Seconds())
	}
}
