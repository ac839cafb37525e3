package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the command pipeline.
type Metrics struct {
	// Command outcomes by command kind and result
	CommandOutcome *prometheus.CounterVec

	// Dispatch latency by command kind
	DispatchLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all command pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		CommandOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stallworks_command_outcomes_total",
			Help: "Total command outcomes by kind and result",
		}, []string{"kind", "result"}), // result: "ok" or "rejected"

		DispatchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stallworks_command_dispatch_duration_seconds",
			Help:    "Duration of command handling by kind",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

// IncrementOutcome records a command outcome.
func (m *Metrics) IncrementOutcome(kind string, ok bool) {
	if m != nil {
		result := "ok"
		if !ok {
			result = "rejected"
		}
		m.CommandOutcome.WithLabelValues(kind, result).Inc()
	}
}

// ObserveDispatchLatency records how long a command took to handle.
func (m *Metrics) ObserveDispatchLatency(kind string, d time.Duration) {
	if m != nil {
		m.DispatchLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}
