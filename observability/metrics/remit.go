package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RemitMetrics exposes the facade-level instrumentation: one counter per
// operation and outcome, plus a histogram of venue hops per conversion.
type RemitMetrics struct {
	operations *prometheus.CounterVec
	swapHops   prometheus.Histogram
}

var (
	remitOnce     sync.Once
	remitRegistry *RemitMetrics
)

// Remit returns the process-wide metrics set, registering it on first use.
func Remit() *RemitMetrics {
	remitOnce.Do(func() {
		remitRegistry = &RemitMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "remit_operations_total",
				Help: "Count of ledger operations by name and outcome.",
			}, []string{"operation", "outcome"}),
			swapHops: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "remit_swap_hops",
				Help:    "Venue hops taken per conversion.",
				Buckets: []float64{1, 2, 3, 4, 5},
			}),
		}
		prometheus.MustRegister(
			remitRegistry.operations,
			remitRegistry.swapHops,
		)
	})
	return remitRegistry
}

// ObserveOperation records one completed operation with its outcome.
func (m *RemitMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveSwapHops records the hop count of an executed conversion.
func (m *RemitMetrics) ObserveSwapHops(hops int) {
	if m == nil {
		return
	}
	m.swapHops.Observe(float64(hops))
}
