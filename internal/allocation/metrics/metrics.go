// Package metrics provides observability for the allocation module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger mutation counts and the add critical path duration.
type Metrics struct {
	AllocationsCreated  prometheus.Counter
	AllocationsRemoved  prometheus.Counter
	AllocationsRejected *prometheus.CounterVec
	Disbursements       prometheus.Counter
	AddDuration         prometheus.Histogram
}

// New creates a Metrics instance with all allocation module metrics registered.
func New() *Metrics {
	return &Metrics{
		AllocationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "legatum_allocations_created_total",
			Help: "Total number of allocations committed to the ledger",
		}),
		AllocationsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "legatum_allocations_removed_total",
			Help: "Total number of allocations removed, freeing capacity",
		}),
		AllocationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legatum_allocations_rejected_total",
			Help: "Total number of rejected allocation attempts by reason",
		}, []string{"reason"}),
		Disbursements: promauto.NewCounter(prometheus.CounterOpts{
			Name: "legatum_disbursements_total",
			Help: "Total number of asset disbursement runs",
		}),
		AddDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "legatum_allocation_add_duration_seconds",
			Help:    "Duration of AddAllocation operations (capacity-checked insert path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a committed allocation.
func (m *Metrics) IncrementCreated() {
	m.AllocationsCreated.Inc()
}

// IncrementRemoved records a removed allocation.
func (m *Metrics) IncrementRemoved() {
	m.AllocationsRemoved.Inc()
}

// IncrementRejected records a rejected attempt with its reason label.
func (m *Metrics) IncrementRejected(reason string) {
	m.AllocationsRejected.WithLabelValues(reason).Inc()
}

// IncrementDisbursements records a disbursement run.
func (m *Metrics) IncrementDisbursements() {
	m.Disbursements.Inc()
}

// ObserveAdd records the duration of an AddAllocation operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAdd(start time.Time) {
	m.AddDuration.Observe(time.Since(start).Seconds())
}
