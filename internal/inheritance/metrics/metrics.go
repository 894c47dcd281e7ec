package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the inheritance module.
type Metrics struct {
	AllocationsAccepted prometheus.Counter
	AllocationsRejected *prometheus.CounterVec
}

// New creates a new Metrics instance with all inheritance module metrics registered.
func New() *Metrics {
	return &Metrics{
		AllocationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_allocations_accepted_total",
			Help: "Total allocation writes that passed validation",
		}),
		AllocationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "heirloom_allocations_rejected_total",
			Help: "Total allocation writes rejected, by reason",
		}, []string{"reason"}),
	}
}

// IncrementAccepted records an allocation write that passed all checks.
func (m *Metrics) IncrementAccepted() {
	if m != nil {
		m.AllocationsAccepted.Inc()
	}
}

// IncrementRejected records a rejected allocation write.
func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.AllocationsRejected.WithLabelValues(reason).Inc()
	}
}
