package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the estate module.
type Metrics struct {
	AssetsCreated        prometheus.Counter
	BeneficiariesCreated prometheus.Counter
}

// New creates a new Metrics instance with all estate module metrics registered.
func New() *Metrics {
	return &Metrics{
		AssetsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_assets_created_total",
			Help: "Total number of assets created",
		}),
		BeneficiariesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_beneficiaries_created_total",
			Help: "Total number of beneficiaries created",
		}),
	}
}

func (m *Metrics) IncrementAssetsCreated() {
	if m != nil {
		m.AssetsCreated.Inc()
	}
}

func (m *Metrics) IncrementBeneficiariesCreated() {
	if m != nil {
		m.BeneficiariesCreated.Inc()
	}
}
