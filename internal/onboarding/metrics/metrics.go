package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the onboarding module.
type Metrics struct {
	StepsSaved          *prometheus.CounterVec
	OnboardingCompleted prometheus.Counter
	SaveStepDuration    prometheus.Histogram
	StatusCacheHits     prometheus.Counter
	StatusCacheMisses   prometheus.Counter
}

// New creates a new Metrics instance with all onboarding module metrics registered.
func New() *Metrics {
	return &Metrics{
		StepsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "heirloom_onboarding_steps_saved_total",
			Help: "Total onboarding step submissions accepted, by step",
		}, []string{"step"}),
		OnboardingCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_onboarding_completed_total",
			Help: "Total users who completed all onboarding steps",
		}),
		SaveStepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "heirloom_onboarding_save_step_duration_seconds",
			Help:    "Duration of step save operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		StatusCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_onboarding_status_cache_hits_total",
			Help: "Status reads served from the cache",
		}),
		StatusCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_onboarding_status_cache_misses_total",
			Help: "Status reads recomputed from the store",
		}),
	}
}

// IncrementStepSaved records one accepted step submission.
func (m *Metrics) IncrementStepSaved(step string) {
	if m != nil {
		m.StepsSaved.WithLabelValues(step).Inc()
	}
}

// IncrementCompleted records a user finishing the final step.
func (m *Metrics) IncrementCompleted() {
	if m != nil {
		m.OnboardingCompleted.Inc()
	}
}

// ObserveSaveStep records the duration of a SaveStep operation.
func (m *Metrics) ObserveSaveStep(start time.Time) {
	if m != nil {
		m.SaveStepDuration.Observe(time.Since(start).Seconds())
	}
}

// IncrementCacheHit records a status read served from Redis.
func (m *Metrics) IncrementCacheHit() {
	if m != nil {
		m.StatusCacheHits.Inc()
	}
}

// IncrementCacheMiss records a status read that went to the store.
func (m *Metrics) IncrementCacheMiss() {
	if m != nil {
		m.StatusCacheMisses.Inc()
	}
}
