package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the password module.
type Metrics struct {
	// Evaluations by outcome ("passed", "failed")
	Evaluations *prometheus.CounterVec

	// Unmet indicators by criterion name
	UnmetCriteria *prometheus.CounterVec

	// Reset submissions by outcome ("accepted", "empty", "weak", "mismatch", "error")
	Resets *prometheus.CounterVec

	// Reset latency, dominated by hashing
	ResetLatency prometheus.Histogram
}

// New registers the password metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the password metrics on reg. Tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pwreset_password_evaluations_total",
			Help: "Total password evaluations by outcome",
		}, []string{"outcome"}),

		UnmetCriteria: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pwreset_password_unmet_criteria_total",
			Help: "Unmet checklist indicators by criterion",
		}, []string{"criterion"}),

		Resets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pwreset_password_resets_total",
			Help: "Password reset submissions by outcome",
		}, []string{"outcome"}),

		ResetLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pwreset_password_reset_duration_seconds",
			Help:    "Duration of reset submissions including hashing",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementEvaluation records one evaluation and its unmet indicators.
func (m *Metrics) IncrementEvaluation(passed bool, unmet []string) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.Evaluations.WithLabelValues(outcome).Inc()
	for _, name := range unmet {
		m.UnmetCriteria.WithLabelValues(name).Inc()
	}
}

// IncrementReset records a reset submission outcome.
func (m *Metrics) IncrementReset(outcome string) {
	if m != nil {
		m.Resets.WithLabelValues(outcome).Inc()
	}
}

// ObserveResetLatency records the duration of a reset submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveResetLatency(start time.Time) {
	if m != nil {
		m.ResetLatency.Observe(time.Since(start).Seconds())
	}
}
