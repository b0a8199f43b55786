// Package metrics exposes prometheus collectors for resolution passes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source attempt outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeUnavailable  = "unavailable"
	OutcomeInsufficient = "insufficient"
)

// Metrics provides observability for the resolution pipeline. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Source attempts by source name and outcome
	SourceAttempts *prometheus.CounterVec

	// Records rejected by adapters, by source name
	RejectedRecords *prometheus.CounterVec

	// Identity resolution outcomes (authoritative, source-fallback, generated-fallback)
	IdentityOutcomes *prometheus.CounterVec

	// Grades assigned per pass
	Grades *prometheus.CounterVec

	// Latency of a single source fetch
	SourceLatency *prometheus.HistogramVec

	// Full pass latency
	PassLatency prometheus.Histogram

	// Passes that ended with every source failed
	AllSourcesFailed prometheus.Counter
}

// New registers all collectors with reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration against the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "propscan_source_attempts_total",
			Help: "Source fetch attempts by source and outcome",
		}, []string{"source", "outcome"}),

		RejectedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "propscan_rejected_records_total",
			Help: "Raw records rejected as malformed by source",
		}, []string{"source"}),

		IdentityOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "propscan_identity_outcomes_total",
			Help: "Identity resolution outcomes",
		}, []string{"outcome"}),

		Grades: f.NewCounterVec(prometheus.CounterOpts{
			Name: "propscan_grades_total",
			Help: "Investment grades assigned",
		}, []string{"grade"}),

		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "propscan_source_fetch_duration_seconds",
			Help:    "Duration of a source fetch including timeouts",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		PassLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "propscan_pass_duration_seconds",
			Help:    "Duration of a full resolution pass",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		AllSourcesFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "propscan_all_sources_failed_total",
			Help: "Resolution passes in which every source failed",
		}),
	}
}

// ObserveSourceAttempt records one source attempt and how long it took.
func (m *Metrics) ObserveSourceAttempt(source, outcome string, d time.Duration) {
	if m != nil {
		m.SourceAttempts.WithLabelValues(source, outcome).Inc()
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// AddRejected records n malformed records from source.
func (m *Metrics) AddRejected(source string, n int) {
	if m != nil && n > 0 {
		m.RejectedRecords.WithLabelValues(source).Add(float64(n))
	}
}

// IncrementIdentity records an identity resolution outcome.
func (m *Metrics) IncrementIdentity(outcome string) {
	if m != nil {
		m.IdentityOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncrementGrade records an assigned grade.
func (m *Metrics) IncrementGrade(grade string) {
	if m != nil {
		m.Grades.WithLabelValues(grade).Inc()
	}
}

// ObservePass records the duration of a pass and whether it fully failed.
func (m *Metrics) ObservePass(d time.Duration, allFailed bool) {
	if m != nil {
		m.PassLatency.Observe(d.Seconds())
		if allFailed {
			m.AllSourcesFailed.Inc()
		}
	}
}
