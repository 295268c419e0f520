package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	VerificationAttempts *prometheus.CounterVec
	VerificationTerminal *prometheus.CounterVec
	IdentitySwitches     prometheus.Counter
	NavigationOutcomes   *prometheus.CounterVec
	SubmissionsTotal     *prometheus.CounterVec
	DecisionLatency      prometheus.Histogram
	LockoutsTotal        prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VerificationAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relief_verification_attempts_total",
			Help: "Verification attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		VerificationTerminal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relief_verification_terminal_total",
			Help: "Terminal verification transitions by final status.",
		}, []string{"status"}),
		IdentitySwitches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relief_identity_switches_total",
			Help: "Active identity switches.",
		}),
		NavigationOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relief_navigation_outcomes_total",
			Help: "Access router outcomes by decision.",
		}, []string{"decision"}),
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relief_submissions_total",
			Help: "Persisted applications by status and submission path.",
		}, []string{"status", "path"}),
		DecisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "relief_decision_latency_seconds",
			Help:    "Latency of external decision service round trips.",
			Buckets: prometheus.DefBuckets,
		}),
		LockoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relief_lockouts_total",
			Help: "Users trapped in the relief queue after exhausting attempts.",
		}),
	}
}

// ObserveDecisionLatency records one decision service round trip.
func (m *Metrics) ObserveDecisionLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.DecisionLatency.Observe(d.Seconds())
}
