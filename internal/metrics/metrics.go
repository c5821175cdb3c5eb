// Package metrics exposes Prometheus collectors for the adaptive engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the engine's Prometheus collectors. A single instance is
// created at bootstrap and shared by the exam service.
type Metrics struct {
	SessionsStarted     prometheus.Counter
	SessionsCompleted   *prometheus.CounterVec
	ResponsesScored     *prometheus.CounterVec
	EstimatorFallbacks  prometheus.Counter
	SelectorRelaxations prometheus.Counter
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exam_sessions_started_total",
			Help: "Adaptive exam sessions created.",
		}),
		SessionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_sessions_completed_total",
			Help: "Adaptive exam sessions completed, by termination reason.",
		}, []string{"reason"}),
		ResponsesScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_responses_scored_total",
			Help: "Responses scored, by correctness.",
		}, []string{"correct"}),
		EstimatorFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exam_estimator_fallbacks_total",
			Help: "Ability estimations that used the trust-region fallback.",
		}),
		SelectorRelaxations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exam_selector_relaxations_total",
			Help: "Item selections that dropped topic constraints.",
		}),
	}
}
