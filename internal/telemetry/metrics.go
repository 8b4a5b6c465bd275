package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the assist gateway.
type Metrics struct {
	TaskTotal               *prometheus.CounterVec
	TaskDurationMs          *prometheus.HistogramVec
	ProviderAttemptTotal    *prometheus.CounterVec
	ProviderFailoverTotal   *prometheus.CounterVec
	FallbackTotal           *prometheus.CounterVec
	ExtractionFailureTotal  *prometheus.CounterVec
	ActionUnrecognizedTotal prometheus.Counter
	RateLimitHitTotal       *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TaskTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_task_total",
			Help: "Total AI tasks processed, by kind, serving provider, and outcome.",
		}, []string{"task", "provider", "status"}),

		TaskDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assist_task_duration_ms",
			Help:    "Task duration in milliseconds, including provider latency.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"task", "provider"}),

		ProviderAttemptTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_provider_attempt_total",
			Help: "Provider attempts, by provider and result.",
		}, []string{"provider", "result"}),

		ProviderFailoverTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_provider_failover_total",
			Help: "Failovers from one provider to the next in the chain.",
		}, []string{"from", "to"}),

		FallbackTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_fallback_total",
			Help: "Manual fallback uses, by task kind.",
		}, []string{"task"}),

		ExtractionFailureTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_extraction_failure_total",
			Help: "Provider responses whose embedded JSON could not be recovered.",
		}, []string{"task"}),

		ActionUnrecognizedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assist_action_unrecognized_total",
			Help: "Model action payloads outside the vocabulary, treated as no action.",
		}),

		RateLimitHitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_rate_limit_hit_total",
			Help: "Requests rejected by rate limiting, by dimension.",
		}, []string{"dimension"}),
	}
}

// RecordTask records a completed task.
func (m *Metrics) RecordTask(task, provider, status string, durationMs float64) {
	m.TaskTotal.WithLabelValues(task, provider, status).Inc()
	m.TaskDurationMs.WithLabelValues(task, provider).Observe(durationMs)
}

// RecordProviderAttempt records one provider call and its outcome.
func (m *Metrics) RecordProviderAttempt(provider string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ProviderAttemptTotal.WithLabelValues(provider, result).Inc()
}

// RecordFailover records a chain failover.
func (m *Metrics) RecordFailover(from, to string) {
	m.ProviderFailoverTotal.WithLabelValues(from, to).Inc()
}

// RecordFallback records a manual fallback use.
func (m *Metrics) RecordFallback(task string) {
	m.FallbackTotal.WithLabelValues(task).Inc()
}

// RecordExtractionFailure records an unrecoverable provider payload.
func (m *Metrics) RecordExtractionFailure(task string) {
	m.ExtractionFailureTotal.WithLabelValues(task).Inc()
}

// RecordUnrecognizedAction records an out-of-vocabulary action payload.
func (m *Metrics) RecordUnrecognizedAction() {
	m.ActionUnrecognizedTotal.Inc()
}

// RecordRateLimitHit records a rate limit rejection.
func (m *Metrics) RecordRateLimitHit(dimension string) {
	m.RateLimitHitTotal.WithLabelValues(dimension).Inc()
}
