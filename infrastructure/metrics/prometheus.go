// Package metrics provides the Prometheus-backed implementation of the
// MetricsCollector port.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verdictlab/crisisquiz/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector on the global
// Prometheus registry. It covers the two hot paths of the engine: LLM
// traffic from the judge panel and game lifecycle operations.
type PrometheusMetrics struct {
	operationLatency *prometheus.HistogramVec
	judgeResults     *prometheus.CounterVec
	llmRequests      *prometheus.CounterVec
	llmTokens        *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
}

// NewPrometheusMetrics registers all engine metrics in the default
// registry and returns the collector. Call it once per process;
// promauto panics on duplicate registration.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "game_operation_duration_seconds",
				Help:    "Execution time of game engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "judge"},
		),
		judgeResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judge_evaluations_total",
				Help: "Judge verdicts by outcome, including fallback verdicts after failures.",
			},
			[]string{"judge", "status"},
		),
		llmRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "LLM completion requests by model and status.",
			},
			[]string{"model", "status"},
		),
		llmTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Token usage across all LLM interactions.",
			},
			[]string{"model", "direction"},
		),
		llmLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "LLM completion latency.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"model", "status"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "game_operations_total",
				Help: "Game engine operations by name and status.",
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordLatency records the execution time of an operation.
func (pm *PrometheusMetrics) RecordLatency(
	operation string, duration time.Duration, labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, labels["judge"]).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching the metric name. Names
// outside the known set fall through to the general operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	status, ok := labels["status"]
	if !ok {
		status = "ok"
	}

	switch metric {
	case "judge_evaluations_total":
		pm.judgeResults.WithLabelValues(labels["judge"], status).Add(value)
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(labels["model"], status).Add(value)
	case "llm_tokens_in_total":
		pm.llmTokens.WithLabelValues(labels["model"], "in").Add(value)
	case "llm_tokens_out_total":
		pm.llmTokens.WithLabelValues(labels["model"], "out").Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, status).Add(value)
	}
}

// RecordHistogram records a value in the histogram matching the metric
// name. Unknown names route to the general operation latency histogram
// with the metric name as the operation label.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_request_duration_seconds":
		status, ok := labels["status"]
		if !ok {
			status = "ok"
		}
		pm.llmLatency.WithLabelValues(labels["model"], status).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric, labels["judge"]).Observe(value)
	}
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
