// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_responses_total",
			Help: "Total number of chat responses by decision source",
		},
		[]string{"source"}, // rule, ai, fallback
	)

	ChatIntentMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_intent_matches_total",
			Help: "Total number of rule matches by intent",
		},
		[]string{"intent"},
	)

	ChatQuotaDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_quota_denied_total",
			Help: "Total number of AI requests denied by the usage gate",
		},
		[]string{"tenant"},
	)

	ChatAIFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_failures_total",
			Help: "Total number of failed AI completion attempts",
		},
		[]string{"reason"}, // timeout, error
	)

	ChatResponseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_response_duration_seconds",
			Help: "Duration of response decisions in seconds",
		},
		[]string{"source"},
	)

	ChatTokensEstimated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_tokens_estimated_total",
			Help: "Estimated tokens consumed by AI completions",
		},
		[]string{"tenant"},
	)
)
