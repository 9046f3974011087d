package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FeedbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_feedback_events_total",
			Help: "Count of feedback events by event_type.",
		},
		[]string{"event_type"},
	)

	RetrieverFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_retriever_fallback_total",
			Help: "Count of retrievals served by the linear-scan fallback.",
		},
	)

	LearnedScorerFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_learned_scorer_fallback_total",
			Help: "Count of batches that fell back to rule-based scoring.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		FeedbackEventsTotal,
		RetrieverFallbackTotal,
		LearnedScorerFallbackTotal,
	)
}
