package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the recommendation round HTTP handler
	RecommendRoundLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommend_round_latency_seconds",
		Help:    "Latency of the recommendation round handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of recommendation rounds served
	RecommendRoundRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_round_requests_total",
		Help: "Total number of recommendation round requests",
	})

	// Total number of meal composition requests
	ComposeMealRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "compose_meal_requests_total",
		Help: "Total number of meal composition requests",
	})
)

func Init() {
	prometheus.MustRegister(
		RecommendRoundLatency,
		RecommendRoundRequests,
		ComposeMealRequests,
	)
}
