package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation pipeline metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"status"}, // "ok" / "empty_query" / "error"
	)

	RecommendStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_stage_duration_seconds",
			Help:      "Duration of recommendation pipeline stages",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // "embed" / "search" / "rerank"
	)

	RecommendResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_results",
			Help:      "Number of results returned per recommendation",
			Buckets:   []float64{1, 3, 5, 10, 20, 50},
		},
	)

	RerankRulesFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_rules_fired_total",
			Help:      "Re-ranking rules applied to candidates",
		},
		[]string{"rule"},
	)

	CatalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      "Number of catalog entries loaded for serving",
		},
	)
)

var recMetricsRegistered bool

// RegisterRecommendMetrics registers recommendation metrics. Must be called once from main.
func RegisterRecommendMetrics() {
	if recMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecommendRequestsTotal)
	prometheus.MustRegister(RecommendStageDuration)
	prometheus.MustRegister(RecommendResults)
	prometheus.MustRegister(RerankRulesFiredTotal)
	prometheus.MustRegister(CatalogEntries)
	recMetricsRegistered = true
}
