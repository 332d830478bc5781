package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index build metrics. The indexer is a batch job: these live on a private
// registry that is written to a textfile on completion instead of being scraped.
var (
	BuildDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_documents_total",
			Help:      "Catalog documents processed by the index builder",
		},
		[]string{"status"}, // "embedded" / "failed"
	)

	BuildBatchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_batch_retries_total",
			Help:      "Embedding batch retries performed by the index builder",
		},
	)

	BuildBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_batch_duration_seconds",
			Help:      "Duration of one embedding batch, including retries",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

// RegisterBuildMetrics registers builder metrics on reg.
func RegisterBuildMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{BuildDocumentsTotal, BuildBatchRetriesTotal, BuildBatchDuration} {
		if err := reg.Register(c); err != nil {
			return err //nolint:wrapcheck // registry errors are self-describing
		}
	}
	return nil
}
