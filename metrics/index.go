package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	indexBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_batches_total",
			Help:      "Total number of committed index write batches",
		},
	)

	indexBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_batch_size",
			Help:      "Documents per committed index write batch",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

// ObserveBatch records one committed write batch. Its signature matches
// badger.WithBatchObserver.
func ObserveBatch(size int) {
	indexBatchesTotal.Inc()
	indexBatchSize.Observe(float64(size))
}
