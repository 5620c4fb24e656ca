package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carefind"

var registerOnce sync.Once

// Register adds the search, embedding and index collectors to the default
// Prometheus registry. Calling it more than once is a no-op.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			searchRequestsTotal,
			searchDuration,
			searchResults,
			searchFilterFieldsTotal,
			embeddingRequestsTotal,
			embeddingRequestDuration,
			embeddingTextsTotal,
			indexBatchesTotal,
			indexBatchSize,
		)
	})
}
