package metrics

import (
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/search"
	"github.com/poiesic/carefind/storage"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	searchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of hospital searches",
		},
		[]string{"status"},
	)

	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Hospital search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	searchFilterFieldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_filter_fields_total",
			Help:      "Facet filters applied to searches, by metadata field",
		},
		[]string{"field"},
	)
)

// SearchMonitor records one search. Create a new one per call with
// NewSearchMonitor and pass it to Searcher.SearchHospitalsWithMonitor.
type SearchMonitor struct {
	started time.Time
	now     func() time.Time
}

var _ search.SearchMonitor = (*SearchMonitor)(nil)

func NewSearchMonitor() *SearchMonitor {
	return &SearchMonitor{now: time.Now}
}

func (m *SearchMonitor) Start(_ search.Query) {
	m.started = m.now()
}

func (m *SearchMonitor) AfterFilter(filter storage.Filter) {
	for _, field := range filter.Fields() {
		searchFilterFieldsTotal.WithLabelValues(field).Inc()
	}
}

func (m *SearchMonitor) AfterIndexSearch(_ []*core.ScoredDocument) {}

func (m *SearchMonitor) Finish(results []*core.SearchResult) {
	searchRequestsTotal.WithLabelValues("ok").Inc()
	searchDuration.Observe(m.elapsed())
	searchResults.Observe(float64(len(results)))
}

func (m *SearchMonitor) Failed(_ error) {
	searchRequestsTotal.WithLabelValues("error").Inc()
	searchDuration.Observe(m.elapsed())
}

func (m *SearchMonitor) elapsed() float64 {
	if m.started.IsZero() {
		return 0
	}
	return m.now().Sub(m.started).Seconds()
}
