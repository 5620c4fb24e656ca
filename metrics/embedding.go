package metrics

import (
	"context"
	"time"

	"github.com/poiesic/carefind/ai"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	embeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	embeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	embeddingTextsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_texts_total",
			Help:      "Total number of texts sent for embedding",
		},
		[]string{"provider", "model"},
	)
)

// InstrumentedEmbedder wraps an ai.Embedder and records request counts,
// latency and text volume.
type InstrumentedEmbedder struct {
	inner    ai.Embedder
	provider string
	model    string
}

var _ ai.Embedder = (*InstrumentedEmbedder)(nil)

// NewInstrumentedEmbedder wraps inner. provider and model become metric labels.
func NewInstrumentedEmbedder(inner ai.Embedder, provider, model string) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{inner: inner, provider: provider, model: model}
}

func (e *InstrumentedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := e.inner.EmbedText(ctx, text)
	e.observe(start, 1, err)
	return vector, err
}

func (e *InstrumentedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := e.inner.EmbedTexts(ctx, texts)
	e.observe(start, len(texts), err)
	return vectors, err
}

func (e *InstrumentedEmbedder) observe(start time.Time, texts int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	embeddingRequestsTotal.WithLabelValues(e.provider, e.model, status).Inc()
	embeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(time.Since(start).Seconds())
	embeddingTextsTotal.WithLabelValues(e.provider, e.model).Add(float64(texts))
}
