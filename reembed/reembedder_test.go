package reembed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/carefind/ai/mock"
	"github.com/poiesic/carefind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReembedder(t *testing.T) {
	index := setupIndex(t, 0)
	embedder := mock.NewMockEmbedder()

	_, err := NewReembedder(nil, embedder, nil, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewReembedder(index, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	r, err := NewReembedder(index, embedder, &Config{MaxRetries: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, r.config.BatchSize)
}

func TestReembedder_Run(t *testing.T) {
	index := setupIndex(t, 7)
	embedder := threeDimEmbedder()

	var out bytes.Buffer
	config := &Config{BatchSize: 3, ReportInterval: 3, MaxRetries: 2, RetryDelay: time.Millisecond}
	r, err := NewReembedder(index, embedder, config, &out)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Documents)

	assert.Equal(t, []int{3, 3, 1}, embedder.BatchSizes())

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	for _, doc := range allDocuments(t, index) {
		assert.Len(t, doc.Vector, 3)
	}

	output := out.String()
	assert.Contains(t, output, "Starting re-embedding of 7 documents (batch size: 3)")
	assert.Contains(t, output, "7/7 documents")
	assert.Contains(t, output, "Re-embedding complete. Processed 7 documents")
}

func TestReembedder_SearchUsesNewVectors(t *testing.T) {
	index := setupIndex(t, 2)

	r, err := NewReembedder(index, threeDimEmbedder(), DefaultConfig(), nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	doc := allDocuments(t, index)[0]
	assert.InDeltaSlice(t, []float32{0, 0.6, 0.8}, doc.Vector, 0.0001)
}

func TestReembedder_EmptyIndex(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer
	r, err := NewReembedder(setupIndex(t, 0), embedder, nil, &out)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Documents)
	assert.Contains(t, out.String(), "No documents found")
	assert.Zero(t, embedder.CallCount())
}

func TestReembedder_FailureStopsRun(t *testing.T) {
	index := setupIndex(t, 5)

	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, assert.AnError
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	config := &Config{BatchSize: 2, ReportInterval: 1, MaxRetries: 1}
	r, err := NewReembedder(index, embedder, config, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrConfiguration)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Documents, "first batch stays written")
}

func TestReembedder_ContextCanceled(t *testing.T) {
	index := setupIndex(t, 3)
	r, err := NewReembedder(index, threeDimEmbedder(), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
