package reembed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// BatchProcessor re-embeds one batch of stored documents.
type BatchProcessor struct {
	index    storage.VectorIndex
	embedder ai.Embedder
	backoff  Backoff
	logger   *slog.Logger
}

// NewBatchProcessor creates a processor that embeds with embedder, retrying
// failed calls according to backoff, and writes results back to index.
func NewBatchProcessor(index storage.VectorIndex, embedder ai.Embedder, backoff Backoff, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		index:    index,
		embedder: embedder,
		backoff:  backoff,
		logger:   logger,
	}
}

// Process embeds the content of docs and stores the new vectors.
// Content, IDs and metadata are kept as they are. docs are not modified.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := Retry(ctx, bp.backoff, bp.logger, func(ctx context.Context) ([][]float32, error) {
		return bp.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: embedding %d documents after %d attempts: %w",
			core.ErrConfiguration, len(docs), bp.backoff.MaxAttempts, err)
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("%w: expected %d, got %d", storage.ErrEmbeddingMismatch, len(docs), len(vectors))
	}

	updated := make([]*core.Document, len(docs))
	for i, doc := range docs {
		updated[i] = &core.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Vector:   vectors[i],
		}
	}

	written, err := bp.index.PutEmbedded(ctx, updated)
	if err != nil {
		return written, fmt.Errorf("storing re-embedded documents: %w", err)
	}
	return written, nil
}
