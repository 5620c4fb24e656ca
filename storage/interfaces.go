package storage

import (
	"context"

	"github.com/poiesic/carefind/core"
)

// DefaultMaxBatchSize is the largest number of documents handed to the store in one write.
const DefaultMaxBatchSize = 100

// VectorIndex stores embedded documents and answers filtered similarity queries.
// Implementations must be thread-safe and support concurrent readers.
type VectorIndex interface {
	// WriteBatch embeds and stores documents, upserting by Document.ID.
	// The input is split into chunks no larger than the configured maximum batch size,
	// and each chunk is durable before the next one starts.
	// Returns the number of documents written.
	WriteBatch(ctx context.Context, docs []*core.Document) (int, error)

	// PutEmbedded stores documents whose Vector is already populated, without
	// calling the embedder. Chunking follows the same rules as WriteBatch.
	PutEmbedded(ctx context.Context, docs []*core.Document) (int, error)

	// Search embeds query and returns up to k documents whose metadata satisfies
	// filter, ordered by similarity (closest first). A nil or empty filter means
	// no restriction. k must be positive.
	Search(ctx context.Context, query string, k int, filter Filter) ([]*core.ScoredDocument, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// ForEach calls fn with successive batches of stored documents in key order.
	// Iteration stops at the first error returned by fn.
	ForEach(ctx context.Context, batchSize int, fn func(docs []*core.Document) error) error

	// Close releases resources held by the index. It does not close the backend.
	Close() error
}
