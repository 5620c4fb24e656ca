// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// Index implements storage.VectorIndex on top of a Backend.
// Similarity is computed by scanning every stored document, which suits the
// tens of thousands of facilities a regional directory holds.
type Index struct {
	backend      *Backend
	embedder     ai.Embedder
	maxBatchSize int
	pool         *ants.Pool
	observer     func(size int)
	logger       *slog.Logger
	closed       atomic.Bool
}

var _ storage.VectorIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithMaxBatchSize sets the largest number of documents committed in one transaction.
// Default is storage.DefaultMaxBatchSize.
func WithMaxBatchSize(size int) Option {
	return func(i *Index) error {
		if size < 1 {
			return fmt.Errorf("%w: max batch size must be positive, got %d", core.ErrConfiguration, size)
		}
		i.maxBatchSize = size
		return nil
	}
}

// WithPoolSize sets how many batches are embedded concurrently during writes.
// Default is 1.
func WithPoolSize(size int) Option {
	return func(i *Index) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if i.pool != nil {
			i.pool.Release()
		}
		i.pool = pool
		return nil
	}
}

// WithBatchObserver registers a callback invoked after every committed batch
// with the number of documents it held.
func WithBatchObserver(fn func(size int)) Option {
	return func(i *Index) error {
		i.observer = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger.With("component", "vector-index")
		return nil
	}
}

// NewIndex creates a vector index stored in backend and embedded with embedder.
// The caller keeps ownership of the backend.
func NewIndex(backend *Backend, embedder ai.Embedder, opts ...Option) (*Index, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	i := &Index{
		backend:      backend,
		embedder:     embedder,
		maxBatchSize: storage.DefaultMaxBatchSize,
		pool:         pool,
		logger:       slog.Default().With("component", "vector-index"),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			i.pool.Release()
			return nil, err
		}
	}

	return i, nil
}

// MaxBatchSize returns the configured write batch ceiling.
func (i *Index) MaxBatchSize() int {
	return i.maxBatchSize
}

// WriteBatch embeds and upserts documents, one transaction per chunk.
func (i *Index) WriteBatch(ctx context.Context, docs []*core.Document) (int, error) {
	return i.write(ctx, docs, i.embedder)
}

func (i *Index) write(ctx context.Context, docs []*core.Document, embedder ai.Embedder) (int, error) {
	if i.closed.Load() {
		return 0, storage.ErrStorageClosed
	}
	if len(docs) == 0 {
		return 0, nil
	}
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return 0, err
		}
	}

	chunks := chunkDocuments(docs, i.maxBatchSize)
	vectors, err := i.embedChunks(ctx, chunks, embedder)
	if err != nil {
		return 0, err
	}

	written := 0
	for ci, chunk := range chunks {
		if err := i.putChunk(ctx, chunk, vectors[ci]); err != nil {
			return written, err
		}
		written += len(chunk)
	}

	i.logger.Debug("wrote documents", "count", written, "batches", len(chunks))
	return written, nil
}

// PutEmbedded stores documents that already carry vectors.
func (i *Index) PutEmbedded(ctx context.Context, docs []*core.Document) (int, error) {
	if i.closed.Load() {
		return 0, storage.ErrStorageClosed
	}
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return 0, err
		}
		if len(doc.Vector) == 0 {
			return 0, fmt.Errorf("%w: document %d has no vector", core.ErrInvalidDocument, doc.ID)
		}
	}

	written := 0
	for _, chunk := range chunkDocuments(docs, i.maxBatchSize) {
		vectors := make([][]float32, len(chunk))
		for j, doc := range chunk {
			vectors[j] = doc.Vector
		}
		if err := i.putChunk(ctx, chunk, vectors); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

// embedChunks embeds every chunk on the worker pool and returns vectors in chunk order.
func (i *Index) embedChunks(ctx context.Context, chunks [][]*core.Document, embedder ai.Embedder) ([][][]float32, error) {
	vectors := make([][][]float32, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for ci, chunk := range chunks {
		wg.Add(1)
		submitErr := i.pool.Submit(func() {
			defer wg.Done()
			vectors[ci], errs[ci] = i.embedChunk(ctx, chunk, embedder)
		})
		if submitErr != nil {
			wg.Done()
			errs[ci] = submitErr
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (i *Index) embedChunk(ctx context.Context, chunk []*core.Document, embedder ai.Embedder) ([][]float32, error) {
	texts := make([]string, len(chunk))
	for j, doc := range chunk {
		texts[j] = doc.Content
	}

	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		i.logger.Error("error embedding batch", "size", len(chunk), "err", err)
		return nil, fmt.Errorf("%w: embedding batch of %d documents: %w", core.ErrConfiguration, len(chunk), err)
	}
	if len(vectors) != len(chunk) {
		return nil, fmt.Errorf("%w: %w: expected %d, got %d",
			core.ErrConfiguration, storage.ErrEmbeddingMismatch, len(chunk), len(vectors))
	}
	return vectors, nil
}

// putChunk commits one chunk in a single write transaction.
func (i *Index) putChunk(ctx context.Context, chunk []*core.Document, vectors [][]float32) error {
	err := i.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		for j, doc := range chunk {
			stored := &core.Document{
				ID:       doc.ID,
				Content:  doc.Content,
				Metadata: doc.Metadata,
				Vector:   normalizeVector(vectors[j]),
			}
			data, err := storage.MarshalDocument(stored)
			if err != nil {
				return err
			}
			if err := tx.Set(makeDocumentKey(doc.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("%w: %d documents: %w", storage.ErrBatchLimit, len(chunk), err)
	}
	if err != nil {
		return err
	}

	if i.observer != nil {
		i.observer(len(chunk))
	}
	return nil
}

// Search embeds query and ranks the documents that satisfy filter.
func (i *Index) Search(ctx context.Context, query string, k int, filter storage.Filter) ([]*core.ScoredDocument, error) {
	return i.search(ctx, query, k, filter, i.embedder, nil)
}

func (i *Index) search(ctx context.Context, query string, k int, filter storage.Filter,
	embedder ai.Embedder, accept func(*core.ScoredDocument) bool) ([]*core.ScoredDocument, error) {
	if i.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	vector, err := embedder.EmbedText(ctx, query)
	if err != nil {
		i.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: embedding query: %w", core.ErrConfiguration, err)
	}

	return i.searchVector(ctx, normalizeVector(vector), k, filter, accept)
}

// searchVector scans stored documents and keeps the k best matches.
// accept, when set, is an extra predicate applied after the filter.
func (i *Index) searchVector(ctx context.Context, vector []float32, k int, filter storage.Filter,
	accept func(*core.ScoredDocument) bool) ([]*core.ScoredDocument, error) {
	var results []*core.ScoredDocument
	mismatched := 0

	err := i.backend.ScanPrefix(ctx, []byte(documentPrefix), func(key, value []byte) error {
		doc, err := storage.UnmarshalDocument(value)
		if err != nil {
			id, _ := documentIDFromKey(key)
			i.logger.Warn("skipping unreadable document", "id", id, "err", err)
			return nil
		}
		if len(doc.Vector) == 0 || !filter.Matches(doc.Metadata) {
			return nil
		}
		if len(doc.Vector) != len(vector) {
			mismatched++
		}

		scored := &core.ScoredDocument{Document: doc, Score: dotProduct(vector, doc.Vector)}
		if accept != nil && !accept(scored) {
			return nil
		}
		results = append(results, scored)
		return nil
	})
	if err != nil {
		i.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}

	if mismatched > 0 {
		i.logger.Warn("query vector dimension differs from stored vectors; re-embed the index",
			"query_dim", len(vector), "documents", mismatched)
	}

	slices.SortFunc(results, func(a, b *core.ScoredDocument) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.ID, b.Document.ID)
	})

	if len(results) > k {
		results = results[:k]
	}
	if results == nil {
		results = []*core.ScoredDocument{}
	}
	return results, nil
}

// GetDocument retrieves a single document by ID.
func (i *Index) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := i.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			doc, unmarshalErr = storage.UnmarshalDocument(val)
			return unmarshalErr
		})
	}, false)
	return doc, err
}

// Count returns the number of stored documents.
func (i *Index) Count(ctx context.Context) (int, error) {
	return i.backend.CountPrefix(ctx, []byte(documentPrefix))
}

// ForEach calls fn with batches of stored documents in key order.
// Unreadable documents are skipped with a warning.
func (i *Index) ForEach(ctx context.Context, batchSize int, fn func(docs []*core.Document) error) error {
	if batchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive, got %d", storage.ErrInvalidQuery, batchSize)
	}

	// fn runs outside the read transaction so it may write to the index.
	var all []*core.Document
	err := i.backend.ScanPrefix(ctx, []byte(documentPrefix), func(key, value []byte) error {
		doc, err := storage.UnmarshalDocument(value)
		if err != nil {
			id, _ := documentIDFromKey(key)
			i.logger.Warn("skipping unreadable document", "id", id, "err", err)
			return nil
		}
		all = append(all, doc)
		return nil
	})
	if err != nil {
		return err
	}

	for _, batch := range chunkDocuments(all, batchSize) {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the worker pool. The backend stays open.
func (i *Index) Close() error {
	if i.closed.Swap(true) {
		return nil
	}
	i.pool.Release()
	return nil
}

// chunkDocuments splits docs into consecutive slices of at most size elements.
func chunkDocuments(docs []*core.Document, size int) [][]*core.Document {
	chunks := make([][]*core.Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		chunks = append(chunks, docs[start:end])
	}
	return chunks
}
