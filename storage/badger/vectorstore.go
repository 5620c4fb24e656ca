package badger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

var _ vectorstores.VectorStore = (*Index)(nil)

// langchainEmbedder adapts a langchaingo embedder to ai.Embedder.
type langchainEmbedder struct {
	embedder embeddings.Embedder
}

func (e langchainEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.embedder.EmbedQuery(ctx, text)
}

func (e langchainEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embedder.EmbedDocuments(ctx, texts)
}

func (i *Index) embedderFor(opts vectorstores.Options) ai.Embedder {
	if opts.Embedder != nil {
		return langchainEmbedder{embedder: opts.Embedder}
	}
	return i.embedder
}

func applyOptions(options []vectorstores.Option) vectorstores.Options {
	var opts vectorstores.Options
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// AddDocuments implements vectorstores.VectorStore.
// Metadata is normalized to scalars. Documents describing a hospital are keyed by
// name, city and address; others by their content. Returns the stored IDs in
// decimal form, skipping documents the deduplicater rejects.
func (i *Index) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := applyOptions(options)

	batch := make([]*core.Document, 0, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if opts.Deduplicater != nil && opts.Deduplicater(ctx, doc) {
			continue
		}
		metadata := core.NormalizeMetadata(doc.Metadata)
		id, ok := core.KeyFromMetadata(metadata)
		if !ok {
			id = core.IDFromContent(doc.PageContent)
		}
		batch = append(batch, &core.Document{ID: id, Content: doc.PageContent, Metadata: metadata})
		ids = append(ids, strconv.FormatUint(uint64(id), 10))
	}

	if _, err := i.write(ctx, batch, i.embedderFor(opts)); err != nil {
		return nil, err
	}
	return ids, nil
}

// SimilaritySearch implements vectorstores.VectorStore.
// vectorstores.WithFilters accepts a storage.Filter or its native map form.
// vectorstores.WithScoreThreshold drops matches scoring below the threshold.
func (i *Index) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := applyOptions(options)

	filter, err := filterFromOption(opts.Filters)
	if err != nil {
		return nil, err
	}
	if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
		return nil, fmt.Errorf("%w: score threshold must be between 0 and 1, got %v",
			storage.ErrInvalidQuery, opts.ScoreThreshold)
	}

	var accept func(*core.ScoredDocument) bool
	if threshold := opts.ScoreThreshold; threshold > 0 {
		accept = func(d *core.ScoredDocument) bool { return d.Score >= threshold }
	}

	matches, err := i.search(ctx, query, numDocuments, filter, i.embedderFor(opts), accept)
	if err != nil {
		return nil, err
	}

	out := make([]schema.Document, len(matches))
	for j, m := range matches {
		out[j] = schema.Document{
			PageContent: m.Document.Content,
			Metadata:    m.Document.Metadata,
			Score:       m.Score,
		}
	}
	return out, nil
}

func filterFromOption(v any) (storage.Filter, error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case storage.Filter:
		return f, nil
	case map[string]any:
		return storage.ParseFilter(f)
	default:
		return nil, fmt.Errorf("%w: unsupported filter type %T", storage.ErrInvalidFilter, v)
	}
}
