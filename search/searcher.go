package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

const (
	// DefaultK is the number of results returned when a query leaves K unset.
	DefaultK = 5

	// SnippetLength is the number of characters of document text kept in a result.
	SnippetLength = 300

	snippetEllipsis = "..."
)

// Query is a hospital search request. Facet fields left blank or set to "All"
// do not restrict results.
type Query struct {
	Text      string
	K         int
	City      string
	Specialty string
	Insurer   string
}

// Searcher answers hospital queries against a vector index.
type Searcher struct {
	index   storage.VectorIndex
	monitor SearchMonitor
	logger  *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "search")
		return nil
	}
}

// WithMonitor sets a monitor that observes every search made by the Searcher.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index storage.VectorIndex, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		index:  index,
		logger: slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SearchHospitals returns the hospitals closest to q.Text that satisfy the
// facet filters, in index order. A zero K means DefaultK. Returns an empty
// slice when nothing matches.
func (s *Searcher) SearchHospitals(ctx context.Context, q Query) ([]*core.SearchResult, error) {
	return s.SearchHospitalsWithMonitor(ctx, q, nil)
}

// SearchHospitalsWithMonitor is SearchHospitals with a per-call monitor.
// The per-call monitor takes precedence over one set with WithMonitor.
func (s *Searcher) SearchHospitalsWithMonitor(ctx context.Context, q Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = s.monitor
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if q.K == 0 {
		q.K = DefaultK
	}
	monitor.Start(q)

	filter := BuildFilter(q.City, q.Specialty, q.Insurer)
	monitor.AfterFilter(filter)

	matches, err := s.index.Search(ctx, q.Text, q.K, filter)
	if err != nil {
		s.logger.Error("error searching index", "query", q.Text, "k", q.K, "err", err)
		monitor.Failed(err)
		return nil, err
	}
	monitor.AfterIndexSearch(matches)

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, project(match))
	}

	s.logger.Debug("search complete", "query", q.Text, "filters", filter.Fields(), "results", len(results))
	monitor.Finish(results)
	return results, nil
}

func project(match *core.ScoredDocument) *core.SearchResult {
	doc := match.Document
	return &core.SearchResult{
		ID:           doc.ID,
		HospitalName: stringField(doc.Metadata, core.FieldHospitalName),
		City:         stringField(doc.Metadata, core.FieldCity),
		Address:      stringField(doc.Metadata, core.FieldAddress),
		Rating:       numberField(doc.Metadata, core.FieldRating),
		Phone:        stringField(doc.Metadata, core.FieldPhone),
		Website:      stringField(doc.Metadata, core.FieldWebsite),
		Snippet:      Snippet(doc.Content),
		Score:        match.Score,
	}
}

// Snippet returns the first SnippetLength characters of content, followed by
// "..." when content is longer.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLength {
		return content
	}
	return string(runes[:SnippetLength]) + snippetEllipsis
}

func stringField(metadata map[string]any, field string) string {
	s, _ := metadata[field].(string)
	return s
}

func numberField(metadata map[string]any, field string) float64 {
	switch n := metadata[field].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
