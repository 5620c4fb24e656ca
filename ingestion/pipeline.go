package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/source"
	"github.com/poiesic/carefind/storage"
)

// Pipeline turns the hospital table into indexed documents.
type Pipeline struct {
	index  storage.VectorIndex
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates an ingestion pipeline writing into index.
func NewPipeline(index storage.VectorIndex, opts ...Option) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		index:  index,
		logger: slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Path     string // absolute path of the table
	Rows     int    // rows read from the table
	Ingested int    // distinct hospitals written to the index
}

// IngestFile reads the table at path, normalizes every row and writes the
// resulting documents to the index. Rows with malformed fields are ingested
// with defaults. Returns core.ErrNotFound when the table does not exist.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: CSV not found at %s", core.ErrNotFound, abs)
		}
		return nil, err
	}

	p.logger.Info("reading hospital table", "path", abs)
	rows, err := source.ReadFile(abs, p.logger)
	if err != nil {
		return nil, err
	}

	ingested, err := p.IngestRows(ctx, rows)
	if err != nil {
		return nil, err
	}

	return &IngestResult{Path: abs, Rows: len(rows), Ingested: ingested}, nil
}

// IngestRows normalizes rows and writes them to the index in one batch call.
// Rows sharing a hospital key collapse into one document; the last row wins.
// Returns the number of distinct documents written.
func (p *Pipeline) IngestRows(ctx context.Context, rows []source.Row) (int, error) {
	docs := make([]*core.Document, 0, len(rows))
	positions := make(map[core.ID]int, len(rows))
	for i, row := range rows {
		logRowProblems(p.logger, i+1, row)
		doc := NormalizeRow(row)
		if pos, ok := positions[doc.ID]; ok {
			p.logger.Debug("duplicate hospital key, keeping later row", "row", i+1, "id", doc.ID)
			docs[pos] = doc
			continue
		}
		positions[doc.ID] = len(docs)
		docs = append(docs, doc)
	}

	written, err := p.index.WriteBatch(ctx, docs)
	if err != nil {
		p.logger.Error("error writing documents", "written", written, "total", len(docs), "err", err)
		return written, err
	}

	p.logger.Info("ingested hospitals", "count", written)
	return written, nil
}
