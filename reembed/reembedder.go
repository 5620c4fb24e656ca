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

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// DefaultBatchSize is the default number of documents embedded per call.
const DefaultBatchSize = 100

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Result summarizes a completed run.
type Result struct {
	Documents int
	Elapsed   time.Duration
}

// Reembedder rewrites the vector of every stored document using a new embedder,
// typically after the embedding model changed.
type Reembedder struct {
	index     storage.VectorIndex
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(index storage.VectorIndex, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if progress == nil {
		progress = io.Discard
	}

	logger := slog.Default().With("component", "reembed")
	backoff := Backoff{MaxAttempts: config.MaxRetries, BaseDelay: config.RetryDelay}

	return &Reembedder{
		index:     index,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(index, embedder, backoff, logger),
		logger:    logger,
	}, nil
}

// Run re-embeds every document in the index. Progress is reported to the
// configured writer. A failing batch stops the run; batches already written
// keep their new vectors.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	total, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No documents found in index (0 documents)\n")
		return &Result{}, nil
	}

	fmt.Fprintf(r.progress, "Starting re-embedding of %d documents (batch size: %d)\n", total, r.config.BatchSize)

	tracker := NewProgress(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.index.ForEach(ctx, r.config.BatchSize, func(docs []*core.Document) error {
		written, err := r.processor.Process(ctx, docs)
		tracker.Add(written)
		if err != nil {
			r.logger.Error("batch failed", "size", len(docs), "done", tracker.Done(), "err", err)
			return err
		}
		return nil
	})
	if err != nil {
		return &Result{Documents: tracker.Done(), Elapsed: tracker.Elapsed()}, err
	}

	tracker.Finish()
	result := &Result{Documents: tracker.Done(), Elapsed: tracker.Elapsed()}

	rate := 0.0
	if secs := result.Elapsed.Seconds(); secs > 0 {
		rate = float64(result.Documents) / secs
	}
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d documents in %v (%.1f docs/sec)\n",
		result.Documents, result.Elapsed.Round(time.Millisecond), rate)

	return result, nil
}
