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

// Package carefind finds hospitals by combining semantic similarity over
// facility descriptions with city, specialty and insurer filters.
//
// An Engine owns the persisted vector index and the AI services. Build one at
// startup and derive pipelines, searchers and assistants from it:
//
//	engine, err := carefind.Open("storage/index")
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	searcher, err := engine.NewSearcher()
package carefind

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/ai/openai"
	"github.com/poiesic/carefind/ingestion"
	"github.com/poiesic/carefind/metrics"
	"github.com/poiesic/carefind/reembed"
	"github.com/poiesic/carefind/search"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/poiesic/carefind/voice"
)

type Engine struct {
	backend  *badger.Backend
	index    *badger.Index
	embedder ai.Embedder
	provider ai.AIProvider
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	inMemory     bool
	instrumented bool
	indexOptions []badger.Option
	logger       *slog.Logger
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) Option {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready AI provider. The Engine takes ownership and
// closes it. WithAIConfig is ignored when a provider is given.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the index in memory. The path passed to Open is ignored.
func WithInMemory() Option {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithMetrics records embedding calls and index batch writes in Prometheus.
func WithMetrics() Option {
	return func(o *engineOptions) {
		o.instrumented = true
	}
}

// WithIndexOptions passes options through to the vector index.
func WithIndexOptions(opts ...badger.Option) Option {
	return func(o *engineOptions) {
		o.indexOptions = append(o.indexOptions, opts...)
	}
}

// WithLogger sets the logger handed to every component the Engine builds.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open opens (or creates) the index at path and connects the AI services.
func Open(path string, opts ...Option) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		provider.Close()
		return nil, err
	}

	embedder := provider.Embedder()
	indexOptions := []badger.Option{badger.WithLogger(options.logger)}
	if options.instrumented {
		metrics.Register()
		embedder = metrics.NewInstrumentedEmbedder(embedder, "openai", options.aiConfig.EmbeddingModel)
		indexOptions = append(indexOptions, badger.WithBatchObserver(metrics.ObserveBatch))
	}
	indexOptions = append(indexOptions, options.indexOptions...)

	index, err := badger.NewIndex(backend, embedder, indexOptions...)
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		index:    index,
		embedder: embedder,
		provider: provider,
		logger:   options.logger,
	}, nil
}

// Close releases the index, the storage backend and the AI provider.
func (e *Engine) Close() error {
	var errs []error
	if err := e.index.Close(); err != nil {
		e.logger.Error("error closing vector index", "err", err)
		errs = append(errs, err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Index returns the vector index. It also satisfies langchaingo's
// vectorstores.VectorStore.
func (e *Engine) Index() *badger.Index {
	return e.index
}

// Provider returns the AI provider.
func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

func (e *Engine) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(e.logger)}, opts...)
	return ingestion.NewPipeline(e.index, opts...)
}

func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(e.logger)}, opts...)
	return search.NewSearcher(e.index, opts...)
}

// NewAssistant builds a voice assistant over a fresh searcher. Narration uses
// the provider's synthesizer unless opts override it.
func (e *Engine) NewAssistant(opts ...voice.Option) (*voice.Assistant, error) {
	searcher, err := e.NewSearcher()
	if err != nil {
		return nil, err
	}
	opts = append([]voice.Option{
		voice.WithLogger(e.logger),
		voice.WithSynthesizer(e.provider.Synthesizer()),
	}, opts...)
	return voice.NewAssistant(e.provider.Transcriber(), searcher, opts...)
}

// NewReembedder builds a job that recomputes every stored vector with the
// engine's embedder. Progress goes to progress when it is not nil.
func (e *Engine) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(e.index, e.embedder, config, progress)
}
