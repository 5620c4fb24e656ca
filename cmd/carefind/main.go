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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/carefind"
	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/ai/openai"
	"github.com/poiesic/carefind/config"
	"github.com/poiesic/carefind/reembed"
	"github.com/poiesic/carefind/search"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// newProvider builds the AI provider for commands. Tests replace it.
var newProvider = func(cfg *ai.Config) (ai.AIProvider, error) {
	return openai.NewProvider(cfg)
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "carefind",
		Usage: "Hospital search combining semantic similarity with city, specialty and insurer filters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides the config file",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"CAREFIND_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Path to the index directory",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Path to the hospital table",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "speech-host",
				Usage: "Transcription and speech synthesis host URL",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the AI services",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Load the hospital table into the index",
				Action: ingestCommand,
			},
			{
				Name:      "search",
				Usage:     "Search hospitals by free text and facets",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: append(facetFlags(),
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   search.DefaultK,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				),
			},
			{
				Name:   "facets",
				Usage:  "List the cities, specialties and insurers in the hospital table",
				Action: facetsCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print facets as JSON",
					},
				},
			},
			{
				Name:   "voice",
				Usage:  "Search hospitals with a recorded spoken query",
				Action: voiceCommand,
				Flags: append(facetFlags(),
					&cli.StringFlag{
						Name:     "audio",
						Aliases:  []string{"a"},
						Usage:    "Path to the recorded query (mono 16 kHz audio)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "Language hint for transcription (ISO-639-1, empty to auto-detect)",
					},
					&cli.StringFlag{
						Name:  "speech-lang",
						Usage: "Language of the spoken summary",
						Value: "en",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write the spoken summary (mp3) to this file",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of results",
						Value: search.DefaultK,
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address; overrides the config file",
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Requests per second allowed on /v1 routes (0 disables); overrides the config file",
						Value: -1,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute every stored vector with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func facetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "city", Usage: "Only hospitals in this city"},
		&cli.StringFlag{Name: "specialty", Usage: "Only hospitals offering this specialty"},
		&cli.StringFlag{Name: "insurer", Usage: "Only hospitals accepting this insurer"},
	}
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"index", &cfg.Index.Path},
		{"csv", &cfg.Data.CSV},
		{"embedding-host", &cfg.AI.EmbeddingHost},
		{"embedding-model", &cfg.AI.EmbeddingModel},
		{"speech-host", &cfg.AI.SpeechHost},
		{"api-key", &cfg.AI.APIKey},
		{"log-level", &cfg.Logging.Level},
	}
	for _, o := range overrides {
		if v := c.String(o.flag); v != "" {
			*o.target = v
		}
	}

	if err := setupLogger(cfg.Logging.Level); err != nil {
		return err
	}
	c.App.Metadata = map[string]any{configKey: &cfg}
	return nil
}

func setupLogger(levelStr string) error {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	cfg := config.Default()
	return &cfg
}

// openEngine opens the configured index with the configured AI services.
func openEngine(c *cli.Context, opts ...carefind.Option) (*carefind.Engine, error) {
	cfg := configFrom(c)
	aiConfig := cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := newProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	opts = append([]carefind.Option{
		carefind.WithProvider(provider),
		carefind.WithAIConfig(aiConfig),
		carefind.WithLogger(slog.Default()),
		carefind.WithIndexOptions(
			badger.WithMaxBatchSize(cfg.Index.MaxBatchSize),
			badger.WithPoolSize(cfg.Index.PoolSize),
		),
	}, opts...)

	engine, err := carefind.Open(cfg.Index.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", cfg.Index.Path, err)
	}
	return engine, nil
}
