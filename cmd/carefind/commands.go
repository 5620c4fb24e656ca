package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/carefind"
	"github.com/poiesic/carefind/api"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/reembed"
	"github.com/poiesic/carefind/search"
	"github.com/poiesic/carefind/source"
	"github.com/poiesic/carefind/voice"
	"github.com/urfave/cli/v2"
)

func ingestCommand(c *cli.Context) error {
	cfg := configFrom(c)

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewPipeline()
	if err != nil {
		return err
	}

	result, err := pipeline.IngestFile(c.Context, cfg.Data.CSV)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Ingested %d hospitals\n", result.Ingested)
	return nil
}

func queryFromFlags(c *cli.Context, text string) search.Query {
	return search.Query{
		Text:      text,
		K:         c.Int("k"),
		City:      c.String("city"),
		Specialty: c.String("specialty"),
		Insurer:   c.String("insurer"),
	}
}

func searchCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return err
	}

	results, err := searcher.SearchHospitals(c.Context, queryFromFlags(c, text))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, results)
	}
	printResults(c.App.Writer, results)
	return nil
}

func printResults(w io.Writer, results []*core.SearchResult) {
	fmt.Fprintf(w, "Found %d hospitals\n", len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%d. %s (%s) [%0.3f]\n", i+1, r.HospitalName, r.City, r.Score)
		details := []string{r.Address, fmt.Sprintf("rating %.1f", r.Rating), r.Phone, r.Website}
		fmt.Fprintf(w, "   %s\n", strings.Join(nonEmpty(details), " | "))
		fmt.Fprintf(w, "   %s\n", r.Snippet)
	}
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func facetsCommand(c *cli.Context) error {
	facets := source.LoadFacets(configFrom(c).Data.CSV, slog.Default())

	if c.Bool("json") {
		return writeJSON(c.App.Writer, facets)
	}
	fmt.Fprintf(c.App.Writer, "Cities: %s\n", strings.Join(facets.Cities, ", "))
	fmt.Fprintf(c.App.Writer, "Specialties: %s\n", strings.Join(facets.Specialties, ", "))
	fmt.Fprintf(c.App.Writer, "Insurers: %s\n", strings.Join(facets.Insurers, ", "))
	return nil
}

func voiceCommand(c *cli.Context) error {
	audio, err := os.ReadFile(c.String("audio"))
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	assistant, err := engine.NewAssistant()
	if err != nil {
		return err
	}

	resp, err := assistant.Search(c.Context, voice.Request{
		Audio:          audio,
		LanguageHint:   c.String("lang"),
		SpeechLanguage: c.String("speech-lang"),
		Query:          queryFromFlags(c, ""),
	})
	if err != nil {
		return fmt.Errorf("voice search failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Transcript: %s\n", resp.Transcript)
	printResults(c.App.Writer, resp.Results)
	fmt.Fprintln(c.App.Writer, resp.Summary)

	if out := c.String("out"); out != "" && resp.Audio != nil {
		if err := os.WriteFile(out, resp.Audio, 0o644); err != nil {
			return fmt.Errorf("failed to write summary audio: %w", err)
		}
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if addr := c.String("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if rps := c.Float64("rate-limit"); rps >= 0 {
		cfg.HTTP.RateLimit = rps
	}

	engine, err := openEngine(c, carefind.WithMetrics())
	if err != nil {
		return err
	}
	defer engine.Close()

	server, err := newServer(engine, cfg.Data.CSV, cfg.HTTP.RateLimit, cfg.HTTP.RateBurst, int64(cfg.HTTP.MaxUploadMB)<<20)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout(),
		WriteTimeout: cfg.HTTP.WriteTimeout(),
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", cfg.HTTP.Addr, "index", cfg.Index.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "err", err)
	}
	slog.Info("server stopped")
	return nil
}

// newServer wires the engine's searcher, voice assistant and facet table into the API.
func newServer(engine *carefind.Engine, csvPath string, rps float64, burst int, maxUpload int64) (*api.Server, error) {
	searcher, err := engine.NewSearcher()
	if err != nil {
		return nil, err
	}
	assistant, err := engine.NewAssistant()
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	return api.NewServer(searcher,
		api.WithLogger(logger),
		api.WithVoice(assistant),
		api.WithFacets(func() source.Facets { return source.LoadFacets(csvPath, logger) }),
		api.WithRateLimit(rps, burst),
		api.WithMaxUploadBytes(maxUpload),
	)
}

func reembedCommand(c *cli.Context) error {
	cfg := configFrom(c)
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	reembedder, err := engine.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", cfg.Index.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
