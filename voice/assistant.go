package voice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/search"
)

// DefaultSpeechLanguage is used for narration when a request names none.
const DefaultSpeechLanguage = "en"

// HospitalSearcher runs a text query. *search.Searcher satisfies it.
type HospitalSearcher interface {
	SearchHospitals(ctx context.Context, q search.Query) ([]*core.SearchResult, error)
}

// Assistant answers spoken hospital queries.
type Assistant struct {
	transcriber ai.Transcriber
	synthesizer ai.Synthesizer
	searcher    HospitalSearcher
	logger      *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant) error

// WithSynthesizer enables spoken summaries of search results.
// Without one, responses carry no audio.
func WithSynthesizer(synthesizer ai.Synthesizer) Option {
	return func(a *Assistant) error {
		a.synthesizer = synthesizer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "voice")
		return nil
	}
}

// NewAssistant creates a voice assistant that transcribes audio and searches
// with the resulting text.
func NewAssistant(transcriber ai.Transcriber, searcher HospitalSearcher, opts ...Option) (*Assistant, error) {
	if transcriber == nil {
		return nil, ErrTranscriberRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	a := &Assistant{
		transcriber: transcriber,
		searcher:    searcher,
		logger:      slog.Default().With("component", "voice"),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Request is a spoken query. Query.Text is ignored; the transcript replaces it.
type Request struct {
	Audio          []byte
	LanguageHint   string // ISO-639-1 hint for transcription, empty to auto-detect
	SpeechLanguage string // language of the spoken summary, default DefaultSpeechLanguage
	Query          search.Query
}

// Response is the outcome of a spoken query.
type Response struct {
	Transcript string
	Results    []*core.SearchResult
	Summary    string
	Audio      []byte // mp3 narration of Summary, nil when unavailable
}

// Summary returns the sentence narrated after a voice search.
func Summary(count int) string {
	return fmt.Sprintf("I found %d results for your query.", count)
}

// Search transcribes req.Audio, runs the transcript as a hospital query and
// narrates a short summary. Narration is best effort: its failure is logged and
// leaves Response.Audio nil.
func (a *Assistant) Search(ctx context.Context, req Request) (*Response, error) {
	if len(req.Audio) == 0 {
		return nil, ErrNoAudio
	}

	transcript, err := a.transcriber.Transcribe(ctx, req.Audio, req.LanguageHint)
	if err != nil {
		a.logger.Error("transcription failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	if transcript == "" {
		return nil, ErrNoSpeech
	}
	a.logger.Info("transcribed query", "transcript", transcript)

	q := req.Query
	q.Text = transcript
	results, err := a.searcher.SearchHospitals(ctx, q)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Transcript: transcript,
		Results:    results,
		Summary:    Summary(len(results)),
	}
	resp.Audio = a.narrate(ctx, resp.Summary, req.SpeechLanguage)
	return resp, nil
}

func (a *Assistant) narrate(ctx context.Context, text, lang string) []byte {
	if a.synthesizer == nil {
		return nil
	}
	if lang == "" {
		lang = DefaultSpeechLanguage
	}

	audio, err := a.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		a.logger.Warn("spoken summary unavailable", "lang", lang, "err", err)
		return nil
	}
	return audio
}
