package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/metrics"
	"github.com/poiesic/carefind/search"
	"github.com/poiesic/carefind/source"
	"github.com/poiesic/carefind/storage"
	"github.com/poiesic/carefind/voice"
)

// DefaultMaxUploadBytes caps the size of a voice search upload.
const DefaultMaxUploadBytes = 25 << 20

// Searcher runs text queries. *search.Searcher satisfies it.
type Searcher interface {
	SearchHospitalsWithMonitor(ctx context.Context, q search.Query, monitor search.SearchMonitor) ([]*core.SearchResult, error)
}

// VoiceSearcher answers spoken queries. *voice.Assistant satisfies it.
type VoiceSearcher interface {
	Search(ctx context.Context, req voice.Request) (*voice.Response, error)
}

// errorHandler writes a response for err and reports whether it did.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server is the carefind HTTP API.
type Server struct {
	searcher       Searcher
	voice          VoiceSearcher
	facets         func() source.Facets
	limiter        *rate.Limiter
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandlers  []errorHandler
}

// Option configures a Server.
type Option func(*Server) error

// WithVoice enables POST /v1/voice/search.
func WithVoice(v VoiceSearcher) Option {
	return func(s *Server) error {
		s.voice = v
		return nil
	}
}

// WithFacets sets the source of the facet vocabulary served at /v1/facets.
// It is called on every request.
func WithFacets(fn func() source.Facets) Option {
	return func(s *Server) error {
		s.facets = fn
		return nil
	}
}

// WithRateLimit allows rps requests per second to /v1 routes with bursts of
// up to burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) error {
		if rps <= 0 {
			s.limiter = nil
			return nil
		}
		if burst < 1 {
			return fmt.Errorf("%w: rate limit burst must be at least 1", ErrBadRequest)
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithMaxUploadBytes caps the voice upload size.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) error {
		if n > 0 {
			s.maxUploadBytes = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "api")
		return nil
	}
}

// NewServer creates an HTTP API server over searcher.
func NewServer(searcher Searcher, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	s := &Server{
		searcher:       searcher,
		facets:         func() source.Facets { return source.Facets{} },
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.errorHandlers = []errorHandler{
		sentinelHandler(ErrBadRequest, http.StatusBadRequest, "bad_request"),
		sentinelHandler(storage.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(storage.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"),
		sentinelHandler(voice.ErrNoAudio, http.StatusBadRequest, "no_audio"),
		sentinelHandler(voice.ErrNoSpeech, http.StatusUnprocessableEntity, "no_speech"),
		sentinelHandler(voice.ErrTranscription, http.StatusBadGateway, "transcription_failed"),
		sentinelHandler(core.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(storage.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(ErrRateLimited, http.StatusTooManyRequests, "rate_limited"),
		sentinelHandler(ErrVoiceUnavailable, http.StatusServiceUnavailable, "voice_unavailable"),
		sentinelHandler(core.ErrConfiguration, http.StatusServiceUnavailable, "unavailable"),
		sentinelHandler(storage.ErrStorageClosed, http.StatusServiceUnavailable, "unavailable"),
	}

	metrics.Register()
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/search", s.search)
		r.Get("/facets", s.listFacets)
		r.Post("/voice/search", s.voiceSearch)
	})

	return r
}

type searchResponse struct {
	Results []*core.SearchResult `json:"results"`
}

type voiceResponse struct {
	Transcript string               `json:"transcript"`
	Results    []*core.SearchResult `json:"results"`
	Summary    string               `json:"summary"`
	Audio      []byte               `json:"audio,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := queryFrom(params.Get("q"), params.Get)
	if err != nil {
		s.handleError(w, err)
		return
	}

	results, err := s.searcher.SearchHospitalsWithMonitor(r.Context(), q, metrics.NewSearchMonitor())
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) listFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.facets())
}

func (s *Server) voiceSearch(w http.ResponseWriter, r *http.Request) {
	if s.voice == nil {
		s.handleError(w, ErrVoiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.handleError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	audio, err := readUpload(r, "audio")
	if err != nil {
		s.handleError(w, err)
		return
	}

	q, err := queryFrom("", r.FormValue)
	if err != nil {
		s.handleError(w, err)
		return
	}

	resp, err := s.voice.Search(r.Context(), voice.Request{
		Audio:          audio,
		LanguageHint:   r.FormValue("lang"),
		SpeechLanguage: r.FormValue("speech_lang"),
		Query:          q,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voiceResponse{
		Transcript: resp.Transcript,
		Results:    resp.Results,
		Summary:    resp.Summary,
		Audio:      resp.Audio,
	})
}

// queryFrom builds a search.Query from request values looked up with get.
func queryFrom(text string, get func(string) string) (search.Query, error) {
	q := search.Query{
		Text:      text,
		City:      get("city"),
		Specialty: get("specialty"),
		Insurer:   get("insurer"),
	}
	if raw := get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%w: k must be an integer, got %q", ErrBadRequest, raw)
		}
		q.K = k
	}
	return q, nil
}

// readUpload returns the named multipart file, or voice.ErrNoAudio when it is absent.
func readUpload(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, voice.ErrNoAudio
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return data, nil
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Warn("request failed", "err", err)
			return
		}
	}
	s.logger.Error("internal error", "err", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// sentinelHandler maps errors wrapping sentinel to status. Server-side failures
// report only the sentinel text.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = sentinel.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
