package api

import "errors"

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrRateLimited is returned when a client exceeds the request rate.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrVoiceUnavailable is returned when voice search is not configured.
	ErrVoiceUnavailable = errors.New("voice search is not configured")

	// ErrBadRequest indicates malformed request parameters.
	ErrBadRequest = errors.New("bad request")
)
