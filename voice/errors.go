package voice

import "errors"

var (
	// ErrTranscriberRequired is returned when a transcriber is not provided.
	ErrTranscriberRequired = errors.New("transcriber required")

	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrNoAudio is returned when a request carries no audio.
	ErrNoAudio = errors.New("no audio provided")

	// ErrNoSpeech is returned when transcription produced no text.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrTranscription wraps failures of the speech-to-text service.
	ErrTranscription = errors.New("transcription failed")
)
