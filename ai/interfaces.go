package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Transcriber converts recorded speech to text.
// Audio normalization (mono, 16 kHz) is the caller's job.
type Transcriber interface {
	// Transcribe returns the text spoken in audio. langHint is an ISO-639-1 code
	// such as "en" or "hi"; empty means auto-detect.
	Transcribe(ctx context.Context, audio []byte, langHint string) (string, error)
}

// Synthesizer converts text to spoken audio.
type Synthesizer interface {
	// Synthesize returns encoded audio (mp3) of text read in lang.
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// Services share configuration and underlying clients.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Transcriber returns the speech-to-text service.
	Transcriber() Transcriber

	// Synthesizer returns the text-to-speech service.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
