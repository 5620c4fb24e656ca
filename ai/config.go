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

package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// SpeechHost is the base URL for the transcription and speech synthesis API.
	// Example: "https://api.openai.com/v1"
	SpeechHost string

	// APIKey is sent as the bearer token. Local servers usually accept any value.
	APIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingBatchSize caps the number of texts sent in one embedding request.
	// Default: 100
	EmbeddingBatchSize int

	// TranscriptionModel is the speech-to-text model identifier.
	// Example: "whisper-1"
	TranscriptionModel string

	// SpeechModel is the text-to-speech model identifier.
	// Example: "tts-1"
	SpeechModel string

	// SpeechVoice is the voice used for text-to-speech.
	// Example: "alloy"
	SpeechVoice string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithSpeechHost sets the speech service host URL.
func WithSpeechHost(host string) ConfigOption {
	return func(c *Config) {
		c.SpeechHost = host
	}
}

// WithHost sets both embedding and speech hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.SpeechHost = host
	}
}

// WithAPIKey sets the API key used for every service.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingBatchSize sets the number of texts per embedding request.
func WithEmbeddingBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBatchSize = size
	}
}

// WithTranscriptionModel sets the speech-to-text model identifier.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithSpeechModel sets the text-to-speech model identifier.
func WithSpeechModel(model string) ConfigOption {
	return func(c *Config) {
		c.SpeechModel = model
	}
}

// WithSpeechVoice sets the text-to-speech voice.
func WithSpeechVoice(voice string) ConfigOption {
	return func(c *Config) {
		c.SpeechVoice = voice
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, embedding and speech use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:      defaultHost,
		SpeechHost:         defaultHost,
		EmbeddingModel:     "all-minilm",
		EmbeddingBatchSize: 100,
		TranscriptionModel: "whisper-1",
		SpeechModel:        "tts-1",
		SpeechVoice:        "alloy",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434/v1"),
//	    WithSpeechHost("https://api.openai.com/v1"),
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.SpeechHost = withV1(c.SpeechHost)
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingBatchSize < 1 {
		return errors.New("ai config: EmbeddingBatchSize must be at least 1")
	}
	if c.SpeechHost == "" {
		return errors.New("ai config: SpeechHost is required")
	}
	if c.TranscriptionModel == "" {
		return errors.New("ai config: TranscriptionModel is required")
	}
	if c.SpeechModel == "" {
		return errors.New("ai config: SpeechModel is required")
	}
	if c.SpeechVoice == "" {
		return errors.New("ai config: SpeechVoice is required")
	}
	return nil
}

// Token returns the bearer token to send, or "none" for unauthenticated local servers.
func (c *Config) Token() string {
	if c.APIKey == "" {
		return "none"
	}
	return c.APIKey
}
