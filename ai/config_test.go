package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.SpeechHost)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, 100, cfg.EmbeddingBatchSize)
	assert.Equal(t, "whisper-1", cfg.TranscriptionModel)
	assert.Equal(t, "tts-1", cfg.SpeechModel)
	assert.Equal(t, "alloy", cfg.SpeechVoice)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.SpeechHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithSpeechHost("https://api.openai.com/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "https://api.openai.com/v1", cfg.SpeechHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithAPIKey("sk-test"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithEmbeddingBatchSize(16),
			WithTranscriptionModel("whisper-large"),
			WithSpeechModel("tts-1-hd"),
			WithSpeechVoice("nova"),
		)

		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, 16, cfg.EmbeddingBatchSize)
		assert.Equal(t, "whisper-large", cfg.TranscriptionModel)
		assert.Equal(t, "tts-1-hd", cfg.SpeechModel)
		assert.Equal(t, "nova", cfg.SpeechVoice)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "adds suffix", in: "http://localhost:11434", want: "http://localhost:11434/v1"},
		{name: "strips trailing slash", in: "http://localhost:11434/", want: "http://localhost:11434/v1"},
		{name: "keeps existing suffix", in: "http://localhost:11434/v1", want: "http://localhost:11434/v1"},
		{name: "leaves empty alone", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.in, SpeechHost: tt.in}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.SpeechHost)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("validate normalizes hosts", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:8080"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:8080/v1", cfg.EmbeddingHost)
	})

	tests := []struct {
		name    string
		opt     ConfigOption
		wantErr string
	}{
		{name: "missing embedding host", opt: WithEmbeddingHost(""), wantErr: "EmbeddingHost is required"},
		{name: "missing embedding model", opt: WithEmbeddingModel(""), wantErr: "EmbeddingModel is required"},
		{name: "zero batch size", opt: WithEmbeddingBatchSize(0), wantErr: "EmbeddingBatchSize must be at least 1"},
		{name: "missing speech host", opt: WithSpeechHost(""), wantErr: "SpeechHost is required"},
		{name: "missing transcription model", opt: WithTranscriptionModel(""), wantErr: "TranscriptionModel is required"},
		{name: "missing speech model", opt: WithSpeechModel(""), wantErr: "SpeechModel is required"},
		{name: "missing voice", opt: WithSpeechVoice(""), wantErr: "SpeechVoice is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opt).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Token(t *testing.T) {
	assert.Equal(t, "none", DefaultConfig().Token())
	assert.Equal(t, "sk-test", NewConfig(WithAPIKey("sk-test")).Token())
}
