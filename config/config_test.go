package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "data/hospitals.csv", cfg.Data.CSV)
	assert.Equal(t, DefaultIndexPath, cfg.Index.Path)
	assert.Equal(t, 100, cfg.Index.MaxBatchSize)
	assert.Equal(t, 1, cfg.Index.PoolSize)
	assert.Equal(t, "all-minilm", cfg.AI.EmbeddingModel)
	assert.Equal(t, cfg.AI.EmbeddingHost, cfg.AI.SpeechHost)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout())
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carefind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  csv: /srv/hospitals.csv
index:
  path: /var/lib/carefind
  max_batch_size: 50
ai:
  embedding_host: http://embed:11434
  speech_host: https://api.openai.com
  embedding_model: nomic-embed-text
http:
  addr: 127.0.0.1:9000
  rate_limit: 5
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/hospitals.csv", cfg.Data.CSV)
	assert.Equal(t, "/var/lib/carefind", cfg.Index.Path)
	assert.Equal(t, 50, cfg.Index.MaxBatchSize)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.InDelta(t, 5.0, cfg.HTTP.RateLimit, 0)
	assert.Equal(t, 20, cfg.HTTP.RateBurst)
	assert.Equal(t, "debug", cfg.Logging.Level)

	aiCfg := cfg.AIConfig()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "http://embed:11434/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, "https://api.openai.com/v1", aiCfg.SpeechHost)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "index: [unterminated"},
		{"negative rate limit", "http:\n  rate_limit: -1\n"},
		{"unknown log level", "logging:\n  level: loud\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CAREFIND_TEST_KEY", "sk-test")
	t.Setenv("CAREFIND_TEST_EMPTY", "")

	cfg, err := Parse([]byte(`
ai:
  api_key: ${CAREFIND_TEST_KEY}
  embedding_model: ${CAREFIND_TEST_EMPTY:-all-minilm}
index:
  path: ${CAREFIND_TEST_UNSET:-/tmp/index}
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "all-minilm", cfg.AI.EmbeddingModel)
	assert.Equal(t, "/tmp/index", cfg.Index.Path)
}

func TestExpandEnvVars_UnsetWithoutDefault(t *testing.T) {
	out := expandEnvVars([]byte("key: ${CAREFIND_TEST_DEFINITELY_UNSET}"))
	assert.Equal(t, "key: ", string(out))
}
