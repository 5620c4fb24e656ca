// Package config loads carefind settings from a YAML file.
//
// Values may reference environment variables as ${VAR} or ${VAR:-default}.
// Missing fields fall back to the defaults in ApplyDefaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/carefind/ai"
	"github.com/poiesic/carefind/source"
	"github.com/poiesic/carefind/storage"
	"gopkg.in/yaml.v3"
)

// DefaultIndexPath is where the persisted index lives when no path is configured.
const DefaultIndexPath = "storage/index"

// Config holds the carefind configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Index   IndexConfig   `yaml:"index"`
	AI      AIConfig      `yaml:"ai"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the source table.
type DataConfig struct {
	CSV string `yaml:"csv"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Path         string `yaml:"path"`
	MaxBatchSize int    `yaml:"max_batch_size"`
	PoolSize     int    `yaml:"pool_size"`
}

// AIConfig holds embedding and speech service settings.
type AIConfig struct {
	EmbeddingHost      string `yaml:"embedding_host"`
	SpeechHost         string `yaml:"speech_host"`
	APIKey             string `yaml:"api_key"`
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingBatchSize int    `yaml:"embedding_batch_size"`
	TranscriptionModel string `yaml:"transcription_model"`
	SpeechModel        string `yaml:"speech_model"`
	SpeechVoice        string `yaml:"speech_voice"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr            string  `yaml:"addr"`
	ReadTimeoutSec  int     `yaml:"read_timeout_sec"`
	WriteTimeoutSec int     `yaml:"write_timeout_sec"`
	ShutdownSec     int     `yaml:"shutdown_timeout_sec"`
	RateLimit       float64 `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst       int     `yaml:"rate_burst"`
	MaxUploadMB     int     `yaml:"max_upload_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a Config with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from the YAML file at path. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment references first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Data.CSV == "" {
		c.Data.CSV = source.DefaultPath
	}
	if c.Index.Path == "" {
		c.Index.Path = DefaultIndexPath
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = storage.DefaultMaxBatchSize
	}
	if c.Index.PoolSize <= 0 {
		c.Index.PoolSize = 1
	}

	defaults := ai.DefaultConfig()
	if c.AI.EmbeddingHost == "" {
		c.AI.EmbeddingHost = defaults.EmbeddingHost
	}
	if c.AI.SpeechHost == "" {
		c.AI.SpeechHost = c.AI.EmbeddingHost
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = defaults.EmbeddingModel
	}
	if c.AI.EmbeddingBatchSize <= 0 {
		c.AI.EmbeddingBatchSize = defaults.EmbeddingBatchSize
	}
	if c.AI.TranscriptionModel == "" {
		c.AI.TranscriptionModel = defaults.TranscriptionModel
	}
	if c.AI.SpeechModel == "" {
		c.AI.SpeechModel = defaults.SpeechModel
	}
	if c.AI.SpeechVoice == "" {
		c.AI.SpeechVoice = defaults.SpeechVoice
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RateBurst <= 0 {
		c.HTTP.RateBurst = 20
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 25
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit must not be negative, got %g", c.HTTP.RateLimit)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return c.AIConfig().Validate()
}

// AIConfig converts the ai section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithSpeechHost(c.AI.SpeechHost),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithEmbeddingBatchSize(c.AI.EmbeddingBatchSize),
		ai.WithTranscriptionModel(c.AI.TranscriptionModel),
		ai.WithSpeechModel(c.AI.SpeechModel),
		ai.WithSpeechVoice(c.AI.SpeechVoice),
	)
}

// ReadTimeout returns the HTTP read timeout.
func (h HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (h HTTPConfig) WriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeoutSec) * time.Second
}

// ShutdownTimeout returns how long a graceful shutdown may take.
func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownSec) * time.Second
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
