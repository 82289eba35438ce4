// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Backends and providers recognised by the service.
const (
	QueueMemory = "memory"
	QueueAMQP   = "amqp"

	StoreMemory = "memory"
	StoreMySQL  = "mysql"

	EmbeddingHashing = "hashing"
	EmbeddingOpenAI  = "openai"

	LLMOpenAI    = "openai"
	LLMGemini    = "gemini"
	LLMAnthropic = "anthropic"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log output to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// MaxUploadBytes caps the size of an uploaded resume.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
	// CORSAllowOrigins is a comma separated origin list; empty disables CORS.
	CORSAllowOrigins string `koanf:"cors_allow_origins"`

	// QueueBackend selects the task queue: memory or amqp.
	QueueBackend string `koanf:"queue_backend"`
	// QueueSize bounds the in-memory task queue.
	QueueSize int    `koanf:"queue_size"`
	AMQPURL   string `koanf:"amqp_url"`
	AMQPQueue string `koanf:"amqp_queue"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`
	// MaxAttempts bounds redelivery of a task that failed with a retriable error.
	MaxAttempts int `koanf:"max_attempts"`
	// DedupeSize sets the size of the delivery deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreBackend selects persistence: memory or mysql.
	StoreBackend string `koanf:"store_backend"`
	MySQLDSN     string `koanf:"mysql_dsn"`

	// EmbeddingProvider selects the encoder: hashing (local) or openai.
	EmbeddingProvider  string `koanf:"embedding_provider"`
	EmbeddingModel     string `koanf:"embedding_model"`
	EmbeddingDimension int    `koanf:"embedding_dimension"`
	// EmbeddingAPIKey authenticates the remote encoder; defaults to OPENAI_API_KEY.
	EmbeddingAPIKey string `koanf:"embedding_api_key"`
	// EmbeddingSerialize guards the encoder with a mutex.
	EmbeddingSerialize bool `koanf:"embedding_serialize"`

	// LLMProvider selects the suggestion backend: openai, gemini or anthropic.
	// The backend is enabled only when LLMAPIKey is set.
	LLMProvider    string  `koanf:"llm_provider"`
	LLMAPIKey      string  `koanf:"llm_api_key"`
	LLMModel       string  `koanf:"llm_model"`
	LLMBaseURL     string  `koanf:"llm_base_url"`
	LLMTimeoutMS   int     `koanf:"llm_timeout_ms"`
	LLMTemperature float64 `koanf:"llm_temperature"`
	LLMMaxTokens   int     `koanf:"llm_max_tokens"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8000",
		MaxUploadBytes:     10 << 20,
		QueueBackend:       QueueMemory,
		QueueSize:          1_000,
		AMQPQueue:          "resume_analysis",
		WorkerCount:        runtime.NumCPU() * 2,
		MaxAttempts:        3,
		DedupeSize:         100_000,
		StoreBackend:       StoreMemory,
		EmbeddingProvider:  EmbeddingHashing,
		EmbeddingDimension: 384,
		LLMProvider:        LLMOpenAI,
		LLMTimeoutMS:       30_000,
		LLMTemperature:     0.7,
		LLMMaxTokens:       2000,
	}
}

// LLMTimeout returns the suggestion backend timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// CORSOrigins splits CORSAllowOrigins into trimmed, non-empty origins.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LLMEnabled reports whether a generative backend credential is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.QueueBackend {
	case QueueMemory:
		if c.QueueSize <= 0 {
			return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
		}
	case QueueAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("%w: amqp_url is required for the amqp queue", ErrInvalidConfig)
		}
		if c.AMQPQueue == "" {
			return fmt.Errorf("%w: amqp_queue must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown queue_backend %q", ErrInvalidConfig, c.QueueBackend)
	}
	switch c.StoreBackend {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("%w: mysql_dsn is required for the mysql store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	switch c.EmbeddingProvider {
	case EmbeddingHashing, EmbeddingOpenAI:
	default:
		return fmt.Errorf("%w: unknown embedding_provider %q", ErrInvalidConfig, c.EmbeddingProvider)
	}
	if c.EmbeddingProvider == EmbeddingOpenAI && c.EmbeddingAPIKey == "" {
		return fmt.Errorf("%w: embedding_api_key is required for the openai encoder", ErrInvalidConfig)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: embedding_dimension must be positive", ErrInvalidConfig)
	}
	switch c.LLMProvider {
	case LLMOpenAI, LLMGemini, LLMAnthropic:
	default:
		return fmt.Errorf("%w: unknown llm_provider %q", ErrInvalidConfig, c.LLMProvider)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive", ErrInvalidConfig)
	}
	if c.LLMTimeoutMS <= 0 {
		return fmt.Errorf("%w: llm_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
