package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "RESUMATCH_"

// ConfigFileEnv names the variable pointing at an optional YAML file.
const ConfigFileEnv = EnvPrefix + "CONFIG"

// providerKeyEnv lists the conventional credential variables per LLM provider.
var providerKeyEnv = map[string]string{
	LLMOpenAI:    "OPENAI_API_KEY",
	LLMGemini:    "GEMINI_API_KEY",
	LLMAnthropic: "ANTHROPIC_API_KEY",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env in the working directory, if present (fills the process env only)
//  3. file (YAML) if RESUMATCH_CONFIG is set
//  4. env (prefix RESUMATCH_)
func Load(_ context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: read .env: %w", ErrLoadConfig, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RESUMATCH_QUEUE_SIZE -> queue_size (flat keys, underscores preserved).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.LLMAPIKey == "" {
		if name, ok := providerKeyEnv[cfg.LLMProvider]; ok {
			cfg.LLMAPIKey = os.Getenv(name)
		}
	}

	if cfg.EmbeddingAPIKey == "" && cfg.EmbeddingProvider == EmbeddingOpenAI {
		cfg.EmbeddingAPIKey = os.Getenv(providerKeyEnv[LLMOpenAI])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
