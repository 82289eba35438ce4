package service

import (
	"context"
	"fmt"

	"github.com/okian/resumatch/internal/adapters/llm/anthropic"
	"github.com/okian/resumatch/internal/adapters/llm/gemini"
	"github.com/okian/resumatch/internal/adapters/llm/openai"
	"github.com/okian/resumatch/internal/adapters/mq/queue"
	"github.com/okian/resumatch/internal/adapters/repository"
	"github.com/okian/resumatch/internal/config"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/suggest"
	"github.com/okian/resumatch/pkg/logger"
)

// FromConfig builds a Service whose backends are selected by cfg.
// runWorkers controls whether this process consumes analysis tasks.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, runWorkers bool) (*Service, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	q, err := openQueue(cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		_ = q.Close()
		_ = store.Close()
		return nil, err
	}

	return New(
		WithStore(store),
		WithQueue(q),
		WithEncoder(newEncoder(cfg)),
		WithSuggestionBackend(backend),
		WithSuggestionTimeout(cfg.LLMTimeout()),
		WithWorkers(runWorkers),
		WithWorkerCount(cfg.WorkerCount),
		WithMaxAttempts(cfg.MaxAttempts),
		WithDedupeSize(cfg.DedupeSize),
		WithQueueSize(cfg.QueueSize),
		WithLogger(log),
	), nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMySQL:
		s, err := repository.OpenMySQL(ctx, cfg.MySQLDSN,
			repository.WithAutoMigrate(true),
			repository.WithSQLLogger(log.Named("store")),
			repository.WithMaxOpenConns(cfg.WorkerCount*2),
		)
		if err != nil {
			return nil, fmt.Errorf("open mysql store: %w", err)
		}
		return s, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

func openQueue(cfg *config.Config, log logger.Logger) (queue.Queue, error) {
	switch cfg.QueueBackend {
	case config.QueueAMQP:
		q, err := queue.DialAMQP(cfg.AMQPURL,
			queue.WithQueueName(cfg.AMQPQueue),
			queue.WithPrefetch(cfg.WorkerCount),
			queue.WithAMQPLogger(log.Named("amqp")),
		)
		if err != nil {
			return nil, fmt.Errorf("dial amqp: %w", err)
		}
		return q, nil
	default:
		return queue.NewInMemoryQueue(
			queue.WithCapacity(cfg.QueueSize),
			queue.WithLogger(log.Named("queue")),
		), nil
	}
}

// newEncoder returns a handle that builds the encoder on first use.
func newEncoder(cfg *config.Config) *embedding.Handle {
	return embedding.NewHandle(func(context.Context) (embedding.Encoder, error) {
		var enc embedding.Encoder
		switch cfg.EmbeddingProvider {
		case config.EmbeddingOpenAI:
			oc := openai.Config{APIKey: cfg.EmbeddingAPIKey, Model: cfg.EmbeddingModel}
			if cfg.LLMProvider == config.LLMOpenAI {
				oc.BaseURL = cfg.LLMBaseURL
			}
			e, err := openai.NewEmbedder(oc, cfg.EmbeddingDimension)
			if err != nil {
				return nil, err
			}
			enc = e
		default:
			enc = embedding.NewHashingEncoder(cfg.EmbeddingDimension)
		}
		if cfg.EmbeddingSerialize {
			enc = embedding.Serialize(enc)
		}
		return enc, nil
	})
}

// newBackend returns nil when no credential is configured.
func newBackend(ctx context.Context, cfg *config.Config) (suggest.Backend, error) {
	if !cfg.LLMEnabled() {
		return nil, nil
	}
	switch cfg.LLMProvider {
	case config.LLMGemini:
		g, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini backend: %w", err)
		}
		return g, nil
	case config.LLMAnthropic:
		m, err := anthropic.New(anthropic.Config{
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic backend: %w", err)
		}
		return m, nil
	default:
		c, err := openai.NewChat(openai.Config{
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("openai backend: %w", err)
		}
		return c, nil
	}
}
