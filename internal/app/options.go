package service

import (
	"time"

	"github.com/okian/resumatch/internal/adapters/mq/queue"
	"github.com/okian/resumatch/internal/adapters/repository"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/extract"
	"github.com/okian/resumatch/internal/domain/suggest"
	"github.com/okian/resumatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Defaults to an in-memory store.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithQueue sets the task queue. Defaults to an in-memory queue.
func WithQueue(q queue.Queue) Option {
	return func(svc *Service) {
		if q != nil {
			svc.queue = q
		}
	}
}

// WithEncoder sets the shared embedding handle. Defaults to feature hashing.
func WithEncoder(h *embedding.Handle) Option {
	return func(svc *Service) {
		if h != nil {
			svc.encoder = h
		}
	}
}

// WithExtractor replaces the document extractor.
func WithExtractor(e extract.Extractor) Option {
	return func(svc *Service) {
		if e != nil {
			svc.extractor = e
		}
	}
}

// WithSuggestionBackend enables model-generated suggestions.
func WithSuggestionBackend(b suggest.Backend) Option {
	return func(svc *Service) {
		svc.backend = b
	}
}

// WithSuggestionTimeout bounds each suggestion backend call.
func WithSuggestionTimeout(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.suggestTimeout = d
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(svc *Service) {
		if count > 0 {
			svc.workerCount = count
		}
	}
}

// WithWorkers controls whether Start runs the worker pool in this process.
func WithWorkers(enabled bool) Option {
	return func(svc *Service) {
		svc.runWorkers = enabled
	}
}

// WithQueueSize sets the capacity of the default in-memory queue.
func WithQueueSize(size int) Option {
	return func(svc *Service) {
		if size > 0 {
			svc.queueSize = size
		}
	}
}

// WithMaxAttempts bounds redelivery of tasks failing with retriable errors.
func WithMaxAttempts(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxAttempts = n
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(svc *Service) {
		if size > 0 {
			svc.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}
