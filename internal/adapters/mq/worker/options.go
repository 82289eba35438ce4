package worker

import (
	"github.com/okian/resumatch/internal/domain/dedupe"
	"github.com/okian/resumatch/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDeduper skips deliveries for candidates this process already handled.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *Worker) {
		w.dedupe = d
	}
}

// WithMaxAttempts bounds how often a retriable task is delivered.
func WithMaxAttempts(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// PoolOption applies a configuration option to a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger shared by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPoolDeduper shares d across all workers of the pool.
func WithPoolDeduper(d dedupe.Deduper) PoolOption {
	return func(p *Pool) {
		p.dedupe = d
	}
}

// WithPoolMaxAttempts sets the attempt limit for every worker.
func WithPoolMaxAttempts(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithDrain makes Shutdown close the queue and process what is buffered.
func WithDrain(enabled bool) PoolOption {
	return func(p *Pool) {
		p.drain = enabled
	}
}
