package repository

import (
	"time"

	"github.com/okian/resumatch/pkg/logger"
)

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for CreatedAt and AnalyzedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// SQLOption applies a configuration option to the SQLStore.
type SQLOption func(*SQLStore)

// WithAutoMigrate creates or updates the tables on open.
func WithAutoMigrate(enabled bool) SQLOption {
	return func(s *SQLStore) {
		s.autoMigrate = enabled
	}
}

// WithSQLLogger sets the logger used for store diagnostics.
func WithSQLLogger(l logger.Logger) SQLOption {
	return func(s *SQLStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) SQLOption {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
