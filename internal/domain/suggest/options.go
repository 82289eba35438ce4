package suggest

import (
	"time"

	"github.com/okian/resumatch/pkg/logger"
)

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}
