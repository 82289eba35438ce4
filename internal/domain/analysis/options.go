package analysis

import "github.com/okian/resumatch/pkg/logger"

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}
