package api

import "github.com/okian/resumatch/pkg/logger"

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps the request body of POST /api/v1/analyze.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithCORSOrigins enables CORS for the listed origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
