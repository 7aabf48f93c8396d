package api

import (
	"golang.org/x/time/rate"

	"github.com/okian/wastewise/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger handlers report server-side failures to.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWriteRateLimit limits write endpoints to rps requests per second per
// client IP with the given burst. rps <= 0 disables limiting.
func WithWriteRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = NewIPRateLimiter(rate.Limit(rps), burst)
	}
}
