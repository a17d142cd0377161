// Package limiter provides request rate limiting for the API surface.
package limiter

import (
	"golang.org/x/time/rate"

	"github.com/drforse/match/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	RPS   int // 0 means disabled
	Burst int // 0 means use RPS
}

// RateLimiter wraps a token bucket limiter. A zero-RPS limiter admits
// everything.
type RateLimiter struct {
	limiter *rate.Limiter
	enabled bool
}

// New creates a rate limiter from cfg.
func New(cfg Config) *RateLimiter {
	if cfg.RPS <= 0 {
		return &RateLimiter{enabled: false}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RPS
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), burst),
		enabled: true,
	}
}

// Allow reports whether one more request may proceed now.
func (l *RateLimiter) Allow() bool {
	if !l.enabled {
		return true
	}
	if !l.limiter.Allow() {
		metrics.RateLimitRequestsTotal.WithLabelValues("throttled").Inc()
		return false
	}
	metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
	return true
}
