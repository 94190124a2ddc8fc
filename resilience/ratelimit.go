package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the sustained operations per second. Default: 100.
	Rate float64

	// Burst is the bucket size. Default: 10.
	Burst int

	// MaxWait is how long to wait for a token. Zero fails immediately.
	MaxWait time.Duration
}

// RateLimiter is a token bucket limiter.
type RateLimiter struct {
	limiter *rate.Limiter
	maxWait time.Duration
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
		maxWait: config.MaxWait,
	}
}

// Allow reports whether a token is available now and consumes it if so.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Execute runs op once a token is available.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.maxWait <= 0 {
		if !rl.limiter.Allow() {
			return ErrRateLimitExceeded
		}
		return op(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, rl.maxWait)
	err := rl.limiter.Wait(waitCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRateLimitExceeded
	}
	return op(ctx)
}
