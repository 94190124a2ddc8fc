package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig configures exponential-backoff retries.
type RetryConfig struct {
	// MaxAttempts counts the initial attempt. Default: 3.
	MaxAttempts int

	// InitialDelay is the first backoff. Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps a single backoff. Default: 5s.
	MaxDelay time.Duration

	// Multiplier grows the backoff between attempts. Default: 2.
	Multiplier float64

	// Jitter randomizes each backoff by up to ±25%.
	Jitter bool

	// RetryIf reports whether err is worth another attempt.
	// Default: every non-nil error.
	RetryIf func(err error) bool

	// OnRetry is called after a failed attempt, before sleeping.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-runs a failing operation with exponential backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	return &Retry{config: config}
}

// MaxAttempts returns the attempt budget, including the first attempt.
func (r *Retry) MaxAttempts() int { return r.config.MaxAttempts }

func (r *Retry) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialDelay
	b.MaxInterval = r.config.MaxDelay
	b.Multiplier = r.config.Multiplier
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0
	if r.config.Jitter {
		b.RandomizationFactor = 0.25
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.config.MaxAttempts-1)), ctx)
}

// Execute runs op until it succeeds, returns a non-retryable error, the
// attempt budget is spent, or ctx is done. The last error is returned
// unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err != nil && !r.config.RetryIf(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}
	}
	return backoff.RetryNotify(operation, r.policy(ctx), notify)
}
