package resilience

import (
	"context"
	"sync"
	"time"
)

// Executor composes resilience patterns around one operation.
//
// From outermost to innermost: rate limiter, bulkhead, circuit breaker,
// retry, per-attempt timeout. A circuit rejection is therefore never
// retried, and every retry attempt gets a fresh timeout.
type Executor struct {
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. With no options it runs op directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds each attempt. A non-positive d leaves attempts unbounded.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = NewTimeout(TimeoutConfig{Timeout: d})
		}
	}
}

type layer interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// layers lists the configured patterns, innermost first.
func (e *Executor) layers() []layer {
	var ls []layer
	if e.timeout != nil {
		ls = append(ls, e.timeout)
	}
	if e.retry != nil {
		ls = append(ls, e.retry)
	}
	if e.circuitBreaker != nil {
		ls = append(ls, e.circuitBreaker)
	}
	if e.bulkhead != nil {
		ls = append(ls, e.bulkhead)
	}
	if e.rateLimiter != nil {
		ls = append(ls, e.rateLimiter)
	}
	return ls
}

// Execute runs op through every configured pattern.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op
	for _, l := range e.layers() {
		inner, wrap := run, l
		run = func(ctx context.Context) error { return wrap.Execute(ctx, inner) }
	}
	return run(ctx)
}

// Do runs op through e and returns its result. A nil e runs op directly.
// A result produced after Do has returned, by an attempt abandoned on
// timeout, is discarded.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var (
		mu       sync.Mutex
		out      T
		returned bool
	)
	run := func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			mu.Lock()
			if !returned {
				out = v
			}
			mu.Unlock()
		}
		return err
	}

	var err error
	if e == nil {
		err = run(ctx)
	} else {
		err = e.Execute(ctx, run)
	}

	mu.Lock()
	defer mu.Unlock()
	returned = true
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
