package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutor_NoPatterns(t *testing.T) {
	calls := 0
	err := NewExecutor().Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestExecutor_RetryWithPerAttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	e := NewExecutor(
		WithRetry(NewRetry(fastRetry(3))),
		WithTimeout(20*time.Millisecond),
	)

	err := e.Execute(context.Background(), func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want success on second attempt", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestExecutor_CircuitRejectionIsNotRetried(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute})
	_ = cb.Execute(context.Background(), failing(errors.New("trip")))

	var calls atomic.Int32
	e := NewExecutor(WithCircuitBreaker(cb), WithRetry(NewRetry(fastRetry(3))))
	err := e.Execute(context.Background(), func(context.Context) error {
		calls.Add(1)
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestExecutor_RateLimiterOutermost(t *testing.T) {
	e := NewExecutor(
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1})),
		WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 5})),
	)
	if err := e.Execute(context.Background(), succeeding); err != nil {
		t.Fatalf("first err = %v", err)
	}
	if err := e.Execute(context.Background(), succeeding); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("second err = %v, want ErrRateLimitExceeded", err)
	}
}

func TestDo_ReturnsResult(t *testing.T) {
	e := NewExecutor(WithRetry(NewRetry(fastRetry(2))))
	attempt := 0
	got, err := Do(context.Background(), e, func(context.Context) (string, error) {
		attempt++
		if attempt == 1 {
			return "", errors.New("transient")
		}
		return "text", nil
	})
	if err != nil || got != "text" {
		t.Errorf("Do() = (%q, %v), want (text, nil)", got, err)
	}
}

func TestDo_NilExecutorAndError(t *testing.T) {
	boom := errors.New("boom")
	got, err := Do(context.Background(), nil, func(context.Context) (int, error) { return 7, boom })
	if got != 0 || err != boom {
		t.Errorf("Do() = (%d, %v), want (0, boom)", got, err)
	}
}
