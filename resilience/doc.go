// Package resilience provides the failure-handling patterns modeflow wraps
// around backend calls: a per-call timeout, exponential-backoff retry, a
// circuit breaker, a bulkhead, and a token bucket rate limiter, plus an
// Executor that composes them.
//
// The dispatcher applies only Timeout to backend calls. The HTTP upstream
// client composes the full set:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "upstream"})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//	text, err := resilience.Do(ctx, exec, invoke)
package resilience
