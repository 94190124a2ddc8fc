package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/modeflow/health"
	"github.com/jonwraymond/modeflow/observe"
	"github.com/jonwraymond/modeflow/resilience"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// HTTPConfig configures HTTPClient. Zero numeric fields disable the pattern
// they govern; DefaultHTTPConfig returns the recommended values.
type HTTPConfig struct {
	// Endpoint is the completion URL. Required.
	Endpoint string `yaml:"endpoint"`

	// AttemptTimeout bounds each attempt.
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"`

	// RetryInitialDelay is the first backoff between attempts.
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`

	// CircuitMaxFailures opens the circuit after this many consecutive
	// failures.
	CircuitMaxFailures int `yaml:"circuit_max_failures"`

	// CircuitResetTimeout is how long an open circuit waits before probing.
	CircuitResetTimeout time.Duration `yaml:"circuit_reset_timeout"`

	// MaxConcurrent bounds in-flight calls.
	MaxConcurrent int `yaml:"max_concurrent"`

	// RateLimit is the sustained calls per second, with RateBurst headroom.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// Token configures the bearer token. An empty signing key sends none.
	Token TokenConfig `yaml:"token"`
}

// DefaultHTTPConfig returns the recommended client settings without an
// endpoint.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		AttemptTimeout:      10 * time.Second,
		MaxRetries:          3,
		RetryInitialDelay:   200 * time.Millisecond,
		CircuitMaxFailures:  5,
		CircuitResetTimeout: 30 * time.Second,
		MaxConcurrent:       32,
	}
}

// Validate checks the configuration.
func (c HTTPConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrMissingEndpoint
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("upstream: max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("upstream: rate_limit must not be negative, got %g", c.RateLimit)
	}
	return nil
}

// HTTPClient calls a JSON completion endpoint. Each call goes through rate
// limiting, a bulkhead, a circuit breaker, and retries with backoff, in
// that order, as configured.
type HTTPClient struct {
	cfg     HTTPConfig
	client  *http.Client
	signer  *TokenSigner
	exec    *resilience.Executor
	breaker *resilience.CircuitBreaker
	logger  observe.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger used for retry and circuit events.
func WithLogger(l observe.Logger) HTTPOption {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(cfg HTTPConfig, opts ...HTTPOption) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &HTTPClient{
		cfg:    cfg,
		client: &http.Client{},
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.Token.SigningKey != "" {
		signer, err := NewTokenSigner(cfg.Token)
		if err != nil {
			return nil, err
		}
		c.signer = signer
	}

	var layers []resilience.ExecutorOption
	if cfg.RateLimit > 0 {
		layers = append(layers, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:    cfg.RateLimit,
			Burst:   cfg.RateBurst,
			MaxWait: cfg.AttemptTimeout,
		})))
	}
	if cfg.MaxConcurrent > 0 {
		layers = append(layers, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.AttemptTimeout,
		})))
	}
	if cfg.CircuitMaxFailures > 0 {
		c.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:         "upstream",
			MaxFailures:  cfg.CircuitMaxFailures,
			ResetTimeout: cfg.CircuitResetTimeout,
			IsFailure:    countsAgainstCircuit,
			OnStateChange: func(from, to resilience.State) {
				c.logger.Warn(context.Background(), "upstream circuit changed state",
					observe.F("from", from.String()), observe.F("to", to.String()))
			},
		})
		layers = append(layers, resilience.WithCircuitBreaker(c.breaker))
	}
	if cfg.MaxRetries > 0 {
		layers = append(layers, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxRetries + 1,
			InitialDelay: cfg.RetryInitialDelay,
			Jitter:       true,
			RetryIf:      IsRetryable,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				c.logger.Debug(context.Background(), "retrying upstream call",
					observe.F("attempt", attempt), observe.F("delay_ms", delay.Milliseconds()), observe.F("error", err))
			},
		})))
	}
	layers = append(layers, resilience.WithTimeout(cfg.AttemptTimeout))
	c.exec = resilience.NewExecutor(layers...)

	return c, nil
}

// countsAgainstCircuit ignores caller mistakes and cancellations.
func countsAgainstCircuit(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ue *Error
	if errors.As(err, &ue) && ue.StatusCode >= 400 && ue.StatusCode < 500 && ue.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return err != nil
}

type completionResponse struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Invoke sends call to the endpoint and returns the completion text.
func (c *HTTPClient) Invoke(ctx context.Context, call Call) (string, error) {
	body, err := json.Marshal(call)
	if err != nil {
		return "", &Error{Op: "encode", Err: err}
	}

	out, err := resilience.Do(ctx, c.exec, func(ctx context.Context) (string, error) {
		return c.attempt(ctx, body)
	})
	if err != nil {
		return "", Wrap("invoke", err)
	}
	return out, nil
}

func (c *HTTPClient) attempt(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: "invoke", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.signer != nil {
		token, err := c.signer.Token()
		if err != nil {
			return "", &Error{Op: "sign", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Error{Op: "invoke", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &Error{
			Op:         "invoke",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode), strings.TrimSpace(string(msg))),
		}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &Error{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if decoded.Error != "" {
		return "", &Error{Op: "invoke", StatusCode: resp.StatusCode, Err: errors.New(decoded.Error)}
	}
	return decoded.Content, nil
}

// CircuitState returns the breaker state, or closed when no breaker is
// configured.
func (c *HTTPClient) CircuitState() resilience.State {
	if c.breaker == nil {
		return resilience.StateClosed
	}
	return c.breaker.State()
}

// Checker reports the circuit as a health check: closed is healthy,
// half-open degraded, open unhealthy.
func (c *HTTPClient) Checker(name string) health.Checker {
	return health.NewCheckerFunc(name, func(context.Context) health.Result {
		var res health.Result
		switch state := c.CircuitState(); state {
		case resilience.StateOpen:
			res = health.Unhealthy("upstream circuit open", resilience.ErrCircuitOpen)
		case resilience.StateHalfOpen:
			res = health.Degraded("upstream circuit probing")
		default:
			res = health.Healthy("upstream circuit closed")
		}
		if c.breaker != nil {
			m := c.breaker.Metrics()
			res = res.WithDetails(map[string]any{
				"state":               m.State.String(),
				"requests":            m.Requests,
				"consecutiveFailures": m.ConsecutiveFailures,
				"totalFailures":       m.TotalFailures,
			})
		}
		return res
	})
}

var _ Backend = (*HTTPClient)(nil)
