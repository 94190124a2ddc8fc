package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/modeflow/cache"
	"github.com/jonwraymond/modeflow/debounce"
	"github.com/jonwraymond/modeflow/health"
	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/monitor"
	"github.com/jonwraymond/modeflow/observe"
	"github.com/jonwraymond/modeflow/request"
	"github.com/jonwraymond/modeflow/resilience"
	"github.com/jonwraymond/modeflow/telemetry"
	"github.com/jonwraymond/modeflow/upstream"
)

var (
	// ErrClosed is returned by Process after Cleanup.
	ErrClosed = errors.New("dispatch: dispatcher closed")

	// ErrNilBackend indicates New was given no backend.
	ErrNilBackend = errors.New("dispatch: backend is nil")
)

// source records where a response came from.
type source int

const (
	sourceExecuted source = iota
	sourceCoalesced
	sourceCache
)

// Dispatcher validates, deduplicates, and routes requests by mode. It owns
// its cache, debouncer, and monitor; nothing is shared between dispatchers.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: ctx bounds the caller's wait. A backend call already started
//   is bounded by RequestTimeout, not by any one caller.
// - Errors: *request.ValidationError for bad input, *upstream.Error for
//   backend failures and timeouts, ErrClosed after Cleanup.
type Dispatcher struct {
	cfg       Config
	backend   upstream.Backend
	keyer     cache.Keyer
	cache     *cache.MemoryCache
	debouncer *debounce.Debouncer[request.Response]
	monitor   *monitor.Monitor
	exec      *resilience.Executor
	sink      telemetry.Sink
	logger    observe.Logger
	tracer    observe.Tracer
	metrics   observe.RequestMetrics

	closeOnce sync.Once
	closed    atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTelemetry sets the telemetry sink. Panics inside it are recovered.
func WithTelemetry(s telemetry.Sink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sink = s
		}
	}
}

// WithTracer traces every processed request.
func WithTracer(t observe.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithMetrics mirrors monitor samples into OpenTelemetry instruments.
func WithMetrics(m observe.RequestMetrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithKeyer replaces the default request and context hasher.
func WithKeyer(k cache.Keyer) Option {
	return func(d *Dispatcher) {
		if k != nil {
			d.keyer = k
		}
	}
}

// New creates a Dispatcher and starts its cache sweep and memory sampling.
// Call Cleanup to stop them.
func New(backend upstream.Backend, cfg Config, opts ...Option) (*Dispatcher, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		cfg:     cfg,
		backend: backend,
		keyer:   cache.NewDefaultKeyer(),
		sink:    telemetry.Nop(),
		logger:  observe.NopLogger(),
		tracer:  observe.NopTracer(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(observe.F("component", "dispatch"))
	d.sink = telemetry.Safe(d.sink, d.logger)

	policy := cache.DefaultPolicy()
	policy.TTL = cfg.CacheTTL
	policy.MaxEntries = cfg.MaxCacheSize
	policy.CleanupInterval = cfg.CleanupInterval
	d.cache = cache.NewMemoryCache(policy)

	delay := cfg.DebounceDelay
	if delay == 0 {
		delay = -1
	}
	d.debouncer = debounce.New[request.Response](debounce.Config{Delay: delay})

	d.monitor = monitor.New(monitor.Config{
		SlowThreshold:        cfg.SlowRequestThreshold,
		MemorySampleInterval: cfg.MemorySampleInterval,
		MemoryCeiling:        cfg.MemoryCeiling,
	}, monitor.WithMetrics(d.metrics), monitor.WithLogger(d.logger))

	d.exec = resilience.NewExecutor(resilience.WithTimeout(cfg.RequestTimeout))

	d.cache.Start()
	d.monitor.Start()
	return d, nil
}

// Process handles one request. Invalid input fails before any cache,
// debounce, or backend work. Every other outcome, success or failure, is
// recorded by the monitor before Process returns.
func (d *Dispatcher) Process(ctx context.Context, req request.Request, wctx request.WritingContext, m mode.Mode) (request.Response, error) {
	if d.closed.Load() {
		return request.Response{}, ErrClosed
	}
	if err := request.Validate(req, wctx, m); err != nil {
		return request.Response{}, err
	}

	start := time.Now()
	meta := observe.CallMeta{Operation: observe.OpProcess, Mode: m.String(), Kind: string(req.Kind)}
	ctx, span := d.tracer.StartSpan(ctx, meta)

	resp, src, err := d.process(ctx, req, wctx, m)

	elapsed := time.Since(start)
	d.tracer.EndSpan(span, err)

	payload := telemetry.Payload{
		"mode":        m.String(),
		"kind":        string(req.Kind),
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		d.monitor.RecordFailure(ctx, elapsed, m, err)
		payload["error"] = err.Error()
		payload["timeout"] = upstream.IsTimeout(err)
		d.sink.Record(ctx, telemetry.EventFailed, payload)
		d.logger.Error(ctx, "request failed", append(meta.Fields(),
			observe.F("duration_ms", elapsed.Milliseconds()), observe.F("error", err))...)
		return request.Response{}, err
	}

	hit := src != sourceExecuted
	d.monitor.Record(ctx, elapsed, hit, m)
	payload["cache_hit"] = hit
	payload["response_type"] = string(resp.Type)
	if src == sourceCache {
		d.sink.Record(ctx, telemetry.EventCacheHit, payload)
	} else {
		payload["coalesced"] = src == sourceCoalesced
		d.sink.Record(ctx, telemetry.EventProcessed, payload)
	}
	return resp, nil
}

func (d *Dispatcher) process(ctx context.Context, req request.Request, wctx request.WritingContext, m mode.Mode) (request.Response, source, error) {
	contextHash := d.hash(ctx, "context", func() (string, error) { return d.keyer.HashContext(wctx) })
	requestHash := d.hash(ctx, "request", func() (string, error) { return d.keyer.HashRequest(req) })

	key := cache.Key(m, requestHash, contextHash)
	if resp, ok := d.cache.Get(ctx, key); ok {
		return resp, sourceCache, nil
	}

	debounceKey := key
	if d.cfg.CoarseDebounce {
		debounceKey = cache.DebounceKey(m, req.Kind, contextHash)
	}

	entry := cache.EntryMeta{Mode: m, ContextHash: contextHash, RequestHash: requestHash}
	resp, joined, err := d.debouncer.Run(ctx, debounceKey, func(ctx context.Context) (request.Response, error) {
		resp, err := d.execute(ctx, req, wctx, m, contextHash)
		if err != nil {
			return resp, err
		}
		if d.closed.Load() {
			return resp, nil
		}
		if err := d.cache.Set(ctx, key, resp, entry); err != nil {
			d.logger.Warn(ctx, "response not cached", observe.F("error", err))
		}
		return resp, nil
	})
	if errors.Is(err, debounce.ErrClosed) {
		err = ErrClosed
	}
	if err != nil {
		return request.Response{}, sourceExecuted, err
	}

	src := sourceExecuted
	if joined {
		src = sourceCoalesced
	}
	return resp.Clone(), src, nil
}

// hash runs h and absorbs a degraded hash: the sentinel is used as the
// key part and the failure is logged and reported, never returned.
func (d *Dispatcher) hash(ctx context.Context, target string, h func() (string, error)) string {
	sum, err := h()
	if err != nil {
		d.logger.Warn(ctx, "hash degraded to sentinel", observe.F("target", target), observe.F("error", err))
		d.sink.Record(ctx, telemetry.EventHashDegraded, telemetry.Payload{"target": target})
		return cache.SentinelHash
	}
	return sum
}

// execute runs the mode logic. It is the only place the backend is called.
func (d *Dispatcher) execute(ctx context.Context, req request.Request, wctx request.WritingContext, m mode.Mode, contextHash string) (request.Response, error) {
	cfg, ok := mode.ConfigurationFor(m)
	if !ok {
		return request.Response{}, &request.ValidationError{Field: "mode", Reason: "unknown mode"}
	}
	aug := augment(req, cfg)
	meta := request.Metadata{
		Mode:              m,
		InitiativeLevel:   cfg.InitiativeLevel,
		UserControlLevel:  cfg.UserControlLevel,
		InterventionStyle: cfg.InterventionStyle,
	}

	if m == mode.Manual && !req.ExplicitlyUserInitiated {
		return request.Silent(meta), nil
	}

	content, err := d.invoke(ctx, upstream.Call{
		Kind:            req.Kind,
		Content:         req.Content,
		ExperienceLevel: wctx.UserExperience,
		Access: upstream.Access{
			Mode:          m,
			Configuration: cfg,
			Augmentation:  aug,
			ContextHash:   contextHash,
		},
	})
	if err != nil {
		return request.Response{}, err
	}

	switch m {
	case mode.Manual:
		return request.Content(meta, content, requiresApproval(m)), nil
	case mode.Hybrid:
		return request.WithSuggestions(meta, content, contextualSuggestions(req, wctx, aug), requiresApproval(m)), nil
	default:
		return request.WithEnhancements(meta, content, proactiveEnhancements(req, wctx, cfg, aug), requiresApproval(m)), nil
	}
}

// invoke calls the backend under RequestTimeout. Every failure, including
// the timeout, comes back as an *upstream.Error.
func (d *Dispatcher) invoke(ctx context.Context, call upstream.Call) (string, error) {
	out, err := resilience.Do(ctx, d.exec, func(ctx context.Context) (string, error) {
		return d.backend.Invoke(ctx, call)
	})
	if err != nil {
		return "", upstream.Wrap("invoke", err)
	}
	return out, nil
}

// PerformanceReport returns the current performance report.
func (d *Dispatcher) PerformanceReport() monitor.Report {
	return d.monitor.Report()
}

// HealthStatus returns the report with a health verdict.
func (d *Dispatcher) HealthStatus() monitor.HealthStatus {
	return d.monitor.Health()
}

// ResetMetrics zeroes the performance counters.
func (d *Dispatcher) ResetMetrics() {
	d.monitor.Reset()
}

// CacheStats returns the cache counters.
func (d *Dispatcher) CacheStats() cache.Stats {
	return d.cache.Stats()
}

// Pending returns the number of scheduled or running backend executions.
func (d *Dispatcher) Pending() int {
	return d.debouncer.Pending()
}

// Checker exposes HealthStatus as a health.Checker named "dispatcher".
func (d *Dispatcher) Checker() health.Checker {
	return d.monitor.Checker("dispatcher")
}

// ModeConfiguration returns the behavior profile of m.
func (d *Dispatcher) ModeConfiguration(m mode.Mode) (mode.Configuration, error) {
	cfg, ok := mode.ConfigurationFor(m)
	if !ok {
		return mode.Configuration{}, fmt.Errorf("%w: %d", mode.ErrUnknownMode, int(m))
	}
	return cfg, nil
}

// Config returns the configuration the dispatcher was built with.
func (d *Dispatcher) Config() Config { return d.cfg }

// Cleanup cancels scheduled executions, stops background work, and drops
// cached responses. Executions already calling the backend finish for
// their waiters. Safe to call more than once.
func (d *Dispatcher) Cleanup() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.debouncer.Cleanup()
		d.cache.Destroy()
		d.monitor.Stop()
	})
}
