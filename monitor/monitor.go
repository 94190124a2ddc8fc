package monitor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jonwraymond/modeflow/health"
	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/observe"
)

// Monitor keeps rolling request statistics for one dispatcher.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: recording never fails and never blocks on I/O.
type Monitor struct {
	cfg     Config
	metrics observe.RequestMetrics
	logger  observe.Logger
	sample  func() uint64

	mu       sync.Mutex
	total    int64
	hits     int64
	misses   int64
	failures int64
	slow     int64
	overall  *window
	perMode  map[mode.Mode]*window
	memory   uint64

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	started   bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithMetrics mirrors every sample into m.
func WithMetrics(m observe.RequestMetrics) Option {
	return func(mon *Monitor) {
		if m != nil {
			mon.metrics = m
		}
	}
}

// WithLogger sets the logger used by the sampling loop.
func WithLogger(l observe.Logger) Option {
	return func(mon *Monitor) {
		if l != nil {
			mon.logger = l
		}
	}
}

// New creates a Monitor.
func New(cfg Config, opts ...Option) *Monitor {
	cfg = cfg.withDefaults()
	m := &Monitor{
		cfg:     cfg,
		metrics: observe.NopMetrics(),
		logger:  observe.NopLogger(),
		sample:  heapAlloc,
		overall: newWindow(cfg.WindowSize),
		perMode: make(map[mode.Mode]*window, len(mode.All)),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

// Record records a successful request. cacheHit is true when the response
// came from the cache or from a call already in flight.
func (m *Monitor) Record(ctx context.Context, d time.Duration, cacheHit bool, md mode.Mode) {
	m.mu.Lock()
	if cacheHit {
		m.hits++
	} else {
		m.misses++
	}
	m.addLocked(d, md)
	m.mu.Unlock()

	m.metrics.RecordRequest(ctx, callMeta(md), d, cacheHit, nil)
}

// RecordFailure records a failed request. A failure missed the cache, so
// it counts as a miss.
func (m *Monitor) RecordFailure(ctx context.Context, d time.Duration, md mode.Mode, err error) {
	m.mu.Lock()
	m.misses++
	m.failures++
	m.addLocked(d, md)
	m.mu.Unlock()

	if err == nil {
		err = fmt.Errorf("monitor: failed request in %s mode", md)
	}
	m.metrics.RecordRequest(ctx, callMeta(md), d, false, err)
}

func callMeta(md mode.Mode) observe.CallMeta {
	return observe.CallMeta{Operation: observe.OpProcess, Mode: md.String()}
}

func (m *Monitor) addLocked(d time.Duration, md mode.Mode) {
	m.total++
	if d > m.cfg.SlowThreshold {
		m.slow++
	}
	m.overall.add(d)

	w, ok := m.perMode[md]
	if !ok {
		w = newWindow(m.cfg.ModeWindowSize)
		m.perMode[md] = w
	}
	w.add(d)
}

// SampleMemory records the current heap size and returns it.
func (m *Monitor) SampleMemory() uint64 {
	v := m.sample()
	m.mu.Lock()
	m.memory = v
	m.mu.Unlock()
	return v
}

// Report derives the current report.
func (m *Monitor) Report() Report {
	m.mu.Lock()
	r := Report{
		AverageResponseTime: m.overall.mean(),
		TotalRequests:       m.total,
		CacheHits:           m.hits,
		CacheMisses:         m.misses,
		FailedRequests:      m.failures,
		SlowRequests:        m.slow,
		MemoryUsageEstimate: m.memory,
		PerModeAverages:     make(map[mode.Mode]float64, len(m.perMode)),
		ModeTargetsMet:      make(map[mode.Mode]bool, len(m.perMode)),
		GeneratedAt:         time.Now(),
	}
	for md, w := range m.perMode {
		avg := w.mean()
		r.PerModeAverages[md] = avg
		if target, ok := m.cfg.Targets[md]; ok {
			r.ModeTargetsMet[md] = avg <= float64(target)/float64(time.Millisecond)
		}
	}
	m.mu.Unlock()

	r.CacheHitRate = percent(r.CacheHits, r.CacheHits+r.CacheMisses)
	r.SlowRequestPercentage = percent(r.SlowRequests, r.TotalRequests)
	r.Recommendations = recommendations(r, m.cfg)
	return r
}

// Health derives a health verdict from the current report.
func (m *Monitor) Health() HealthStatus {
	return assess(m.Report())
}

// Reset zeroes all counters and samples.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total, m.hits, m.misses, m.failures, m.slow, m.memory = 0, 0, 0, 0, 0, 0
	m.overall = newWindow(m.cfg.WindowSize)
	m.perMode = make(map[mode.Mode]*window, len(mode.All))
}

// Start samples memory immediately and then every MemorySampleInterval
// until Stop. Calling Start more than once has no further effect.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		m.mu.Lock()
		m.started = true
		m.mu.Unlock()

		m.SampleMemory()
		go m.loop()
	})
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.MemorySampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if v := m.SampleMemory(); v > m.cfg.MemoryCeiling {
				m.logger.Warn(context.Background(), "memory above ceiling",
					observe.F("heap_bytes", v), observe.F("ceiling_bytes", m.cfg.MemoryCeiling))
			}
		case <-m.stop:
			return
		}
	}
}

// Stop ends memory sampling and waits for the sampler to exit. Safe to call
// more than once, and before Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
	})
}

// Checker exposes the health verdict as a health.Checker named name.
func (m *Monitor) Checker(name string) health.Checker {
	return health.NewCheckerFunc(name, func(context.Context) health.Result {
		hs := m.Health()
		msg := "performance within thresholds"
		if len(hs.Reasons) > 0 {
			msg = hs.Reasons[0]
		}
		return health.Result{
			Status:    hs.Status,
			Message:   msg,
			Timestamp: hs.GeneratedAt,
			Details: map[string]any{
				"averageResponseTime": hs.AverageResponseTime,
				"cacheHitRate":        hs.CacheHitRate,
				"totalRequests":       hs.TotalRequests,
				"failedRequests":      hs.FailedRequests,
				"reasons":             hs.Reasons,
			},
		}
	})
}
