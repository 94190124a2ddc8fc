package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Instrument names.
const (
	MetricRequestTotal     = "modeflow.request.total"
	MetricRequestErrors    = "modeflow.request.errors"
	MetricCacheHits        = "modeflow.cache.hits"
	MetricRequestDuration  = "modeflow.request.duration_ms"
	MetricUpstreamCalls    = "modeflow.upstream.calls"
	MetricUpstreamDuration = "modeflow.upstream.duration_ms"
)

// RequestMetrics records request and upstream metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type RequestMetrics interface {
	// RecordRequest records one processed request. A failed request has a
	// non-nil err and is never a cache hit.
	RecordRequest(ctx context.Context, meta CallMeta, duration time.Duration, cacheHit bool, err error)

	// RecordUpstream records one backend invocation.
	RecordUpstream(ctx context.Context, meta CallMeta, duration time.Duration, err error)
}

type requestMetrics struct {
	total            metric.Int64Counter
	errors           metric.Int64Counter
	cacheHits        metric.Int64Counter
	duration         metric.Float64Histogram
	upstreamCalls    metric.Int64Counter
	upstreamDuration metric.Float64Histogram
}

// NewRequestMetrics creates the modeflow instruments on meter. A nil meter
// yields no-op instruments.
func NewRequestMetrics(meter metric.Meter) (RequestMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	m := &requestMetrics{}
	var err error

	if m.total, err = meter.Int64Counter(MetricRequestTotal,
		metric.WithDescription("Total number of processed requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.errors, err = meter.Int64Counter(MetricRequestErrors,
		metric.WithDescription("Total number of failed requests"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.cacheHits, err = meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Requests served from the cache or a coalesced call"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.upstreamCalls, err = meter.Int64Counter(MetricUpstreamCalls,
		metric.WithDescription("Total number of backend invocations"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.upstreamDuration, err = meter.Float64Histogram(MetricUpstreamDuration,
		metric.WithDescription("Backend invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *requestMetrics) RecordRequest(ctx context.Context, meta CallMeta, duration time.Duration, cacheHit bool, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.total.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	if cacheHit {
		m.cacheHits.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, durationMillis(duration), opt)
}

func (m *requestMetrics) RecordUpstream(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	attrs := append(meta.attributes(), attribute.Bool("error", err != nil))
	opt := metric.WithAttributes(attrs...)

	m.upstreamCalls.Add(ctx, 1, opt)
	m.upstreamDuration.Record(ctx, durationMillis(duration), opt)
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type noopMetrics struct{}

// NopMetrics returns RequestMetrics that record nothing.
func NopMetrics() RequestMetrics { return noopMetrics{} }

func (noopMetrics) RecordRequest(context.Context, CallMeta, time.Duration, bool, error) {}

func (noopMetrics) RecordUpstream(context.Context, CallMeta, time.Duration, error) {}
