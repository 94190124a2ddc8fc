package telemetry

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jonwraymond/modeflow/observe"
)

// Event names recorded by the dispatcher.
const (
	EventCacheHit     = "request.cache_hit"
	EventProcessed    = "request.processed"
	EventFailed       = "request.failed"
	EventHashDegraded = "hash.degraded"
)

// Payload is the event body. Values must be JSON-encodable.
type Payload map[string]any

// Sink receives fire-and-forget instrumentation events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Record must not block on ctx or on I/O for long.
// - Errors: Record reports nothing; delivery failures stay inside the sink.
type Sink interface {
	Record(ctx context.Context, event string, payload Payload)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event string, payload Payload)

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, event string, payload Payload) {
	f(ctx, event, payload)
}

type nopSink struct{}

func (nopSink) Record(context.Context, string, Payload) {}

// Nop returns a Sink that drops every event.
func Nop() Sink { return nopSink{} }

// LogSink writes each event as one structured log line.
type LogSink struct {
	logger observe.Logger
}

// NewLogSink creates a LogSink. A nil logger drops events.
func NewLogSink(logger observe.Logger) *LogSink {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &LogSink{logger: logger}
}

// Record logs event at info level with the payload as fields.
func (s *LogSink) Record(ctx context.Context, event string, payload Payload) {
	fields := make([]observe.Field, 0, len(payload)+1)
	fields = append(fields, observe.F("event", event))
	for _, k := range slices.Sorted(maps.Keys(payload)) {
		fields = append(fields, observe.F(k, payload[k]))
	}
	s.logger.Info(ctx, "telemetry event", fields...)
}

type multiSink []Sink

// Multi fans every event out to sinks in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Record(ctx context.Context, event string, payload Payload) {
	for _, s := range m {
		s.Record(ctx, event, payload)
	}
}

type safeSink struct {
	next   Sink
	logger observe.Logger
}

// Safe wraps s so a panic inside it is recovered and logged instead of
// reaching the caller.
func Safe(s Sink, logger observe.Logger) Sink {
	if s == nil {
		return Nop()
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &safeSink{next: s, logger: logger}
}

func (s *safeSink) Record(ctx context.Context, event string, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "telemetry sink panicked",
				observe.F("event", event), observe.F("panic", fmt.Sprint(r)))
		}
	}()
	s.next.Record(ctx, event, payload)
}
