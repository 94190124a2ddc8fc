package observe

import (
	"context"
	"io"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func BenchmarkJSONLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "request processed", F("iteration", i), F("mode", "hybrid"))
	}
}

func BenchmarkZapLogger_Info(b *testing.B) {
	logger := NewZapLogger("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "request processed", F("iteration", i), F("mode", "hybrid"))
	}
}

func BenchmarkJSONLogger_Filtered(b *testing.B) {
	logger := NewLoggerWithWriter("error", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "dropped", F("iteration", i))
	}
}

func BenchmarkCallMeta_SpanName(b *testing.B) {
	meta := CallMeta{Operation: OpUpstream, Mode: "hybrid", Kind: "completion"}
	for i := 0; i < b.N; i++ {
		_ = meta.SpanName()
	}
}

func BenchmarkRequestMetrics_RecordRequest(b *testing.B) {
	m, err := NewRequestMetrics(noop.NewMeterProvider().Meter("bench"))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	meta := CallMeta{Operation: OpProcess, Mode: "manual"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordRequest(ctx, meta, time.Millisecond, i%2 == 0, nil)
	}
}

func BenchmarkMiddleware_Wrap(b *testing.B) {
	mw := NewMiddleware(NopTracer(), NopMetrics(), NopLogger())
	fn := mw.Wrap(func(context.Context, CallMeta) (string, error) { return "ok", nil })
	ctx := context.Background()
	meta := CallMeta{Operation: OpUpstream, Kind: "completion"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = fn(ctx, meta)
	}
}
