package observe

import (
	"context"
	"testing"
	"time"
)

func TestLoggerContract_NopWith(t *testing.T) {
	if NopLogger().With(F("k", "v")) == nil {
		t.Fatal("With should return a non-nil logger")
	}
}

func TestMetricsContract_NoPanic(t *testing.T) {
	m := NopMetrics()
	meta := CallMeta{Operation: OpProcess}
	m.RecordRequest(context.Background(), meta, time.Millisecond, true, nil)
	m.RecordUpstream(context.Background(), meta, time.Millisecond, nil)
}

func TestTracerContract_NoPanic(t *testing.T) {
	tracer := NopTracer()
	_, span := tracer.StartSpan(context.Background(), CallMeta{Operation: OpUpstream, Kind: "completion"})
	tracer.EndSpan(span, nil)

	if NewTracer(nil) == nil {
		t.Fatal("NewTracer(nil) should fall back to a no-op tracer")
	}
}

func TestMiddlewareFromObserver_Nil(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); err != ErrNilObserver {
		t.Fatalf("err = %v, want ErrNilObserver", err)
	}
}
