package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Operation names used in span names and attributes.
const (
	OpProcess  = "process"
	OpUpstream = "upstream"
)

// CallMeta describes one instrumented call.
type CallMeta struct {
	Operation string // OpProcess or OpUpstream (required)
	Mode      string // operating mode, e.g. "hybrid"
	Kind      string // request kind, e.g. "completion"
}

// SpanName returns the deterministic span name for this call.
// Format: modeflow.process.<mode> or modeflow.upstream.<kind>.
func (m CallMeta) SpanName() string {
	qualifier := m.Mode
	if m.Operation == OpUpstream {
		qualifier = m.Kind
	}
	if qualifier == "" {
		return "modeflow." + m.Operation
	}
	return "modeflow." + m.Operation + "." + qualifier
}

// Validate reports whether the metadata names an operation.
func (m CallMeta) Validate() error {
	if m.Operation == "" {
		return ErrMissingOperation
	}
	return nil
}

func (m CallMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("modeflow.operation", m.Operation)}
	if m.Mode != "" {
		attrs = append(attrs, attribute.String("modeflow.mode", m.Mode))
	}
	if m.Kind != "" {
		attrs = append(attrs, attribute.String("modeflow.kind", m.Kind))
	}
	return attrs
}

// Fields returns the metadata as log fields.
func (m CallMeta) Fields() []Field {
	fields := []Field{F("operation", m.Operation)}
	if m.Mode != "" {
		fields = append(fields, F("mode", m.Mode))
	}
	if m.Kind != "" {
		fields = append(fields, F("kind", m.Kind))
	}
	return fields
}

// Tracer wraps OpenTelemetry tracing with call-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer over t. A nil t yields a no-op tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("modeflow.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(spanKind(meta)),
	)
}

func spanKind(meta CallMeta) trace.SpanKind {
	if meta.Operation == OpUpstream {
		return trace.SpanKindClient
	}
	return trace.SpanKindInternal
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("modeflow.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a Tracer whose spans are never recorded.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
