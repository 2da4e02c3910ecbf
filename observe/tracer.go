package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Phases of a unit operation.
const (
	PhaseStart       = "start"
	PhaseStop        = "stop"
	PhaseHealthcheck = "healthcheck"
)

// UnitMeta identifies a unit operation for telemetry purposes.
//
// Group and Name are optional so the same type can describe a whole phase
// ("start"), one group within it ("start:service") or a single unit
// ("start:service:db").
type UnitMeta struct {
	Phase string // start|stop|healthcheck (required)
	Group string // group label (optional)
	Name  string // unit name (optional)
	RunID string // correlates every span and entry of one Start or Stop run
}

// SpanName returns the deterministic span name: the non-empty parts of
// phase, group and name joined by ':'.
func (m UnitMeta) SpanName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Phase, m.Group, m.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}

// Fields returns the metadata as log fields.
func (m UnitMeta) Fields() []Field {
	fields := []Field{{Key: "phase", Value: m.Phase}}
	if m.Group != "" {
		fields = append(fields, Field{Key: "group", Value: m.Group})
	}
	if m.Name != "" {
		fields = append(fields, Field{Key: "unit", Value: m.Name})
	}
	if m.RunID != "" {
		fields = append(fields, Field{Key: "run_id", Value: m.RunID})
	}
	return fields
}

func (m UnitMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("unit.phase", m.Phase),
	}
	if m.Group != "" {
		attrs = append(attrs, attribute.String("unit.group", m.Group))
	}
	if m.Name != "" {
		attrs = append(attrs, attribute.String("unit.name", m.Name))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with unit-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a unit operation.
	StartSpan(ctx context.Context, meta UnitMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
// A nil tracer yields a no-op Tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NoopTracer()
	}
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with unit metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta UnitMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.RunID != "" {
		attrs = append(attrs, attribute.String("run.id", meta.RunID))
	}
	attrs = append(attrs, attribute.Bool("unit.error", false))

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("unit.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NoopTracer returns a tracer that records nothing.
func NoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta UnitMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
