package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestUnitMeta_SpanName verifies span names for phase, group and unit levels.
func TestUnitMeta_SpanName(t *testing.T) {
	tests := []struct {
		name     string
		meta     UnitMeta
		expected string
	}{
		{
			name:     "phase only",
			meta:     UnitMeta{Phase: PhaseStart},
			expected: "start",
		},
		{
			name:     "group",
			meta:     UnitMeta{Phase: PhaseStart, Group: "service"},
			expected: "start:service",
		},
		{
			name:     "unit",
			meta:     UnitMeta{Phase: PhaseStop, Group: "entrypoint", Name: "http"},
			expected: "stop:entrypoint:http",
		},
		{
			name:     "healthcheck without group",
			meta:     UnitMeta{Phase: PhaseHealthcheck, Name: "db"},
			expected: "healthcheck:db",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.SpanName(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

// TestUnitMeta_Fields verifies optional parts are omitted from log fields.
func TestUnitMeta_Fields(t *testing.T) {
	fields := UnitMeta{Phase: PhaseStart, Name: "db"}.Fields()

	keys := make(map[string]any, len(fields))
	for _, f := range fields {
		keys[f.Key] = f.Value
	}
	if keys["phase"] != "start" || keys["unit"] != "db" {
		t.Errorf("unexpected fields: %v", keys)
	}
	if _, ok := keys["group"]; ok {
		t.Error("expected no group field")
	}
	if _, ok := keys["run_id"]; ok {
		t.Error("expected no run_id field")
	}
}

// TestTracer_SpanAttributes verifies all attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tr := NewTracer(tp.Tracer("test"))
	meta := UnitMeta{
		Phase: PhaseStart,
		Group: "service",
		Name:  "db",
		RunID: "run-1",
	}

	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Name() != "start:service:db" {
		t.Errorf("expected span name 'start:service:db', got %q", s.Name())
	}

	attrMap := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		attrMap[string(a.Key)] = a.Value
	}

	if v, ok := attrMap["unit.phase"]; !ok || v.AsString() != "start" {
		t.Errorf("expected unit.phase='start', got %v", v)
	}
	if v, ok := attrMap["unit.group"]; !ok || v.AsString() != "service" {
		t.Errorf("expected unit.group='service', got %v", v)
	}
	if v, ok := attrMap["unit.name"]; !ok || v.AsString() != "db" {
		t.Errorf("expected unit.name='db', got %v", v)
	}
	if v, ok := attrMap["run.id"]; !ok || v.AsString() != "run-1" {
		t.Errorf("expected run.id='run-1', got %v", v)
	}
	if v, ok := attrMap["unit.error"]; !ok || v.AsBool() {
		t.Errorf("expected unit.error=false, got %v", v)
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", s.Status().Code)
	}
}

// TestTracer_ContextPropagation verifies unit spans nest under group spans.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	groupCtx, groupSpan := tr.StartSpan(context.Background(), UnitMeta{Phase: PhaseStart, Group: "service"})
	_, unitSpan := tr.StartSpan(groupCtx, UnitMeta{Phase: PhaseStart, Group: "service", Name: "cache"})
	tr.EndSpan(unitSpan, nil)
	tr.EndSpan(groupSpan, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	var child sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "start:service:cache" {
			child = s
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}
	if child.Parent().SpanID() != groupSpan.SpanContext().SpanID() {
		t.Error("unit span should be a child of the group span")
	}
}

// TestTracer_ErrorRecording verifies error sets span status and attribute.
func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), UnitMeta{Phase: PhaseStart, Name: "failing"})
	tr.EndSpan(span, errors.New("connection refused"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}

	var unitError bool
	for _, a := range s.Attributes() {
		if string(a.Key) == "unit.error" {
			unitError = a.Value.AsBool()
		}
	}
	if !unitError {
		t.Error("expected unit.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

// TestNewTracer_Nil verifies a nil tracer yields a usable no-op.
func TestNewTracer_Nil(t *testing.T) {
	tr := NewTracer(nil)
	_, span := tr.StartSpan(context.Background(), UnitMeta{Phase: PhaseStop})
	tr.EndSpan(span, errors.New("ignored"))
}
