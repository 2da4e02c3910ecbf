package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels recorded with every unit operation.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeTimedOut  = "timed_out"
	OutcomeCanceled  = "canceled"
)

// Metrics records execution metrics for unit operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordExecution records one unit operation with its duration and
	// outcome label.
	RecordExecution(ctx context.Context, meta UnitMeta, duration time.Duration, outcome string)
}

type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with the given meter.
//
// Instruments: lifecycle.unit.total, lifecycle.unit.errors and
// lifecycle.unit.duration_ms, attributed by unit.phase, unit.group,
// unit.name and outcome.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"lifecycle.unit.total",
		metric.WithDescription("Total number of unit operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"lifecycle.unit.errors",
		metric.WithDescription("Total number of unit operations that did not succeed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"lifecycle.unit.duration_ms",
		metric.WithDescription("Unit operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordExecution(ctx context.Context, meta UnitMeta, duration time.Duration, outcome string) {
	attrs := append(meta.attributes(), attribute.String("outcome", outcome))
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)

	if outcome != OutcomeSucceeded {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

type noopMetrics struct{}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordExecution(ctx context.Context, meta UnitMeta, duration time.Duration, outcome string) {
}
