package observe

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/lifeops/resilience"
)

// UnitFunc is the signature of a single observed unit operation.
type UnitFunc func(ctx context.Context, meta UnitMeta) error

// Middleware wraps unit operations with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe UnitFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability
// components. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a UnitFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn UnitFunc) UnitFunc {
	return func(ctx context.Context, meta UnitMeta) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)

		outcome := OutcomeOf(err)
		m.metrics.RecordExecution(ctx, meta, duration, outcome)

		fields := append(meta.Fields(),
			Field{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			Field{Key: "outcome", Value: outcome},
		)
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
		}
		m.logger.Debug(ctx, "unit operation settled", fields...)

		return err
	}
}

// Run is shorthand for Wrap(fn)(ctx, meta).
func (m *Middleware) Run(ctx context.Context, meta UnitMeta, fn UnitFunc) error {
	return m.Wrap(fn)(ctx, meta)
}

// OutcomeOf maps an operation error onto an outcome label. Only the
// resilience abort sentinels count as timed out or canceled.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, resilience.ErrTimeout):
		return OutcomeTimedOut
	case errors.Is(err, resilience.ErrCanceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
