package lifecycle

import (
	"errors"

	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/resilience"
)

// Outcome classifies how a unit operation settled.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
	OutcomeCanceled
)

// String returns the metric label of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return observe.OutcomeSucceeded
	case OutcomeFailed:
		return observe.OutcomeFailed
	case OutcomeTimedOut:
		return observe.OutcomeTimedOut
	case OutcomeCanceled:
		return observe.OutcomeCanceled
	default:
		return "unknown"
	}
}

// Classify maps an operation error onto an Outcome. Only errors tagged by
// the phase deadline or cancellation (resilience.ErrTimeout,
// resilience.ErrCanceled) count as timed out or canceled. A unit's own
// failure is OutcomeFailed even when it wraps a context error.
func Classify(err error) Outcome {
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

// maybeActive reports whether a unit with this start outcome may hold
// resources and so belongs in the rollback set.
func (o Outcome) maybeActive() bool {
	return o != OutcomeFailed
}
