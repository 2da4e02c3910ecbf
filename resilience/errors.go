package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when an operation's deadline elapsed before it settled.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrCanceled is returned when an operation was aborted by its caller
	// before it settled.
	ErrCanceled = errors.New("resilience: operation canceled")

	// ErrPanic is returned when an operation panicked.
	ErrPanic = errors.New("resilience: operation panicked")

	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
)

// ContextError converts the state of a finished context into a cancellation
// failure. Deadline expiry maps to ErrTimeout, anything else to ErrCanceled.
// Both wrap the underlying context error, so errors.Is works against either
// the sentinel or context.DeadlineExceeded / context.Canceled.
//
// Returns nil if ctx is not done.
func ContextError(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", abortSentinel(err), err)
}

func abortSentinel(ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrCanceled
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsAborted reports whether err carries ErrTimeout or ErrCanceled, i.e. the
// caller's context ended before the operation settled. A context error the
// operation raised on its own, such as a dial timeout from an internal
// deadline, is not an abort.
func IsAborted(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrCanceled)
}

// IsCanceled reports whether err is a cancellation failure.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}
