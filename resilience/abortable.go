package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Abortable runs op and waits until it settles or ctx ends, whichever comes
// first.
//
// When ctx ends first, Abortable returns the cancellation failure produced by
// ContextError instead of op's own result. op is not interrupted: it keeps
// running in its goroutine and is expected to observe ctx itself. Its late
// result is discarded.
//
// When op settles first with an error wrapping the error of an already ended
// ctx, that error is tagged with ErrTimeout or ErrCanceled as well, so a unit
// that honors cancellation is classified like one that ignores it. Any other
// error, including one wrapping a context error of op's own making, is
// returned unchanged.
//
// op is always invoked, even if ctx is already done. A panic inside op is
// recovered and returned as an error wrapping ErrPanic.
func Abortable[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	type settled struct {
		val T
		err error
	}

	// Buffered so a late op never blocks after we stop listening.
	done := make(chan settled, 1)

	go func() {
		var s settled
		defer func() {
			if r := recover(); r != nil {
				s = settled{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
			done <- s
		}()
		s.val, s.err = op(ctx)
	}()

	select {
	case s := <-done:
		if ctxErr := ctx.Err(); s.err != nil && ctxErr != nil && errors.Is(s.err, ctxErr) && !IsAborted(s.err) {
			return s.val, fmt.Errorf("%w: %w", abortSentinel(ctxErr), s.err)
		}
		return s.val, s.err
	case <-ctx.Done():
		var zero T
		return zero, ContextError(ctx)
	}
}

// AbortableErr is Abortable for operations that only return an error.
func AbortableErr(ctx context.Context, op func(context.Context) error) error {
	_, err := Abortable(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
