package resilience

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Settled is the outcome of one operation in a fan-out.
type Settled[T any] struct {
	Value T
	Err   error
}

// SettleValues runs fn for every index in [0, n) concurrently and waits until
// all of them have settled. Each call is bounded by ctx through Abortable, so
// a call that ignores cancellation is reported as a timeout or cancellation
// failure as soon as ctx ends.
//
// SettleValues never short-circuits: a failure in one call does not cancel or
// skip its siblings. The result slice is indexed like the input.
func SettleValues[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) []Settled[T] {
	out := make([]Settled[T], n)
	if n == 0 {
		return out
	}

	// A zero errgroup.Group has no derived context, so a failing member
	// never cancels the others.
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := Abortable(ctx, func(ctx context.Context) (T, error) {
				return fn(ctx, i)
			})
			out[i] = Settled[T]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Settle is SettleValues for operations that only return an error. The
// returned slice holds one error (or nil) per index.
func Settle(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	settled := SettleValues(ctx, n, func(ctx context.Context, i int) (struct{}, error) {
		return struct{}{}, fn(ctx, i)
	})

	errs := make([]error, n)
	for i, s := range settled {
		errs[i] = s.Err
	}
	return errs
}
