// Package resilience provides the cancellation and fan-out primitives that
// bound unit lifecycle operations and healthchecks.
//
// # Primitives
//
//   - Abortable: races an operation against its context. The caller gets
//     a result as soon as either settles; a late operation result is dropped.
//
//   - Settle / SettleValues: runs N operations concurrently and waits for
//     all of them. One failure never cancels the rest.
//
//   - Timeout: bounds a single operation with a deadline.
//
//   - Retry: retries a failed operation with exponential, linear or
//     constant backoff.
//
// Cancellation failures are classified with IsTimeout and IsCanceled. Both
// accept the package sentinels as well as bare context errors. IsAborted
// accepts only the sentinels: Abortable adds them when the caller's context
// ended, so an operation failing on a deadline of its own is not an abort.
//
// # Usage
//
//	errs := resilience.Settle(ctx, len(units), func(ctx context.Context, i int) error {
//	    return units[i].Start(ctx)
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 100 * time.Millisecond,
//	    })),
//	    resilience.WithTimeout(2*time.Second),
//	)
//	err := executor.Execute(ctx, pool.Ping)
package resilience
