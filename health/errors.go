package health

import "errors"

var (
	// ErrCheckFailed indicates a health check reported unhealthy.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check did not settle before the
	// aggregator's deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no check is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoCheckers indicates no checks are registered.
	ErrNoCheckers = errors.New("health: no checkers registered")
)
