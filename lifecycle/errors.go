package lifecycle

import "errors"

var (
	// ErrStartupFailed indicates at least one unit failed to start and the
	// started units were rolled back.
	ErrStartupFailed = errors.New("lifecycle: startup failed")

	// ErrShutdownFailed indicates at least one unit failed to shut down.
	ErrShutdownFailed = errors.New("lifecycle: shutdown failed")

	// ErrInvalidConfig indicates a lifecycle configuration was rejected.
	ErrInvalidConfig = errors.New("lifecycle: invalid config")
)
