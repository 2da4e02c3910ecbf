package lifecycle

import "context"

// Startable is implemented by units that must be started before the next
// group can run. Start should honor ctx; it is called at most once per
// Manager.Start run.
type Startable interface {
	Start(ctx context.Context) error
}

// Stoppable is implemented by units that hold resources to release on
// shutdown. Shutdown should honor ctx.
type Stoppable interface {
	Shutdown(ctx context.Context) error
}

// StartFunc is an adapter to allow ordinary functions to be used as
// Startable units.
type StartFunc func(ctx context.Context) error

// Start calls f(ctx).
func (f StartFunc) Start(ctx context.Context) error {
	return f(ctx)
}

// ShutdownFunc is an adapter to allow ordinary functions to be used as
// Stoppable units.
type ShutdownFunc func(ctx context.Context) error

// Shutdown calls f(ctx).
func (f ShutdownFunc) Shutdown(ctx context.Context) error {
	return f(ctx)
}
