// Package lifecycle starts and stops groups of units in a deterministic,
// timeout bounded and cancellable way.
//
// A Unit is a named value that may implement Startable, Stoppable, both or
// neither. Units are collected in ordered Groups. Manager.Start starts the
// groups in order, all units of one group concurrently under a single
// StartupTimeout. If any unit fails, Start rolls back every unit that may be
// active and returns false. Manager.Stop shuts the groups down in reverse
// order and returns false if any unit failed to stop.
//
//	m := lifecycle.NewBuilder(lifecycle.WithLogger(logger)).
//	    AddService("postgres", pg).
//	    AddService("redis", rdb).
//	    AddEntrypoint("http", srv).
//	    WithHealthchecks(hb).
//	    Build()
//
//	if !m.Start(ctx) {
//	    // startup failed and was rolled back
//	}
//	defer m.Stop(context.Background())
//
// Cancellation is cooperative. A unit that ignores its context keeps running
// in the background; the manager stops waiting for it when the phase deadline
// passes and reports it as timed out.
package lifecycle
