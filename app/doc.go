// Package app is the process boundary around a lifecycle.
//
// An App starts a lifecycle, blocks until a shutdown signal arrives or its
// context ends, and stops the lifecycle. Process exit is left to an ExitFunc
// supplied by the caller, so the lifecycle itself never exits the process.
//
//	a := app.New(manager,
//	    app.WithLogger(logger),
//	    app.WithExit(os.Exit),
//	)
//	_ = a.Run(ctx)
package app
