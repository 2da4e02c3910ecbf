package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonwraymond/lifeops/lifecycle"
	"github.com/jonwraymond/lifeops/observe"
)

// Lifecycle is the part of lifecycle.Manager an App drives.
type Lifecycle interface {
	Start(ctx context.Context) bool
	Stop(ctx context.Context) bool
}

// ExitFunc is called with a non-zero code when startup or shutdown fails.
type ExitFunc func(code int)

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSignals sets the signals that trigger shutdown.
// Default: SIGINT, SIGTERM
func WithSignals(sigs ...os.Signal) Option {
	return func(a *App) {
		a.signals = sigs
	}
}

// WithExit sets the exit callback. By default failures are only returned.
func WithExit(fn ExitFunc) Option {
	return func(a *App) {
		a.exit = fn
	}
}

// App runs a lifecycle until a signal arrives or its context ends.
type App struct {
	lc      Lifecycle
	logger  observe.Logger
	signals []os.Signal
	exit    ExitFunc
}

// New creates an App around lc.
func New(lc Lifecycle, opts ...Option) *App {
	a := &App{
		lc:      lc,
		logger:  observe.NopLogger(),
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		exit:    func(int) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the lifecycle, waits for a shutdown signal or ctx to end, then
// stops it. A failed start has already been rolled back by the lifecycle.
//
// On failure the exit callback receives 1 and Run returns
// lifecycle.ErrStartupFailed or lifecycle.ErrShutdownFailed.
func (a *App) Run(ctx context.Context) error {
	// Signals received during startup trigger shutdown right after it.
	sigCh := make(chan os.Signal, 1)
	if len(a.signals) > 0 {
		signal.Notify(sigCh, a.signals...)
		defer signal.Stop(sigCh)
	}

	if !a.lc.Start(ctx) {
		a.logger.Error(ctx, "Startup failed")
		a.exit(1)
		return lifecycle.ErrStartupFailed
	}

	select {
	case sig := <-sigCh:
		a.logger.Info(ctx, fmt.Sprintf("Received signal %s, shutting down...", sig), observe.F("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info(ctx, "Context done, shutting down...", observe.F("error", ctx.Err()))
	}

	if !a.lc.Stop(context.WithoutCancel(ctx)) {
		a.logger.Error(ctx, "Shutdown failed")
		a.exit(1)
		return lifecycle.ErrShutdownFailed
	}

	a.logger.Info(ctx, "Shutdown complete")
	return nil
}
