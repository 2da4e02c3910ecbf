package commands

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/lifeops/app"
	"github.com/jonwraymond/lifeops/config"
	"github.com/jonwraymond/lifeops/observe"
)

// telemetryFlushTimeout bounds exporter shutdown on exit.
const telemetryFlushTimeout = 5 * time.Second

func newRunCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start all units and serve until signaled",
		Long: `Start the configured units group by group, serve health and metrics over
HTTP, and stop everything in reverse order on SIGINT or SIGTERM.

A failed startup is rolled back and exits with status 1, as does a failed
shutdown.

Examples:
  # Run with defaults (HTTP on :8080, no database)
  lifeopsd run

  # Run with a config file and an environment override
  LIFEOPS_POSTGRES_DSN=postgres://app@db/app lifeopsd run --config /etc/lifeops.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHost(cmd.Context(), configPath(), func(code int) { os.Exit(code) })
		},
	}
}

func runHost(ctx context.Context, path string, exit app.ExitFunc) error {
	cfg, obs, err := setup(ctx, path)
	if err != nil {
		return err
	}
	flush := sync.OnceFunc(func() { flushTelemetry(ctx, obs) })
	defer flush()

	st, err := assemble(cfg, obs, true)
	if err != nil {
		return err
	}

	a := app.New(st.manager,
		app.WithLogger(obs.Logger()),
		app.WithExit(func(code int) {
			flush()
			exit(code)
		}),
	)
	return a.Run(ctx)
}

func setup(ctx context.Context, path string) (*config.Config, observe.Observer, error) {
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.ObserveConfig(Version))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return cfg, obs, nil
}

func flushTelemetry(ctx context.Context, obs observe.Observer) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlushTimeout)
	defer cancel()
	if err := obs.Shutdown(ctx); err != nil {
		obs.Logger().Error(ctx, "telemetry shutdown error", observe.F("error", err))
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
