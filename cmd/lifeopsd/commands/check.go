package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/lifeops/health"
	"github.com/jonwraymond/lifeops/lifecycle"
)

// ErrUnhealthy is returned by check when any selected unit is unhealthy.
var ErrUnhealthy = errors.New("lifeopsd: unhealthy")

func newCheckCmd(configPath func() string) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Start services, run one healthcheck and print the report",
		Long: `Start the configured service units (no HTTP entrypoint), run a single
aggregated healthcheck, print the JSON report and stop the services.

Exits with status 1 when startup fails or any selected unit is unhealthy.

Examples:
  # Check every unit
  lifeopsd check --config /etc/lifeops.yaml

  # Check only the database
  lifeopsd check --only postgres`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter health.Filter
			if len(only) > 0 {
				filter = health.Only(only...)
			}
			return runCheck(cmd, configPath(), filter)
		},
	}
	cmd.Flags().StringSliceVar(&only, "only", nil, "comma-separated unit names to check")

	return cmd
}

func runCheck(cmd *cobra.Command, path string, filter health.Filter) (err error) {
	ctx := cmd.Context()

	cfg, obs, err := setup(ctx, path)
	if err != nil {
		return err
	}
	defer flushTelemetry(ctx, obs)

	st, err := assemble(cfg, obs, false)
	if err != nil {
		return err
	}

	if !st.manager.Start(ctx) {
		return lifecycle.ErrStartupFailed
	}
	defer func() {
		if !st.manager.Stop(context.WithoutCancel(ctx)) {
			err = errors.Join(err, lifecycle.ErrShutdownFailed)
		}
	}()

	resp := health.NewResponse(st.aggregator.Healthcheck(ctx, filter))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if resp.Status != health.StatusHealthy {
		return ErrUnhealthy
	}
	return nil
}
