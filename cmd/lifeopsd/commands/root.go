// Package commands implements the lifeopsd CLI.
package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "lifeopsd",
		Short: "lifeopsd - lifecycle and health host",
		Long: `lifeopsd starts the configured service units in order, serves their
aggregated health over HTTP and stops them in reverse order on SIGINT or
SIGTERM.

Configuration is read from --config (YAML) and LIFEOPS_* environment
variables, e.g. LIFEOPS_LIFECYCLE_STARTUP_TIMEOUT_MS=10000.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	configPath := func() string { return cfgFile }
	root.AddCommand(newRunCmd(configPath))
	root.AddCommand(newCheckCmd(configPath))
	root.AddCommand(newVersionCmd())
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
