// Package cli holds the dockdesk cobra commands: the HTTP server and direct
// terminal renderings of the container operations.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bassista/dockdesk/internal/app"
	"github.com/bassista/dockdesk/internal/config"
	"github.com/bassista/dockdesk/internal/logger"
)

// options is shared by every subcommand through the persistent flags.
type options struct {
	configDir string
	output    string

	cfg *config.Config
}

// NewRootCommand builds the dockdesk command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dockdesk",
		Short: "dockdesk - a thin control surface over the docker CLI",
		Long: `dockdesk lists, runs and removes containers and images by driving the
container runtime binary, and streams build, exec and log output line by line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// keep stdout clean for table, json and yaml output
			if cmd.Name() != "serve" {
				logger.Logger.SetOutput(cmd.ErrOrStderr())
			}
			if _, err := parseOutput(opts.output); err != nil {
				return err
			}
			cfg, err := config.LoadConfig(opts.configDir)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := logger.Configure(cfg.Misc.LogLevel, cfg.Misc.LogFormat); err != nil {
				logger.WithComponent("main").Warnf("invalid log level '%s', keeping current: %v", cfg.Misc.LogLevel, err)
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config", "", "directory containing config.yaml (default: . and ./config)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", string(outputTable), "output format: table, json or yaml")

	root.AddCommand(
		newServeCommand(opts),
		newPsCommand(opts),
		newImagesCommand(opts),
		newStatsCommand(opts),
		newLogsCommand(opts),
		newBuildCommand(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// bootstrapListing is bootstrap for the commands that print the runtime's
// listings. A memory store built for a single command is always empty, so
// memory mode is refused instead of printing nothing.
func (o *options) bootstrapListing(command string) (*app.App, error) {
	if o.cfg.Runtime.Mode == config.RuntimeModeMemory {
		return nil, fmt.Errorf("%s reads the runtime binary and is not available with runtime.mode=%s; "+
			"memory state lives inside a running \"dockdesk serve\", query its HTTP API instead", command, config.RuntimeModeMemory)
	}
	return o.bootstrap()
}

// bootstrap builds the application for a one-shot command.
func (o *options) bootstrap() (*app.App, error) {
	a, err := app.Bootstrap(o.cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot init app: %w", err)
	}
	return a, nil
}
