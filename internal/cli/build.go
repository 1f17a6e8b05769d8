package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bassista/dockdesk/internal/events"
	"github.com/bassista/dockdesk/internal/process"
	"github.com/bassista/dockdesk/internal/runtime"
)

func newBuildCommand(opts *options) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Build an image, printing the build output line by line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			streamer := runtime.NewStreamer(process.NewInvoker(opts.cfg.Runtime.Binary), events.NewWriterSink(cmd.OutOrStdout()))
			task, err := streamer.Build(ctx, args[0], tag)
			if err != nil {
				return err
			}
			if err := task.Wait(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), runningColor("built "+tag))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "name:tag for the built image")
	_ = cmd.MarkFlagRequired("tag")
	return cmd
}
