package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bassista/dockdesk/internal/events"
	"github.com/bassista/dockdesk/internal/process"
	"github.com/bassista/dockdesk/internal/runtime"
)

func newLogsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <container>",
		Short: "Follow a container's logs until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			streamer := runtime.NewStreamer(process.NewInvoker(opts.cfg.Runtime.Binary), events.NewWriterSink(cmd.OutOrStdout()))
			task, err := streamer.Logs(ctx, args[0])
			if err != nil {
				return err
			}
			// an interrupted follow is a normal end
			return task.Wait()
		},
	}
}
