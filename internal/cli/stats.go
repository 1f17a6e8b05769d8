package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bassista/dockdesk/internal/app"
	"github.com/bassista/dockdesk/internal/model"
)

func newStatsCommand(opts *options) *cobra.Command {
	var perContainer bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show container and image counts, or per-container usage with --containers",
		Long: `Show container and image counts from the runtime binary, or a usage
sample per running container with --containers.

The counts are not available with runtime.mode=memory: that state lives only
inside a running "dockdesk serve" and is reachable through GET /api/stats.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var a *app.App
			var err error
			if perContainer {
				// usage samples always come from the binary
				a, err = opts.bootstrap()
			} else {
				a, err = opts.bootstrapListing(cmd.Name())
			}
			if err != nil {
				return err
			}
			defer a.Shutdown()

			if perContainer {
				stats, err := a.Monitor.ContainerStats(cmd.Context())
				if err != nil {
					return err
				}
				if stats == nil {
					stats = []model.ContainerStats{}
				}
				view := tableView{headers: []string{"NAME", "CPU %", "MEM USAGE / LIMIT", "MEM %"}}
				for _, s := range stats {
					view.rows = append(view.rows, []string{s.Name, s.CPU, s.Memory, s.MemoryPercent})
				}
				return render(cmd.OutOrStdout(), opts.output, stats, view)
			}

			stats, err := a.Runtime.SystemStats(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, stats, tableView{
				headers: []string{"CONTAINERS", "RUNNING", "IMAGES"},
				rows: [][]string{{
					strconv.Itoa(stats.TotalContainers),
					runningColor(stats.RunningContainers),
					strconv.Itoa(stats.TotalImages),
				}},
			})
		},
	}
	cmd.Flags().BoolVar(&perContainer, "containers", false, "show a usage sample per running container")
	return cmd
}
