package cli

import (
	"github.com/spf13/cobra"

	"github.com/bassista/dockdesk/internal/model"
)

func newPsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List all containers",
		Long: `List all containers known to the runtime binary.

Not available with runtime.mode=memory: that state lives only inside a
running "dockdesk serve" and is reachable through GET /api/containers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.bootstrapListing(cmd.Name())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			containers, err := a.Runtime.ListContainers(cmd.Context())
			if err != nil {
				return err
			}
			if containers == nil {
				containers = []model.Container{}
			}
			view := tableView{headers: []string{"CONTAINER ID", "NAME", "IMAGE", "STATUS"}}
			for _, c := range containers {
				view.rows = append(view.rows, []string{c.ID, c.Name, c.Image, colorStatus(c)})
			}
			return render(cmd.OutOrStdout(), opts.output, containers, view)
		},
	}
}
