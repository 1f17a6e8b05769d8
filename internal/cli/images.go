package cli

import (
	"github.com/spf13/cobra"

	"github.com/bassista/dockdesk/internal/model"
)

func newImagesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List local images",
		Long: `List the images stored by the runtime binary.

Not available with runtime.mode=memory: that state lives only inside a
running "dockdesk serve" and is reachable through GET /api/images.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.bootstrapListing(cmd.Name())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			images, err := a.Runtime.ListImages(cmd.Context())
			if err != nil {
				return err
			}
			if images == nil {
				images = []model.Image{}
			}
			view := tableView{headers: []string{"IMAGE ID", "REPOSITORY", "TAG", "SIZE"}}
			for _, img := range images {
				view.rows = append(view.rows, []string{img.ID, img.Repository, img.Tag, img.Size})
			}
			return render(cmd.OutOrStdout(), opts.output, images, view)
		},
	}
}
