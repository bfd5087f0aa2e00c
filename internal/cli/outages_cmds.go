package cli

import (
	"context"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/spf13/cobra"
)

type outageImport func(c *api.Client, ctx context.Context, filePath string) (api.ImportResult, error)

func newOutagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outages",
		Short: "Grid outage imports",
	}
	cmd.AddCommand(
		newOutageImportCmd(app, "import-daily", "Import the daily grid availability file", (*api.Client).ImportGridOutageDaily),
		newOutageImportCmd(app, "import-alarms", "Import the grid alarms file", (*api.Client).ImportGridOutageAlarms),
	)
	return cmd
}

func newOutageImportCmd(app *App, use, short string, run outageImport) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			res, err := run(app.client, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(res, []string{"CREATED", "UPDATED"}, func() [][]string {
				return [][]string{{itoa(res.Created), itoa(res.Updated)}}
			})
		},
	}
}
