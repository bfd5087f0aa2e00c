// Package cli implements the enertrack command line console.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/enertrack-console/internal/config"
	"github.com/spf13/cobra"
)

// Execute runs the command line in args and releases the session afterwards,
// whether or not the command succeeded.
func Execute(ctx context.Context, cfg config.Config, args []string, in io.Reader, out, errOut io.Writer) error {
	app := newApp(cfg, out, errOut)
	defer app.Close()

	rootCmd := newRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "enertrack",
		Short:         "EnerTrack console",
		Long:          `Command line console for the EnerTrack energy monitoring API: sites, energy mix, invoices, grid outages and the site reports (power quality, rectifiers, site energy, PWM and Sonatel billing).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Runnable() || cmd == cmd.Root() {
				return nil
			}
			return app.open()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			banner := figure.NewFigure(app.cfg.GetAppName(), "cybermedium", true)
			fmt.Fprintln(app.out, banner.String())
			return cmd.Help()
		},
	}
	rootCmd.SetOut(app.out)
	rootCmd.SetErr(app.errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.flags.apiURL, "api-url", app.flags.apiURL, "EnerTrack API base URL")
	flags.StringVar(&app.flags.store, "store", app.flags.store, "token store (file, memory, redis)")
	flags.StringVar(&app.flags.home, "home", app.flags.home, "directory of the file token store")
	flags.StringVar(&app.flags.redisURL, "redis-url", app.flags.redisURL, "Redis URL of the redis token store")
	flags.StringVarP(&app.flags.output, "output", "o", app.flags.output, "output format (table, json)")
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newTokenCmd(app),
		newSitesCmd(app),
		newEnergyCmd(app),
		newInvoicesCmd(app),
		newOutagesCmd(app),
		newPQCmd(app),
		newRectifiersCmd(app),
		newSiteEnergyCmd(app),
		newPWMCmd(app),
		newSonatelCmd(app),
		newWatchCmd(app),
	)
	return rootCmd
}
