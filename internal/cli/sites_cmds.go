package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/spf13/cobra"
)

func newSitesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Manage energy sites",
	}
	cmd.AddCommand(newSitesListCmd(app), newSitesGetCmd(app), newSitesDeleteCmd(app), newSitesImportCmd(app))
	return cmd
}

func siteRows(sites ...api.Site) [][]string {
	rows := make([][]string, 0, len(sites))
	for _, s := range sites {
		rows = append(rows, []string{
			strconv.Itoa(s.ID), s.SiteID, s.Name, s.Country, str(s.Zone), str(s.RealTypology), num(s.PowerKW),
		})
	}
	return rows
}

var siteHeader = []string{"ID", "SITE", "NAME", "COUNTRY", "ZONE", "TYPOLOGY", "POWER_KW"}

func newSitesListCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			query := url.Values{}
			if search != "" {
				query.Set("search", search)
			}
			sites, err := app.client.ListSites(cmd.Context(), query)
			if err != nil {
				return err
			}
			return app.render(sites, siteHeader, func() [][]string { return siteRows(sites...) })
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "search term")
	return cmd
}

func parseSiteID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid site id %q", arg)
	}
	return id, nil
}

func newSitesGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			id, err := parseSiteID(args[0])
			if err != nil {
				return err
			}
			site, err := app.client.GetSite(cmd.Context(), id)
			if err != nil {
				return err
			}
			return app.render(site, siteHeader, func() [][]string { return siteRows(site) })
		},
	}
}

func newSitesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			id, err := parseSiteID(args[0])
			if err != nil {
				return err
			}
			if err := app.client.DeleteSite(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Site %d deleted\n", id)
			return nil
		},
	}
}

func newSitesImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a sites spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			summary, err := app.client.ImportSites(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(app.out, summary)
		},
	}
}
