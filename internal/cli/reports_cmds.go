package cli

import (
	"context"
	"strconv"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/spf13/cobra"
)

type importFunc func(client *api.Client, ctx context.Context, path string, extra map[string]string) (map[string]any, error)

// newReportImportCmd uploads a report file with the client opened for the
// command. Each flag named in fields is sent as a form field when set.
func newReportImportCmd(app *App, short string, upload importFunc, fields ...string) *cobra.Command {
	values := make([]string, len(fields))

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			extra := map[string]string{}
			for i, field := range fields {
				if values[i] != "" {
					extra[field] = values[i]
				}
			}
			summary, err := upload(app.client, cmd.Context(), args[0], extra)
			if err != nil {
				return err
			}
			return printJSON(app.out, summary)
		},
	}
	for i, field := range fields {
		cmd.Flags().StringVar(&values[i], field, "", field+" for rows without one")
	}
	return cmd
}

func newPQCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pq",
		Short: "Power quality reports",
	}
	importPQ := func(client *api.Client, ctx context.Context, path string, _ map[string]string) (map[string]any, error) {
		return client.ImportPQ(ctx, path)
	}
	cmd.AddCommand(newPQListCmd(app), newReportImportCmd(app, "Import a power quality spreadsheet", importPQ))
	return cmd
}

func newPQListCmd(app *App) *cobra.Command {
	var params api.PQListParams
	var dates dateRangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List power quality reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			var err error
			if params.DateFrom, params.DateTo, err = dates.parse(); err != nil {
				return err
			}
			page, err := app.client.ListPQReports(cmd.Context(), params)
			if err != nil {
				return err
			}
			header := []string{"SITE", "COUNTRY", "BEGIN", "END", "VAVG_V", "PAVG_KW", "ENERGY_KWH"}
			return renderPage(app, page, header, func(p api.PQReport) []string {
				return []string{
					p.Site.SiteID, p.Country.Name, p.BeginPeriod, p.EndPeriod,
					num(p.MonoVAvgV), num(p.MonoPAvgKW), num(p.MonoTotalEnergyKWh),
				}
			})
		},
	}
	pageFlags(cmd, &params.Page, &params.PageSize)
	cmd.Flags().StringVar(&params.Query, "search", "", "filter by site or file name")
	cmd.Flags().StringVar(&params.Country, "country", "", "filter by country")
	dates.register(cmd)
	return cmd
}

func newRectifiersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rectifiers",
		Short: "Rectifier readings",
	}
	cmd.AddCommand(
		newRectifiersListCmd(app),
		newReportImportCmd(app, "Import a rectifier export", (*api.Client).ImportRectifiers, "country"),
	)
	return cmd
}

func newRectifiersListCmd(app *App) *cobra.Command {
	var params api.RectifierListParams
	var dates dateRangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rectifier readings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			var err error
			if params.DateFrom, params.DateTo, err = dates.parse(); err != nil {
				return err
			}
			page, err := app.client.ListRectifiers(cmd.Context(), params)
			if err != nil {
				return err
			}
			header := []string{"SITE", "COUNTRY", "PARAM", "VALUE", "MEASURE", "MEASURED_AT"}
			return renderPage(app, page, header, func(r api.RectifierReading) []string {
				return []string{r.Site.SiteID, r.Country.Name, r.ParamName, num(r.ParamValue), str(r.Measure), r.MeasuredAt}
			})
		},
	}
	pageFlags(cmd, &params.Page, &params.PageSize)
	cmd.Flags().StringVar(&params.Query, "search", "", "filter by site, parameter or file name")
	cmd.Flags().StringVar(&params.SiteID, "site", "", "filter by site id")
	cmd.Flags().StringVar(&params.Country, "country", "", "filter by country")
	cmd.Flags().StringVar(&params.Param, "param", "", "filter by parameter name")
	dates.register(cmd)
	return cmd
}

func newSiteEnergyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site-energy",
		Short: "Monthly energy and availability per site",
	}
	cmd.AddCommand(
		newSiteEnergyListCmd(app),
		newReportImportCmd(app, "Import a site energy spreadsheet", (*api.Client).ImportSiteEnergy, "country", "year", "month"),
	)
	return cmd
}

func newSiteEnergyListCmd(app *App) *cobra.Command {
	var params api.SiteEnergyListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List site energy rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			page, err := app.client.ListSiteEnergy(cmd.Context(), params)
			if err != nil {
				return err
			}
			header := []string{"SITE", "PERIOD", "GRID", "DG", "SOLAR", "GRID_KWH", "SOLAR_KWH", "RER_PCT"}
			return renderPage(app, page, header, func(e api.SiteEnergyRow) []string {
				return []string{
					e.Site.SiteID, strconv.Itoa(e.Year) + "-" + e.Month.String(),
					e.GridStatus, e.DGStatus, e.SolarStatus,
					num(e.GridEnergyKWh), num(e.SolarEnergyKWh), num(e.RERPct),
				}
			})
		},
	}
	pageFlags(cmd, &params.Page, &params.PageSize)
	cmd.Flags().StringVar(&params.Query, "search", "", "filter by site")
	cmd.Flags().IntVar(&params.Year, "year", 0, "filter by year")
	cmd.Flags().IntVar(&params.Month, "month", 0, "filter by month")
	cmd.Flags().StringVar(&params.Country, "country", "", "filter by country")
	return cmd
}
