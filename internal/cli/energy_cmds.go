package cli

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/spf13/cobra"
)

func newEnergyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "energy",
		Short: "Monthly energy mix per country",
	}
	cmd.AddCommand(newEnergyListCmd(app), newEnergyImportCmd(app), newEnergyKPICmd(app), newEnergyStatsCmd(app))
	return cmd
}

func newEnergyListCmd(app *App) *cobra.Command {
	var params api.EnergyListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monthly energy stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			page, err := app.client.ListEnergyStats(cmd.Context(), params)
			if err != nil {
				return err
			}
			header := []string{"COUNTRY", "PERIOD", "GRID_MWH", "SOLAR_MWH", "GENERATORS_MWH", "RER_PCT"}
			return renderPage(app, page, header, func(e api.EnergyMonthlyStat) []string {
				return []string{e.Country.Name, period(e.Year, e.Month), num(e.GridMWh), num(e.SolarMWh), num(e.GeneratorsMWh), num(e.RERPct)}
			})
		},
	}
	pageFlags(cmd, &params.Page, &params.PageSize)
	cmd.Flags().IntVar(&params.Year, "year", 0, "filter by year")
	cmd.Flags().StringVar(&params.Search, "search", "", "filter by country")
	return cmd
}

func newEnergyImportCmd(app *App) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an energy mix spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			extra := map[string]string{}
			if year > 0 {
				extra["year"] = strconv.Itoa(year)
			}
			summary, err := app.client.ImportEnergy(cmd.Context(), args[0], extra)
			if err != nil {
				return err
			}
			return printJSON(app.out, summary)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year for rows without one")
	return cmd
}

func period(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

func newEnergyKPICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "kpi",
		Short: "Show the energy mix totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			kpi, err := app.client.EnergyKPI(cmd.Context())
			if err != nil {
				return err
			}
			header := []string{"GRID_MWH", "SOLAR_MWH", "GENERATORS_MWH", "RER_AVG", "LOAD_AVG_MW"}
			return app.render(kpi, header, func() [][]string {
				return [][]string{{float(kpi.TotalGrid), float(kpi.TotalSolar), float(kpi.TotalGen), float(kpi.RERAvg), float(kpi.LoadAvg)}}
			})
		},
	}
}

func newEnergyStatsCmd(app *App) *cobra.Command {
	var fromYear, toYear int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the energy mix of every country per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			stats, err := app.client.EnergyStatsRange(cmd.Context(), fromYear, toYear)
			if err != nil {
				return err
			}
			header := []string{"PERIOD", "GRID_MWH", "SOLAR_MWH", "GENERATORS_MWH", "TELECOM_MWH", "RER_PCT"}
			return renderRows(app, stats, header, func(s api.EnergyPeriodStat) []string {
				return []string{period(s.Year, s.Month), float(s.GridMWh), float(s.SolarMWh), float(s.GeneratorsMWh), float(s.TelecomMWh), float(s.RERPct)}
			})
		},
	}
	cmd.Flags().IntVar(&fromYear, "from-year", 0, "first year")
	cmd.Flags().IntVar(&toYear, "to-year", 0, "last year")
	return cmd
}
