package cli

import (
	"fmt"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/spf13/cobra"
)

func newPWMCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pwm",
		Short: "Power meter reports",
	}
	cmd.AddCommand(
		newPWMListCmd(app),
		newReportImportCmd(app, "Import a PWM report", (*api.Client).ImportPWM, "country"),
		newPWMDeleteCmd(app),
		newPWMKPICmd(app),
		newPWMStatsCmd(app),
	)
	return cmd
}

func newPWMListCmd(app *App) *cobra.Command {
	var params api.PWMListParams
	var dates dateRangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List PWM reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			var err error
			if params.DateFrom, params.DateTo, err = dates.parse(); err != nil {
				return err
			}
			page, err := app.client.ListPWMReports(cmd.Context(), params)
			if err != nil {
				return err
			}
			header := []string{"ID", "SITE", "START", "END", "PWM_AVG_W", "PWC_LOAD_W", "GRID_PCT", "GRID_CUTS"}
			return renderPage(app, page, header, func(p api.PWMReport) []string {
				site := "-"
				if p.Site != nil {
					site = p.Site.SiteID
				}
				cuts := "-"
				if p.NumberGridCuts != nil {
					cuts = itoa(*p.NumberGridCuts)
				}
				return []string{
					p.ID.String(), site, p.PeriodStart, p.PeriodEnd,
					num(p.TotalPWMAvgW), num(p.TotalPWCAvgLoad), num(p.GridAvailabilityPct), cuts,
				}
			})
		},
	}
	pageFlags(cmd, &params.Page, &params.PageSize)
	cmd.Flags().StringVar(&params.Query, "search", "", "filter by site or file name")
	cmd.Flags().StringVar(&params.Country, "country", "", "filter by country")
	cmd.Flags().StringVar(&params.SiteID, "site", "", "filter by site id")
	dates.register(cmd)
	return cmd
}

func newPWMDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a PWM report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			if err := app.client.DeletePWMReport(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "deleted %s\n", args[0])
			return nil
		},
	}
}

func newPWMKPICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "kpi",
		Short: "Show the PWM report totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			kpi, err := app.client.PWMKPI(cmd.Context())
			if err != nil {
				return err
			}
			header := []string{"REPORTS", "PWM_AVG_W", "PWC_LOAD_W", "GRID_PCT", "DC_UPTIME_PCT"}
			return app.render(kpi, header, func() [][]string {
				return [][]string{{
					itoa(kpi.Count), float(kpi.TotalPWMAvgW), float(kpi.TotalPWCAvgLoadW),
					float(kpi.AvgGridAvailabilityPct), float(kpi.AvgDCUptimePct),
				}}
			})
		},
	}
}

func newPWMStatsCmd(app *App) *cobra.Command {
	var dates dateRangeFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show PWM totals per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			from, to, err := dates.parse()
			if err != nil {
				return err
			}
			stats, err := app.client.PWMStats(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			header := []string{"PERIOD", "REPORTS", "PWM_AVG_W", "GRID_PCT"}
			return renderRows(app, stats, header, func(s api.PWMPeriodStat) []string {
				return []string{s.Period, itoa(s.Reports), float(s.TotalPWMAvgW), float(s.AvgGridAvailabilityPct)}
			})
		},
	}
	dates.register(cmd)
	return cmd
}
