package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/spf13/cobra"
)

func newInvoicesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Utility invoices",
	}
	cmd.AddCommand(newInvoicesListCmd(app), newInvoicesImportCmd(app), newImportStatusCmd(app), newInvoicesStatsCmd(app), newInvoicesKPICmd(app))
	return cmd
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(api.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD", flag)
	}
	return t, nil
}

// dateRangeFlags are the --from and --to day flags of a command.
type dateRangeFlags struct {
	from, to string
}

func (f *dateRangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day (YYYY-MM-DD)")
}

func (f dateRangeFlags) parse() (start, end time.Time, err error) {
	if start, err = parseDate("from", f.from); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = parseDate("to", f.to); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func pageFlags(cmd *cobra.Command, page, pageSize *int) {
	cmd.Flags().IntVar(page, "page", 0, "page number, 0 for all")
	cmd.Flags().IntVar(pageSize, "page-size", 0, "page size")
}

func newInvoicesListCmd(app *App) *cobra.Command {
	var dates dateRangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices dated between two days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			start, end, err := dates.parse()
			if err != nil {
				return err
			}

			invoices, err := app.client.ListInvoices(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			header := []string{"ID", "NUMBER", "DATE", "SITE", "AMOUNT_HT", "STATUS"}
			return app.render(invoices, header, func() [][]string {
				rows := make([][]string, 0, len(invoices))
				for _, inv := range invoices {
					site := inv.SiteName
					if site == "" {
						site = strconv.Itoa(inv.Site.ID)
					}
					rows = append(rows, []string{
						strconv.Itoa(inv.ID), inv.InvoiceNumber, inv.InvoiceDate, site, fmt.Sprintf("%.2f", inv.AmountExclTax), inv.Status,
					})
				}
				return rows
			})
		},
	}
	dates.register(cmd)
	return cmd
}

func newInvoicesImportCmd(app *App) *cobra.Command {
	var async bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an invoices spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			if async {
				task, err := app.client.ImportInvoicesAsync(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(app.out, "Import started, task %s\n", task.TaskID)
				return nil
			}
			summary, err := app.client.ImportInvoices(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(app.out, summary)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "run the import in the background")
	return cmd
}

func newImportStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import-status <task-id>",
		Short: "Show the state of a background import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			status, err := app.client.ImportStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(app.out, status)
		},
	}
}

func newInvoicesStatsCmd(app *App) *cobra.Command {
	var dates dateRangeFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Average invoice amounts per site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			start, end, err := dates.parse()
			if err != nil {
				return err
			}
			stats, err := app.client.InvoiceStats(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			header := []string{"SITE", "NAME", "AVG_HT", "AVG_TTC", "AVG_KWH", "INVOICES"}
			return renderRows(app, stats, header, func(s api.InvoiceStat) []string {
				return []string{s.SiteID, s.SiteName, float(s.AvgAmountExcl), float(s.AvgAmountIncl), float(s.AvgConsumption), itoa(s.Count)}
			})
		},
	}
	dates.register(cmd)
	return cmd
}

func newInvoicesKPICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "kpi",
		Short: "Compare each site's average invoice over three periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			kpi, err := app.client.InvoicesKPI(cmd.Context())
			if err != nil {
				return err
			}
			header := []string{"SITE", "NAME", "TTC_LAST_3M", "TTC_THIS_YEAR", "TTC_LAST_YEAR", "KWH_LAST_3M"}
			return renderRows(app, kpi, header, func(k api.InvoiceSiteKPI) []string {
				return []string{
					itoa(k.SiteID), k.SiteName,
					float(k.LastMonths.AvgAmountIncl), float(k.CurrentYear.AvgAmountIncl), float(k.PreviousYear.AvgAmountIncl),
					float(k.LastMonths.AvgConsumption),
				}
			})
		},
	}
}
