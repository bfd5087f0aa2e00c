package cli

import (
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/spf13/cobra"
)

func newSonatelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sonatel",
		Short: "Sonatel electricity billing",
	}
	cmd.AddCommand(
		newSonatelImportCmd(app),
		newSonatelBatchesCmd(app),
		newSonatelRecordsCmd(app),
		newSonatelMonthlyCmd(app),
	)
	return cmd
}

func newSonatelImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a Sonatel billing export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(adminRoles...); err != nil {
				return err
			}
			result, err := app.client.ImportSonatel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(app.out, result)
		},
	}
}

func newSonatelBatchesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "batches",
		Short: "List imported billing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			batches, err := app.client.ListSonatelBatches(cmd.Context())
			if err != nil {
				return err
			}
			return renderRows(app, batches, []string{"ID", "FILE", "IMPORTED_AT"}, func(b api.SonatelBatch) []string {
				return []string{itoa(b.ID), b.SourceFilename, b.ImportedAt.Format(time.RFC3339)}
			})
		},
	}
}

func newSonatelRecordsCmd(app *App) *cobra.Command {
	var params api.SonatelRecordParams

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List billed invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			page, err := app.client.ListSonatelRecords(cmd.Context(), params)
			if err != nil {
				return err
			}
			header := []string{"INVOICE", "ACCOUNT", "START", "END", "TTC", "KWH"}
			return renderPage(app, page, header, func(r api.SonatelInvoice) []string {
				return []string{r.InvoiceNumber, r.AccountNumber, r.PeriodStart, r.PeriodEnd, str(r.AmountInclTax), str(r.BilledConsumption)}
			})
		},
	}
	pageFlags(cmd, &params.Page, &params.PageSize)
	cmd.Flags().StringVar(&params.Search, "search", "", "filter by invoice, account or meter number")
	return cmd
}

func newSonatelMonthlyCmd(app *App) *cobra.Command {
	var params api.SonatelMonthlyParams

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Show invoices split by calendar month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			rows, err := app.client.ListSonatelMonthly(cmd.Context(), params)
			if err != nil {
				return err
			}
			header := []string{"PERIOD", "INVOICE", "ACCOUNT", "DAYS", "KWH", "TTC"}
			return renderRows(app, rows, header, func(m api.SonatelMonthly) []string {
				return []string{
					period(m.Year, m.Month), m.InvoiceNumber, m.AccountNumber,
					itoa(m.DaysCovered) + "/" + itoa(m.DaysInMonth), str(m.Consumption), str(m.AmountInclTax),
				}
			})
		},
	}
	cmd.Flags().IntVar(&params.Year, "year", 0, "filter by year")
	cmd.Flags().IntVar(&params.Month, "month", 0, "filter by month")
	cmd.Flags().StringVar(&params.Account, "account", "", "filter by contract account")
	cmd.Flags().StringVar(&params.Invoice, "invoice", "", "filter by invoice number")
	return cmd
}
