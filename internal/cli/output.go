package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/enertrack-console/api"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func (a *App) wantsJSON() bool {
	return strings.EqualFold(a.flags.output, outputJSON)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes tab-aligned rows under header.
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// render prints v as JSON, or as a table built by toRows.
func (a *App) render(v any, header []string, toRows func() [][]string) error {
	if a.wantsJSON() {
		return printJSON(a.out, v)
	}
	return printTable(a.out, header, toRows())
}

// renderPage renders the items of a list page and notes when the backend
// holds more rows than were returned.
func renderPage[T any](a *App, page api.Page[T], header []string, toRow func(T) []string) error {
	err := a.render(page, header, func() [][]string {
		rows := make([][]string, 0, len(page.Items))
		for _, item := range page.Items {
			rows = append(rows, toRow(item))
		}
		return rows
	})
	if err == nil && !a.wantsJSON() && page.Total > len(page.Items) {
		fmt.Fprintf(a.out, "%d of %d\n", len(page.Items), page.Total)
	}
	return err
}

// renderRows renders a plain list one row per item.
func renderRows[T any](a *App, items []T, header []string, toRow func(T) []string) error {
	return a.render(items, header, func() [][]string {
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, toRow(item))
		}
		return rows
	})
}

func str(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func num(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func float(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
