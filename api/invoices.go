package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	RouteInvoicesBetween     = "/invoices/between/"
	RouteInvoicesImport      = "/invoices/import/"
	RouteInvoicesImportAsync = "/invoices/import_async/"
	RouteInvoicesImportState = "/invoices/import-status/"
	RouteInvoicesStats       = "/invoices/stats/"
	RouteInvoicesKPI         = "/invoices/kpi-stats/"

	DateLayout = "2006-01-02"
)

// ListInvoices returns the invoices dated between start and end. A zero time
// leaves that bound open.
func (c *Client) ListInvoices(ctx context.Context, start, end time.Time) ([]Invoice, error) {
	query := url.Values{}
	setDate(query, "start_date", start)
	setDate(query, "end_date", end)

	var invoices []Invoice
	if err := c.req.doJSON(ctx, http.MethodGet, RouteInvoicesBetween, query, nil, &invoices); err != nil {
		return nil, fmt.Errorf("[Client ListInvoices] %w", err)
	}
	return invoices, nil
}

func (c *Client) ImportInvoices(ctx context.Context, filePath string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.req.upload(ctx, RouteInvoicesImport, filePath, nil, &out); err != nil {
		return nil, fmt.Errorf("[Client ImportInvoices] %w", err)
	}
	return out, nil
}

// ImportInvoicesAsync starts a background import and returns its task.
func (c *Client) ImportInvoicesAsync(ctx context.Context, filePath string) (ImportTask, error) {
	var task ImportTask
	if err := c.req.upload(ctx, RouteInvoicesImportAsync, filePath, nil, &task); err != nil {
		return ImportTask{}, fmt.Errorf("[Client ImportInvoicesAsync] %w", err)
	}
	if task.TaskID == "" {
		return ImportTask{}, fmt.Errorf("[Client ImportInvoicesAsync] response has no task_id")
	}
	return task, nil
}

func (c *Client) ImportStatus(ctx context.Context, taskID string) (ImportStatus, error) {
	var status ImportStatus
	path := RouteInvoicesImportState + url.PathEscape(taskID) + "/"
	if err := c.req.doJSON(ctx, http.MethodGet, path, nil, nil, &status); err != nil {
		return ImportStatus{}, fmt.Errorf("[Client ImportStatus] task %s: %w", taskID, err)
	}
	return status, nil
}

// InvoiceStats returns per-site invoice averages for invoices dated between
// start and end. A zero time leaves that bound open.
func (c *Client) InvoiceStats(ctx context.Context, start, end time.Time) ([]InvoiceStat, error) {
	query := url.Values{}
	setDate(query, "start_date", start)
	setDate(query, "end_date", end)

	var stats []InvoiceStat
	if err := c.req.doJSON(ctx, http.MethodGet, RouteInvoicesStats, query, nil, &stats); err != nil {
		return nil, fmt.Errorf("[Client InvoiceStats] %w", err)
	}
	return stats, nil
}

// InvoicesKPI returns per-site averages over the last three months, the
// current year and the previous year.
func (c *Client) InvoicesKPI(ctx context.Context) ([]InvoiceSiteKPI, error) {
	var kpi []InvoiceSiteKPI
	if err := c.req.doJSON(ctx, http.MethodGet, RouteInvoicesKPI, nil, nil, &kpi); err != nil {
		return nil, fmt.Errorf("[Client InvoicesKPI] %w", err)
	}
	return kpi, nil
}
