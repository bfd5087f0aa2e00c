package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	RouteSonatelImport  = "/sonatel-billing/batches/import/"
	RouteSonatelBatches = "/sonatel-billing/batches/"
	RouteSonatelRecords = "/sonatel-billing/records/"
	RouteSonatelMonthly = "/sonatel-billing/monthly/"
)

// ImportSonatel uploads a Sonatel billing file as a new batch.
func (c *Client) ImportSonatel(ctx context.Context, filePath string) (SonatelImport, error) {
	var res SonatelImport
	if err := c.req.upload(ctx, RouteSonatelImport, filePath, nil, &res); err != nil {
		return SonatelImport{}, fmt.Errorf("[Client ImportSonatel] %w", err)
	}
	return res, nil
}

func (c *Client) ListSonatelBatches(ctx context.Context) ([]SonatelBatch, error) {
	var batches []SonatelBatch
	if err := c.req.doJSON(ctx, http.MethodGet, RouteSonatelBatches, nil, nil, &batches); err != nil {
		return nil, fmt.Errorf("[Client ListSonatelBatches] %w", err)
	}
	return batches, nil
}

// ListSonatelRecords searches the imported invoice lines. Backends without
// pagination ignore page and page_size and answer with a bare array.
func (c *Client) ListSonatelRecords(ctx context.Context, params SonatelRecordParams) (Page[SonatelInvoice], error) {
	query := url.Values{}
	setString(query, "search", params.Search)
	setInt(query, "page", params.Page)
	setInt(query, "page_size", params.PageSize)

	page, err := getPage[SonatelInvoice](ctx, c.req, RouteSonatelRecords, query)
	if err != nil {
		return Page[SonatelInvoice]{}, fmt.Errorf("[Client ListSonatelRecords] %w", err)
	}
	return page, nil
}

// ListSonatelMonthly returns invoice amounts split by calendar month.
func (c *Client) ListSonatelMonthly(ctx context.Context, params SonatelMonthlyParams) ([]SonatelMonthly, error) {
	query := url.Values{}
	setInt(query, "year", params.Year)
	setInt(query, "month", params.Month)
	setString(query, "account", params.Account)
	setString(query, "facture", params.Invoice)

	var rows []SonatelMonthly
	if err := c.req.doJSON(ctx, http.MethodGet, RouteSonatelMonthly, query, nil, &rows); err != nil {
		return nil, fmt.Errorf("[Client ListSonatelMonthly] %w", err)
	}
	return rows, nil
}
