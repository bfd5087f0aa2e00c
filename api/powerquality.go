package api

import (
	"context"
	"fmt"
	"net/url"
)

const (
	RoutePQ       = "/pq/"
	RoutePQImport = "/pq/import/"
)

func (p PQListParams) values() url.Values {
	query := url.Values{}
	setInt(query, "page", p.Page)
	setInt(query, "page_size", p.PageSize)
	setString(query, "q", p.Query)
	setString(query, "country", p.Country)
	setDate(query, "date_from", p.DateFrom)
	setDate(query, "date_to", p.DateTo)
	return query
}

// ListPQReports lists power quality reports, paginated or not.
func (c *Client) ListPQReports(ctx context.Context, params PQListParams) (Page[PQReport], error) {
	page, err := getPage[PQReport](ctx, c.req, RoutePQ, params.values())
	if err != nil {
		return Page[PQReport]{}, fmt.Errorf("[Client ListPQReports] %w", err)
	}
	return page, nil
}

func (c *Client) ImportPQ(ctx context.Context, filePath string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.req.upload(ctx, RoutePQImport, filePath, nil, &out); err != nil {
		return nil, fmt.Errorf("[Client ImportPQ] %w", err)
	}
	return out, nil
}
