package api

import (
	"context"
	"fmt"
	"net/url"
)

const (
	RouteRectifiers       = "/rectifiers/"
	RouteRectifiersImport = "/rectifiers/import/"
)

func (p RectifierListParams) values() url.Values {
	query := url.Values{}
	setInt(query, "page", p.Page)
	setInt(query, "page_size", p.PageSize)
	setString(query, "q", p.Query)
	setString(query, "site_id", p.SiteID)
	setString(query, "country", p.Country)
	setString(query, "param", p.Param)
	setDate(query, "date_from", p.DateFrom)
	setDate(query, "date_to", p.DateTo)
	return query
}

func (c *Client) ListRectifiers(ctx context.Context, params RectifierListParams) (Page[RectifierReading], error) {
	page, err := getPage[RectifierReading](ctx, c.req, RouteRectifiers, params.values())
	if err != nil {
		return Page[RectifierReading]{}, fmt.Errorf("[Client ListRectifiers] %w", err)
	}
	return page, nil
}

// ImportRectifiers uploads a rectifier export. Empty extra fields are not sent.
func (c *Client) ImportRectifiers(ctx context.Context, filePath string, extra map[string]string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.req.upload(ctx, RouteRectifiersImport, filePath, extra, &out); err != nil {
		return nil, fmt.Errorf("[Client ImportRectifiers] %w", err)
	}
	return out, nil
}
