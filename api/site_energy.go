package api

import (
	"context"
	"fmt"
	"net/url"
)

const (
	RouteSiteEnergy       = "/site-energy/"
	RouteSiteEnergyImport = "/site-energy/import/"
)

func (p SiteEnergyListParams) values() url.Values {
	query := url.Values{}
	setInt(query, "page", p.Page)
	setInt(query, "page_size", p.PageSize)
	setString(query, "q", p.Query)
	setInt(query, "year", p.Year)
	setInt(query, "month", p.Month)
	setString(query, "country", p.Country)
	return query
}

func (c *Client) ListSiteEnergy(ctx context.Context, params SiteEnergyListParams) (Page[SiteEnergyRow], error) {
	page, err := getPage[SiteEnergyRow](ctx, c.req, RouteSiteEnergy, params.values())
	if err != nil {
		return Page[SiteEnergyRow]{}, fmt.Errorf("[Client ListSiteEnergy] %w", err)
	}
	return page, nil
}

// ImportSiteEnergy uploads a per-site energy file. The country, year and
// month extras fill columns the file leaves out.
func (c *Client) ImportSiteEnergy(ctx context.Context, filePath string, extra map[string]string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.req.upload(ctx, RouteSiteEnergyImport, filePath, extra, &out); err != nil {
		return nil, fmt.Errorf("[Client ImportSiteEnergy] %w", err)
	}
	return out, nil
}
