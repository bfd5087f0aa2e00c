package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	RouteSites       = "/core/sites/"
	RouteSitesImport = "/core/import/"
)

func sitePath(id int) string {
	return fmt.Sprintf("%s%d/", RouteSites, id)
}

// ListSites returns all sites. query is passed through as filters.
func (c *Client) ListSites(ctx context.Context, query url.Values) ([]Site, error) {
	var sites []Site
	if err := c.req.doJSON(ctx, http.MethodGet, RouteSites, query, nil, &sites); err != nil {
		return nil, fmt.Errorf("[Client ListSites] %w", err)
	}
	return sites, nil
}

func (c *Client) GetSite(ctx context.Context, id int) (Site, error) {
	var site Site
	if err := c.req.doJSON(ctx, http.MethodGet, sitePath(id), nil, nil, &site); err != nil {
		return Site{}, fmt.Errorf("[Client GetSite] site %d: %w", id, err)
	}
	return site, nil
}

func (c *Client) CreateSite(ctx context.Context, site Site) (Site, error) {
	var created Site
	if err := c.req.doJSON(ctx, http.MethodPost, RouteSites, nil, site, &created); err != nil {
		return Site{}, fmt.Errorf("[Client CreateSite] %w", err)
	}
	return created, nil
}

func (c *Client) UpdateSite(ctx context.Context, id int, site Site) (Site, error) {
	var updated Site
	if err := c.req.doJSON(ctx, http.MethodPut, sitePath(id), nil, site, &updated); err != nil {
		return Site{}, fmt.Errorf("[Client UpdateSite] site %d: %w", id, err)
	}
	return updated, nil
}

func (c *Client) DeleteSite(ctx context.Context, id int) error {
	if err := c.req.doJSON(ctx, http.MethodDelete, sitePath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("[Client DeleteSite] site %d: %w", id, err)
	}
	return nil
}

// ImportSites uploads a sites spreadsheet. The backend's summary is returned as is.
func (c *Client) ImportSites(ctx context.Context, filePath string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.req.upload(ctx, RouteSitesImport, filePath, nil, &out); err != nil {
		return nil, fmt.Errorf("[Client ImportSites] %w", err)
	}
	return out, nil
}
