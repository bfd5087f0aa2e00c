package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	RouteEnergy       = "/energy/"
	RouteEnergyImport = "/energy/import/"
	RouteEnergyKPI    = "/energy/kpi-stats/"
	RouteEnergyStats  = "/energy/stats/"
)

// ListEnergyStats lists monthly energy stats. Both the paginated envelope
// (results or items, with count or total) and a bare array are accepted.
func (c *Client) ListEnergyStats(ctx context.Context, params EnergyListParams) (EnergyPage, error) {
	query := url.Values{}
	setInt(query, "page", params.Page)
	setInt(query, "page_size", params.PageSize)
	setInt(query, "year", params.Year)
	setString(query, "search", params.Search)

	page, err := getPage[EnergyMonthlyStat](ctx, c.req, RouteEnergy, query)
	if err != nil {
		return EnergyPage{}, fmt.Errorf("[Client ListEnergyStats] %w", err)
	}
	return page, nil
}

// ImportEnergy uploads an energy mix spreadsheet. Empty extra fields are not sent.
func (c *Client) ImportEnergy(ctx context.Context, filePath string, extra map[string]string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.req.upload(ctx, RouteEnergyImport, filePath, extra, &out); err != nil {
		return nil, fmt.Errorf("[Client ImportEnergy] %w", err)
	}
	return out, nil
}

func (c *Client) DeleteEnergyStat(ctx context.Context, id string) error {
	if err := c.req.doJSON(ctx, http.MethodDelete, RouteEnergy+url.PathEscape(id)+"/", nil, nil, nil); err != nil {
		return fmt.Errorf("[Client DeleteEnergyStat] %s: %w", id, err)
	}
	return nil
}

// EnergyKPI returns the headline totals of the energy mix.
func (c *Client) EnergyKPI(ctx context.Context) (EnergyKPI, error) {
	var kpi EnergyKPI
	if err := c.req.doJSON(ctx, http.MethodGet, RouteEnergyKPI, nil, nil, &kpi); err != nil {
		return EnergyKPI{}, fmt.Errorf("[Client EnergyKPI] %w", err)
	}
	return kpi, nil
}

// EnergyStatsRange returns the monthly aggregates between two years,
// inclusive. A zero year leaves that bound open.
func (c *Client) EnergyStatsRange(ctx context.Context, startYear, endYear int) ([]EnergyPeriodStat, error) {
	query := url.Values{}
	setInt(query, "start_year", startYear)
	setInt(query, "end_year", endYear)

	var stats []EnergyPeriodStat
	if err := c.req.doJSON(ctx, http.MethodGet, RouteEnergyStats, query, nil, &stats); err != nil {
		return nil, fmt.Errorf("[Client EnergyStatsRange] %w", err)
	}
	return stats, nil
}
