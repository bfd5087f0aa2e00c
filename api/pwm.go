package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	RoutePWM       = "/pwm/"
	RoutePWMImport = "/pwm/import/"
	RoutePWMKPI    = "/pwm/kpi-stats/"
	RoutePWMStats  = "/pwm/stats/"
)

func (p PWMListParams) values() url.Values {
	query := url.Values{}
	setInt(query, "page", p.Page)
	setInt(query, "page_size", p.PageSize)
	setString(query, "q", p.Query)
	setString(query, "country", p.Country)
	setString(query, "site_id", p.SiteID)
	setDate(query, "date_from", p.DateFrom)
	setDate(query, "date_to", p.DateTo)
	return query
}

func (c *Client) ListPWMReports(ctx context.Context, params PWMListParams) (Page[PWMReport], error) {
	page, err := getPage[PWMReport](ctx, c.req, RoutePWM, params.values())
	if err != nil {
		return Page[PWMReport]{}, fmt.Errorf("[Client ListPWMReports] %w", err)
	}
	return page, nil
}

func (c *Client) ImportPWM(ctx context.Context, filePath string, extra map[string]string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.req.upload(ctx, RoutePWMImport, filePath, extra, &out); err != nil {
		return nil, fmt.Errorf("[Client ImportPWM] %w", err)
	}
	return out, nil
}

func (c *Client) DeletePWMReport(ctx context.Context, id string) error {
	if err := c.req.doJSON(ctx, http.MethodDelete, RoutePWM+url.PathEscape(id)+"/", nil, nil, nil); err != nil {
		return fmt.Errorf("[Client DeletePWMReport] %s: %w", id, err)
	}
	return nil
}

func (c *Client) PWMKPI(ctx context.Context) (PWMKPI, error) {
	var kpi PWMKPI
	if err := c.req.doJSON(ctx, http.MethodGet, RoutePWMKPI, nil, nil, &kpi); err != nil {
		return PWMKPI{}, fmt.Errorf("[Client PWMKPI] %w", err)
	}
	return kpi, nil
}

// PWMStats returns monthly aggregates of the reports starting between from
// and to. A zero time leaves that bound open.
func (c *Client) PWMStats(ctx context.Context, from, to time.Time) ([]PWMPeriodStat, error) {
	query := url.Values{}
	setDate(query, "date_from", from)
	setDate(query, "date_to", to)

	var stats []PWMPeriodStat
	if err := c.req.doJSON(ctx, http.MethodGet, RoutePWMStats, query, nil, &stats); err != nil {
		return nil, fmt.Errorf("[Client PWMStats] %w", err)
	}
	return stats, nil
}
