package api

import (
	"context"
	"fmt"
)

const (
	RouteGridOutageDailyImport  = "/grid-outages/daily/import/"
	RouteGridOutageAlarmsImport = "/grid-outages/alarms/import/"
)

// ImportGridOutageDaily uploads the daily grid availability file.
func (c *Client) ImportGridOutageDaily(ctx context.Context, filePath string) (ImportResult, error) {
	var res ImportResult
	if err := c.req.upload(ctx, RouteGridOutageDailyImport, filePath, nil, &res); err != nil {
		return ImportResult{}, fmt.Errorf("[Client ImportGridOutageDaily] %w", err)
	}
	return res, nil
}

// ImportGridOutageAlarms uploads the grid alarms file.
func (c *Client) ImportGridOutageAlarms(ctx context.Context, filePath string) (ImportResult, error) {
	var res ImportResult
	if err := c.req.upload(ctx, RouteGridOutageAlarmsImport, filePath, nil, &res); err != nil {
		return ImportResult{}, fmt.Errorf("[Client ImportGridOutageAlarms] %w", err)
	}
	return res, nil
}
