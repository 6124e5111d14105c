package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetFieldStats retrieves the most frequent values of a field within the window.
func (c *Client) GetFieldStats(ctx context.Context, field string, window TimeWindow, limit int) (*FieldStatsResponse, error) {
	path := "/stats/fields/" + url.PathEscape(field)
	query := make(url.Values)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	window.apply(query)

	var resp FieldStatsResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("getting stats for field %q: %w", field, err)
	}
	return &resp, nil
}

// GetHistogram retrieves log counts grouped into buckets of the given interval
// (for example "1 minute").
func (c *Client) GetHistogram(ctx context.Context, interval string, window TimeWindow) (*HistogramResponse, error) {
	query := url.Values{"interval": {interval}}
	window.apply(query)

	var resp HistogramResponse
	if err := c.get(ctx, "/stats/histogram", query, &resp); err != nil {
		return nil, fmt.Errorf("getting histogram: %w", err)
	}
	return &resp, nil
}

// GetMetrics retrieves the server metrics summary.
func (c *Client) GetMetrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	if err := c.get(ctx, "/metrics/json", nil, &m); err != nil {
		return nil, fmt.Errorf("getting metrics: %w", err)
	}
	return m, nil
}
