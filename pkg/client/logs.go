package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SearchLogs runs a log search.
// The query text is only sent when non-empty.
func (c *Client) SearchLogs(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	query := make(url.Values)
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	params.Window.apply(query)
	if params.Query != "" {
		query.Set("q", params.Query)
	}

	var resp SearchResponse
	if err := c.get(ctx, "/logs", query, &resp); err != nil {
		return nil, fmt.Errorf("searching logs: %w", err)
	}
	return &resp, nil
}

// GetLogContext retrieves the lines logged before and after a log record.
func (c *Client) GetLogContext(ctx context.Context, logID string, before, after int) (*LogContext, error) {
	path := "/logs/" + url.PathEscape(logID) + "/context"
	query := url.Values{
		"before": {strconv.Itoa(before)},
		"after":  {strconv.Itoa(after)},
	}

	var lc LogContext
	if err := c.get(ctx, path, query, &lc); err != nil {
		return nil, fmt.Errorf("getting context for log %q: %w", logID, err)
	}
	return &lc, nil
}
