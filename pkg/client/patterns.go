package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ListPatterns retrieves the most frequent log patterns within the window.
func (c *Client) ListPatterns(ctx context.Context, window TimeWindow, limit int) (*PatternsResponse, error) {
	query := make(url.Values)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	window.apply(query)

	var resp PatternsResponse
	if err := c.get(ctx, "/patterns", query, &resp); err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	return &resp, nil
}

// GetPatternLogs retrieves logs that match a pattern.
// Only the preset range is sent; patterns are not resolved against custom bounds.
func (c *Client) GetPatternLogs(ctx context.Context, patternHash, rangeToken string, limit int) (*PatternLogs, error) {
	path := "/patterns/" + url.PathEscape(patternHash) + "/logs"
	query := make(url.Values)
	if rangeToken != "" {
		query.Set("range", rangeToken)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp PatternLogs
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("getting logs for pattern %q: %w", patternHash, err)
	}
	return &resp, nil
}
