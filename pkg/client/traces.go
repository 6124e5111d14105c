package client

import (
	"context"
	"fmt"
	"net/url"
)

// GetTrace retrieves all logs that share a trace ID.
func (c *Client) GetTrace(ctx context.Context, traceID string) (*Trace, error) {
	var trace Trace
	if err := c.get(ctx, "/traces/"+url.PathEscape(traceID), nil, &trace); err != nil {
		return nil, fmt.Errorf("getting trace %q: %w", traceID, err)
	}
	return &trace, nil
}

// GetTraceTimeline retrieves the per-service spans of a trace.
func (c *Client) GetTraceTimeline(ctx context.Context, traceID string) (*TraceTimeline, error) {
	path := "/traces/" + url.PathEscape(traceID) + "/timeline"
	var timeline TraceTimeline
	if err := c.get(ctx, path, nil, &timeline); err != nil {
		return nil, fmt.Errorf("getting timeline for trace %q: %w", traceID, err)
	}
	return &timeline, nil
}

// GetRequest retrieves all logs that share a request ID.
func (c *Client) GetRequest(ctx context.Context, requestID string) (*RequestLogs, error) {
	var logs RequestLogs
	if err := c.get(ctx, "/requests/"+url.PathEscape(requestID), nil, &logs); err != nil {
		return nil, fmt.Errorf("getting request %q: %w", requestID, err)
	}
	return &logs, nil
}
