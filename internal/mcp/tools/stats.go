package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/internal/query"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// GetStatsInput is the input for purl_get_stats.
type GetStatsInput struct {
	Refresh      bool   `json:"refresh,omitempty" jsonschema:"Re-run facets, histogram and metrics for the current window before returning"`
	MetricsQuery string `json:"metrics_query,omitempty" jsonschema:"Optional jq expression evaluated against the raw /metrics/json object"`
}

// GetStatsOutput is the output for purl_get_stats.
type GetStatsOutput struct {
	Facets         map[string][]client.FieldValue `json:"facets,omitempty"`
	Histogram      []client.HistogramBucket       `json:"histogram,omitzero"`
	Interval       string                         `json:"interval,omitempty"`
	Metrics        map[string]any                 `json:"metrics,omitempty"`
	MetricsSummary map[string]any                 `json:"metrics_summary,omitempty"`
	MetricsQuery   []any                          `json:"metrics_query_result,omitzero"`
	TotalInWindow  int64                          `json:"total_in_window"`
	Hint           string                         `json:"hint,omitempty"`
}

// ToolGetStats returns the stats bundle, optionally refreshing it first.
func ToolGetStats(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetStatsInput) (*sdkmcp.CallToolResult, GetStatsOutput, error) {
	jq := query.NewEngine()

	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetStatsInput) (*sdkmcp.CallToolResult, GetStatsOutput, error) {
		if input.MetricsQuery != "" {
			if err := jq.ValidateExpression(input.MetricsQuery); err != nil {
				return nil, GetStatsOutput{}, ErrInvalidInput(err.Error())
			}
		}

		if input.Refresh {
			if err := d.Engine.RefreshStats(ctx); err != nil {
				return nil, GetStatsOutput{}, WrapBackendError(err)
			}
			if err := ctx.Err(); err != nil {
				return nil, GetStatsOutput{}, WrapBackendError(err)
			}
		}

		bundle := d.Engine.Stats().Get()
		out := GetStatsOutput{
			Facets:         bundle.Facets,
			Histogram:      bundle.Histogram,
			Interval:       bundle.Interval,
			Metrics:        bundle.Metrics,
			MetricsSummary: bundle.MetricsSummary,
		}
		for _, b := range bundle.Histogram {
			out.TotalInWindow += b.Count
		}

		if input.MetricsQuery != "" && bundle.Metrics != nil {
			res, err := jq.Query(map[string]any(bundle.Metrics), input.MetricsQuery, false, 0)
			if err != nil {
				return nil, GetStatsOutput{}, ErrInvalidInput(err.Error())
			}
			out.MetricsQuery = res.Values
		}

		switch {
		case len(bundle.Histogram) == 0 && len(bundle.Facets) == 0:
			out.Hint = "No stats yet. Run purl_search_logs, or call purl_get_stats with refresh=true."
		default:
			out.Hint = printer.Sprintf("%d logs across %d buckets of %s.", out.TotalInWindow, len(bundle.Histogram), bundle.Interval)
		}
		return nil, out, nil
	}
}
