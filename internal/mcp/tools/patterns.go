package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

// GetPatternsInput is the input for purl_get_patterns.
type GetPatternsInput struct{}

// GetPatternsOutput is the output for purl_get_patterns.
type GetPatternsOutput struct {
	Patterns []client.Pattern `json:"patterns,omitzero"`
	Hint     string           `json:"hint,omitempty"`
}

// ToolGetPatterns fetches recurring log templates for the current window.
func ToolGetPatterns(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetPatternsInput) (*sdkmcp.CallToolResult, GetPatternsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetPatternsInput) (*sdkmcp.CallToolResult, GetPatternsOutput, error) {
		patterns, err := d.Engine.Patterns().Fetch(ctx)
		if err != nil {
			return nil, GetPatternsOutput{}, WrapBackendError(err)
		}

		out := GetPatternsOutput{Patterns: patterns}
		if len(patterns) == 0 {
			out.Hint = "No patterns in this window. Widen the range with purl_search_logs."
		} else {
			out.Hint = "Use purl_get_pattern_logs with a pattern_hash to see matching logs."
		}
		return nil, out, nil
	}
}

// GetPatternLogsInput is the input for purl_get_pattern_logs.
type GetPatternLogsInput struct {
	PatternHash string `json:"pattern_hash" jsonschema:"pattern_hash from purl_get_patterns"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Logs to return (default: 50, max: 500)"`
}

// GetPatternLogsOutput is the output for purl_get_pattern_logs.
type GetPatternLogsOutput struct {
	PatternHash string             `json:"pattern_hash"`
	Total       int                `json:"total"`
	Logs        []client.LogRecord `json:"logs,omitzero"`
}

// ToolGetPatternLogs fetches the logs matching one pattern.
func ToolGetPatternLogs(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetPatternLogsInput) (*sdkmcp.CallToolResult, GetPatternLogsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetPatternLogsInput) (*sdkmcp.CallToolResult, GetPatternLogsOutput, error) {
		if input.PatternHash == "" {
			return nil, GetPatternLogsOutput{}, ErrInvalidInput("pattern_hash is required")
		}

		pl, err := d.Engine.Patterns().PatternLogs(ctx, input.PatternHash)
		if err != nil {
			return nil, GetPatternLogsOutput{}, WrapBackendError(err)
		}

		total := pl.Total
		if total == 0 {
			total = len(pl.Logs)
		}
		return nil, GetPatternLogsOutput{
			PatternHash: input.PatternHash,
			Total:       total,
			Logs:        page(pl.Logs, 0, clampLimit(input.Limit)),
		}, nil
	}
}
