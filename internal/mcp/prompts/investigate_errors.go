package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleInvestigateErrors implements the error investigation workflow.
func HandleInvestigateErrors(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments

		service := ""
		rangeToken := cfg.DefaultRange
		if args != nil {
			if v, ok := args["service"]; ok {
				service = v
			}
			if v, ok := args["range"]; ok && v != "" {
				rangeToken = v
			}
		}

		query := "level:ERROR"
		if service != "" {
			query += " service:" + service
		}

		var sb strings.Builder

		// 1. Role
		sb.WriteString("# Investigate Errors\n\n")
		sb.WriteString("You are an on-call engineer triaging errors from application logs. ")
		sb.WriteString("Your goal is to find what is failing, where, since when, and why, and to report it concisely.\n\n")

		// 2. Context usage
		sb.WriteString("## Context Usage Guide\n\n")
		sb.WriteString("- **purl_get_stats**: Low cost -- facet counts and histogram for the whole window\n")
		sb.WriteString("- **purl_query_results**: Low cost -- tallies over the buffer without returning logs\n")
		sb.WriteString("- **purl_search_logs / purl_get_results**: Medium cost -- keep `limit` small\n")
		sb.WriteString("- **purl://results**: High cost -- avoid unless you need every line\n\n")

		// 3. Workflow
		sb.WriteString("## Workflow Steps\n\n")
		fmt.Fprintf(&sb, "1. **Search errors** -- `purl_search_logs(query: %q, range: %q, limit: 20)`\n", query, rangeToken)
		sb.WriteString("   - `total` vs `buffered` tells you whether you are seeing everything\n\n")
		sb.WriteString("2. **Break down** -- `purl_get_stats(refresh: true)`\n")
		sb.WriteString("   - `facets.service` and `facets.host` show where errors concentrate\n")
		sb.WriteString("   - The histogram shows whether errors started at a point in time or are constant\n\n")
		sb.WriteString("3. **Group messages** -- `purl_query_results(expression: \".message\", deduplicate: true)`\n")
		sb.WriteString("   - Then `purl_get_patterns` to see which templates dominate\n\n")
		sb.WriteString("4. **Follow one failure** -- pick a log with a trace_id\n")
		sb.WriteString("   - `purl_get_trace(trace_id, include_timeline: true)` finds the first service that errored\n")
		sb.WriteString("   - `purl_get_log_context(log_id)` shows what preceded it\n\n")

		if service == "" {
			sb.WriteString("5. **Narrow** -- rerun step 1 with `service:<name>` for the noisiest service\n\n")
		} else {
			fmt.Fprintf(&sb, "5. **Check dependencies** -- search `level:ERROR` without `service:%s` over the same range to see whether callers or callees fail too\n\n", service)
		}

		// 4. Output
		sb.WriteString("## Report\n\n")
		sb.WriteString("Summarize: affected services and hosts, error count and trend, top 3 message patterns, ")
		sb.WriteString("and the most likely root cause with the trace or log ids that support it.\n")

		return &sdkmcp.GetPromptResult{
			Description: "Error investigation workflow",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
