package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/internal/interval"
)

// HandleUsageGuide serves the tool usage guide.
func HandleUsageGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# Purl Log Explorer: Tool Usage Guide\n\n")

		// --- Mental model ---
		sb.WriteString("## How State Works\n\n")
		sb.WriteString("The server holds one query (text, range, live flag) and one result buffer.\n")
		fmt.Fprintf(&sb, "- `purl_search_logs` replaces the buffer with up to %d newest matches and refreshes stats in the background\n", cfg.MaxResults)
		sb.WriteString("- `purl_get_results`, `purl_query_results` and `purl_get_stats` read what the last search left behind; they never search\n")
		sb.WriteString("- Only the newest search wins. If two overlap, the older one fails with `SUPERSEDED`: just read results again\n")
		fmt.Fprintf(&sb, "- The default range is `%s`\n", cfg.DefaultRange)

		// --- Query syntax ---
		sb.WriteString("\n## Query Syntax\n\n")
		sb.WriteString("| Goal | Query | Example |\n")
		sb.WriteString("|------|-------|--------|\n")
		sb.WriteString("| Free text | words | `connection refused` |\n")
		sb.WriteString("| Field match | `field:value` | `level:ERROR service:api` |\n")
		sb.WriteString("| One trace | `trace_id:<id>` | prefer `purl_filter_by_trace` |\n")
		sb.WriteString("| One request | `request_id:<id>` | prefer `purl_filter_by_trace` with request_id |\n")

		// --- Ranges ---
		sb.WriteString("\n## Time Ranges\n\n")
		fmt.Fprintf(&sb, "- Presets: %s\n", strings.Join(interval.Presets(), ", "))
		sb.WriteString("- Custom: pass both `from` and `to` (RFC 3339). With only one of them the default preset is used\n")
		fmt.Fprintf(&sb, "- Histogram buckets follow the range: `%s` up to 6h, `%s` up to 7d presets, `%s` beyond\n", interval.Minute, interval.Hour, interval.Day)

		// --- Stats ---
		sb.WriteString("\n## Stats\n\n")
		fmt.Fprintf(&sb, "- Facets: %s\n", strings.Join(cfg.Facets, ", "))
		sb.WriteString("- Stats describe the whole window, not just the buffer. A facet that failed keeps its previous values\n")
		sb.WriteString("- `purl_get_stats(refresh=true)` waits for fresh numbers; `metrics_query` runs jq over server metrics\n")

		// --- Token-saving ---
		sb.WriteString("\n## Token-Saving Tips\n")
		sb.WriteString("- Search with a small `limit`, then page with `purl_get_results(offset=...)` only if needed\n")
		sb.WriteString("- Tally instead of reading: `purl_query_results(expression: \".service\", deduplicate: true)`\n")
		sb.WriteString("- Count by level: `purl_query_results(expression: \"select(.level == \\\"ERROR\\\") | .service\")` and read `raw_count`\n")
		sb.WriteString("- Resources `purl://results`, `purl://stats` and `purl://trace/{trace_id}` return everything at once. High context cost\n")

		// --- Workflows ---
		sb.WriteString("\n## Recommended Workflows\n")

		sb.WriteString("\n### Follow a Request Across Services\n")
		sb.WriteString("1. Find a log with a `trace_id`\n")
		sb.WriteString("2. `purl_get_trace(trace_id, include_timeline: true)` for spans and error count\n")
		sb.WriteString("3. `purl_filter_by_trace(trace_id)` to load the trace into the buffer for jq and stats\n")

		sb.WriteString("\n### Watch Live\n")
		sb.WriteString("1. `purl_live_tail(action: \"start\")`\n")
		sb.WriteString("2. Poll `purl_live_tail(action: \"status\", limit: 20)` for the newest lines\n")
		sb.WriteString("3. `purl_live_tail(action: \"stop\")` when done. A new search while live replaces the buffer; streaming continues on top of it\n")

		sb.WriteString("\n### Spot Noise\n")
		sb.WriteString("1. `purl_get_patterns` lists recurring templates with counts\n")
		sb.WriteString("2. `purl_get_pattern_logs(pattern_hash)` shows examples\n")
		sb.WriteString("3. `purl_get_log_context(log_id)` shows what happened around one line\n")

		return &sdkmcp.GetPromptResult{
			Description: "Essential guide for efficient tool usage",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
