package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Search and result buffer
	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_search_logs",
		Description: "Search logs. Sets the query text and time range, replaces the result buffer with up to max-results newest matches, and refreshes stats in the background. Returns the first `limit` entries, the server total, and the effective range and histogram interval. A search overtaken by a newer one fails with SUPERSEDED.",
	}, ToolSearchLogs(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_get_results",
		Description: "Page through the current result buffer without searching. Also reports loading, the last search error, and whether live tail is on. Use after purl_search_logs or while live tail is running.",
	}, ToolGetResults(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_query_results",
		Description: "Run a jq expression against every log in the result buffer and collect the values. Use it to tally or extract fields, e.g. `select(.level == \"ERROR\") | .service` with deduplicate=true. Returns values, per-log counts keyed by log id, and per-log errors.",
	}, ToolQueryResults(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_get_log_context",
		Description: "Get the log lines before and after one log, by log id.",
	}, ToolGetLogContext(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_describe_fields",
		Description: "Describe the fields present in the result buffer: path, type, frequency, distinct count, examples and detected format (uuid, iso8601, url, email or enum). Low-cardinality string fields are listed as facet candidates. Set include_schema=true for a JSON Schema of the log shape.",
	}, ToolDescribeFields(d))

	// Stats
	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_get_stats",
		Description: "Get the stats bundle for the current window: top values for level, service, host and nested meta facets, the time histogram with its bucket interval, and server metrics. Set refresh=true to recompute synchronously. metrics_query runs a jq expression against the raw metrics.",
	}, ToolGetStats(d))

	// Live tail
	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_live_tail",
		Description: "Start, stop or check the live tail. While on, streamed logs are prepended to the result buffer, which keeps the newest max-results entries. Returns the connection state and the newest entries.",
	}, ToolLiveTail(d))

	// Correlation
	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_get_trace",
		Description: "Get the logs of a trace. Set include_timeline=true for per-service spans and a summary (span count, services, error spans). Results are cached.",
	}, ToolGetTrace(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_get_request",
		Description: "Get the logs of a request by request_id.",
	}, ToolGetRequest(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_filter_by_trace",
		Description: "Replace the query with trace_id:<id> (or request_id:<id>) and search, so the result buffer, stats and purl_query_results cover just that trace or request.",
	}, ToolFilterByTrace(d))

	// Patterns
	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_get_patterns",
		Description: "List recurring log message templates in the current window with counts, first/last seen and a sample.",
	}, ToolGetPatterns(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "purl_get_pattern_logs",
		Description: "Get logs matching one pattern over the current preset range (custom ranges use the default preset).",
	}, ToolGetPatternLogs(d))
}
