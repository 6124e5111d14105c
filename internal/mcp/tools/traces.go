package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/internal/traces"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// GetTraceInput is the input for purl_get_trace.
type GetTraceInput struct {
	TraceID         string `json:"trace_id" jsonschema:"Trace ID from a log's trace_id field"`
	IncludeTimeline bool   `json:"include_timeline,omitempty" jsonschema:"Also fetch per-service spans and a summary"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Logs to return (default: 50, max: 500)"`
}

// GetTraceOutput is the output for purl_get_trace.
type GetTraceOutput struct {
	TraceID  string                `json:"trace_id"`
	Count    int                   `json:"count"`
	Services []string              `json:"services,omitzero"`
	Logs     []client.LogRecord    `json:"logs,omitzero"`
	Spans    []client.TimelineSpan `json:"spans,omitzero"`
	Summary  *traces.Summary       `json:"summary,omitempty"`
	Hint     string                `json:"hint,omitempty"`
}

// ToolGetTrace fetches the logs, and optionally the timeline, of a trace.
func ToolGetTrace(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetTraceInput) (*sdkmcp.CallToolResult, GetTraceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetTraceInput) (*sdkmcp.CallToolResult, GetTraceOutput, error) {
		if input.TraceID == "" {
			return nil, GetTraceOutput{}, ErrInvalidInput("trace_id is required")
		}

		svc := d.Engine.Traces()
		trace, err := svc.FetchTrace(ctx, input.TraceID)
		if err != nil {
			return nil, GetTraceOutput{}, WrapBackendError(err)
		}

		out := GetTraceOutput{
			TraceID:  trace.TraceID,
			Count:    trace.Count,
			Services: trace.Services,
			Logs:     compactRecords(page(trace.Logs, 0, clampLimit(input.Limit)), DefaultCompactOptions()),
		}
		if out.TraceID == "" {
			out.TraceID = input.TraceID
		}
		if out.Count == 0 {
			out.Count = len(trace.Logs)
		}

		if input.IncludeTimeline {
			tl, err := svc.FetchTimeline(ctx, input.TraceID)
			if err != nil {
				return nil, GetTraceOutput{}, WrapBackendError(err)
			}
			sum := traces.Summarize(tl)
			out.Spans = tl.Services
			out.Summary = &sum
			if sum.ErrorCount > 0 {
				out.Hint = printer.Sprintf("%d of %d spans errored. Use purl_filter_by_trace to load this trace into the result buffer.", sum.ErrorCount, sum.TotalSpans)
			}
		}
		if out.Hint == "" {
			out.Hint = "Use purl_filter_by_trace to load this trace into the result buffer for stats and jq queries."
		}
		return nil, out, nil
	}
}

// GetRequestInput is the input for purl_get_request.
type GetRequestInput struct {
	RequestID string `json:"request_id" jsonschema:"Request ID from a log's request_id field"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Logs to return (default: 50, max: 500)"`
}

// GetRequestOutput is the output for purl_get_request.
type GetRequestOutput struct {
	RequestID string             `json:"request_id"`
	Count     int                `json:"count"`
	Logs      []client.LogRecord `json:"logs,omitzero"`
}

// ToolGetRequest fetches the logs of a request.
func ToolGetRequest(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRequestInput) (*sdkmcp.CallToolResult, GetRequestOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRequestInput) (*sdkmcp.CallToolResult, GetRequestOutput, error) {
		if input.RequestID == "" {
			return nil, GetRequestOutput{}, ErrInvalidInput("request_id is required")
		}

		rl, err := d.Engine.Traces().FetchRequest(ctx, input.RequestID)
		if err != nil {
			return nil, GetRequestOutput{}, WrapBackendError(err)
		}

		count := rl.Count
		if count == 0 {
			count = len(rl.Logs)
		}
		return nil, GetRequestOutput{
			RequestID: input.RequestID,
			Count:     count,
			Logs:      page(rl.Logs, 0, clampLimit(input.Limit)),
		}, nil
	}
}

// FilterByTraceInput is the input for purl_filter_by_trace.
type FilterByTraceInput struct {
	TraceID   string `json:"trace_id,omitempty" jsonschema:"Search for trace_id:<id>"`
	RequestID string `json:"request_id,omitempty" jsonschema:"Search for request_id:<id>. Used when trace_id is empty."`
	Limit     int    `json:"limit,omitempty" jsonschema:"Entries to return (default: 50, max: 500)"`
	Verbose   bool   `json:"verbose,omitempty" jsonschema:"Return message, raw and meta in full"`
}

// ToolFilterByTrace replaces the query text with a trace or request filter and
// runs a search.
func ToolFilterByTrace(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterByTraceInput) (*sdkmcp.CallToolResult, SearchLogsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterByTraceInput) (*sdkmcp.CallToolResult, SearchLogsOutput, error) {
		var err error
		switch {
		case input.TraceID != "":
			_, err = d.Engine.FilterByTrace(ctx, input.TraceID)
		case input.RequestID != "":
			_, err = d.Engine.FilterByRequest(ctx, input.RequestID)
		default:
			return nil, SearchLogsOutput{}, ErrInvalidInput("trace_id or request_id is required")
		}
		if err != nil {
			return nil, SearchLogsOutput{}, WrapBackendError(err)
		}

		st := d.Engine.State()
		q := st.Get()
		window := q.Window(st.DefaultRange())
		rs := d.Engine.Results().Get()
		entries := shapeEntries(page(rs.Entries, 0, clampLimit(input.Limit)), input.Verbose)

		return nil, SearchLogsOutput{
			Entries:  entries,
			Total:    rs.Total,
			Buffered: rs.Len(),
			Query:    q.Text,
			Range:    window.Range,
			From:     window.From,
			To:       window.To,
			Interval: q.Interval(st.DefaultRange()),
			Hint:     pageHint(len(entries), 0, rs.Len(), rs.Total),
		}, nil
	}
}
