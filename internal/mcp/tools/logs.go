package tools

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

// SearchLogsInput is the input for purl_search_logs.
type SearchLogsInput struct {
	Query   string `json:"query,omitempty" jsonschema:"Search text, e.g. 'level:ERROR service:api timeout'. Empty matches all logs."`
	Range   string `json:"range,omitempty" jsonschema:"Preset range: 5m, 15m, 30m, 1h, 3h, 4h, 6h, 12h, 24h, 7d or 30d. Ignored when from and to are set."`
	From    string `json:"from,omitempty" jsonschema:"Custom range start (RFC 3339). Needs to as well, otherwise the default preset is used."`
	To      string `json:"to,omitempty" jsonschema:"Custom range end (RFC 3339)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Entries to return (default: 50, max: 500). The buffer always holds up to max-results."`
	Verbose bool   `json:"verbose,omitempty" jsonschema:"Return message, raw and meta in full. Default: strings cut at 500 chars and meta arrays at 3 items"`
}

// SearchLogsOutput is the output for purl_search_logs.
type SearchLogsOutput struct {
	Entries  []client.LogRecord `json:"entries,omitzero"`
	Total    int                `json:"total"`
	Buffered int                `json:"buffered"`
	Query    string             `json:"query"`
	Range    string             `json:"range,omitempty"`
	From     string             `json:"from,omitempty"`
	To       string             `json:"to,omitempty"`
	Interval string             `json:"interval"`
	Hint     string             `json:"hint,omitempty"`
}

// ToolSearchLogs applies the inputs to the query state and runs a search.
func ToolSearchLogs(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchLogsInput) (*sdkmcp.CallToolResult, SearchLogsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchLogsInput) (*sdkmcp.CallToolResult, SearchLogsOutput, error) {
		st := d.Engine.State()

		if input.From != "" || input.To != "" {
			from, err := parseBound("from", input.From)
			if err != nil {
				return nil, SearchLogsOutput{}, err
			}
			to, err := parseBound("to", input.To)
			if err != nil {
				return nil, SearchLogsOutput{}, err
			}
			if !from.IsZero() && !to.IsZero() && !from.Before(to) {
				return nil, SearchLogsOutput{}, ErrInvalidInput("from must be before to")
			}
			st.SetCustomRange(from, to)
		} else if input.Range != "" {
			if err := st.SetRange(input.Range); err != nil {
				return nil, SearchLogsOutput{}, ErrInvalidInput(err.Error())
			}
		}
		st.SetText(input.Query)

		rs, err := d.Engine.RunSearch(ctx)
		if err != nil {
			return nil, SearchLogsOutput{}, WrapBackendError(err)
		}

		q := st.Get()
		window := q.Window(st.DefaultRange())
		limit := clampLimit(input.Limit)
		entries := shapeEntries(page(rs.Entries, 0, limit), input.Verbose)

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

func parseBound(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ErrInvalidInput(fmt.Sprintf("%s must be RFC 3339, got %q", name, value))
	}
	return t, nil
}

// GetResultsInput is the input for purl_get_results.
type GetResultsInput struct {
	Limit   int  `json:"limit,omitempty" jsonschema:"Entries to return (default: 50, max: 500)"`
	Offset  int  `json:"offset,omitempty" jsonschema:"Offset into the buffer, newest first"`
	Verbose bool `json:"verbose,omitempty" jsonschema:"Return message, raw and meta in full"`
}

// GetResultsOutput is the output for purl_get_results.
type GetResultsOutput struct {
	Entries  []client.LogRecord `json:"entries,omitzero"`
	Total    int                `json:"total"`
	Buffered int                `json:"buffered"`
	Offset   int                `json:"offset"`
	Loading  bool               `json:"loading"`
	Error    string             `json:"error,omitempty"`
	Live     bool               `json:"live"`
	Hint     string             `json:"hint,omitempty"`
}

// ToolGetResults pages through the current result buffer without searching.
func ToolGetResults(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetResultsInput) (*sdkmcp.CallToolResult, GetResultsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetResultsInput) (*sdkmcp.CallToolResult, GetResultsOutput, error) {
		if input.Offset < 0 {
			return nil, GetResultsOutput{}, ErrInvalidInput("offset must not be negative")
		}

		rs := d.Engine.Results().Get()
		entries := shapeEntries(page(rs.Entries, input.Offset, clampLimit(input.Limit)), input.Verbose)

		return nil, GetResultsOutput{
			Entries:  entries,
			Total:    rs.Total,
			Buffered: rs.Len(),
			Offset:   input.Offset,
			Loading:  d.Engine.Loading().Get(),
			Error:    d.Engine.Error().Get(),
			Live:     d.Engine.State().Get().Live,
			Hint:     pageHint(len(entries), input.Offset, rs.Len(), rs.Total),
		}, nil
	}
}

// QueryResultsInput is the input for purl_query_results.
type QueryResultsInput struct {
	Expression  string `json:"expression" jsonschema:"jq expression evaluated against each buffered log, e.g. 'select(.level == \"ERROR\") | .service'"`
	Deduplicate bool   `json:"deduplicate,omitempty" jsonschema:"Drop repeated values"`
	MaxResults  int    `json:"max_results,omitempty" jsonschema:"Maximum values to return (default: 100)"`
}

// QueryResultsOutput is the output for purl_query_results.
type QueryResultsOutput struct {
	Values      []any          `json:"values,omitzero"`
	RawCount    int            `json:"raw_count"`
	MatchedLogs int            `json:"matched_logs"`
	Searched    int            `json:"searched"`
	Errors      []string       `json:"errors,omitzero"`
	LabelCounts map[string]int `json:"label_counts,omitempty"`
	Hint        string         `json:"hint,omitempty"`
}

// ToolQueryResults runs a jq expression over the result buffer.
func ToolQueryResults(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryResultsInput) (*sdkmcp.CallToolResult, QueryResultsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryResultsInput) (*sdkmcp.CallToolResult, QueryResultsOutput, error) {
		if input.Expression == "" {
			return nil, QueryResultsOutput{}, ErrInvalidInput("expression is required")
		}
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 100
		}

		res, err := d.Engine.QueryResults(input.Expression, input.Deduplicate, maxResults)
		if err != nil {
			return nil, QueryResultsOutput{}, ErrInvalidInput(err.Error())
		}

		searched := d.Engine.Results().Get().Len()
		out := QueryResultsOutput{
			Values:      res.Values,
			RawCount:    res.RawCount,
			MatchedLogs: len(res.MatchedIndices),
			Searched:    searched,
			Errors:      res.Errors,
			LabelCounts: res.LabelCounts,
		}
		switch {
		case searched == 0:
			out.Hint = "The result buffer is empty. Run purl_search_logs first."
		case len(res.Values) == 0:
			out.Hint = "No values produced. Check field names against purl_get_results output."
		case len(res.Values) >= maxResults:
			out.Hint = printer.Sprintf("Stopped at %d values. Raise max_results or set deduplicate=true.", maxResults)
		}
		return nil, out, nil
	}
}

// LogContextInput is the input for purl_get_log_context.
type LogContextInput struct {
	LogID  string `json:"log_id" jsonschema:"Log id from search results"`
	Before int    `json:"before,omitempty" jsonschema:"Lines before (default: context-lines)"`
	After  int    `json:"after,omitempty" jsonschema:"Lines after (default: context-lines)"`
}

// LogContextOutput is the output for purl_get_log_context.
type LogContextOutput struct {
	Before []client.LogRecord `json:"before,omitzero"`
	Log    *client.LogRecord  `json:"log,omitempty"`
	After  []client.LogRecord `json:"after,omitzero"`
}

// ToolGetLogContext fetches the lines surrounding a log.
func ToolGetLogContext(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input LogContextInput) (*sdkmcp.CallToolResult, LogContextOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input LogContextInput) (*sdkmcp.CallToolResult, LogContextOutput, error) {
		if input.LogID == "" {
			return nil, LogContextOutput{}, ErrInvalidInput("log_id is required")
		}

		lc, err := d.Engine.LogContext(ctx, input.LogID, input.Before, input.After)
		if err != nil {
			return nil, LogContextOutput{}, WrapBackendError(err)
		}

		return nil, LogContextOutput{
			Before: lc.Before,
			Log:    lc.Log,
			After:  lc.After,
		}, nil
	}
}
