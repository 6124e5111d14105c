package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purl-logs/purl-explorer/internal/config"
	"github.com/purl-logs/purl-explorer/internal/engine"
	"github.com/purl-logs/purl-explorer/internal/scope"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// --- helpers ---

type fakeAPI struct {
	mu       sync.Mutex
	logQuery []string
	hits     []client.LogRecord
	total    int
}

func (f *fakeAPI) lastLogQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.logQuery) == 0 {
		return ""
	}
	return f.logQuery[len(f.logQuery)-1]
}

func (f *fakeAPI) mux() *http.ServeMux {
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/logs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logQuery = append(f.logQuery, r.URL.RawQuery)
		hits, total := f.hits, f.total
		f.mu.Unlock()
		writeJSON(w, client.SearchResponse{Hits: hits, Total: total})
	})
	mux.HandleFunc("/api/stats/fields/{field}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, client.FieldStatsResponse{Values: []client.FieldValue{{Value: "ERROR", Count: 3}}})
	})
	mux.HandleFunc("/api/stats/histogram", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, client.HistogramResponse{Buckets: []client.HistogramBucket{
			{BucketStart: "B1", Count: 1200},
			{BucketStart: "B2", Count: 34},
		}})
	})
	mux.HandleFunc("/api/metrics/json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ingest": {"lines_per_second": 42}, "uptime_seconds": 60}`))
	})
	mux.HandleFunc("/api/traces/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"error": "trace not found"})
			return
		}
		writeJSON(w, client.Trace{
			TraceID:  r.PathValue("id"),
			Logs:     []client.LogRecord{{ID: "a", Timestamp: "T1"}, {ID: "b", Timestamp: "T2"}},
			Services: []string{"api", "db"},
		})
	})
	mux.HandleFunc("/api/traces/{id}/timeline", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, client.TraceTimeline{TraceID: r.PathValue("id"), Services: []client.TimelineSpan{
			{Service: "api", Level: "INFO"},
			{Service: "db", Level: "ERROR"},
			{Service: "api", Level: "INFO"},
		}})
	})
	mux.HandleFunc("/api/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, client.RequestLogs{RequestID: r.PathValue("id"), Logs: []client.LogRecord{{ID: "r1"}}})
	})
	mux.HandleFunc("/api/patterns", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, client.PatternsResponse{Patterns: []client.Pattern{{Hash: "p1", Pattern: "user <*> logged in", Count: 9}}})
	})
	mux.HandleFunc("/api/patterns/{hash}/logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, client.PatternLogs{Hash: r.PathValue("hash"), Logs: []client.LogRecord{{ID: "x"}, {ID: "y"}}})
	})
	mux.HandleFunc("/api/logs/{id}/context", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before") != "50" {
			http.Error(w, "unexpected before", http.StatusBadRequest)
			return
		}
		writeJSON(w, client.LogContext{
			Before: []client.LogRecord{{ID: "b1"}},
			Log:    &client.LogRecord{ID: r.PathValue("id")},
			After:  []client.LogRecord{{ID: "a1"}, {ID: "a2"}},
		})
	})
	return mux
}

func newTestDeps(t *testing.T, api *fakeAPI) *Deps {
	t.Helper()
	srv := httptest.NewServer(api.mux())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL + "/api"
	e, err := engine.New(cfg, client.New(client.WithBaseURL(cfg.BaseURL)))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	return &Deps{Engine: e, Config: cfg}
}

func records(n int) []client.LogRecord {
	out := make([]client.LogRecord, n)
	for i := range out {
		out[i] = client.LogRecord{Timestamp: fmt.Sprintf("T%03d", i), Level: "INFO", Service: "api"}
	}
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var coded *CodedError
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, code, coded.Code)
}

// --- tests ---

func TestSearchLogs(t *testing.T) {
	api := &fakeAPI{hits: records(120), total: 12345}
	d := newTestDeps(t, api)

	_, out, err := ToolSearchLogs(d)(context.Background(), nil, SearchLogsInput{Query: "level:INFO", Range: "1h", Limit: 10})
	require.NoError(t, err)

	assert.Len(t, out.Entries, 10)
	assert.Equal(t, "T000-0", out.Entries[0].ID)
	assert.Equal(t, 12345, out.Total)
	assert.Equal(t, 120, out.Buffered)
	assert.Equal(t, "1h", out.Range)
	assert.Equal(t, "1 minute", out.Interval)
	assert.Contains(t, out.Hint, "12,345")
	assert.Contains(t, api.lastLogQuery(), "range=1h")
}

func TestSearchLogs_InvalidInput(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})
	tool := ToolSearchLogs(d)

	_, _, err := tool(context.Background(), nil, SearchLogsInput{Range: "2w"})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = tool(context.Background(), nil, SearchLogsInput{From: "yesterday", To: "2024-05-01T00:00:00Z"})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = tool(context.Background(), nil, SearchLogsInput{From: "2024-05-02T00:00:00Z", To: "2024-05-01T00:00:00Z"})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestSearchLogs_CustomRange(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDeps(t, api)

	_, out, err := ToolSearchLogs(d)(context.Background(), nil, SearchLogsInput{
		From: "2024-05-01T00:00:00Z",
		To:   "2024-05-01T03:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T00:00:00Z", out.From)
	assert.Equal(t, "1 minute", out.Interval)
	assert.Contains(t, api.lastLogQuery(), "from=2024-05-01T00%3A00%3A00Z")

	// Only one bound: the default preset applies.
	_, out, err = ToolSearchLogs(d)(context.Background(), nil, SearchLogsInput{From: "2024-05-01T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "15m", out.Range)
	assert.Empty(t, out.From)
	assert.Contains(t, api.lastLogQuery(), "range=15m")
}

func TestGetResults_Paging(t *testing.T) {
	api := &fakeAPI{hits: records(30), total: 30}
	d := newTestDeps(t, api)
	_, _, err := ToolSearchLogs(d)(context.Background(), nil, SearchLogsInput{})
	require.NoError(t, err)

	_, out, err := ToolGetResults(d)(context.Background(), nil, GetResultsInput{Limit: 20, Offset: 20})
	require.NoError(t, err)
	assert.Len(t, out.Entries, 10)
	assert.Equal(t, "T020", out.Entries[0].Timestamp)
	assert.False(t, out.Live)
	assert.False(t, out.Loading)

	_, out, err = ToolGetResults(d)(context.Background(), nil, GetResultsInput{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, out.Entries)

	_, _, err = ToolGetResults(d)(context.Background(), nil, GetResultsInput{Offset: -1})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestQueryResults(t *testing.T) {
	api := &fakeAPI{hits: []client.LogRecord{
		{Timestamp: "T1", Level: "ERROR", Service: "api"},
		{Timestamp: "T2", Level: "ERROR", Service: "api"},
		{Timestamp: "T3", Level: "INFO", Service: "web"},
	}, total: 3}
	d := newTestDeps(t, api)
	tool := ToolQueryResults(d)

	_, out, err := tool(context.Background(), nil, QueryResultsInput{Expression: ".service"})
	require.NoError(t, err)
	assert.Contains(t, out.Hint, "purl_search_logs")

	_, _, err = ToolSearchLogs(d)(context.Background(), nil, SearchLogsInput{})
	require.NoError(t, err)

	_, out, err = tool(context.Background(), nil, QueryResultsInput{Expression: `select(.level == "ERROR") | .service`, Deduplicate: true})
	require.NoError(t, err)
	assert.Equal(t, []any{"api"}, out.Values)
	assert.Equal(t, 2, out.RawCount)
	assert.Equal(t, 2, out.MatchedLogs)
	assert.Equal(t, 3, out.Searched)

	_, _, err = tool(context.Background(), nil, QueryResultsInput{Expression: ".["})
	requireCode(t, err, ErrCodeInvalidInput)
	_, _, err = tool(context.Background(), nil, QueryResultsInput{})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestDescribeFields(t *testing.T) {
	hits := records(6)
	for i := range hits {
		hits[i].Meta = map[string]any{"namespace": "prod"}
		hits[i].Extra = map[string]any{"pod": "api-1"}
	}
	hits[0].Level = "ERROR"
	api := &fakeAPI{hits: hits, total: 6}
	d := newTestDeps(t, api)
	tool := ToolDescribeFields(d)

	_, out, err := tool(context.Background(), nil, DescribeFieldsInput{})
	require.NoError(t, err)
	assert.Zero(t, out.Sampled)
	assert.Contains(t, out.Hint, "purl_search_logs")

	_, _, err = ToolSearchLogs(d)(context.Background(), nil, SearchLogsInput{})
	require.NoError(t, err)

	_, out, err = tool(context.Background(), nil, DescribeFieldsInput{IncludeSchema: true})
	require.NoError(t, err)
	assert.Equal(t, 6, out.Sampled)
	assert.Contains(t, out.FacetCandidates, "level")
	assert.Contains(t, out.FacetCandidates, "meta.namespace")
	assert.Equal(t, "object", out.Schema["type"])

	paths := make([]string, len(out.Fields))
	for i, f := range out.Fields {
		paths[i] = f.Path
	}
	assert.Contains(t, paths, "timestamp")
	assert.Contains(t, paths, "meta.namespace")
	assert.Contains(t, paths, "pod", "top-level keys beyond the known fields are described")

	_, out, err = tool(context.Background(), nil, DescribeFieldsInput{Sample: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Sampled)
	assert.Nil(t, out.Schema)

	_, _, err = tool(context.Background(), nil, DescribeFieldsInput{Sample: -1})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestGetStats(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})

	_, out, err := ToolGetStats(d)(context.Background(), nil, GetStatsInput{})
	require.NoError(t, err)
	assert.Contains(t, out.Hint, "No stats yet")

	_, out, err = ToolGetStats(d)(context.Background(), nil, GetStatsInput{
		Refresh:      true,
		MetricsQuery: ".ingest.lines_per_second",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1234), out.TotalInWindow)
	assert.Equal(t, "1 minute", out.Interval)
	assert.Len(t, out.Facets, 6)
	assert.Equal(t, []any{float64(42)}, out.MetricsQuery)
	assert.Contains(t, out.Hint, "1,234 logs")

	_, _, err = ToolGetStats(d)(context.Background(), nil, GetStatsInput{MetricsQuery: "|||"})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestLiveTail_Status(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})
	tool := ToolLiveTail(d)

	_, out, err := tool(context.Background(), nil, LiveTailInput{Action: LiveActionStatus})
	require.NoError(t, err)
	assert.Equal(t, "disconnected", string(out.State))
	assert.False(t, out.Live)

	_, _, err = tool(context.Background(), nil, LiveTailInput{Action: "pause"})
	requireCode(t, err, ErrCodeInvalidInput)

	// The fake API has no stream endpoint, so the handshake fails.
	_, _, err = tool(context.Background(), nil, LiveTailInput{Action: LiveActionStart})
	requireCode(t, err, ErrCodeNotFound)
}

func TestGetTrace(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})
	tool := ToolGetTrace(d)

	_, out, err := tool(context.Background(), nil, GetTraceInput{TraceID: "abc", IncludeTimeline: true})
	require.NoError(t, err)
	assert.Equal(t, "abc", out.TraceID)
	assert.Equal(t, 2, out.Count)
	require.NotNil(t, out.Summary)
	assert.Equal(t, 3, out.Summary.TotalSpans)
	assert.Equal(t, 2, out.Summary.UniqueServices)
	assert.Equal(t, 1, out.Summary.ErrorCount)
	assert.Contains(t, out.Hint, "1 of 3 spans errored")

	_, _, err = tool(context.Background(), nil, GetTraceInput{TraceID: "missing"})
	requireCode(t, err, ErrCodeNotFound)

	_, _, err = tool(context.Background(), nil, GetTraceInput{})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestGetRequest(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})

	_, out, err := ToolGetRequest(d)(context.Background(), nil, GetRequestInput{RequestID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "r1", out.Logs[0].ID)
}

func TestFilterByTrace(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDeps(t, api)
	tool := ToolFilterByTrace(d)

	_, out, err := tool(context.Background(), nil, FilterByTraceInput{TraceID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "trace_id:abc", out.Query)
	assert.Contains(t, api.lastLogQuery(), "q=trace_id%3Aabc")

	_, out, err = tool(context.Background(), nil, FilterByTraceInput{RequestID: "r-9"})
	require.NoError(t, err)
	assert.Equal(t, "request_id:r-9", out.Query)

	_, _, err = tool(context.Background(), nil, FilterByTraceInput{})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestPatterns(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})

	_, out, err := ToolGetPatterns(d)(context.Background(), nil, GetPatternsInput{})
	require.NoError(t, err)
	require.Len(t, out.Patterns, 1)
	assert.Equal(t, "p1", out.Patterns[0].Hash)

	_, logs, err := ToolGetPatternLogs(d)(context.Background(), nil, GetPatternLogsInput{PatternHash: "p1", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, logs.Total)
	assert.Len(t, logs.Logs, 1)

	_, _, err = ToolGetPatternLogs(d)(context.Background(), nil, GetPatternLogsInput{})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestGetLogContext(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})

	_, out, err := ToolGetLogContext(d)(context.Background(), nil, LogContextInput{LogID: "L1"})
	require.NoError(t, err)
	assert.Equal(t, "L1", out.Log.ID)
	assert.Len(t, out.Before, 1)
	assert.Len(t, out.After, 2)

	_, _, err = ToolGetLogContext(d)(context.Background(), nil, LogContextInput{})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestWrapBackendError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"superseded", fmt.Errorf("search: %w", scope.ErrSuperseded), ErrCodeSuperseded},
		{"canceled", context.Canceled, ErrCodeSuperseded},
		{"not found", &client.APIError{StatusCode: 404, Message: "no such trace"}, ErrCodeNotFound},
		{"server error", fmt.Errorf("searching logs: %w", &client.APIError{StatusCode: 502, Message: "bad gateway"}), ErrCodeBackendError},
		{"deadline", fmt.Errorf("executing request: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"other", errors.New("connection refused"), ErrCodeBackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireCode(t, WrapBackendError(tt.err), tt.code)
		})
	}

	assert.NoError(t, WrapBackendError(nil))

	coded := ErrInvalidInput("bad")
	assert.Same(t, coded, WrapBackendError(coded))
}

func TestPageHint(t *testing.T) {
	assert.Contains(t, pageHint(0, 0, 0, 0), "No logs matched")
	assert.Contains(t, pageHint(50, 0, 500, 1000), "offset=50")
	assert.Contains(t, pageHint(50, 450, 500, 12000), "newest 500 of 12,000")
	assert.Contains(t, pageHint(3, 0, 3, 3), "purl_get_log_context")
}

func TestSearchLogs_CallerCancel(t *testing.T) {
	d := newTestDeps(t, &fakeAPI{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, _, err := ToolSearchLogs(d)(ctx, nil, SearchLogsInput{})
	require.Error(t, err)
	var coded *CodedError
	require.ErrorAs(t, err, &coded)
	assert.Contains(t, []string{ErrCodeTimeout, ErrCodeSuperseded}, coded.Code)
}
