package client

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// RangeCustom is the range token that selects explicit from/to bounds.
const RangeCustom = "custom"

// Stream frame types
const (
	FrameLog = "log"
)

// TimeWindow is the time selection sent with search, stats and pattern requests.
// When both From and To are set they are sent as from/to; otherwise Range is
// sent as the preset token.
type TimeWindow struct {
	Range string
	From  string
	To    string
}

// IsCustom reports whether the window carries explicit bounds.
func (w TimeWindow) IsCustom() bool {
	return w.From != "" && w.To != ""
}

// apply writes the window parameters into query.
func (w TimeWindow) apply(query url.Values) {
	if w.IsCustom() {
		query.Set("from", w.From)
		query.Set("to", w.To)
		return
	}
	if w.Range != "" {
		query.Set("range", w.Range)
	}
}

// LogRecord is a single log line as returned by the search and stream endpoints.
// Top-level fields the backend sends beyond the known ones are kept in Extra
// and written back out on marshal. A numeric id is accepted and stored as its
// decimal text.
type LogRecord struct {
	ID        string         `json:"id,omitempty"`
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level,omitempty"`
	Service   string         `json:"service,omitempty"`
	Host      string         `json:"host,omitempty"`
	Message   string         `json:"message,omitempty"`
	Raw       string         `json:"raw,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	SpanID    string         `json:"span_id,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	Extra     map[string]any `json:"-"`
}

// SearchParams contains the parameters for a log search.
type SearchParams struct {
	Query  string // Free text query; empty matches all
	Window TimeWindow
	Limit  int
}

// SearchResponse is the response of GET /logs.
type SearchResponse struct {
	Hits  []LogRecord `json:"hits"`
	Total int         `json:"total"`
}

// FieldValue is one distinct value of a field and its occurrence count.
type FieldValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// FieldStatsResponse is the response of GET /stats/fields/{field}.
type FieldStatsResponse struct {
	Values []FieldValue `json:"values"`
}

// HistogramBucket is the log count for one bucket of the histogram.
type HistogramBucket struct {
	BucketStart string `json:"bucketStart"`
	Count       int64  `json:"count"`
}

// HistogramResponse is the response of GET /stats/histogram.
type HistogramResponse struct {
	Buckets []HistogramBucket `json:"buckets"`
}

// Metrics is the implementation-defined summary returned by GET /metrics/json.
type Metrics map[string]any

// Trace holds the logs correlated by a trace ID.
type Trace struct {
	TraceID  string      `json:"trace_id"`
	Logs     []LogRecord `json:"logs"`
	Services []string    `json:"services,omitempty"`
	Count    int         `json:"count"`
}

// TimelineSpan is one service span on a trace timeline.
type TimelineSpan struct {
	Service      string  `json:"service"`
	SpanID       string  `json:"span_id,omitempty"`
	ParentSpanID string  `json:"parent_span_id,omitempty"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time,omitempty"`
	DurationMs   float64 `json:"duration_ms,omitempty"`
	Level        string  `json:"level,omitempty"`
	LogCount     int     `json:"log_count,omitempty"`
}

// TraceTimeline is the response of GET /traces/{id}/timeline.
type TraceTimeline struct {
	TraceID  string         `json:"trace_id"`
	Services []TimelineSpan `json:"services"`
}

// RequestLogs holds the logs correlated by a request ID.
type RequestLogs struct {
	RequestID string      `json:"request_id"`
	Logs      []LogRecord `json:"logs"`
	Count     int         `json:"count"`
}

// Pattern is a recurring log message template.
type Pattern struct {
	Hash      string `json:"pattern_hash"`
	Pattern   string `json:"pattern"`
	Count     int64  `json:"count"`
	Service   string `json:"service,omitempty"`
	Level     string `json:"level,omitempty"`
	FirstSeen string `json:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`
	Sample    string `json:"sample,omitempty"`
}

// PatternsResponse is the response of GET /patterns.
type PatternsResponse struct {
	Patterns []Pattern `json:"patterns"`
}

// PatternLogs is the response of GET /patterns/{hash}/logs.
type PatternLogs struct {
	Hash  string      `json:"pattern_hash,omitempty"`
	Logs  []LogRecord `json:"logs"`
	Total int         `json:"total,omitempty"`
}

// LogContext holds the lines surrounding a log record.
type LogContext struct {
	Before []LogRecord `json:"before"`
	Log    *LogRecord  `json:"log,omitempty"`
	After  []LogRecord `json:"after"`
}

// StreamFrame is one message received on the live tail stream.
// Data is decoded according to Type.
type StreamFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// APIError represents an error response from the Purl API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("purl API error %d: %s", e.StatusCode, e.Message)
}

// errorResponse is the JSON structure for API errors.
type errorResponse struct {
	Error string `json:"error"`
}
