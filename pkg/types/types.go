// Package types contains the engine-facing data model shared by the engine,
// the MCP tools, and custom tool authors.
package types

import (
	"encoding/json"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

// ToAny converts a typed value to any via JSON round-trip.
// This ensures the output is a map[string]any that passes MCP SDK schema validation.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResultSet is the visible log buffer.
// Total is the server-reported match count and is not necessarily len(Entries).
type ResultSet struct {
	Entries []client.LogRecord `json:"entries"`
	Total   int                `json:"total"`
}

// Len returns the number of buffered entries.
func (r ResultSet) Len() int {
	return len(r.Entries)
}

// StatsBundle holds the aggregates derived for the current query window.
type StatsBundle struct {
	Facets         map[string][]client.FieldValue `json:"facets"`
	Histogram      []client.HistogramBucket       `json:"histogram"`
	Interval       string                         `json:"interval,omitempty"`
	Metrics        client.Metrics                 `json:"metrics,omitempty"`
	MetricsSummary map[string]any                 `json:"metrics_summary,omitempty"`
}

// WithFacet returns a copy of the bundle with one facet replaced.
// The receiver is left untouched so readers holding it never observe a partial write.
func (b StatsBundle) WithFacet(name string, values []client.FieldValue) StatsBundle {
	facets := make(map[string][]client.FieldValue, len(b.Facets)+1)
	for k, v := range b.Facets {
		facets[k] = v
	}
	facets[name] = values
	b.Facets = facets
	return b
}

// LiveState is the connection state of the live tail.
type LiveState string

const (
	LiveDisconnected LiveState = "disconnected"
	LiveConnected    LiveState = "connected"
)
