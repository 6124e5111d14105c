package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecord_KeepsUnknownFields(t *testing.T) {
	var rec LogRecord
	err := json.Unmarshal([]byte(`{"timestamp":"T1","level":"ERROR","pod":"api-7","status":500,"tags":["a","b"]}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, "T1", rec.Timestamp)
	assert.Equal(t, "ERROR", rec.Level)
	assert.Equal(t, map[string]any{
		"pod":    "api-7",
		"status": float64(500),
		"tags":   []any{"a", "b"},
	}, rec.Extra)
}

func TestLogRecord_NoUnknownFieldsLeavesExtraNil(t *testing.T) {
	var rec LogRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","timestamp":"T1","meta":{"pod":"x"}}`), &rec))
	assert.Nil(t, rec.Extra)
	assert.Equal(t, map[string]any{"pod": "x"}, rec.Meta)
}

func TestLogRecord_ID(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"string", `{"id":"abc","timestamp":"T1"}`, "abc"},
		{"integer", `{"id":42,"timestamp":"T1"}`, "42"},
		{"large integer", `{"id":9007199254740993,"timestamp":"T1"}`, "9007199254740993"},
		{"null", `{"id":null,"timestamp":"T1"}`, ""},
		{"missing", `{"timestamp":"T1"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec LogRecord
			require.NoError(t, json.Unmarshal([]byte(tt.data), &rec))
			assert.Equal(t, tt.want, rec.ID)
			assert.Nil(t, rec.Extra)
		})
	}
}

func TestLogRecord_RejectsNonScalarID(t *testing.T) {
	var rec LogRecord
	err := json.Unmarshal([]byte(`{"id":{"n":1},"timestamp":"T1"}`), &rec)
	assert.Error(t, err)
}

func TestLogRecord_MarshalWritesExtra(t *testing.T) {
	rec := LogRecord{
		ID:        "7",
		Timestamp: "T1",
		Extra:     map[string]any{"pod": "api-7", "timestamp": "shadowed"},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","timestamp":"T1","pod":"api-7"}`, string(data))

	var back LogRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, map[string]any{"pod": "api-7"}, back.Extra)
}

func TestLogRecord_MarshalWithoutExtra(t *testing.T) {
	data, err := json.Marshal(LogRecord{Timestamp: "T1", Level: "INFO"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"T1","level":"INFO"}`, string(data))
}

func TestSearchLogs_KeepsUnknownFieldsAndNumericIDs(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[{"timestamp":"T1","pod":"api-7","status":500},{"id":42,"timestamp":"T2"}],"total":2}`))
	})

	resp, err := c.SearchLogs(context.Background(), SearchParams{Window: TimeWindow{Range: "15m"}})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 2)
	assert.Equal(t, map[string]any{"pod": "api-7", "status": float64(500)}, resp.Hits[0].Extra)
	assert.Equal(t, "42", resp.Hits[1].ID)
}
