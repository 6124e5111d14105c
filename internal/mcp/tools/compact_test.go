package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

func TestCompactRecords(t *testing.T) {
	long := strings.Repeat("x", 600)
	in := []client.LogRecord{{
		ID:      "a",
		Message: long,
		Raw:     long,
		Meta: map[string]any{
			"tags":  []any{"a", "b", "c", "d", "e"},
			"pod":   "api-7f9",
			"inner": map[string]any{"ids": []any{1.0, 2.0, 3.0, 4.0}},
		},
	}}

	out := compactRecords(in, DefaultCompactOptions())
	require.Len(t, out, 1)

	assert.Empty(t, out[0].Raw, "raw repeating message is dropped")
	assert.True(t, strings.HasSuffix(out[0].Message, "... (100 more chars)"))
	assert.Equal(t, []any{"a", "b", "c", "... (2 more items)"}, out[0].Meta["tags"])
	assert.Equal(t, "api-7f9", out[0].Meta["pod"])
	assert.Equal(t, []any{1.0, 2.0, 3.0, "... (1 more items)"}, out[0].Meta["inner"].(map[string]any)["ids"])

	// The input is untouched.
	assert.Len(t, in[0].Meta["tags"], 5)
	assert.Equal(t, long, in[0].Raw)
}

func TestCompactRecords_NoLimits(t *testing.T) {
	in := []client.LogRecord{{Message: "m", Raw: "raw line", Meta: map[string]any{"tags": []any{"a", "b", "c", "d"}}}}

	out := compactRecords(in, CompactOptions{})
	assert.Equal(t, "raw line", out[0].Raw)
	assert.Len(t, out[0].Meta["tags"], 4)
	assert.Empty(t, compactRecords(nil, DefaultCompactOptions()))
}

func TestCompactRecords_Extra(t *testing.T) {
	in := []client.LogRecord{{
		Message: "m",
		Extra:   map[string]any{"tags": []any{"a", "b", "c", "d"}, "status": 500.0},
	}}

	out := compactRecords(in, DefaultCompactOptions())
	assert.Equal(t, []any{"a", "b", "c", "... (1 more items)"}, out[0].Extra["tags"])
	assert.Equal(t, 500.0, out[0].Extra["status"])
	assert.Len(t, in[0].Extra["tags"], 4)
}
