package fields

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, docs ...string) []any {
	t.Helper()
	out := make([]any, 0, len(docs))
	for _, d := range docs {
		var v any
		require.NoError(t, json.Unmarshal([]byte(d), &v))
		out = append(out, v)
	}
	return out
}

func byPath(fields []Field) map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Path] = f
	}
	return m
}

func TestDescribe_PathsAndFrequency(t *testing.T) {
	samples := decode(t,
		`{"level":"info","meta":{"namespace":"prod","tags":["a","b"]}}`,
		`{"level":"error","meta":{"namespace":"dev"},"retries":3}`,
		`{"level":"info","meta":null}`,
		`"not an object"`,
	)

	fields := Describe(samples, Options{})
	m := byPath(fields)

	require.Contains(t, m, "level")
	assert.Equal(t, 1.0, m["level"].Frequency)
	assert.Equal(t, "string", m["level"].Type)
	assert.Equal(t, 2, m["level"].DistinctCount)

	assert.Equal(t, "null|object", m["meta"].Type)
	assert.True(t, m["meta"].Nullable)
	assert.InDelta(t, 2.0/3.0, m["meta.namespace"].Frequency, 0.001)

	// Two array items in one sample count as a single occurrence.
	assert.InDelta(t, 1.0/3.0, m["meta.tags[]"].Frequency, 0.001)
	assert.Equal(t, "array", m["meta.tags"].Type)

	assert.Equal(t, "integer", m["retries"].Type)
	assert.Equal(t, []any{float64(3)}, m["retries"].Examples)

	for i := 1; i < len(fields); i++ {
		assert.Less(t, fields[i-1].Path, fields[i].Path)
	}
}

func TestDescribe_Empty(t *testing.T) {
	assert.Nil(t, Describe(nil, Options{}))
	assert.Nil(t, Describe([]any{"x", 1.0}, Options{}))
}

func TestDescribe_MaxDepth(t *testing.T) {
	samples := decode(t, `{"a":{"b":{"c":1}}}`)
	m := byPath(Describe(samples, Options{MaxDepth: 1}))
	assert.Contains(t, m, "a.b")
	assert.NotContains(t, m, "a.b.c")
}

func TestDescribe_Formats(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		format string
	}{
		{"uuid", []string{
			"550e8400-e29b-41d4-a716-446655440000", "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"6ba7b811-9dad-11d1-80b4-00c04fd430c8", "6ba7b812-9dad-11d1-80b4-00c04fd430c8",
			"6ba7b814-9dad-11d1-80b4-00c04fd430c8",
		}, "uuid"},
		{"iso8601", []string{
			"2024-01-15T10:30:00Z", "2024-01-15T10:31:00Z", "2024-01-15", "2024-02-01T00:00:00Z", "2024-03-01",
		}, "iso8601"},
		{"url", []string{"https://a.io", "http://b.io/x", "https://c.io", "https://d.io", "http://e.io"}, "url"},
		{"email", []string{"a@b.io", "c@d.io", "e@f.io", "g@h.io", "i@j.io"}, "email"},
		{"enum", []string{"info", "warn", "info", "error", "info"}, "enum"},
		{"too few samples", []string{"info", "warn"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]any, len(tt.values))
			for i, v := range tt.values {
				samples[i] = map[string]any{"v": v}
			}
			m := byPath(Describe(samples, Options{}))
			assert.Equal(t, tt.format, m["v"].Format)
		})
	}
}

func TestDescribe_HighCardinalityIsNotEnum(t *testing.T) {
	samples := make([]any, 20)
	for i := range samples {
		samples[i] = map[string]any{"msg": fmt.Sprintf("message %d", i)}
	}
	f := byPath(Describe(samples, Options{}))["msg"]
	assert.Empty(t, f.Format)
	assert.Equal(t, 20, f.DistinctCount)
	assert.Len(t, f.Examples, 3)
}

func TestFacetCandidates(t *testing.T) {
	var samples []any
	for i := range 12 {
		rec := map[string]any{
			"level":   []string{"info", "error"}[i%2],
			"message": fmt.Sprintf("request %d done", i),
			"meta":    map[string]any{"pod": "api-1"},
		}
		if i < 6 {
			rec["service"] = "api"
		}
		samples = append(samples, rec)
	}

	cands := FacetCandidates(Describe(samples, Options{}))
	assert.Equal(t, []string{"level", "meta.pod", "service"}, cands)
}

func TestSchema(t *testing.T) {
	samples := decode(t,
		`{"level":"info","id":"550e8400-e29b-41d4-a716-446655440000","meta":{"pod":"a","tags":["x"]}}`,
		`{"level":"warn","id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","meta":{"pod":"b"}}`,
		`{"level":"info","id":"6ba7b811-9dad-11d1-80b4-00c04fd430c8","meta":{"pod":"c"},"extra":1}`,
		`{"level":"info","id":"6ba7b812-9dad-11d1-80b4-00c04fd430c8","meta":{"pod":"d"}}`,
		`{"level":"error","id":"6ba7b814-9dad-11d1-80b4-00c04fd430c8","meta":{"pod":"e"}}`,
	)

	s := Schema(Describe(samples, Options{}))
	require.NotNil(t, s)
	assert.Equal(t, "object", s.Type)
	assert.ElementsMatch(t, []string{"id", "level", "meta"}, s.Required)

	id, ok := s.Properties.Get("id")
	require.True(t, ok)
	assert.Equal(t, "uuid", id.Format)

	level, ok := s.Properties.Get("level")
	require.True(t, ok)
	assert.Equal(t, []any{"error", "info", "warn"}, level.Enum)

	meta, ok := s.Properties.Get("meta")
	require.True(t, ok)
	assert.Equal(t, []string{"pod"}, meta.Required)

	tags, ok := meta.Properties.Get("tags")
	require.True(t, ok)
	assert.Equal(t, "array", tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, "string", tags.Items.Type)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"extra"`)
}
