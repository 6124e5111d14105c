package query

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestEngine_Query_Simple(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Query(decode(t, `{"uptime": 3600, "version": "1.2"}`), ".version", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"1.2"}, result.Values)
	assert.Equal(t, 1, result.RawCount)
}

func TestEngine_Query_Array(t *testing.T) {
	engine := NewEngine()

	data := decode(t, `{"queries": [{"q": "a"}, {"q": "b"}, {"q": "c"}]}`)

	result, err := engine.Query(data, ".queries[].q", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, result.Values)
	assert.Equal(t, 3, result.RawCount)
}

func TestEngine_Query_Deduplicate(t *testing.T) {
	engine := NewEngine()

	data := decode(t, `{"items": [{"name": "a"}, {"name": "a"}, {"name": "b"}]}`)

	result, err := engine.Query(data, ".items[].name", true, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, result.Values)
	assert.Equal(t, 3, result.RawCount)
}

func TestEngine_Query_MaxResults(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Query(decode(t, `{"items": [1, 2, 3, 4, 5]}`), ".items[]", false, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, result.Values)
}

func TestEngine_Query_Select(t *testing.T) {
	engine := NewEngine()

	data := decode(t, `{"services": [{"name": "api", "errors": 3}, {"name": "web", "errors": 0}, {"name": "db", "errors": 1}]}`)

	result, err := engine.Query(data, `.services[] | select(.errors > 0) | .name`, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"api", "db"}, result.Values)
}

func TestEngine_Query_InvalidExpression(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Query(decode(t, `{}`), ".name[", false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid jq expression")
}

func TestEngine_Query_NilValuesSkipped(t *testing.T) {
	engine := NewEngine()

	data := decode(t, `{"items": [{"name": "a"}, {"noname": "b"}, {"name": "c"}]}`)

	result, err := engine.Query(data, ".items[].name", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, result.Values)
	assert.Equal(t, 2, result.RawCount)
}

func TestEngine_Query_ReturnsRuntimeErrors(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Query(decode(t, `{"foo": null}`), ".foo[]", false, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Values)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "the path may not exist")
}

func TestEngine_QueryMultiple_Labels(t *testing.T) {
	engine := NewEngine()

	inputs := []any{
		decode(t, `{"level": "ERROR", "meta": {"pod": "api-1"}}`),
		decode(t, `{"level": "INFO", "meta": "flat"}`),
		decode(t, `{"level": "ERROR", "meta": {"pod": "api-2"}}`),
	}
	labels := []string{"log-1", "log-2", "log-3"}

	result, err := engine.QueryMultiple(inputs, labels, ".meta.pod", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"api-1", "api-2"}, result.Values)
	assert.Equal(t, []int{0, 2}, result.MatchedIndices)
	assert.Equal(t, 1, result.LabelCounts["log-3"])
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "log-2: "))
}

func TestEngine_QueryMultiple_DefaultLabels(t *testing.T) {
	engine := NewEngine()

	inputs := []any{decode(t, `{"a": 1}`), decode(t, `{"a": 2}`)}

	result, err := engine.QueryMultiple(inputs, nil, ".a[]", false, 0)
	require.NoError(t, err)
	require.Len(t, result.Errors, 2)
	assert.True(t, strings.HasPrefix(result.Errors[0], "input[0]: "))
	assert.True(t, strings.HasPrefix(result.Errors[1], "input[1]: "))
}

func TestEngine_QueryMultiple_DeduplicateAcrossInputs(t *testing.T) {
	engine := NewEngine()

	inputs := []any{
		decode(t, `{"service": "api"}`),
		decode(t, `{"service": "api"}`),
		decode(t, `{"service": "web"}`),
	}

	result, err := engine.QueryMultiple(inputs, nil, ".service", true, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"api", "web"}, result.Values)
	assert.Equal(t, 3, result.RawCount)
}

func TestEngine_Project(t *testing.T) {
	engine := NewEngine()

	metrics := decode(t, `{"uptime_seconds": 120, "queries": {"total": 9, "slow": 1}, "ingest": null}`)

	out, errs := engine.Project(metrics, map[string]string{
		"uptime":       ".uptime_seconds",
		"total":        ".queries.total",
		"ingest_rate":  ".ingest.rate",
		"broken":       ".queries[",
		"first_of_two": ".queries.slow, .queries.total",
	})

	assert.Equal(t, float64(120), out["uptime"])
	assert.Equal(t, float64(9), out["total"])
	assert.Equal(t, float64(1), out["first_of_two"])
	assert.NotContains(t, out, "ingest_rate", "null results are omitted")
	assert.NotContains(t, out, "broken")
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "broken: "))
}

func TestEngine_ValidateExpression(t *testing.T) {
	engine := NewEngine()

	assert.NoError(t, engine.ValidateExpression(".name"))
	assert.NoError(t, engine.ValidateExpression(`.items[] | select(.status == "active")`))

	assert.Error(t, engine.ValidateExpression(".name["))
	assert.Error(t, engine.ValidateExpression("invalid("))
}
