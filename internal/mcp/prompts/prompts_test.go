package prompts

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptText(t *testing.T, res *sdkmcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestUsageGuide(t *testing.T) {
	cfg := &Config{DefaultRange: "15m", MaxResults: 500, Facets: []string{"level", "service"}}

	res, err := HandleUsageGuide(cfg)(context.Background(), &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{}})
	require.NoError(t, err)

	text := promptText(t, res)
	assert.Contains(t, text, "up to 500 newest matches")
	assert.Contains(t, text, "Facets: level, service")
	assert.Contains(t, text, "5m, 15m, 30m")
}

func TestInvestigateErrors(t *testing.T) {
	cfg := &Config{DefaultRange: "15m"}
	handler := HandleInvestigateErrors(cfg)

	res, err := handler(context.Background(), &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{}})
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, `query: "level:ERROR", range: "15m"`)
	assert.Contains(t, text, "noisiest service")

	res, err = handler(context.Background(), &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{
		Arguments: map[string]string{"service": "api", "range": "24h"},
	}})
	require.NoError(t, err)
	text = promptText(t, res)
	assert.Contains(t, text, `query: "level:ERROR service:api", range: "24h"`)
	assert.Contains(t, text, "without `service:api`")
}
