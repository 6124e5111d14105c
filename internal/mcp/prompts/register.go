package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	// Prompt 1: Tool usage guide
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "purl_usage_guide",
		Description: "RECOMMENDED: Start here. How the result buffer, stats, live tail and trace tools fit together, with query syntax and token-saving tips.",
	}, HandleUsageGuide(cfg))

	// Prompt 2: Investigate errors
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "investigate_errors",
		Description: "Guided workflow to find, group and explain error logs: search, break down by facet, follow traces, and check recurring patterns.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "service",
				Description: "Limit the investigation to one service",
				Required:    false,
			},
			{
				Name:        "range",
				Description: "Preset range to search, e.g. 1h or 24h (default: the configured default range)",
				Required:    false,
			},
		},
	}, HandleInvestigateErrors(cfg))
}
