// Package prompts contains the MCP prompts for the Purl log explorer.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	DefaultRange string
	MaxResults   int
	Facets       []string
}
