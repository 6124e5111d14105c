package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/internal/mcp/prompts"
	"github.com/purl-logs/purl-explorer/internal/mcp/tools"
)

// Version is reported to clients during initialization.
const Version = "0.3.0"

const instructions = `Purl log explorer. One engine holds the current query, a result buffer of the newest matches, a stats bundle and an optional live tail.
Start with purl_search_logs, page with purl_get_results, and tally with purl_query_results or purl_get_stats.
Use purl_describe_fields to learn which fields exist before writing jq expressions.
A search overtaken by a newer one fails with SUPERSEDED; it is not an error worth retrying.`

// Server wraps the MCP server with the log explorer tools, prompts and resources.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	builtinTools   bool
	builtinPrompts bool
	registrations  []func(*sdkmcp.Server)
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithBuiltinTools enables the builtin purl tools and resources.
func WithBuiltinTools() ServerOption {
	return func(s *Server) {
		s.builtinTools = true
	}
}

// WithBuiltinPrompts enables the builtin purl prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *Server) {
		s.builtinPrompts = true
	}
}

// WithCustomRegistration adds a custom registration callback.
// The callback receives the underlying MCP server and can register
// tools, prompts, or resources directly.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) {
		s.registrations = append(s.registrations, fn)
	}
}

// NewServer creates an MCP server over the engine in deps.
// Config defaults to the engine's own configuration.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil || deps.Engine == nil {
		return nil, fmt.Errorf("deps with an engine is required")
	}
	if deps.Config == nil {
		deps.Config = deps.Engine.Config()
	}

	s := &Server{deps: deps}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "purl-mcp", Version: Version},
		&sdkmcp.ServerOptions{Instructions: instructions},
	)
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	if s.builtinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	if s.builtinPrompts {
		prompts.Register(s.mcpServer, &prompts.Config{
			DefaultRange: deps.Config.DefaultRange,
			MaxResults:   deps.Config.MaxResults,
			Facets:       deps.Config.AllFacets(),
		})
	}
	for _, fn := range s.registrations {
		fn(s.mcpServer)
	}

	return s, nil
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server, e.g. to connect an in-memory
// transport in tests.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
