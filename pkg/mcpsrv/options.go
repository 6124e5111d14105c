package mcpsrv

import (
	"context"
	"net/http"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// serverConfig holds configuration built from options.
type serverConfig struct {
	configPath string
	httpClient *http.Client

	// Logging overrides
	logLevel string
	logFile  string

	disableBuiltinTools   bool
	disableBuiltinPrompts bool

	// Registrations run in option order after the builtins. Those needing the
	// engine receive Deps once it exists.
	registrations     []func(*mcp.Server)
	depsRegistrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithConfigFile loads configuration from a YAML file in addition to the
// PURL_* environment variables. A missing file is ignored.
func WithConfigFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.configPath = path
	}
}

// WithLogLevel overrides the configured log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile overrides the configured log file. Rotation settings still come
// from configuration.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.logFile = path
	}
}

// WithHTTPClient sets the HTTP client used when NewServer builds the API
// client itself. It has no effect when a client is passed to NewServer.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) {
		cfg.httpClient = c
	}
}

// WithoutBuiltinTools disables the purl_* tools and purl:// resources.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinTools = true
	}
}

// WithoutBuiltinPrompts disables the builtin prompts.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinPrompts = true
	}
}

// WithTool registers a custom tool that needs nothing from the engine.
// Output types go through the same zero-value check as the builtin tools.
//
//	type RangeHelpOutput struct {
//	    Presets []string `json:"presets"`
//	}
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "range_help", Description: "List range presets"},
//	    func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, RangeHelpOutput, error) {
//	        return nil, RangeHelpOutput{Presets: []string{"5m", "15m", "1h"}}, nil
//	    })
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool registers a custom tool whose handler is built from Deps, for
// tools that read the result buffer, stats or live tail. See examples/live-tail.
//
//	mcpsrv.WithDepsTool(&mcp.Tool{Name: "count_buffered", Description: "Count buffered logs"},
//	    func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, CountOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, CountOutput, error) {
//	            return nil, CountOutput{Count: d.Engine.Results().Get().Len()}, nil
//	        }
//	    })
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.depsRegistrations = append(cfg.depsRegistrations, func(srv *mcp.Server, deps *Deps) {
			AddTool(srv, tool, builder(deps))
		})
	}
}

// WithPrompt registers a custom prompt, e.g. a team runbook that starts from a
// fixed query.
func WithPrompt(prompt *mcp.Prompt, handler mcp.PromptHandler) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a custom resource template alongside the
// builtin purl:// resources.
func WithResourceTemplate(template *mcp.ResourceTemplate, handler mcp.ResourceHandler) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
