// Package mcpsrv provides an extensible MCP server for the Purl log explorer.
//
// This package exposes a high-level API for creating and running an MCP server
// with all builtin purl tools, prompts, and resources over one engine. Users
// can extend the server with custom tools, prompts, and resources using
// functional options.
//
// # Basic Usage
//
// Create a server configured from PURL_* environment variables:
//
//	server, err := mcpsrv.NewServer(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type MyInput struct {
//	    Query string `json:"query"`
//	}
//
//	type MyOutput struct {
//	    Count int `json:"count"`
//	}
//
//	func myHandler(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	    return nil, MyOutput{Count: 42}, nil
//	}
//
//	server, err := mcpsrv.NewServer(
//	    nil,
//	    mcpsrv.WithTool(&mcp.Tool{Name: "my_tool", Description: "My tool"}, myHandler),
//	)
//
// # Configuration
//
// Configure logging and other options:
//
//	server, err := mcpsrv.NewServer(
//	    nil,
//	    mcpsrv.WithConfigFile("purl.yaml"),
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/purl-mcp.log"),
//	)
package mcpsrv
