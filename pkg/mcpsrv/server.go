package mcpsrv

import (
	"context"
	"fmt"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/internal/config"
	"github.com/purl-logs/purl-explorer/internal/engine"
	"github.com/purl-logs/purl-explorer/internal/logging"
	"github.com/purl-logs/purl-explorer/internal/mcp"
	"github.com/purl-logs/purl-explorer/internal/mcp/tools"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// Server is the Purl MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	engine     *engine.Engine
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin purl tools.
//
// When c is nil a client is built from the configuration (PURL_BASE_URL and
// PURL_HTTP_CLIENT_TIMEOUT, or WithHTTPClient). Use functional options to
// configure logging, add custom tools, etc.
func NewServer(c *client.Client, opts ...Option) (*Server, error) {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	appCfg, err := config.Load(cfg.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logging.FromConfig(appCfg)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	if c == nil {
		httpClient := cfg.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: appCfg.HTTPClientTimeout}
		}
		c = client.New(
			client.WithBaseURL(appCfg.BaseURL),
			client.WithHTTPClient(httpClient),
		)
	}

	eng, err := engine.New(appCfg, c)
	if err != nil {
		logCleanup()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	deps := &Deps{Client: c, Config: appCfg, Engine: eng}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, fn := range cfg.registrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.depsRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(&tools.Deps{Engine: eng, Config: appCfg}, internalOpts...)
	if err != nil {
		eng.Close()
		logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		engine:     eng,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close stops the live tail and background refresh, then flushes logs.
func (s *Server) Close() error {
	s.engine.Close()
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
