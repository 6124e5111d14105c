package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/purl-logs/purl-explorer/pkg/mcpsrv"
)

func main() {
	configPath := flag.String("config", os.Getenv("PURL_CONFIG"), "path to a YAML config file (optional)")
	flag.Parse()

	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration comes from PURL_* environment variables and the optional
	// config file:
	// - PURL_BASE_URL: Purl API base URL (default http://localhost:3000/api)
	// - PURL_LOG_LEVEL: debug, info, warn, error (default: info)
	// - PURL_LOG_FILE: path to log file (default: stderr only)
	// - etc. (see internal/config for all options)
	server, err := mcpsrv.NewServer(nil, mcpsrv.WithConfigFile(*configPath))
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	slog.Info("starting purl MCP server on stdio")
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
