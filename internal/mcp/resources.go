package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/internal/mcp/tools"
	"github.com/purl-logs/purl-explorer/internal/traces"
)

// Resource URI scheme: purl://
// Supported URIs:
//   purl://results
//   purl://stats
//   purl://trace/{trace_id}

const uriScheme = "purl://"

// registerResources registers resources, resource templates and their handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "results",
		Name:        "Result Buffer",
		Description: "The whole result buffer (up to max-results logs) with total, loading, error and live flags. High context cost - purl_get_results pages the same data.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceResults)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "Stats Bundle",
		Description: "Facets, histogram and metrics for the current query window, as last published.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceStats)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "trace/{trace_id}",
		Name:        "Trace",
		Description: "All logs of a trace plus its timeline summary. High context cost - purl_get_trace returns a page of the same data.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceTrace)
}

// Resource handlers

func (s *Server) handleResourceResults(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	e := s.deps.Engine
	rs := e.Results().Get()
	content := map[string]any{
		"entries": rs.Entries,
		"total":   rs.Total,
		"loading": e.Loading().Get(),
		"error":   e.Error().Get(),
		"live":    e.State().Get().Live,
		"query":   e.State().Get(),
	}
	return toResourceResult(req.Params.URI, content)
}

func (s *Server) handleResourceStats(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return toResourceResult(req.Params.URI, s.deps.Engine.Stats().Get())
}

func (s *Server) handleResourceTrace(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	svc := s.deps.Engine.Traces()
	traceID := params["trace_id"]
	trace, err := svc.FetchTrace(ctx, traceID)
	if err != nil {
		return nil, tools.WrapBackendError(err)
	}
	tl, err := svc.FetchTimeline(ctx, traceID)
	if err != nil {
		return nil, tools.WrapBackendError(err)
	}

	content := map[string]any{
		"trace":    trace,
		"timeline": tl,
		"summary":  traces.Summarize(tl),
	}
	return toResourceResult(req.Params.URI, content)
}

// Helper functions

// parseResourceURI extracts parameters from a purl:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected purl://")
	}

	path := strings.TrimPrefix(uri, uriScheme)
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		return nil, tools.ErrInvalidInput("empty resource path")
	}

	params := make(map[string]string)
	resourceType := parts[0]

	switch resourceType {
	case "results", "stats":
		if len(parts) > 1 {
			return nil, tools.ErrInvalidInput(fmt.Sprintf("%s URI takes no parameters", resourceType))
		}

	case "trace":
		if len(parts) < 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("trace URI requires a trace ID")
		}
		params["trace_id"] = parts[1]

	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", resourceType))
	}

	params["type"] = resourceType
	return params, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
