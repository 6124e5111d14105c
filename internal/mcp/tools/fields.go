package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/internal/fields"
	"github.com/purl-logs/purl-explorer/pkg/types"
)

// DescribeFieldsInput is the input for purl_describe_fields.
type DescribeFieldsInput struct {
	Sample        int  `json:"sample,omitempty" jsonschema:"Number of newest buffered logs to inspect (default all)"`
	MaxDepth      int  `json:"max_depth,omitempty" jsonschema:"Nesting levels to walk below each log (default 5)"`
	IncludeSchema bool `json:"include_schema,omitempty" jsonschema:"Also return a JSON Schema assembled from the fields"`
}

// DescribeFieldsOutput is the output for purl_describe_fields.
type DescribeFieldsOutput struct {
	Fields          []fields.Field `json:"fields,omitzero"`
	FacetCandidates []string       `json:"facet_candidates,omitzero"`
	Schema          map[string]any `json:"schema,omitempty"`
	Sampled         int            `json:"sampled"`
	Hint            string         `json:"hint,omitempty"`
}

// ToolDescribeFields summarizes the fields present in the result buffer.
func ToolDescribeFields(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DescribeFieldsInput) (*sdkmcp.CallToolResult, DescribeFieldsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DescribeFieldsInput) (*sdkmcp.CallToolResult, DescribeFieldsOutput, error) {
		if input.Sample < 0 || input.MaxDepth < 0 {
			return nil, DescribeFieldsOutput{}, ErrInvalidInput("sample and max_depth must not be negative")
		}

		entries := d.Engine.Results().Get().Entries
		if input.Sample > 0 && input.Sample < len(entries) {
			entries = entries[:input.Sample]
		}

		samples := make([]any, 0, len(entries))
		for _, e := range entries {
			v, err := types.ToAny(e)
			if err != nil {
				continue
			}
			samples = append(samples, v)
		}

		described := fields.Describe(samples, fields.Options{MaxDepth: input.MaxDepth})
		out := DescribeFieldsOutput{
			Fields:          described,
			FacetCandidates: fields.FacetCandidates(described),
			Sampled:         len(samples),
		}
		if input.IncludeSchema && len(described) > 0 {
			if s, err := types.ToAny(fields.Schema(described)); err == nil {
				out.Schema, _ = s.(map[string]any)
			}
		}

		if len(samples) == 0 {
			out.Hint = "The result buffer is empty. Run purl_search_logs first."
		} else {
			out.Hint = printer.Sprintf("%d fields across %d logs. Facet candidates can be queried with purl_query_results.", len(described), len(samples))
		}
		return nil, out, nil
	}
}
