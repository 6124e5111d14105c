package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/pkg/client"
	"github.com/purl-logs/purl-explorer/pkg/types"
)

// Live tail actions
const (
	LiveActionStart  = "start"
	LiveActionStop   = "stop"
	LiveActionStatus = "status"
)

// LiveTailInput is the input for purl_live_tail.
type LiveTailInput struct {
	Action  string `json:"action" jsonschema:"One of start, stop or status"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Newest entries to return (default: 50, max: 500)"`
	Verbose bool   `json:"verbose,omitempty" jsonschema:"Return message, raw and meta in full"`
}

// LiveTailOutput is the output for purl_live_tail.
type LiveTailOutput struct {
	State    types.LiveState    `json:"state"`
	Live     bool               `json:"live"`
	Buffered int                `json:"buffered"`
	Entries  []client.LogRecord `json:"entries,omitzero"`
	Hint     string             `json:"hint,omitempty"`
}

// ToolLiveTail starts, stops or inspects the live tail.
func ToolLiveTail(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input LiveTailInput) (*sdkmcp.CallToolResult, LiveTailOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input LiveTailInput) (*sdkmcp.CallToolResult, LiveTailOutput, error) {
		var hint string
		switch input.Action {
		case LiveActionStart:
			// ctx bounds the handshake only; the stream runs until stopped.
			if err := d.Engine.SetLive(ctx, true); err != nil {
				return nil, LiveTailOutput{}, WrapBackendError(err)
			}
			hint = "Live tail started. New logs are prepended to the buffer; call purl_live_tail with action=status to read them."
		case LiveActionStop:
			if err := d.Engine.SetLive(ctx, false); err != nil {
				return nil, LiveTailOutput{}, WrapBackendError(err)
			}
			hint = "Live tail stopped. The buffer keeps its entries."
		case LiveActionStatus, "":
		default:
			return nil, LiveTailOutput{}, ErrInvalidInput(fmt.Sprintf("unknown action %q: use start, stop or status", input.Action))
		}

		rs := d.Engine.Results().Get()
		entries := shapeEntries(page(rs.Entries, 0, clampLimit(input.Limit)), input.Verbose)
		return nil, LiveTailOutput{
			State:    d.Engine.LiveState().Get(),
			Live:     d.Engine.State().Get().Live,
			Buffered: rs.Len(),
			Entries:  entries,
			Hint:     hint,
		}, nil
	}
}
