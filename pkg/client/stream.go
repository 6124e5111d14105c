package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gorilla/websocket"
)

// StreamPath is the live tail WebSocket endpoint, relative to the base URL.
const StreamPath = "/logs/stream"

// StreamURL returns the WebSocket URL of the live tail stream.
// http and https base URLs are mapped to ws and wss.
func (c *Client) StreamURL() string {
	u := c.baseURL + StreamPath
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// DialStream opens the live tail stream.
// The returned connection yields JSON-encoded StreamFrame messages.
func (c *Client) DialStream(ctx context.Context) (*websocket.Conn, error) {
	u := c.StreamURL()

	conn, resp, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp == nil {
			return nil, fmt.Errorf("dialing stream: %w", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dialing stream: %w", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))})
	}

	slog.Debug("stream connected", slog.String("url", u))
	return conn, nil
}
