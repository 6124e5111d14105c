// Package client provides a Go SDK for the Purl log API.
//
// The Purl API exposes log search, field statistics, histograms, server
// metrics, trace correlation, log patterns, and a WebSocket live tail.
//
// # Quick Start
//
// Create a client and search the last 15 minutes:
//
//	c := client.New()
//	resp, err := c.SearchLogs(ctx, client.SearchParams{
//	    Query:  "level:ERROR",
//	    Window: client.TimeWindow{Range: "15m"},
//	    Limit:  500,
//	})
//
// Use custom configuration:
//
//	c := client.New(
//	    client.WithBaseURL("http://purl.internal:3000/api"),
//	    client.WithHTTPClient(customHTTPClient),
//	)
//
// # Time Windows
//
// Every windowed endpoint takes a TimeWindow. When both From and To are set
// they are sent as from/to; otherwise Range is sent as the preset token
// ("5m", "15m", ... "30d"):
//
//	stats, err := c.GetFieldStats(ctx, "service", client.TimeWindow{
//	    From: "2024-05-01T10:00:00Z",
//	    To:   "2024-05-01T12:00:00Z",
//	}, 10)
//
// # Live Tail
//
// DialStream opens the WebSocket stream at /logs/stream. Each message is a
// JSON StreamFrame; frames of type "log" carry a LogRecord in Data:
//
//	conn, err := c.DialStream(ctx)
//	defer conn.Close()
//	_, msg, err := conn.ReadMessage()
//
// # Errors
//
// Non-2xx responses are returned as *APIError, carrying the status code and
// the backend's error message when one was sent.
package client
