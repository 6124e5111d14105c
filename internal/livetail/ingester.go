// Package livetail merges the backend's live log stream into the result buffer.
package livetail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/purl-logs/purl-explorer/internal/observable"
	"github.com/purl-logs/purl-explorer/internal/schema"
	"github.com/purl-logs/purl-explorer/pkg/client"
	"github.com/purl-logs/purl-explorer/pkg/types"
)

// DefaultMaxEntries is the buffer cap used when none is configured.
const DefaultMaxEntries = 500

// Conn is a message-oriented stream connection. *websocket.Conn implements it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// DialFunc opens the stream.
type DialFunc func(ctx context.Context) (Conn, error)

// ClientDialer adapts the API client's DialStream to a DialFunc.
func ClientDialer(c *client.Client) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		conn, err := c.DialStream(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Ingester reads log frames from the stream and prepends them to the result
// buffer, keeping at most maxEntries. It writes through the shared results
// cell, so a search that replaces the buffer wholesale is never overwritten
// with a stale copy.
type Ingester struct {
	dial       DialFunc
	results    *observable.Cell[types.ResultSet]
	state      *observable.Cell[types.LiveState]
	validator  *schema.Validator
	maxEntries int
	seq        atomic.Uint64

	mu   sync.Mutex
	conn Conn
	done chan struct{}
}

// New creates a disconnected ingester writing into results.
func New(dial DialFunc, results *observable.Cell[types.ResultSet], maxEntries int) (*Ingester, error) {
	v, err := schema.NewLogRecordValidator()
	if err != nil {
		return nil, fmt.Errorf("building log record validator: %w", err)
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Ingester{
		dial:       dial,
		results:    results,
		state:      observable.New(types.LiveDisconnected),
		validator:  v,
		maxEntries: maxEntries,
	}, nil
}

// State is the connection state cell.
func (in *Ingester) State() *observable.Cell[types.LiveState] {
	return in.state
}

// Connect opens the stream and starts reading. It returns once the stream is
// open. Connecting while already connected is a no-op.
func (in *Ingester) Connect(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.conn != nil {
		return nil
	}

	conn, err := in.dial(ctx)
	if err != nil {
		return fmt.Errorf("connecting live tail: %w", err)
	}

	done := make(chan struct{})
	in.conn = conn
	in.done = done
	in.state.Set(types.LiveConnected)
	slog.Info("live tail connected")

	go in.readLoop(conn, done)
	return nil
}

// Disconnect closes the stream and waits for the reader to stop.
// The buffer keeps its entries.
func (in *Ingester) Disconnect() {
	in.mu.Lock()
	conn, done := in.conn, in.done
	in.mu.Unlock()
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		slog.Debug("closing live tail stream", slog.String("error", err.Error()))
	}
	<-done
}

func (in *Ingester) readLoop(conn Conn, done chan struct{}) {
	defer close(done)
	defer func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		// A newer stream may already own the state.
		if in.conn == conn {
			in.conn = nil
			in.done = nil
			in.state.Set(types.LiveDisconnected)
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if isNormalClose(err) {
				slog.Info("live tail disconnected")
			} else {
				slog.Warn("live tail stream error", slog.String("error", err.Error()))
			}
			return
		}
		in.HandleMessage(msg)
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed)
}

// HandleMessage processes one raw stream frame. Frames that are not logs, or
// whose payload is malformed, are dropped and logged.
func (in *Ingester) HandleMessage(msg []byte) {
	var frame client.StreamFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		slog.Debug("dropping malformed stream frame", slog.String("error", err.Error()))
		return
	}
	if frame.Type != client.FrameLog {
		slog.Debug("ignoring stream frame", slog.String("type", frame.Type))
		return
	}

	if result := in.validator.Validate(frame.Data); !result.Valid {
		slog.Warn("dropping malformed log frame", slog.Any("errors", result.Errors))
		return
	}

	var rec client.LogRecord
	if err := json.Unmarshal(frame.Data, &rec); err != nil {
		slog.Warn("dropping malformed log frame", slog.String("error", err.Error()))
		return
	}
	in.Ingest(rec)
}

// Ingest assigns rec an ID if it has none and prepends it to the buffer,
// dropping the oldest entries beyond the cap. Generated IDs carry a
// per-ingester arrival counter so consecutive records with the same
// timestamp never collide.
func (in *Ingester) Ingest(rec client.LogRecord) {
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("%s-live-%d", rec.Timestamp, in.seq.Add(1))
	}

	in.results.Update(func(rs types.ResultSet) types.ResultSet {
		n := min(len(rs.Entries)+1, in.maxEntries)
		entries := make([]client.LogRecord, 0, n)
		entries = append(entries, rec)
		entries = append(entries, rs.Entries[:n-1]...)
		rs.Entries = entries
		return rs
	})
}
