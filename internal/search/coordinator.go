// Package search runs log searches for the current query state and publishes
// the results.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/purl-logs/purl-explorer/internal/debounce"
	"github.com/purl-logs/purl-explorer/internal/observable"
	"github.com/purl-logs/purl-explorer/internal/scope"
	"github.com/purl-logs/purl-explorer/internal/state"
	"github.com/purl-logs/purl-explorer/pkg/client"
	"github.com/purl-logs/purl-explorer/pkg/types"
)

// Backend is the part of the API client the coordinator needs.
type Backend interface {
	SearchLogs(ctx context.Context, params client.SearchParams) (*client.SearchResponse, error)
}

// StatsRunner is triggered, without waiting, after every published search.
type StatsRunner interface {
	Trigger()
}

// Options configures a Coordinator.
type Options struct {
	MaxResults    int           // Row cap sent with every search
	DebounceDelay time.Duration // Quiet period for DebouncedSearch
}

// Coordinator runs searches. Each run supersedes the previous one, so only
// the most recently started search can publish results.
type Coordinator struct {
	backend Backend
	scope   *scope.Scope
	state   *state.State
	stats   StatsRunner
	opts    Options

	results *observable.Cell[types.ResultSet]
	loading *observable.Cell[bool]
	errMsg  *observable.Cell[string]

	debouncer  *debounce.Debouncer
	mu         sync.Mutex
	pendingCtx context.Context
}

// New creates a coordinator publishing into results. stats may be nil.
func New(backend Backend, sc *scope.Scope, st *state.State, results *observable.Cell[types.ResultSet], stats StatsRunner, opts Options) *Coordinator {
	c := &Coordinator{
		backend: backend,
		scope:   sc,
		state:   st,
		stats:   stats,
		opts:    opts,
		results: results,
		loading: observable.New(false),
		errMsg:  observable.New(""),
	}
	c.debouncer = debounce.New(opts.DebounceDelay, c.runPending)
	return c
}

// Loading is true while the current search is in flight.
func (c *Coordinator) Loading() *observable.Cell[bool] {
	return c.loading
}

// Error holds the message of the last failed search, or "" after a search
// starts or succeeds.
func (c *Coordinator) Error() *observable.Cell[string] {
	return c.errMsg
}

// RunSearch searches with the query state as it is now and publishes the
// results. A pending debounced search is dropped, since it would repeat this
// one. A search that is superseded before it completes publishes nothing,
// leaves loading and error untouched, and returns an error for which
// scope.IsCanceled is true.
func (c *Coordinator) RunSearch(ctx context.Context) (types.ResultSet, error) {
	c.Stop()
	return c.run(ctx)
}

func (c *Coordinator) run(ctx context.Context) (types.ResultSet, error) {
	tok := c.scope.Begin(ctx, scope.KindSearch)
	defer tok.Settle(func() { c.loading.Set(false) })

	tok.Publish(func() {
		c.loading.Set(true)
		c.errMsg.Set("")
	})

	q := c.state.Get()
	params := client.SearchParams{
		Query:  q.Text,
		Window: q.Window(c.state.DefaultRange()),
		Limit:  c.opts.MaxResults,
	}

	start := time.Now()
	resp, err := c.backend.SearchLogs(tok.Context(), params)
	if err != nil {
		if stale := tok.Err(); stale != nil || scope.IsCanceled(err) {
			slog.Debug("search canceled",
				slog.String("query", q.Text),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			if stale != nil {
				return types.ResultSet{}, fmt.Errorf("search: %w", stale)
			}
			return types.ResultSet{}, fmt.Errorf("search: %w", err)
		}

		slog.Warn("search failed",
			slog.String("query", q.Text),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		tok.Publish(func() { c.errMsg.Set(err.Error()) })
		return types.ResultSet{}, err
	}

	rs := types.ResultSet{
		Entries: AssignIDs(resp.Hits, c.opts.MaxResults),
		Total:   resp.Total,
	}
	if !tok.Publish(func() { c.results.Set(rs) }) {
		slog.Debug("search result discarded",
			slog.String("query", q.Text),
			slog.Int("hits", len(rs.Entries)),
		)
		return types.ResultSet{}, fmt.Errorf("search: %w", scope.ErrSuperseded)
	}

	slog.Debug("search completed",
		slog.String("query", q.Text),
		slog.String("range", params.Window.Range),
		slog.Int("hits", len(rs.Entries)),
		slog.Int("total", rs.Total),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if c.stats != nil {
		c.stats.Trigger()
	}
	return rs, nil
}

// DebouncedSearch schedules RunSearch after the debounce delay. Calls within
// the delay restart the wait, and only the last call's ctx is used.
func (c *Coordinator) DebouncedSearch(ctx context.Context) {
	c.mu.Lock()
	c.pendingCtx = ctx
	c.mu.Unlock()
	c.debouncer.Trigger()
}

func (c *Coordinator) runPending() {
	c.mu.Lock()
	ctx := c.pendingCtx
	c.pendingCtx = nil
	c.mu.Unlock()
	if ctx == nil {
		return
	}
	// Failures are already published to the error cell.
	_, _ = c.run(ctx)
}

// Stop drops any pending debounced search.
func (c *Coordinator) Stop() {
	c.debouncer.Stop()
	c.mu.Lock()
	c.pendingCtx = nil
	c.mu.Unlock()
}

// StartAutoRefresh re-runs the current search every interval until ctx ends.
// Ticks are skipped while live mode is on.
func (c *Coordinator) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slog.Info("starting auto refresh", slog.Duration("interval", interval))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping auto refresh")
				return
			case <-ticker.C:
				if c.state.Get().Live {
					continue
				}
				if _, err := c.RunSearch(ctx); err != nil && !scope.IsCanceled(err) {
					slog.Debug("auto refresh search failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// AssignIDs returns a copy of records where every record has an ID: the
// server's when present, otherwise "<timestamp>-<index>". At most limit records
// are kept when limit > 0.
func AssignIDs(records []client.LogRecord, limit int) []client.LogRecord {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]client.LogRecord, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("%s-%d", rec.Timestamp, i)
		}
		out[i] = rec
	}
	return out
}
