// Package engine wires the query state, search, stats, live tail, traces and
// patterns into one instance. It is the only type UI collaborators use.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/purl-logs/purl-explorer/internal/config"
	"github.com/purl-logs/purl-explorer/internal/livetail"
	"github.com/purl-logs/purl-explorer/internal/observable"
	"github.com/purl-logs/purl-explorer/internal/patterns"
	"github.com/purl-logs/purl-explorer/internal/query"
	"github.com/purl-logs/purl-explorer/internal/scope"
	"github.com/purl-logs/purl-explorer/internal/search"
	"github.com/purl-logs/purl-explorer/internal/state"
	"github.com/purl-logs/purl-explorer/internal/stats"
	"github.com/purl-logs/purl-explorer/internal/traces"
	"github.com/purl-logs/purl-explorer/pkg/client"
	"github.com/purl-logs/purl-explorer/pkg/types"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine closed")

// Engine owns one cancellation scope and every store. Separate engines share
// nothing.
type Engine struct {
	cfg    *config.Config
	client *client.Client

	ctx    context.Context
	cancel context.CancelFunc

	scope   *scope.Scope
	state   *state.State
	results *observable.Cell[types.ResultSet]
	bundle  *observable.Cell[types.StatsBundle]

	search   *search.Coordinator
	stats    *stats.Aggregator
	live     *livetail.Ingester
	traces   *traces.Service
	patterns *patterns.Fetcher
	jq       *query.Engine

	// liveMu orders SetLive against the watcher clearing the live flag.
	liveMu    sync.Mutex
	closeOnce sync.Once
}

// New builds an engine talking to the backend through c.
func New(cfg *config.Config, c *client.Client) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:     cfg,
		client:  c,
		ctx:     ctx,
		cancel:  cancel,
		scope:   scope.New(),
		state:   state.New(cfg.DefaultRange),
		results: observable.New(types.ResultSet{}),
		bundle:  observable.New(types.StatsBundle{}),
		jq:      query.NewEngine(),
	}

	e.stats = stats.New(ctx, c, e.scope, e.state, e.bundle, stats.Options{
		Facets:         cfg.AllFacets(),
		FacetLimit:     cfg.FacetLimit,
		MetricsSummary: cfg.MetricsSummary,
	})
	e.search = search.New(c, e.scope, e.state, e.results, e.stats, search.Options{
		MaxResults:    cfg.MaxResults,
		DebounceDelay: cfg.DebounceDelay,
	})
	e.patterns = patterns.New(c, e.scope, e.state, cfg.PatternLimit, cfg.PatternLogsLimit)

	var err error
	if e.traces, err = traces.New(c, e.scope, cfg.TraceCacheMaxItems); err != nil {
		cancel()
		return nil, fmt.Errorf("creating trace service: %w", err)
	}
	if e.live, err = livetail.New(livetail.ClientDialer(c), e.results, cfg.MaxResults); err != nil {
		cancel()
		return nil, fmt.Errorf("creating live tail: %w", err)
	}

	e.watchLive()
	e.search.StartAutoRefresh(ctx, cfg.RefreshInterval)

	return e, nil
}

// watchLive clears the live flag when the stream drops on its own.
func (e *Engine) watchLive() {
	ch, stop := e.live.State().Subscribe()
	go func() {
		defer stop()
		for {
			select {
			case <-e.ctx.Done():
				return
			case s := <-ch:
				if s == types.LiveDisconnected {
					e.clearLiveIfDropped()
				}
			}
		}
	}()
}

// clearLiveIfDropped clears the live flag unless the ingester is connected
// again. A disconnect notification may arrive after SetLive has already
// opened a new stream.
func (e *Engine) clearLiveIfDropped() {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()
	if e.live.State().Get() == types.LiveDisconnected && e.state.Get().Live {
		e.state.SetLive(false)
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Client returns the API client.
func (e *Engine) Client() *client.Client { return e.client }

// State returns the query state. Its mutators do not start a search.
func (e *Engine) State() *state.State { return e.state }

// Results is the result buffer.
func (e *Engine) Results() *observable.Cell[types.ResultSet] { return e.results }

// Stats is the stats bundle.
func (e *Engine) Stats() *observable.Cell[types.StatsBundle] { return e.bundle }

// Loading is true while a search is in flight.
func (e *Engine) Loading() *observable.Cell[bool] { return e.search.Loading() }

// Error holds the last user-visible search error.
func (e *Engine) Error() *observable.Cell[string] { return e.search.Error() }

// LiveState is the live tail connection state.
func (e *Engine) LiveState() *observable.Cell[types.LiveState] { return e.live.State() }

// Traces returns the trace correlation service.
func (e *Engine) Traces() *traces.Service { return e.traces }

// Patterns returns the pattern fetcher.
func (e *Engine) Patterns() *patterns.Fetcher { return e.patterns }

// RunSearch searches with the current query state. See search.Coordinator.RunSearch.
func (e *Engine) RunSearch(ctx context.Context) (types.ResultSet, error) {
	if e.ctx.Err() != nil {
		return types.ResultSet{}, ErrClosed
	}
	return e.search.RunSearch(ctx)
}

// DebouncedSearch schedules a search after the configured quiet period. The
// search is bound to the engine's lifetime, not to any caller.
func (e *Engine) DebouncedSearch() {
	if e.ctx.Err() != nil {
		return
	}
	e.search.DebouncedSearch(e.ctx)
}

// RefreshStats runs the stats group for the current window and waits for it.
func (e *Engine) RefreshStats(ctx context.Context) error {
	if e.ctx.Err() != nil {
		return ErrClosed
	}
	return e.stats.RunAll(ctx)
}

// SetLive starts or stops the live tail and updates the live flag.
func (e *Engine) SetLive(ctx context.Context, on bool) error {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()

	if !on {
		e.live.Disconnect()
		e.state.SetLive(false)
		return nil
	}
	if e.ctx.Err() != nil {
		return ErrClosed
	}
	if err := e.live.Connect(ctx); err != nil {
		slog.Warn("failed to start live tail", slog.String("error", err.Error()))
		return err
	}
	e.state.SetLive(true)
	// The stream may already have dropped before the flag was set.
	if e.live.State().Get() == types.LiveDisconnected {
		e.state.SetLive(false)
	}
	return nil
}

// FilterByTrace searches for the logs of one trace. An empty ID does nothing.
func (e *Engine) FilterByTrace(ctx context.Context, traceID string) (types.ResultSet, error) {
	if traceID == "" {
		return e.results.Get(), nil
	}
	e.state.SetText("trace_id:" + traceID)
	return e.RunSearch(ctx)
}

// FilterByRequest searches for the logs of one request. An empty ID does nothing.
func (e *Engine) FilterByRequest(ctx context.Context, requestID string) (types.ResultSet, error) {
	if requestID == "" {
		return e.results.Get(), nil
	}
	e.state.SetText("request_id:" + requestID)
	return e.RunSearch(ctx)
}

// LogContext retrieves the lines around a log record. Non-positive counts use
// the configured context-lines.
func (e *Engine) LogContext(ctx context.Context, logID string, before, after int) (*client.LogContext, error) {
	if before <= 0 {
		before = e.cfg.ContextLines
	}
	if after <= 0 {
		after = e.cfg.ContextLines
	}
	return e.client.GetLogContext(ctx, logID, before, after)
}

// QueryResults evaluates a jq expression against every buffered entry,
// labelling each by its ID.
func (e *Engine) QueryResults(expression string, deduplicate bool, maxResults int) (*query.QueryResult, error) {
	entries := e.results.Get().Entries
	inputs := make([]any, 0, len(entries))
	labels := make([]string, 0, len(entries))
	for _, rec := range entries {
		v, err := types.ToAny(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding log %s: %w", rec.ID, err)
		}
		inputs = append(inputs, v)
		labels = append(labels, rec.ID)
	}
	return e.jq.QueryMultiple(inputs, labels, expression, deduplicate, maxResults)
}

// Reset cancels everything in flight, stops the live tail and restores every
// store to its initial value.
func (e *Engine) Reset() {
	e.search.Stop()
	e.scope.CancelAll()
	e.live.Disconnect()

	e.state.Reset()
	e.results.Set(types.ResultSet{})
	e.bundle.Set(types.StatsBundle{})
	e.search.Loading().Set(false)
	e.search.Error().Set("")
	e.patterns.Patterns().Set(nil)
	e.patterns.Loading().Set(false)
	e.patterns.Error().Set("")
	e.traces.Reset()

	slog.Debug("engine reset")
}

// Close stops background work and the live tail. The stores keep their
// values.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.search.Stop()
		e.cancel()
		e.scope.CancelAll()
		e.live.Disconnect()
	})
	return nil
}
