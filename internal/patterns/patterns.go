// Package patterns fetches recurring log message templates for the current
// query window.
package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/purl-logs/purl-explorer/internal/observable"
	"github.com/purl-logs/purl-explorer/internal/scope"
	"github.com/purl-logs/purl-explorer/internal/state"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// Backend is the part of the API client the fetcher needs.
type Backend interface {
	ListPatterns(ctx context.Context, window client.TimeWindow, limit int) (*client.PatternsResponse, error)
	GetPatternLogs(ctx context.Context, patternHash, rangeToken string, limit int) (*client.PatternLogs, error)
}

// Fetcher loads patterns under its own cancellation kind, so a newer fetch
// supersedes an older one the same way searches do.
type Fetcher struct {
	backend   Backend
	scope     *scope.Scope
	state     *state.State
	limit     int
	logsLimit int

	patterns *observable.Cell[[]client.Pattern]
	loading  *observable.Cell[bool]
	errMsg   *observable.Cell[string]
}

// New creates a fetcher requesting limit patterns and logsLimit logs per pattern.
func New(backend Backend, sc *scope.Scope, st *state.State, limit, logsLimit int) *Fetcher {
	return &Fetcher{
		backend:   backend,
		scope:     sc,
		state:     st,
		limit:     limit,
		logsLimit: logsLimit,
		patterns:  observable.New[[]client.Pattern](nil),
		loading:   observable.New(false),
		errMsg:    observable.New(""),
	}
}

// Patterns holds the last published pattern list.
func (f *Fetcher) Patterns() *observable.Cell[[]client.Pattern] { return f.patterns }

// Loading is true while the current fetch is in flight.
func (f *Fetcher) Loading() *observable.Cell[bool] { return f.loading }

// Error holds the message of the last failed fetch.
func (f *Fetcher) Error() *observable.Cell[string] { return f.errMsg }

// Fetch loads the patterns for the current query window and publishes them.
// A superseded fetch publishes nothing and returns an error for which
// scope.IsCanceled is true.
func (f *Fetcher) Fetch(ctx context.Context) ([]client.Pattern, error) {
	tok := f.scope.Begin(ctx, scope.KindPatterns)
	defer tok.Settle(func() { f.loading.Set(false) })

	tok.Publish(func() {
		f.loading.Set(true)
		f.errMsg.Set("")
	})

	window := f.state.Window()
	start := time.Now()

	resp, err := f.backend.ListPatterns(tok.Context(), window, f.limit)
	if err != nil {
		if stale := tok.Err(); stale != nil {
			return nil, fmt.Errorf("patterns: %w", stale)
		}
		if scope.IsCanceled(err) {
			return nil, fmt.Errorf("patterns: %w", err)
		}
		slog.Warn("failed to fetch patterns", slog.String("error", err.Error()))
		tok.Publish(func() { f.errMsg.Set(err.Error()) })
		return nil, err
	}

	if !tok.Publish(func() { f.patterns.Set(resp.Patterns) }) {
		return nil, fmt.Errorf("patterns: %w", scope.ErrSuperseded)
	}

	slog.Debug("patterns fetched",
		slog.Int("count", len(resp.Patterns)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp.Patterns, nil
}

// PatternLogs loads the logs matching a pattern over the current preset
// range. Custom bounds are not supported by the endpoint, so a custom range
// uses the default preset. Failures are logged and returned, never published.
func (f *Fetcher) PatternLogs(ctx context.Context, patternHash string) (*client.PatternLogs, error) {
	if patternHash == "" {
		return nil, nil
	}

	rangeToken := f.state.Get().Range
	if rangeToken == client.RangeCustom || rangeToken == "" {
		rangeToken = f.state.DefaultRange()
	}

	logs, err := f.backend.GetPatternLogs(ctx, patternHash, rangeToken, f.logsLimit)
	if err != nil {
		slog.Warn("failed to fetch pattern logs",
			slog.String("pattern_hash", patternHash),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return logs, nil
}
