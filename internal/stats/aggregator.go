// Package stats fetches the facet breakdowns, histogram and metrics for the
// current query window as one cancellable group.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/purl-logs/purl-explorer/internal/observable"
	"github.com/purl-logs/purl-explorer/internal/query"
	"github.com/purl-logs/purl-explorer/internal/scope"
	"github.com/purl-logs/purl-explorer/internal/state"
	"github.com/purl-logs/purl-explorer/pkg/client"
	"github.com/purl-logs/purl-explorer/pkg/types"
)

// DefaultConcurrency bounds the number of stats requests in flight per group.
const DefaultConcurrency = 8

// Backend is the part of the API client the aggregator needs.
type Backend interface {
	GetFieldStats(ctx context.Context, field string, window client.TimeWindow, limit int) (*client.FieldStatsResponse, error)
	GetHistogram(ctx context.Context, interval string, window client.TimeWindow) (*client.HistogramResponse, error)
	GetMetrics(ctx context.Context) (client.Metrics, error)
}

// Options configures an Aggregator.
type Options struct {
	Facets         []string          // Fields broken down by value, in display order
	FacetLimit     int               // Values kept per facet
	MetricsSummary map[string]string // Summary name to jq expression over the metrics
	Concurrency    int               // Defaults to DefaultConcurrency
}

// Aggregator runs stats groups. Starting a group cancels the previous group
// as a unit: none of its facets, histogram or metrics publish afterwards.
// Within a group each fetch fails independently.
type Aggregator struct {
	ctx     context.Context
	backend Backend
	scope   *scope.Scope
	state   *state.State
	bundle  *observable.Cell[types.StatsBundle]
	jq      *query.Engine
	opts    Options
}

// New creates an aggregator. ctx bounds groups started by Trigger.
func New(ctx context.Context, backend Backend, sc *scope.Scope, st *state.State, bundle *observable.Cell[types.StatsBundle], opts Options) *Aggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Aggregator{
		ctx:     ctx,
		backend: backend,
		scope:   sc,
		state:   st,
		bundle:  bundle,
		jq:      query.NewEngine(),
		opts:    opts,
	}
}

// Trigger starts a group in the background and returns immediately.
func (a *Aggregator) Trigger() {
	go func() {
		if err := a.RunAll(a.ctx); err != nil {
			slog.Debug("stats group ended early", slog.String("reason", err.Error()))
		}
	}()
}

// RunAll fetches every facet, the histogram and the metrics for the current
// query window and publishes each as it arrives. It returns once the group is
// finished. The only error it returns is a cancellation of the whole group;
// individual fetch failures are logged and leave the previous value in place.
func (a *Aggregator) RunAll(ctx context.Context) error {
	tok := a.scope.Begin(ctx, scope.KindStats)
	defer tok.Release()

	q := a.state.Get()
	window := q.Window(a.state.DefaultRange())
	width := q.Interval(a.state.DefaultRange())
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)

	for _, field := range a.opts.Facets {
		g.Go(func() error {
			a.fetchFacet(tok, field, window)
			return nil
		})
	}
	g.Go(func() error {
		a.fetchHistogram(tok, width, window)
		return nil
	})
	g.Go(func() error {
		a.fetchMetrics(tok)
		return nil
	})
	_ = g.Wait()

	if err := tok.Err(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	slog.Debug("stats group completed",
		slog.Int("facets", len(a.opts.Facets)),
		slog.String("interval", width),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

func (a *Aggregator) fetchFacet(tok *scope.Token, field string, window client.TimeWindow) {
	resp, err := a.backend.GetFieldStats(tok.Context(), field, window, a.opts.FacetLimit)
	if err != nil {
		a.logFailure(tok, "facet stats", err, slog.String("field", field))
		return
	}

	values := resp.Values
	if len(values) > a.opts.FacetLimit {
		values = values[:a.opts.FacetLimit]
	}
	tok.Publish(func() {
		a.bundle.Update(func(b types.StatsBundle) types.StatsBundle {
			return b.WithFacet(field, values)
		})
	})
}

func (a *Aggregator) fetchHistogram(tok *scope.Token, width string, window client.TimeWindow) {
	resp, err := a.backend.GetHistogram(tok.Context(), width, window)
	if err != nil {
		a.logFailure(tok, "histogram", err, slog.String("interval", width))
		return
	}

	tok.Publish(func() {
		a.bundle.Update(func(b types.StatsBundle) types.StatsBundle {
			b.Histogram = resp.Buckets
			b.Interval = width
			return b
		})
	})
}

func (a *Aggregator) fetchMetrics(tok *scope.Token) {
	m, err := a.backend.GetMetrics(tok.Context())
	if err != nil {
		a.logFailure(tok, "metrics", err)
		return
	}

	var summary map[string]any
	if len(a.opts.MetricsSummary) > 0 {
		var errs []string
		summary, errs = a.jq.Project(map[string]any(m), a.opts.MetricsSummary)
		for _, e := range errs {
			slog.Debug("metrics summary projection failed", slog.String("error", e))
		}
	}

	tok.Publish(func() {
		a.bundle.Update(func(b types.StatsBundle) types.StatsBundle {
			b.Metrics = m
			b.MetricsSummary = summary
			return b
		})
	})
}

// logFailure logs a fetch error. Cancellations stay at debug level.
func (a *Aggregator) logFailure(tok *scope.Token, what string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	if tok.Stale() || scope.IsCanceled(err) {
		slog.Debug(what+" canceled", attrs...)
		return
	}
	slog.Warn(what+" failed", attrs...)
}
