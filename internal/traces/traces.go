// Package traces correlates logs by trace ID and request ID.
package traces

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/purl-logs/purl-explorer/internal/cache"
	"github.com/purl-logs/purl-explorer/internal/observable"
	"github.com/purl-logs/purl-explorer/internal/scope"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// Backend is the part of the API client the service needs.
type Backend interface {
	GetTrace(ctx context.Context, traceID string) (*client.Trace, error)
	GetTraceTimeline(ctx context.Context, traceID string) (*client.TraceTimeline, error)
	GetRequest(ctx context.Context, requestID string) (*client.RequestLogs, error)
}

// Service fetches traces, timelines and request logs. Traces and timelines
// are cached; concurrent fetches of the same ID share one request. Trace and
// timeline fetches each run under their own cancellation kind, so only the
// newest fetch of each publishes.
type Service struct {
	backend   Backend
	scope     *scope.Scope
	traces    *cache.LRU[*client.Trace]
	timelines *cache.LRU[*client.TraceTimeline]
	group     singleflight.Group

	data     *observable.Cell[*client.Trace]
	timeline *observable.Cell[*client.TraceTimeline]
	loading  *observable.Cell[bool]
	errMsg   *observable.Cell[string]
}

// New creates a service caching up to cacheSize traces and timelines.
func New(backend Backend, sc *scope.Scope, cacheSize int) (*Service, error) {
	traces, err := cache.New[*client.Trace](cacheSize)
	if err != nil {
		return nil, err
	}
	timelines, err := cache.New[*client.TraceTimeline](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		backend:   backend,
		scope:     sc,
		traces:    traces,
		timelines: timelines,
		data:      observable.New[*client.Trace](nil),
		timeline:  observable.New[*client.TraceTimeline](nil),
		loading:   observable.New(false),
		errMsg:    observable.New(""),
	}, nil
}

// Data holds the last trace fetched by FetchTrace.
func (s *Service) Data() *observable.Cell[*client.Trace] { return s.data }

// Timeline holds the last timeline fetched by FetchTimeline.
func (s *Service) Timeline() *observable.Cell[*client.TraceTimeline] { return s.timeline }

// Loading is true while FetchTrace is in flight.
func (s *Service) Loading() *observable.Cell[bool] { return s.loading }

// Error holds the message of the last failed FetchTrace.
func (s *Service) Error() *observable.Cell[string] { return s.errMsg }

// FetchTrace retrieves the logs of a trace, checking the cache first, and
// publishes the result. An empty ID returns nil without a request. A fetch
// superseded by a newer one publishes nothing and returns an error for which
// scope.IsCanceled is true.
func (s *Service) FetchTrace(ctx context.Context, traceID string) (*client.Trace, error) {
	if traceID == "" {
		return nil, nil
	}

	tok := s.scope.Begin(ctx, scope.KindTrace)
	defer tok.Settle(func() { s.loading.Set(false) })

	tok.Publish(func() {
		s.loading.Set(true)
		s.errMsg.Set("")
	})

	trace, err := fetchCached(tok.Context(), &s.group, s.traces, "trace:", traceID, s.backend.GetTrace)
	if err != nil {
		if stale := tok.Err(); stale != nil {
			return nil, fmt.Errorf("trace %s: %w", traceID, stale)
		}
		if scope.IsCanceled(err) {
			return nil, fmt.Errorf("trace %s: %w", traceID, err)
		}
		slog.Warn("failed to fetch trace",
			slog.String("trace_id", traceID),
			slog.String("error", err.Error()),
		)
		tok.Publish(func() { s.errMsg.Set(err.Error()) })
		return nil, err
	}

	if !tok.Publish(func() { s.data.Set(trace) }) {
		return nil, fmt.Errorf("trace %s: %w", traceID, scope.ErrSuperseded)
	}
	return trace, nil
}

// FetchTimeline retrieves the per-service spans of a trace. Failures are
// logged and returned but not published. Like FetchTrace, only the newest
// fetch publishes.
func (s *Service) FetchTimeline(ctx context.Context, traceID string) (*client.TraceTimeline, error) {
	if traceID == "" {
		return nil, nil
	}

	tok := s.scope.Begin(ctx, scope.KindTimeline)
	defer tok.Release()

	tl, err := fetchCached(tok.Context(), &s.group, s.timelines, "timeline:", traceID, s.backend.GetTraceTimeline)
	if err != nil {
		if stale := tok.Err(); stale != nil {
			return nil, fmt.Errorf("timeline %s: %w", traceID, stale)
		}
		if !scope.IsCanceled(err) {
			slog.Warn("failed to fetch trace timeline",
				slog.String("trace_id", traceID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	if !tok.Publish(func() { s.timeline.Set(tl) }) {
		return nil, fmt.Errorf("timeline %s: %w", traceID, scope.ErrSuperseded)
	}
	return tl, nil
}

// FetchRequest retrieves the logs of a request. Request logs are not cached
// because a request may still be producing logs.
func (s *Service) FetchRequest(ctx context.Context, requestID string) (*client.RequestLogs, error) {
	if requestID == "" {
		return nil, nil
	}

	start := time.Now()
	req, shared, err := share(ctx, &s.group, "request:"+requestID, func(ctx context.Context) (*client.RequestLogs, error) {
		return s.backend.GetRequest(ctx, requestID)
	})
	if err != nil {
		slog.Warn("failed to fetch request",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	slog.Debug("request fetched",
		slog.String("request_id", requestID),
		slog.Bool("shared", shared),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return req, nil
}

// Reset clears the published trace state and the caches.
func (s *Service) Reset() {
	s.traces.Purge()
	s.timelines.Purge()
	s.data.Set(nil)
	s.timeline.Set(nil)
	s.loading.Set(false)
	s.errMsg.Set("")
}

// fetchCached returns the cached value for id, or fetches it once across
// concurrent callers and caches it.
func fetchCached[V any](ctx context.Context, group *singleflight.Group, c *cache.LRU[V], prefix, id string, fetch func(context.Context, string) (V, error)) (V, error) {
	if cached, ok := c.Get(id); ok {
		return cached, nil
	}

	v, _, err := share(ctx, group, prefix+id, func(ctx context.Context) (V, error) {
		val, err := fetch(ctx, id)
		if err != nil {
			return val, err
		}
		c.Put(id, val)
		return val, nil
	})
	return v, err
}

// share runs fetch once per key across concurrent callers. The shared request
// is detached from ctx, since callers that join it may outlive the one that
// started it; each caller still stops waiting when its own ctx ends, with the
// context's cause as the error.
func share[V any](ctx context.Context, group *singleflight.Group, key string, fetch func(context.Context) (V, error)) (V, bool, error) {
	ch := group.DoChan(key, func() (any, error) {
		return fetch(context.WithoutCancel(ctx))
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, context.Cause(ctx)
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Shared, r.Err
		}
		return r.Val.(V), r.Shared, nil
	}
}

// Summary describes the spans of a timeline.
type Summary struct {
	TotalSpans     int      `json:"total_spans"`
	UniqueServices int      `json:"unique_services"`
	ErrorCount     int      `json:"error_count"`
	Services       []string `json:"services,omitempty"`
}

// IsErrorSpan reports whether a span logged at ERROR or FATAL.
func IsErrorSpan(span client.TimelineSpan) bool {
	return span.Level == "ERROR" || span.Level == "FATAL"
}

// Summarize counts the spans, distinct services and error spans of a timeline.
// Services are listed in order of first appearance.
func Summarize(tl *client.TraceTimeline) Summary {
	if tl == nil || len(tl.Services) == 0 {
		return Summary{}
	}

	var sum Summary
	for _, span := range tl.Services {
		sum.TotalSpans++
		if IsErrorSpan(span) {
			sum.ErrorCount++
		}
		if !slices.Contains(sum.Services, span.Service) {
			sum.Services = append(sum.Services, span.Service)
		}
	}
	sum.UniqueServices = len(sum.Services)
	return sum
}
