// Package state holds the query state that drives searches.
package state

import (
	"fmt"
	"time"

	"github.com/purl-logs/purl-explorer/internal/interval"
	"github.com/purl-logs/purl-explorer/internal/observable"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// DefaultRange is the preset used when none is configured.
const DefaultRange = "15m"

// Query is a snapshot of the query state.
// From and To are only meaningful when Range is client.RangeCustom; a zero
// time means the bound is unset.
type Query struct {
	Text  string    `json:"text"`
	Range string    `json:"range"`
	From  time.Time `json:"from,omitzero"`
	To    time.Time `json:"to,omitzero"`
	Live  bool      `json:"live"`
}

// HasCustomBounds reports whether a custom range with both bounds is selected.
func (q Query) HasCustomBounds() bool {
	return q.Range == client.RangeCustom && !q.From.IsZero() && !q.To.IsZero()
}

// Window returns the effective time window for requests. A custom range with
// a missing bound falls back to fallback rather than sending a partial range.
func (q Query) Window(fallback string) client.TimeWindow {
	if q.HasCustomBounds() {
		return client.TimeWindow{
			Range: client.RangeCustom,
			From:  q.From.UTC().Format(time.RFC3339),
			To:    q.To.UTC().Format(time.RFC3339),
		}
	}
	if q.Range == "" || q.Range == client.RangeCustom {
		return client.TimeWindow{Range: fallback}
	}
	return client.TimeWindow{Range: q.Range}
}

// Interval returns the histogram bucket width for the effective window.
func (q Query) Interval(fallback string) string {
	if q.HasCustomBounds() {
		return interval.Select(client.RangeCustom, q.From, q.To)
	}
	return interval.Select(q.Window(fallback).Range, time.Time{}, time.Time{})
}

// State is the mutable query state. Every mutation replaces the snapshot held
// in the underlying cell, so readers always see a consistent Query.
type State struct {
	defaultRange string
	cell         *observable.Cell[Query]
}

// New creates a state with an empty query over defaultRange.
// An empty defaultRange selects DefaultRange.
func New(defaultRange string) *State {
	if defaultRange == "" {
		defaultRange = DefaultRange
	}
	return &State{
		defaultRange: defaultRange,
		cell:         observable.New(Query{Range: defaultRange}),
	}
}

// DefaultRange returns the preset used initially and as fallback.
func (s *State) DefaultRange() string {
	return s.defaultRange
}

// Get returns the current snapshot.
func (s *State) Get() Query {
	return s.cell.Get()
}

// Subscribe returns a channel of snapshots. See observable.Cell.Subscribe.
func (s *State) Subscribe() (<-chan Query, func()) {
	return s.cell.Subscribe()
}

// Window returns the effective time window of the current snapshot.
func (s *State) Window() client.TimeWindow {
	return s.Get().Window(s.defaultRange)
}

// SetText sets the free-text query. Empty matches everything.
func (s *State) SetText(text string) {
	s.cell.Update(func(q Query) Query {
		q.Text = text
		return q
	})
}

// SetRange selects a preset range or "custom". Unknown tokens are rejected and
// leave the state unchanged. Custom bounds are kept when switching to a preset
// so switching back restores them.
func (s *State) SetRange(token string) error {
	if token != client.RangeCustom && !interval.IsPreset(token) {
		return fmt.Errorf("unknown range %q", token)
	}
	s.cell.Update(func(q Query) Query {
		q.Range = token
		return q
	})
	return nil
}

// SetCustomRange selects a custom range with the given bounds.
// Either bound may be zero; an incomplete range falls back to the default preset.
func (s *State) SetCustomRange(from, to time.Time) {
	s.cell.Update(func(q Query) Query {
		q.Range = client.RangeCustom
		q.From = from
		q.To = to
		return q
	})
}

// SetLive sets the live-mode flag.
func (s *State) SetLive(live bool) {
	s.cell.Update(func(q Query) Query {
		q.Live = live
		return q
	})
}

// Reset restores the initial state.
func (s *State) Reset() {
	s.cell.Set(Query{Range: s.defaultRange})
}
