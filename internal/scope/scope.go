// Package scope provides last-request-wins cancellation keyed by operation kind.
//
// Beginning an operation of a kind cancels the previous operation of the same
// kind. A token's result may only be written to shared state through
// Token.Publish, which refuses once the token has been superseded, so a slow
// response from an older operation can never overwrite a newer one.
package scope

import (
	"context"
	"errors"
	"sync"
)

// Kind is a logical category of operation used as the cancellation key.
type Kind string

// Operation kinds used by the engine.
const (
	KindSearch   Kind = "search"
	KindStats    Kind = "stats"
	KindPatterns Kind = "patterns"
	KindTrace    Kind = "trace"
	KindTimeline Kind = "timeline"
)

var (
	// ErrSuperseded is the cancellation cause of a token replaced by a newer
	// operation of the same kind.
	ErrSuperseded = errors.New("operation superseded")

	// ErrCanceled is the cancellation cause of a token canceled explicitly
	// through Cancel or CancelAll.
	ErrCanceled = errors.New("operation canceled")
)

// IsCanceled reports whether err is a benign cancellation rather than a real
// failure. Callers treat such errors as silent no-ops.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrSuperseded) ||
		errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled)
}

// Scope tracks the current token per kind. The zero value is not usable; use New.
// Separate Scope values never affect each other.
type Scope struct {
	mu      sync.Mutex
	current map[Kind]*Token
}

// New creates an empty scope.
func New() *Scope {
	return &Scope{current: make(map[Kind]*Token)}
}

// Begin starts a new operation of the given kind, canceling the previous one
// before returning. The token's context derives from ctx.
func (s *Scope) Begin(ctx context.Context, kind Kind) *Token {
	tctx, cancel := context.WithCancelCause(ctx)
	t := &Token{scope: s, kind: kind, ctx: tctx, cancel: cancel}

	s.mu.Lock()
	if prev := s.current[kind]; prev != nil {
		prev.cancel(ErrSuperseded)
	}
	s.current[kind] = t
	s.mu.Unlock()

	return t
}

// Cancel cancels the current operation of kind, if any.
func (s *Scope) Cancel(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.current[kind]; t != nil {
		t.cancel(ErrCanceled)
		delete(s.current, kind)
	}
}

// CancelAll cancels every in-flight operation.
func (s *Scope) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind, t := range s.current {
		t.cancel(ErrCanceled)
		delete(s.current, kind)
	}
}

// Token is the handle of one operation.
type Token struct {
	scope  *Scope
	kind   Kind
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// Context returns the context to pass to the operation's requests.
// It is canceled when the token is superseded.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Kind returns the operation kind.
func (t *Token) Kind() Kind {
	return t.kind
}

// Stale reports whether the token was superseded or canceled through the
// scope. A token whose parent context ended is not stale: it is still the
// latest operation of its kind.
func (t *Token) Stale() bool {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	return t.staleLocked()
}

func (t *Token) staleLocked() bool {
	return t.scope.current[t.kind] != t
}

// Err returns the reason the token is stale, or nil while it is current.
func (t *Token) Err() error {
	if !t.Stale() {
		return nil
	}
	if cause := context.Cause(t.ctx); cause != nil {
		return cause
	}
	return ErrSuperseded
}

// Publish runs fn only if the token is still current and reports whether it
// ran. Begin cannot interleave with fn, so once a newer operation has started
// no write from this token can land. fn must not call back into the scope.
func (t *Token) Publish(fn func()) bool {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	if t.staleLocked() {
		return false
	}
	fn()
	return true
}

// Settle ends the operation. If the token is still current, fn runs (when
// non-nil) before the token is removed, and Settle reports true. A stale
// token's fn never runs, so a superseded attempt cannot touch state the newer
// attempt owns.
func (t *Token) Settle(fn func()) bool {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	defer t.cancel(nil)
	if t.staleLocked() {
		return false
	}
	if fn != nil {
		fn()
	}
	delete(t.scope.current, t.kind)
	return true
}

// Release ends the operation and frees its context.
func (t *Token) Release() {
	t.Settle(nil)
}
