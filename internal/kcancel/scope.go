// Package kcancel builds the context.Context scopes that cmd/gokio
// attaches to pkg/kio's blocking operations, tagging each with a
// UUID so a long transfer's cancellation or timeout can be traced back
// to the operation that started it.
package kcancel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type idKey struct{}

// Scope is a cancellable, optionally-deadlined context.Context paired
// with the ID it was tagged with, for correlating a cancellation or
// timeout error back to the operation that started it.
type Scope struct {
	context.Context
	ID     string
	cancel context.CancelFunc
}

// New opens a scope with no deadline, cancelled only by Cancel or by
// parent cancellation.
func New(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.New().String()
	ctx = context.WithValue(ctx, idKey{}, id)
	return &Scope{Context: ctx, ID: id, cancel: cancel}
}

// NewWithTimeout opens a scope that cancels itself after d elapses,
// surfacing kio.KindTimeout from any operation polling it at that
// point rather than kio.KindCancelled.
func NewWithTimeout(parent context.Context, d time.Duration) *Scope {
	ctx, cancel := context.WithTimeout(parent, d)
	id := uuid.New().String()
	ctx = context.WithValue(ctx, idKey{}, id)
	return &Scope{Context: ctx, ID: id, cancel: cancel}
}

// Cancel ends the scope early. Idempotent, like context.CancelFunc.
func (s *Scope) Cancel() {
	s.cancel()
}

// IDFromContext recovers the Scope ID attached to ctx, if any, for
// logging a cancelled or timed-out operation against the scope that
// produced it.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey{}).(string)
	return id, ok
}
