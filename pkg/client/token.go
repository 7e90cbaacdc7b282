package client

import (
	"context"
	"sync/atomic"
)

// CancelToken is handed to a fetch and checked before its result is applied.
// Its state, not the transport, decides whether a result is ignored.
type CancelToken struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// NewCancelToken derives a token from parent.
func NewCancelToken(parent context.Context) *CancelToken {
	ctx, cancel := context.WithCancel(parent)
	return &CancelToken{ctx: ctx, cancel: cancel}
}

// Cancel marks the token and aborts its context. Safe to call twice.
func (t *CancelToken) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	t.cancel()
}

// Cancelled reports whether Cancel was called.
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Context is the context the fetch runs under.
func (t *CancelToken) Context() context.Context {
	return t.ctx
}
