package fetch

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Handle owns one in-flight request of one Coordinator. Once invalidated,
// whatever the request returns is ignored.
type Handle struct {
	ID     uuid.UUID
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func newHandle(parent context.Context) *Handle {
	ctx, cancel := context.WithCancelCause(parent)
	return &Handle{ID: uuid.New(), ctx: ctx, cancel: cancel}
}

// Context is cancelled with cause ErrCanceled when the handle is superseded.
func (h *Handle) Context() context.Context { return h.ctx }

// Superseded reports whether the handle has been invalidated.
func (h *Handle) Superseded() bool {
	return errors.Is(context.Cause(h.ctx), ErrCanceled)
}

func (h *Handle) invalidate() { h.cancel(ErrCanceled) }

// release frees the context once the request has finished normally.
func (h *Handle) release() { h.cancel(nil) }
