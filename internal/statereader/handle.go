package statereader

import "context"

// decoder decodes raw payload bytes into a boxed value. Reader code never
// sees the concrete type parameter; only the generic wrapper types
// (ValueHandle[T], ListHandle[T]) know it.
type decoder func([]byte) (any, error)

// valueResult is the boxed outcome of a KindValue handle.
type valueResult struct {
	present bool
	v       any
}

// watermarkResult is the boxed outcome of a KindWatermark handle.
type watermarkResult struct {
	present bool
	ms      int64
}

// handle is the untyped, kind-indexed deferred result container described
// in the reader's design notes: a closed sum of outcomes keyed by the
// TagKey's Kind, with no runtime type parameter of its own. Only the
// goroutine performing a flush ever writes result/err; every other
// observer only reads after done is closed, which is always safe.
type handle struct {
	tagKey TagKey
	reader *Reader
	done   chan struct{}
	result any
	err    error
}

func newHandle(tagKey TagKey, reader *Reader) *handle {
	return &handle{tagKey: tagKey, reader: reader, done: make(chan struct{})}
}

// isDone reports whether the handle has reached a terminal state. Safe to
// call concurrently with resolve/fail because it never observes done
// before close() happens-before the read, per Go's channel-close memory
// model guarantee.
func (h *handle) isDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// resolve transitions the handle to Resolved. Must only be called by the
// flush goroutine, and at most once.
func (h *handle) resolve(v any) {
	h.result = v
	close(h.done)
}

// fail transitions the handle to Failed. Must only be called by the flush
// goroutine, and at most once.
func (h *handle) fail(err error) {
	h.err = err
	close(h.done)
}

// await triggers a flush if the handle is not yet done, then blocks for the
// terminal outcome or ctx cancellation, whichever comes first.
func (h *handle) await(ctx context.Context) (any, error) {
	if !h.isDone() {
		// Flush failures are reported through individual handle outcomes
		// (see reader.go), so Flush's own error is discarded here; it is
		// returned to callers of Flush that want to distinguish "my tag
		// failed" from "the whole flush blew up" without inspecting every
		// other handle.
		_ = h.reader.Flush(ctx)
	}
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ValueHandle is the deferred result of a Value registration.
type ValueHandle[T any] struct{ h *handle }

// Get blocks until the handle is resolved, triggering a flush on first
// call. ok is false when the backing store held no data for this tag;
// decode errors and fatal flush errors are both reported via err.
func (vh ValueHandle[T]) Get(ctx context.Context) (value T, ok bool, err error) {
	raw, err := vh.h.await(ctx)
	if err != nil {
		return value, false, err
	}
	vr := raw.(valueResult)
	if !vr.present {
		return value, false, nil
	}
	return vr.v.(T), true, nil
}

// ListHandle is the deferred result of a List registration.
type ListHandle[T any] struct{ h *handle }

// Get blocks until the handle is resolved, triggering a flush on first
// call. Returns an empty, non-nil slice when the backing store held no
// entries for this tag.
func (lh ListHandle[T]) Get(ctx context.Context) ([]T, error) {
	raw, err := lh.h.await(ctx)
	if err != nil {
		return nil, err
	}
	boxed := raw.([]any)
	out := make([]T, len(boxed))
	for i, v := range boxed {
		out[i] = v.(T)
	}
	return out, nil
}

// WatermarkHandle is the deferred result of a Watermark registration.
type WatermarkHandle struct{ h *handle }

// Get blocks until the handle is resolved, triggering a flush on first
// call. ok is false when no holds were returned for this tag.
func (wh WatermarkHandle) Get(ctx context.Context) (millis int64, ok bool, err error) {
	raw, err := wh.h.await(ctx)
	if err != nil {
		return 0, false, err
	}
	wr := raw.(watermarkResult)
	if !wr.present {
		return 0, false, nil
	}
	return wr.ms, true, nil
}
