package statereader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/fluxstate/pkg/log"
)

// Binding is the immutable (computation, key, workToken) triple a Reader is
// scoped to for the lifetime of one unit of work. Every outgoing request is
// stamped with it; every incoming response is validated against it.
type Binding struct {
	Computation string
	Key         []byte
	WorkToken   int64
}

// BackingStore is the out-of-core collaborator the core reads through. It
// is treated as a synchronous, thread-safe callable; transport failure is
// surfaced as ErrTransport.
type BackingStore interface {
	GetData(ctx context.Context, req Request) (*Response, error)
}

// Reader is the façade bound to one Binding. It owns the HandleRegistry,
// the pending queue, and every Handle it has issued; external code holds
// only handles.
type Reader struct {
	binding Binding
	store   BackingStore
	logger  log.Logger
	metrics Metrics

	registry *handleRegistry
	pending  *pendingQueue

	flushMu sync.Mutex
}

// Option configures a Reader at construction.
type Option func(*Reader)

// WithLogger attaches a structured logger. Defaults to log.NewLogger at
// info level (JSON lines on stderr) if not provided.
func WithLogger(l log.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

// WithMetrics attaches a Metrics sink. Defaults to NoopMetrics.
func WithMetrics(m Metrics) Option {
	return func(r *Reader) { r.metrics = m }
}

// New constructs a Reader bound to binding, reading through store.
func New(binding Binding, store BackingStore, opts ...Option) *Reader {
	r := &Reader{
		binding:  binding,
		store:    store,
		registry: newHandleRegistry(),
		pending:  newPendingQueue(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	if r.metrics == nil {
		r.metrics = NoopMetrics{}
	}
	return r
}

func (r *Reader) registerAndMaybeEnqueue(tagKey TagKey, dec decoder) *handle {
	h, wasNew := r.registry.register(tagKey, r, dec)
	if wasNew {
		r.pending.push(tagKey)
	}
	return h
}

// Value registers (KindValue, tag), returning a handle decoded by dec on
// first resolution. A second registration of the same tag reuses the first
// call's decoder and returns a handle resolving to the same outcome.
func Value[T any](r *Reader, tag []byte, dec func([]byte) (T, error)) ValueHandle[T] {
	tagKey := NewTagKey(KindValue, tag)
	h := r.registerAndMaybeEnqueue(tagKey, wrapDecoder(dec))
	return ValueHandle[T]{h: h}
}

// List registers (KindList, tag), returning a handle whose result is the
// ordered, element-decoded sequence returned by the backing store.
func List[T any](r *Reader, tag []byte, elemDec func([]byte) (T, error)) ListHandle[T] {
	tagKey := NewTagKey(KindList, tag)
	h := r.registerAndMaybeEnqueue(tagKey, wrapDecoder(elemDec))
	return ListHandle[T]{h: h}
}

// Watermark registers (KindWatermark, tag). No decoder is required: the
// payload bytes of watermark entries are never interpreted.
func Watermark(r *Reader, tag []byte) WatermarkHandle {
	tagKey := NewTagKey(KindWatermark, tag)
	h := r.registerAndMaybeEnqueue(tagKey, nil)
	return WatermarkHandle{h: h}
}

func wrapDecoder[T any](dec func([]byte) (T, error)) decoder {
	return func(b []byte) (any, error) { return dec(b) }
}

// Flush drains the pending queue, performs one backing-store round trip,
// and routes the response onto every handle registered since the previous
// flush. It is idempotent when the queue is empty: concurrent callers that
// lose the race to a flush already in progress, or arrive after the queue
// has drained to empty, simply return nil once the in-flight flush (if any)
// completes — the flushMu mutex is the "flush-in-progress guard" from the
// concurrency model, serializing concurrent flushes rather than having them
// race on disjoint partitions.
func (r *Reader) Flush(ctx context.Context) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	tags := r.pending.drain()
	if len(tags) == 0 {
		return nil
	}

	start := time.Now()
	aux := buildAux(tags)
	req := buildRequest(r.binding, tags)

	resp, err := r.store.GetData(ctx, req)
	if err != nil || resp == nil {
		wrapped := fmt.Errorf("%w: %v", ErrTransport, err)
		r.failRemaining(aux, wrapped)
		r.metrics.ObserveFlush(time.Since(start), len(tags), "transport")
		r.logger.Error("flush failed: transport", log.Err(err), log.Int("tags", len(tags)))
		return wrapped
	}

	if err := r.validateEnvelope(resp); err != nil {
		r.failRemaining(aux, err)
		r.metrics.ObserveFlush(time.Since(start), len(tags), "envelope")
		r.logger.Error("flush failed: envelope mismatch", log.Err(err))
		return err
	}

	if err := r.consumeResponse(aux, resp); err != nil {
		r.metrics.ObserveFlush(time.Since(start), len(tags), "routing")
		r.logger.Error("flush failed: routing", log.Err(err), log.Int("tags", len(tags)))
		return err
	}

	r.metrics.ObserveFlush(time.Since(start), len(tags), "ok")
	r.logger.Debug("flush complete", log.Int("tags", len(tags)))
	return nil
}

// validateEnvelope checks the response's computation/key identity against
// the reader's binding. Since Response models exactly one computation block
// and one key block (spec's required shape), there is nothing to count;
// only identity needs checking.
func (r *Reader) validateEnvelope(resp *Response) error {
	if resp.ComputationID != r.binding.Computation {
		return fmt.Errorf("%w: computation %q, want %q", ErrEnvelopeMismatch, resp.ComputationID, r.binding.Computation)
	}
	if string(resp.Key) != string(r.binding.Key) {
		return fmt.Errorf("%w: key %q, want %q", ErrEnvelopeMismatch, resp.Key, r.binding.Key)
	}
	return nil
}
