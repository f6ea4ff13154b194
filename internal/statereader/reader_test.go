package statereader

import (
	"context"
	"errors"
	"testing"
)

func listEntry(v int) Payload {
	return Payload{Data: append([]byte{0x00}, encodeVarint(v)...)}
}

func watermarkEntry(ms int64) Payload {
	return Payload{Data: []byte{0x00}, Timestamp: ms * 1000}
}

func TestLazyTransmission(t *testing.T) {
	store := &fakeStore{}
	r := New(testBinding(), store)

	List[int](r, []byte("key1"), decodeVarint)
	Value[int](r, []byte("key1"), decodeVarint)
	Watermark(r, []byte("key1"))

	if store.calls != 0 {
		t.Fatalf("expected zero backing-store calls before any await, got %d", store.calls)
	}
}

func TestReadList(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Lists: []ListItem{{
			Tag:     []byte("key1"),
			Entries: []Payload{listEntry(5), listEntry(6)},
		}},
	}}}
	r := New(testBinding(), store)

	h := List[int](r, []byte("key1"), decodeVarint)
	got, err := h.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Fatalf("got %v, want [5 6]", got)
	}
	if len(store.requests) != 1 || len(store.requests[0].ListFetches) != 1 {
		t.Fatalf("expected exactly one list fetch in the request, got %+v", store.requests)
	}
}

func TestReadValue(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Values: []ValueItem{{
			Tag:     []byte("key1"),
			Payload: &Payload{Data: encodeVarint(8)},
		}},
	}}}
	r := New(testBinding(), store)

	h := Value[int](r, []byte("key1"), decodeVarint)
	got, ok, err := h.Get(context.Background())
	if err != nil || !ok {
		t.Fatalf("unexpected result: got=%v ok=%v err=%v", got, ok, err)
	}
	if got != 8 {
		t.Fatalf("got %d, want 8", got)
	}
	if len(store.requests) != 1 || len(store.requests[0].ValueFetches) != 1 {
		t.Fatalf("expected exactly one value fetch, got %+v", store.requests)
	}
}

func TestReadWatermark(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Lists: []ListItem{{
			Tag:     []byte("key1"),
			Entries: []Payload{watermarkEntry(5000), watermarkEntry(6000)},
		}},
	}}}
	r := New(testBinding(), store)

	h := Watermark(r, []byte("key1"))
	ms, ok, err := h.Get(context.Background())
	if err != nil || !ok {
		t.Fatalf("unexpected result: ms=%d ok=%v err=%v", ms, ok, err)
	}
	if ms != 5000 {
		t.Fatalf("got %d ms, want 5000", ms)
	}
}

func TestBatchedMixedRead(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Lists: []ListItem{
			{Tag: []byte("key2"), Entries: []Payload{watermarkEntry(5000), watermarkEntry(6000)}},
			{Tag: []byte("key1"), Entries: []Payload{listEntry(5), listEntry(100)}},
		},
	}}}
	r := New(testBinding(), store)

	wh := Watermark(r, []byte("key2"))
	lh := List[int](r, []byte("key1"), decodeVarint)

	ms, ok, err := wh.Get(context.Background())
	if err != nil || !ok || ms != 5000 {
		t.Fatalf("watermark: ms=%d ok=%v err=%v", ms, ok, err)
	}
	if store.calls != 1 {
		t.Fatalf("expected exactly one backing-store call, got %d", store.calls)
	}

	req := store.requests[0]
	if len(req.ListFetches) != 2 {
		t.Fatalf("expected two list fetches, got %d", len(req.ListFetches))
	}
	for _, lf := range req.ListFetches {
		if lf.EndTimestamp != maxEndTimestamp {
			t.Fatalf("expected max end timestamp, got %d", lf.EndTimestamp)
		}
	}

	got, err := lh.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 100 {
		t.Fatalf("got %v, want [5 100]", got)
	}
	if store.calls != 1 {
		t.Fatalf("expected no additional backing-store call, got %d total", store.calls)
	}

	// A second registration for an already-resolved tag must return a
	// handle that is already done, without triggering another flush.
	wh2 := Watermark(r, []byte("key2"))
	if !wh2.h.isDone() {
		t.Fatalf("expected second registration to already be done")
	}
}

func TestIntraBatchDeduplication(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Lists: []ListItem{{
			Tag:     []byte("key1"),
			Entries: []Payload{watermarkEntry(5000)},
		}},
	}}}
	r := New(testBinding(), store)

	Watermark(r, []byte("key1"))
	Watermark(r, []byte("key1"))

	if got := len(r.pending.drain()); got != 1 {
		t.Fatalf("expected pending queue size 1, got %d", got)
	}
}

func TestAbsentValue(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Values:        []ValueItem{{Tag: []byte("key1"), Payload: nil}},
	}}}
	decoderCalled := false
	decoder := func(b []byte) (int, error) {
		decoderCalled = true
		return 0, nil
	}
	r := New(testBinding(), store)

	h := Value[int](r, []byte("key1"), decoder)
	_, ok, err := h.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected absent marker")
	}
	if decoderCalled {
		t.Fatalf("decoder must not be invoked for an absent value")
	}
}

func TestTransportFailureFailsAllPendingHandles(t *testing.T) {
	store := &fakeStore{errs: []error{errors.New("dial tcp: connection refused")}}
	r := New(testBinding(), store)

	h1 := Watermark(r, []byte("key1"))
	h2 := List[int](r, []byte("key2"), decodeVarint)

	if _, _, err := h1.Get(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("h1: expected ErrTransport, got %v", err)
	}
	if _, err := h2.Get(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("h2: expected ErrTransport, got %v", err)
	}
}

func TestEnvelopeMismatchIsFatal(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: "wrong-computation",
		Key:           testKey,
	}}}
	r := New(testBinding(), store)

	h := Watermark(r, []byte("key1"))
	if _, _, err := h.Get(context.Background()); !errors.Is(err, ErrEnvelopeMismatch) {
		t.Fatalf("expected ErrEnvelopeMismatch, got %v", err)
	}
}

func TestUnknownTagIsFatal(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Lists:         []ListItem{{Tag: []byte("never-requested"), Entries: []Payload{watermarkEntry(1)}}},
	}}}
	r := New(testBinding(), store)

	h := Watermark(r, []byte("key1"))
	if _, _, err := h.Get(context.Background()); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
}

func TestKindMismatchIsFatal(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		// key1 was registered as KindWatermark but the store answers with a
		// value item instead of a list item.
		Values: []ValueItem{{Tag: []byte("key1"), Payload: &Payload{Data: encodeVarint(1)}}},
	}}}
	r := New(testBinding(), store)

	h := Watermark(r, []byte("key1"))
	if _, _, err := h.Get(context.Background()); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}

func TestIncompleteResponseIsFatal(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Lists:         []ListItem{{Tag: []byte("key1"), Entries: []Payload{watermarkEntry(1)}}},
		// key2 was requested but never answered.
	}}}
	r := New(testBinding(), store)

	h1 := Watermark(r, []byte("key1"))
	h2 := Watermark(r, []byte("key2"))

	if _, _, err := h1.Get(context.Background()); err != nil {
		t.Fatalf("h1 should have routed successfully before the incompleteness was discovered: %v", err)
	}
	if _, _, err := h2.Get(context.Background()); !errors.Is(err, ErrIncompleteResponse) {
		t.Fatalf("expected ErrIncompleteResponse for h2, got %v", err)
	}
}

func TestDecodeErrorIsScopedToOneHandle(t *testing.T) {
	store := &fakeStore{responses: []*Response{{
		ComputationID: testComputation,
		Key:           testKey,
		Lists: []ListItem{
			{Tag: []byte("bad"), Entries: []Payload{listEntry(5)}},
			{Tag: []byte("good"), Entries: []Payload{listEntry(6)}},
		},
	}}}
	r := New(testBinding(), store)

	bad := List[int](r, []byte("bad"), failingDecoder)
	good := List[int](r, []byte("good"), decodeVarint)

	if _, err := bad.Get(context.Background()); err == nil || errors.Is(err, ErrIncompleteResponse) {
		t.Fatalf("expected a decode error for 'bad', got %v", err)
	} else if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	got, err := good.Get(context.Background())
	if err != nil {
		t.Fatalf("'good' must still resolve despite 'bad' failing to decode: %v", err)
	}
	if len(got) != 1 || got[0] != 6 {
		t.Fatalf("got %v, want [6]", got)
	}
}

func TestMissingDecoderIsFatal(t *testing.T) {
	r := New(testBinding(), &fakeStore{})
	tagKey := NewTagKey(KindValue, []byte("key1"))
	h, wasNew := r.registry.register(tagKey, r, nil)
	if !wasNew {
		t.Fatalf("expected a fresh registration")
	}

	aux := buildAux([]TagKey{tagKey})
	resp := &Response{
		ComputationID: testComputation,
		Key:           testKey,
		Values:        []ValueItem{{Tag: []byte("key1"), Payload: &Payload{Data: encodeVarint(1)}}},
	}
	err := r.consumeResponse(aux, resp)
	if !errors.Is(err, ErrMissingDecoder) {
		t.Fatalf("expected ErrMissingDecoder, got %v", err)
	}
	if !h.isDone() {
		t.Fatalf("expected handle to be failed")
	}
}
