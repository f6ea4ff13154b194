package statereader

import "sync"

// registryEntry pairs an installed handle with the decoder recorded for it,
// if any (KindWatermark carries none).
type registryEntry struct {
	h       *handle
	decoder decoder
}

// handleRegistry maps TagKey to at most one handle for the reader's
// lifetime. Matches the teacher's convention of a plain mutex-guarded map
// rather than sync.Map or a lock-free structure: this registry is touched
// on every factory call and every flush, but contention is low (one
// work-token's worth of handles), so a single mutex is the simplest correct
// choice.
type handleRegistry struct {
	mu      sync.Mutex
	entries map[TagKey]registryEntry
}

func newHandleRegistry() *handleRegistry {
	return &handleRegistry{entries: make(map[TagKey]registryEntry)}
}

// register implements the compare-and-set primitive from the reader's
// deduplication design: if tagKey already has a handle, return it unchanged
// with wasNew=false. Otherwise install a freshly constructed handle and
// return it with wasNew=true. Only the caller that observes wasNew=true may
// enqueue tagKey onto the pending queue, which is what guarantees at most
// one on-the-wire fetch per tag.
func (r *handleRegistry) register(tagKey TagKey, reader *Reader, dec decoder) (*handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[tagKey]; ok {
		return existing.h, false
	}

	h := newHandle(tagKey, reader)
	r.entries[tagKey] = registryEntry{h: h, decoder: dec}
	return h, true
}

// lookup returns the registered entry for tagKey, if any.
func (r *handleRegistry) lookup(tagKey TagKey) (registryEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[tagKey]
	return e, ok
}
