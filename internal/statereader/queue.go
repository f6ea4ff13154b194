package statereader

import "sync"

// pendingQueue is a multi-producer, drained-once-per-flush sequence of
// TagKeys awaiting transmission to the backing store. Every TagKey ever
// pushed here was registered in the handleRegistry first (by the same
// caller, holding wasNew=true), and drain empties the queue atomically so
// concurrent flushes never see overlapping batches.
type pendingQueue struct {
	mu   sync.Mutex
	tags []TagKey
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{}
}

// push enqueues a newly registered TagKey.
func (q *pendingQueue) push(tagKey TagKey) {
	q.mu.Lock()
	q.tags = append(q.tags, tagKey)
	q.mu.Unlock()
}

// drain empties the queue and returns everything it held, in push order.
func (q *pendingQueue) drain() []TagKey {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tags) == 0 {
		return nil
	}
	drained := q.tags
	q.tags = nil
	return drained
}
