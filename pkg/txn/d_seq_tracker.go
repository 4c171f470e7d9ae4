package txn

import (
	"container/heap"
	"sync/atomic"
)

// seqWaiter is a WaitFor call parked until doneTill reaches seq.
type seqWaiter struct {
	seq uint64
	ch  chan struct{}
}

// minHeap orders items by the seq the key func extracts.
type minHeap[T any] struct {
	items []T
	key   func(T) uint64
}

func (h *minHeap[T]) Len() int           { return len(h.items) }
func (h *minHeap[T]) Less(i, j int) bool { return h.key(h.items[i]) < h.key(h.items[j]) }
func (h *minHeap[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *minHeap[T]) Push(x any)         { h.items = append(h.items, x.(T)) }
func (h *minHeap[T]) Pop() any {
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return last
}

func (h *minHeap[T]) peek() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// seqTracker is owned by the WaterMark goroutine. A seq stays in open until
// as many done events as begin events arrived for it; doneTill is the largest
// seq with no open seq at or below it.
type seqTracker struct {
	doneTill atomic.Uint64
	open     minHeap[uint64]
	pending  map[uint64]int
	waiters  minHeap[seqWaiter]
}

func newSeqTracker() *seqTracker {
	return &seqTracker{
		open:    minHeap[uint64]{key: func(seq uint64) uint64 { return seq }},
		pending: make(map[uint64]int),
		waiters: minHeap[seqWaiter]{key: func(w seqWaiter) uint64 { return w.seq }},
	}
}

// track adds delta to the pending count of seq. A done event arriving ahead
// of its begin leaves a negative count and keeps seq open until the begin.
func (t *seqTracker) track(seq uint64, delta int) {
	if _, ok := t.pending[seq]; !ok {
		heap.Push(&t.open, seq)
	}
	t.pending[seq] += delta
}

// advance pops every finished seq off the front and wakes the waiters they
// cover.
func (t *seqTracker) advance() uint64 {
	doneTill := t.doneTill.Load()
	for {
		seq, ok := t.open.peek()
		if !ok || t.pending[seq] != 0 {
			break
		}
		heap.Pop(&t.open)
		delete(t.pending, seq)
		doneTill = seq
	}
	t.doneTill.Store(doneTill)
	t.wake(doneTill)
	return doneTill
}

func (t *seqTracker) park(seq uint64, ch chan struct{}) {
	heap.Push(&t.waiters, seqWaiter{seq: seq, ch: ch})
}

func (t *seqTracker) wake(till uint64) {
	for {
		w, ok := t.waiters.peek()
		if !ok || w.seq > till {
			return
		}
		heap.Pop(&t.waiters)
		close(w.ch)
	}
}

// wakeAll releases every parked waiter, whether its seq was reached or not.
func (t *seqTracker) wakeAll() {
	t.wake(^uint64(0))
}
