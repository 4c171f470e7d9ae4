package lockmgr

// ExclusiveManager grants every request exclusively: the front of a key's
// queue is its only owner.
type ExclusiveManager[T comparable] struct {
	base[T]
}

var _ Manager[int] = (*ExclusiveManager[int])(nil)

func NewExclusive[T comparable](sink ReadySink[T], opts ...Option) *ExclusiveManager[T] {
	return &ExclusiveManager[T]{base: newBase(sink, opts...)}
}

func (m *ExclusiveManager[T]) WriteLock(txn T, key Key) bool {
	q := m.table.queue(key)
	return m.enqueue(q, Exclusive, txn, q.empty())
}

// ReadLock is WriteLock: this policy does not tell readers from writers.
func (m *ExclusiveManager[T]) ReadLock(txn T, key Key) bool {
	return m.WriteLock(txn, key)
}

func (m *ExclusiveManager[T]) Release(txn T, key Key) {
	q, ok := m.table.lookup(key)
	if !ok {
		m.debug("release of unknown key", "key", key, "txn", txn)
		return
	}

	idx, ok := m.dequeue(q, txn)
	if !ok {
		return
	}

	// Only the owner sits at the front; removing a waiter changes nothing
	// for the rest of the queue.
	if idx == 0 && !q.empty() {
		m.promote(q, 0)
	}
	m.table.compact(q)
}

func (m *ExclusiveManager[T]) Status(key Key) (LockMode, []T) {
	q, ok := m.table.lookup(key)
	if !ok || q.empty() {
		return Unlocked, nil
	}
	return Exclusive, []T{q.requests[0].Txn}
}
