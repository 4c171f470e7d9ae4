package lockmgr

// SharedManager lets a run of shared requests at the front of a queue own a
// key together, while an exclusive request owns it alone and only from the
// front.
//
// A new reader is admitted on arrival only if no exclusive request is queued
// anywhere on the key, waiting or not. Readers that arrive after a writer
// therefore queue behind it instead of extending the current shared run.
type SharedManager[T comparable] struct {
	base[T]
}

var _ Manager[int] = (*SharedManager[int])(nil)

func NewShared[T comparable](sink ReadySink[T], opts ...Option) *SharedManager[T] {
	return &SharedManager[T]{base: newBase(sink, opts...)}
}

func (m *SharedManager[T]) WriteLock(txn T, key Key) bool {
	q := m.table.queue(key)
	before, _ := q.owners()
	return m.enqueue(q, Exclusive, txn, before == Unlocked)
}

func (m *SharedManager[T]) ReadLock(txn T, key Key) bool {
	q := m.table.queue(key)
	before, _ := q.owners()
	granted := before == Unlocked || !q.hasExclusive()
	return m.enqueue(q, Shared, txn, granted)
}

func (m *SharedManager[T]) Release(txn T, key Key) {
	q, ok := m.table.lookup(key)
	if !ok {
		m.debug("release of unknown key", "key", key, "txn", txn)
		return
	}

	if _, ok := m.dequeue(q, txn); !ok {
		return
	}

	// Owners that were granted on arrival, or promoted by an earlier
	// release, are skipped by promote.
	_, count := q.owners()
	for idx := range count {
		m.promote(q, idx)
	}
	m.table.compact(q)
}

func (m *SharedManager[T]) Status(key Key) (LockMode, []T) {
	q, ok := m.table.lookup(key)
	if !ok || q.empty() {
		return Unlocked, nil
	}

	mode, count := q.owners()
	owners := make([]T, count)
	for idx := range count {
		owners[idx] = q.requests[idx].Txn
	}
	return mode, owners
}
