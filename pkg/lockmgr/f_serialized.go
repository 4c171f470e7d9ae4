package lockmgr

import (
	"github.com/cockroachdb/errors"
	"github.com/viney-shih/go-lock"
)

// Serialized wraps a Manager and panics when two calls overlap. It never
// waits: callers are still expected to serialize themselves, this only turns
// a violation into a loud failure instead of a corrupted queue.
type Serialized[T comparable] struct {
	inner Manager[T]
	latch lock.Mutex
}

var _ Manager[int] = (*Serialized[int])(nil)

func NewSerialized[T comparable](inner Manager[T]) *Serialized[T] {
	return &Serialized[T]{
		inner: inner,
		latch: lock.NewCASMutex(),
	}
}

func (s *Serialized[T]) enter(op string, key Key) {
	if !s.latch.TryLock() {
		panic(errors.AssertionFailedf("lockmgr: concurrent %s on key %q, lock manager calls must be serialized", op, key))
	}
}

func (s *Serialized[T]) ReadLock(txn T, key Key) bool {
	s.enter("ReadLock", key)
	defer s.latch.Unlock()
	return s.inner.ReadLock(txn, key)
}

func (s *Serialized[T]) WriteLock(txn T, key Key) bool {
	s.enter("WriteLock", key)
	defer s.latch.Unlock()
	return s.inner.WriteLock(txn, key)
}

func (s *Serialized[T]) Release(txn T, key Key) {
	s.enter("Release", key)
	defer s.latch.Unlock()
	s.inner.Release(txn, key)
}

func (s *Serialized[T]) Status(key Key) (LockMode, []T) {
	s.enter("Status", key)
	defer s.latch.Unlock()
	return s.inner.Status(key)
}
