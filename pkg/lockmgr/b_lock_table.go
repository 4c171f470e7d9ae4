package lockmgr

import (
	"github.com/google/btree"
)

const lockTableDegree = 32

// entry is a queued request plus whether it has been granted, either on
// arrival or by a later promotion.
type entry[T comparable] struct {
	Request[T]
	granted bool
}

type lockQueue[T comparable] struct {
	key      Key
	requests []entry[T]
}

func (q *lockQueue[T]) empty() bool {
	return len(q.requests) == 0
}

func (q *lockQueue[T]) push(mode LockMode, txn T, granted bool) {
	q.requests = append(q.requests, entry[T]{
		Request: Request[T]{Mode: mode, Txn: txn},
		granted: granted,
	})
}

// remove drops the first request of txn, keeping the order of the rest, and
// returns the position it was found at.
func (q *lockQueue[T]) remove(txn T) (int, bool) {
	for idx, e := range q.requests {
		if e.Txn != txn {
			continue
		}
		copy(q.requests[idx:], q.requests[idx+1:])
		q.requests[len(q.requests)-1] = entry[T]{}
		q.requests = q.requests[:len(q.requests)-1]
		return idx, true
	}
	return -1, false
}

func (q *lockQueue[T]) hasExclusive() bool {
	for _, e := range q.requests {
		if e.Mode == Exclusive {
			return true
		}
	}
	return false
}

// owners returns the mode of the granted prefix and its length. The walk is
// seeded with Exclusive so the front request is always accepted; an
// exclusive request is accepted only when nothing shared precedes it, and
// stops the walk once accepted.
func (q *lockQueue[T]) owners() (LockMode, int) {
	if q.empty() {
		return Unlocked, 0
	}

	mode := Exclusive
	count := 0
	for _, e := range q.requests {
		if e.Mode == Exclusive && mode == Shared {
			break
		}
		count++
		mode = e.Mode
		if mode == Exclusive {
			break
		}
	}
	return mode, count
}

func (q *lockQueue[T]) snapshot() []Request[T] {
	res := make([]Request[T], len(q.requests))
	for idx, e := range q.requests {
		res[idx] = e.Request
	}
	return res
}

// lockTable maps keys to their queues. Queues are created on first lock
// request and, when pruning is on, dropped again once empty.
type lockTable[T comparable] struct {
	tree  *btree.BTreeG[*lockQueue[T]]
	prune bool
}

func newLockTable[T comparable](prune bool) *lockTable[T] {
	return &lockTable[T]{
		tree: btree.NewG[*lockQueue[T]](lockTableDegree, func(a, b *lockQueue[T]) bool {
			return a.key < b.key
		}),
		prune: prune,
	}
}

func (table *lockTable[T]) lookup(key Key) (*lockQueue[T], bool) {
	return table.tree.Get(&lockQueue[T]{key: key})
}

func (table *lockTable[T]) queue(key Key) *lockQueue[T] {
	if q, ok := table.lookup(key); ok {
		return q
	}
	q := &lockQueue[T]{key: key}
	table.tree.ReplaceOrInsert(q)
	return q
}

func (table *lockTable[T]) compact(q *lockQueue[T]) {
	if table.prune && q.empty() {
		table.tree.Delete(q)
	}
}

func (table *lockTable[T]) keys() []Key {
	keys := make([]Key, 0, table.tree.Len())
	table.tree.Ascend(func(q *lockQueue[T]) bool {
		keys = append(keys, q.key)
		return true
	})
	return keys
}
