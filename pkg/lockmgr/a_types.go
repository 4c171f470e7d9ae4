// Package lockmgr arbitrates per-key locks for a deterministic transaction
// scheduler.
//
// Every key owns a FIFO queue of lock requests. A request that is not granted
// on arrival is counted against its transaction; when the count of a
// transaction drops back to zero it is pushed to the caller's ReadySink,
// exactly once. Nothing in this package blocks and nothing is synchronized:
// all calls on a Manager must come from one logical actor (see Serialized).
package lockmgr

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Key identifies a lockable resource. Keys are ordered only so that the lock
// table can be walked deterministically.
type Key string

type LockMode int

const (
	Unlocked LockMode = iota
	Shared
	Exclusive
)

func (mode LockMode) String() string {
	switch mode {
	case Unlocked:
		return "UNLOCKED"
	case Shared:
		return "SHARED"
	case Exclusive:
		return "EXCLUSIVE"
	default:
		return "UNKNOWN"
	}
}

// Request is one (mode, txn) pair queued against a key.
type Request[T comparable] struct {
	Mode LockMode
	Txn  T
}

// ReadySink receives a transaction once all of its lock requests are granted.
// The manager only ever appends.
type ReadySink[T comparable] interface {
	Push(txn T)
}

// SinkFunc adapts a function to ReadySink.
type SinkFunc[T comparable] func(txn T)

func (fn SinkFunc[T]) Push(txn T) { fn(txn) }

// Manager is the capability set the scheduler consumes.
//
// ReadLock and WriteLock enqueue a request and report whether it was granted
// on arrival. Release removes the first request of txn on key, granted or
// not, and promotes whoever becomes an owner; releasing an unknown pair is a
// no-op. Status reports the current owners of key.
type Manager[T comparable] interface {
	ReadLock(txn T, key Key) bool
	WriteLock(txn T, key Key) bool
	Release(txn T, key Key)
	Status(key Key) (LockMode, []T)
}

type Policy int

const (
	// PolicyExclusive treats every request, read or write, as exclusive.
	PolicyExclusive Policy = iota
	// PolicyShared lets readers share a key until a writer queues behind them.
	PolicyShared
)

var UnknownPolicyErr = errors.New("unknown lock policy")

func (policy Policy) String() string {
	switch policy {
	case PolicyExclusive:
		return "exclusive"
	case PolicyShared:
		return "shared"
	default:
		return "unknown"
	}
}

func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "exclusive", "a":
		return PolicyExclusive, nil
	case "shared", "b":
		return PolicyShared, nil
	default:
		return 0, errors.Wrapf(UnknownPolicyErr, "%q", name)
	}
}

// New builds the manager implementing policy.
func New[T comparable](policy Policy, sink ReadySink[T], opts ...Option) (Manager[T], error) {
	switch policy {
	case PolicyExclusive:
		return NewExclusive(sink, opts...), nil
	case PolicyShared:
		return NewShared(sink, opts...), nil
	default:
		return nil, errors.Wrapf(UnknownPolicyErr, "%d", int(policy))
	}
}
