package lockmgr

import (
	"context"
	"log/slog"

	"det_txn/pkg/logging"
)

type options struct {
	logger *slog.Logger
	prune  bool
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPruning drops a key's queue as soon as it empties. Without it queues
// live as long as the manager, which only costs memory.
func WithPruning(prune bool) Option {
	return func(o *options) {
		o.prune = prune
	}
}

// base is the state both policies share: the table and the wait counter.
type base[T comparable] struct {
	table  *lockTable[T]
	waits  *waitCounter[T]
	logger *slog.Logger
}

func newBase[T comparable](sink ReadySink[T], opts ...Option) base[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.WithComponent("lockmgr")
	}

	return base[T]{
		table:  newLockTable[T](o.prune),
		waits:  newWaitCounter(sink),
		logger: o.logger,
	}
}

// enqueue appends a request and counts it against txn when not granted.
func (b *base[T]) enqueue(q *lockQueue[T], mode LockMode, txn T, granted bool) bool {
	q.push(mode, txn, granted)
	if !granted {
		b.waits.add(txn)
	}
	b.debug("lock requested", "key", q.key, "mode", mode, "txn", txn, "granted", granted)
	return granted
}

// dequeue removes the first request of txn on q and reports its position.
// The wait count of txn is left alone: it only ever moves on a grant, so a
// txn that drops an ungranted request is never pushed to the sink.
func (b *base[T]) dequeue(q *lockQueue[T], txn T) (int, bool) {
	idx, ok := q.remove(txn)
	if !ok {
		b.debug("release without request", "key", q.key, "txn", txn)
		return -1, false
	}
	return idx, true
}

// promote grants the request at idx if it is still waiting.
func (b *base[T]) promote(q *lockQueue[T], idx int) {
	e := &q.requests[idx]
	if e.granted {
		return
	}
	e.granted = true
	if b.waits.grant(e.Txn) {
		b.debug("txn ready", "key", q.key, "txn", e.Txn)
	}
}

func (b *base[T]) debug(msg string, args ...any) {
	if b.logger.Enabled(context.Background(), slog.LevelDebug) {
		b.logger.Debug(msg, args...)
	}
}

// Queue returns the requests queued on key, front first.
func (b *base[T]) Queue(key Key) []Request[T] {
	q, ok := b.table.lookup(key)
	if !ok {
		return nil
	}
	return q.snapshot()
}

// Waiting returns how many requests of txn are still ungranted.
func (b *base[T]) Waiting(txn T) int {
	return b.waits.waiting(txn)
}

// WaitingTxns returns how many transactions have ungranted requests.
func (b *base[T]) WaitingTxns() int {
	return b.waits.len()
}

// Keys returns every key with a queue, in ascending order.
func (b *base[T]) Keys() []Key {
	return b.table.keys()
}
