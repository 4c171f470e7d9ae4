package lockmgr

// waitCounter tracks, per transaction, how many of its requests are still
// ungranted. A transaction with no entry is not waiting on anything.
type waitCounter[T comparable] struct {
	waits map[T]int
	sink  ReadySink[T]
}

func newWaitCounter[T comparable](sink ReadySink[T]) *waitCounter[T] {
	return &waitCounter[T]{
		waits: make(map[T]int),
		sink:  sink,
	}
}

func (counter *waitCounter[T]) add(txn T) {
	counter.waits[txn]++
}

// grant counts one request of txn as granted. When that was the last one,
// txn leaves the counter and is pushed to the sink in the same step.
func (counter *waitCounter[T]) grant(txn T) (ready bool) {
	count, ok := counter.waits[txn]
	if !ok {
		return false
	}
	if count > 1 {
		counter.waits[txn] = count - 1
		return false
	}

	delete(counter.waits, txn)
	counter.sink.Push(txn)
	return true
}

func (counter *waitCounter[T]) waiting(txn T) int {
	return counter.waits[txn]
}

func (counter *waitCounter[T]) len() int {
	return len(counter.waits)
}
