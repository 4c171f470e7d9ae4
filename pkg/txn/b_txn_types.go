package txn

import (
	"bytes"
)

type Status int

const (
	Incomplete Status = iota
	Committed
	Aborted
)

func (status Status) String() string {
	switch status {
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "INCOMPLETE"
	}
}

type Pair[K any, V any] struct {
	Key K
	Val V
}

// Batch is the write buffer of a txn, applied to the store on commit.
type Batch struct {
	pairs []Pair[[]byte, Value]
}

// Put adds key or overwrites its pending value.
func (batch *Batch) Put(key []byte, value Value) {
	for idx, pair := range batch.pairs {
		if bytes.Equal(pair.Key, key) {
			batch.pairs[idx].Val = value
			return
		}
	}
	batch.pairs = append(batch.pairs, Pair[[]byte, Value]{key, value})
}

func (batch *Batch) Get(key []byte) (Value, bool) {
	for _, pair := range batch.pairs {
		if bytes.Equal(pair.Key, key) {
			return pair.Val, true
		}
	}
	return Value{}, false
}

func (batch *Batch) Contains(key []byte) bool {
	_, ok := batch.Get(key)
	return ok
}

func (batch *Batch) IsEmpty() bool {
	return len(batch.pairs) == 0
}

func (batch *Batch) AllPairs() []Pair[[]byte, Value] {
	return batch.pairs
}
