package txn

import (
	"slices"

	"det_txn/pkg/lockmgr"

	"github.com/google/uuid"
)

// Logic is the body of a txn. It runs once on an executor worker, after
// every lock of the txn is granted. A non-nil error aborts the txn.
type Logic func(txn *Txn) error

// Txn declares the keys it reads and writes up front, so that the
// scheduler can request every lock before any logic runs.
type Txn struct {
	ID  uuid.UUID
	seq uint64

	readSet  []lockmgr.Key
	writeSet []lockmgr.Key
	logic    Logic

	// set by the executor
	snapshot *Snapshot
	writes   *Batch
	err      error

	// set by the scheduler before doneCh is closed
	status Status
	doneCh chan struct{}
}

// NewTxn dedupes both key sets. A key in both sets is only kept in the
// write set, since the write lock covers the read.
func NewTxn(readSet, writeSet []lockmgr.Key, logic Logic) *Txn {
	writes := dedupe(writeSet)
	reads := make([]lockmgr.Key, 0, len(readSet))
	for _, key := range dedupe(readSet) {
		if !slices.Contains(writes, key) {
			reads = append(reads, key)
		}
	}

	return &Txn{
		ID:       uuid.New(),
		readSet:  reads,
		writeSet: writes,
		logic:    logic,
		writes:   &Batch{},
		doneCh:   make(chan struct{}),
	}
}

func dedupe(keys []lockmgr.Key) []lockmgr.Key {
	res := make([]lockmgr.Key, 0, len(keys))
	for _, key := range keys {
		if !slices.Contains(res, key) {
			res = append(res, key)
		}
	}
	return res
}

func (txn *Txn) Seq() uint64 {
	return txn.seq
}

func (txn *Txn) ReadSet() []lockmgr.Key {
	return txn.readSet
}

func (txn *Txn) WriteSet() []lockmgr.Key {
	return txn.writeSet
}

// Keys returns the read set followed by the write set, the order in which
// locks are requested.
func (txn *Txn) Keys() []lockmgr.Key {
	return slices.Concat(txn.readSet, txn.writeSet)
}

func (txn *Txn) Get(key lockmgr.Key) ([]byte, bool, error) {
	if !slices.Contains(txn.readSet, key) && !slices.Contains(txn.writeSet, key) {
		return nil, false, KeyNotLockedErr
	}
	if value, ok := txn.writes.Get([]byte(key)); ok {
		if value.IsDeleted() {
			return nil, false, nil
		}
		return value.Slice(), true, nil
	}
	if txn.snapshot == nil {
		return nil, false, nil
	}
	value, ok := txn.snapshot.Get([]byte(key))
	return value.Slice(), ok, nil
}

func (txn *Txn) Set(key lockmgr.Key, value []byte) error {
	if !slices.Contains(txn.writeSet, key) {
		return KeyNotInWriteSetErr
	}
	txn.writes.Put([]byte(key), NewValue(value))
	return nil
}

func (txn *Txn) Delete(key lockmgr.Key) error {
	if !slices.Contains(txn.writeSet, key) {
		return KeyNotInWriteSetErr
	}
	txn.writes.Put([]byte(key), Tombstone())
	return nil
}

// Done is closed once the txn is committed or aborted.
func (txn *Txn) Done() <-chan struct{} {
	return txn.doneCh
}

// Status is only meaningful after Done is closed.
func (txn *Txn) Status() Status {
	return txn.status
}

// Err is the reason of an abort.
func (txn *Txn) Err() error {
	return txn.err
}

func (txn *Txn) String() string {
	return txn.ID.String()
}

func (txn *Txn) finish(status Status, err error) {
	if err != nil {
		txn.err = err
	}
	txn.status = status
	close(txn.doneCh)
}
