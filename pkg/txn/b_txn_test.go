package txn

import (
	"testing"

	"det_txn/pkg/lockmgr"

	"github.com/stretchr/testify/assert"
)

func TestNewTxnKeepsAKeyInBothSetsOnlyInTheWriteSet(t *testing.T) {
	txn := NewTxn([]lockmgr.Key{"a", "b", "a"}, []lockmgr.Key{"b", "c", "c"}, nil)

	assert.Equal(t, []lockmgr.Key{"a"}, txn.ReadSet())
	assert.Equal(t, []lockmgr.Key{"b", "c"}, txn.WriteSet())
	assert.Equal(t, []lockmgr.Key{"a", "b", "c"}, txn.Keys())
	assert.NotEqual(t, txn.ID, NewTxn(nil, nil, nil).ID)
}

func TestSetsOnlyKeysOfTheWriteSet(t *testing.T) {
	txn := NewTxn([]lockmgr.Key{"r"}, []lockmgr.Key{"w"}, nil)

	assert.NoError(t, txn.Set("w", []byte("value")))
	assert.ErrorIs(t, txn.Set("r", []byte("value")), KeyNotInWriteSetErr)
	assert.ErrorIs(t, txn.Delete("other"), KeyNotInWriteSetErr)
}

func TestGetsOnlyLockedKeys(t *testing.T) {
	txn := NewTxn([]lockmgr.Key{"r"}, nil, nil)

	_, _, err := txn.Get("other")
	assert.ErrorIs(t, err, KeyNotLockedErr)

	_, exists, err := txn.Get("r")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestReadsItsOwnWrites(t *testing.T) {
	store := NewMVStore()
	store.PutOrUpdate(NewVersionedKey([]byte("HDD"), 1), NewValue([]byte("Hard disk")))

	txn := NewTxn(nil, []lockmgr.Key{"HDD"}, nil)
	txn.seq = 2
	txn.snapshot = store.Snapshot(txn.seq)

	value, exists, err := txn.Get("HDD")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []byte("Hard disk"), value)

	_ = txn.Set("HDD", []byte("Hard disk drive"))
	value, _, _ = txn.Get("HDD")
	assert.Equal(t, []byte("Hard disk drive"), value)

	_ = txn.Delete("HDD")
	_, exists, _ = txn.Get("HDD")
	assert.False(t, exists)
}

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "INCOMPLETE", Incomplete.String())
	assert.Equal(t, "COMMITTED", Committed.String())
	assert.Equal(t, "ABORTED", Aborted.String())
}
