package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetsTheLatestVersionNotNewerThanTheReadVersion(t *testing.T) {
	store := NewMVStore()
	store.PutOrUpdate(NewVersionedKey([]byte("HDD"), 1), NewValue([]byte("Hard disk")))
	store.PutOrUpdate(NewVersionedKey([]byte("HDD"), 4), NewValue([]byte("Hard disk drive")))

	_, ok := store.Get(NewVersionedKey([]byte("HDD"), 0))
	assert.False(t, ok)

	value, ok := store.Get(NewVersionedKey([]byte("HDD"), 3))
	assert.True(t, ok)
	assert.Equal(t, []byte("Hard disk"), value.Slice())

	value, ok = store.Latest([]byte("HDD"))
	assert.True(t, ok)
	assert.Equal(t, []byte("Hard disk drive"), value.Slice())
}

func TestDoesNotReadAVersionOfANeighbouringKey(t *testing.T) {
	store := NewMVStore()
	store.PutOrUpdate(NewVersionedKey([]byte("A"), 1), NewValue([]byte("a")))

	_, ok := store.Latest([]byte("B"))
	assert.False(t, ok)
}

func TestATombstoneHidesOlderVersions(t *testing.T) {
	store := NewMVStore()
	batch := &Batch{}
	batch.Put([]byte("SSD"), NewValue([]byte("Solid state drive")))
	store.Apply(1, batch)

	deletes := &Batch{}
	deletes.Put([]byte("SSD"), Tombstone())
	store.Apply(2, deletes)

	_, ok := store.Latest([]byte("SSD"))
	assert.False(t, ok)

	value, ok := store.Get(NewVersionedKey([]byte("SSD"), 1))
	assert.True(t, ok)
	assert.Equal(t, []byte("Solid state drive"), value.Slice())
	assert.Equal(t, 2, store.Len())
}

func TestASnapshotDoesNotSeeLaterWrites(t *testing.T) {
	store := NewMVStore()
	store.PutOrUpdate(NewVersionedKey([]byte("HDD"), 1), NewValue([]byte("Hard disk")))

	snapshot := store.Snapshot(10)
	store.PutOrUpdate(NewVersionedKey([]byte("HDD"), 2), NewValue([]byte("Hard disk drive")))

	value, ok := snapshot.Get([]byte("HDD"))
	assert.True(t, ok)
	assert.Equal(t, []byte("Hard disk"), value.Slice())
}

func TestPutOverwritesAPendingValueInABatch(t *testing.T) {
	batch := &Batch{}
	assert.True(t, batch.IsEmpty())

	batch.Put([]byte("HDD"), NewValue([]byte("Hard disk")))
	batch.Put([]byte("HDD"), NewValue([]byte("Hard disk drive")))

	assert.Len(t, batch.AllPairs(), 1)
	value, ok := batch.Get([]byte("HDD"))
	assert.True(t, ok)
	assert.Equal(t, []byte("Hard disk drive"), value.Slice())
	assert.False(t, batch.Contains([]byte("SSD")))
}
