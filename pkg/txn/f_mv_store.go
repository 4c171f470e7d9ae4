package txn

import (
	"bytes"
	"math"
	"sync"

	"github.com/tidwall/btree"
)

// MvStore keeps every committed version of every key, versioned by the
// sequence number of the txn that wrote it.
type MvStore struct {
	lock  sync.RWMutex
	btree *btree.BTreeG[Pair[VersionedKey, Value]]
}

func NewMVStore() *MvStore {
	return &MvStore{
		btree: btree.NewBTreeG(func(a, b Pair[VersionedKey, Value]) bool {
			return a.Key.Compare(b.Key) < 0
		}),
	}
}

func (mvStore *MvStore) PutOrUpdate(key VersionedKey, value Value) {
	mvStore.lock.Lock()
	defer mvStore.lock.Unlock()

	mvStore.btree.Set(Pair[VersionedKey, Value]{Key: key, Val: value})
}

// Apply writes a whole batch at one version.
func (mvStore *MvStore) Apply(version uint64, batch *Batch) {
	mvStore.lock.Lock()
	defer mvStore.lock.Unlock()

	for _, pair := range batch.AllPairs() {
		mvStore.btree.Set(Pair[VersionedKey, Value]{
			Key: NewVersionedKey(pair.Key, version),
			Val: pair.Val,
		})
	}
}

// Get returns the newest version of key.Key not newer than key.Version.
func (mvStore *MvStore) Get(key VersionedKey) (Value, bool) {
	mvStore.lock.RLock()
	defer mvStore.lock.RUnlock()

	return mvStore.get(key)
}

func (mvStore *MvStore) get(key VersionedKey) (Value, bool) {
	var (
		res   Value
		found bool
	)
	pivot := Pair[VersionedKey, Value]{Key: key}
	mvStore.btree.Descend(pivot, func(item Pair[VersionedKey, Value]) bool {
		if bytes.Equal(item.Key.Key, key.Key) && !item.Val.IsDeleted() {
			res, found = item.Val, true
		}
		return false
	})
	return res, found
}

func (mvStore *MvStore) Latest(key []byte) (Value, bool) {
	return mvStore.Get(NewVersionedKey(key, math.MaxUint64))
}

func (mvStore *MvStore) Len() int {
	mvStore.lock.RLock()
	defer mvStore.lock.RUnlock()

	return mvStore.btree.Len()
}
