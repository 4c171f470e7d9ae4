package txn

// Snapshot reads the store as of ts. Copying the btree is lazy, so later
// writes to the store never show through.
type Snapshot struct {
	ts      uint64
	mvStore *MvStore
}

func (snapshot *Snapshot) Get(key []byte) (Value, bool) {
	return snapshot.mvStore.get(NewVersionedKey(key, snapshot.ts))
}

func (mvStore *MvStore) Snapshot(ts uint64) *Snapshot {
	mvStore.lock.RLock()
	defer mvStore.lock.RUnlock()

	return &Snapshot{
		ts: ts,
		mvStore: &MvStore{
			btree: mvStore.btree.Copy(),
		},
	}
}
