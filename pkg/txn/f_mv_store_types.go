package txn

import "bytes"

type VersionedKey struct {
	Key     []byte
	Version uint64
}

func NewVersionedKey(key []byte, version uint64) VersionedKey {
	return VersionedKey{Key: key, Version: version}
}

func (vk VersionedKey) Compare(other VersionedKey) int {
	if cmp := bytes.Compare(vk.Key, other.Key); cmp != 0 {
		return cmp
	}
	switch {
	case vk.Version < other.Version:
		return -1
	case vk.Version > other.Version:
		return 1
	default:
		return 0
	}
}

// Value is a stored version. A deleted value hides every older version.
type Value struct {
	value   []byte
	deleted bool
}

func NewValue(value []byte) Value {
	return Value{
		value: value,
	}
}

func Tombstone() Value {
	return Value{deleted: true}
}

func (value Value) Slice() []byte {
	return value.value
}

func (value Value) IsDeleted() bool {
	return value.deleted
}
