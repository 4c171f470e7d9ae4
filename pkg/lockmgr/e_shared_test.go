package lockmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharedReadersWriterAndLateReader(t *testing.T) {
	ready := &readyQueue{}
	mgr := NewShared[string](ready)

	assert.True(t, mgr.ReadLock("T1", "y"))
	assert.True(t, mgr.ReadLock("T2", "y"))
	assert.False(t, mgr.WriteLock("T3", "y"))
	assert.Equal(t, 1, mgr.Waiting("T3"))
	assert.False(t, mgr.ReadLock("T4", "y"))
	assert.Equal(t, 1, mgr.Waiting("T4"))

	mgr.Release("T1", "y")
	mode, owners := mgr.Status("y")
	assert.Equal(t, Shared, mode)
	assert.Equal(t, []string{"T2"}, owners)
	assert.Empty(t, ready.txns)

	mgr.Release("T2", "y")
	mode, owners = mgr.Status("y")
	assert.Equal(t, Exclusive, mode)
	assert.Equal(t, []string{"T3"}, owners)
	assert.Equal(t, []string{"T3"}, ready.txns)

	mgr.Release("T3", "y")
	mode, owners = mgr.Status("y")
	assert.Equal(t, Shared, mode)
	assert.Equal(t, []string{"T4"}, owners)
	assert.Equal(t, []string{"T3", "T4"}, ready.txns)
	assert.Equal(t, 0, mgr.WaitingTxns())
}

func TestSharedWriterOnAnEmptyKeyIsGranted(t *testing.T) {
	mgr := NewShared[string](&readyQueue{})

	assert.Equal(t, Unlocked, first(mgr.Status("k")))
	assert.True(t, mgr.WriteLock("W", "k"))
	assert.False(t, mgr.ReadLock("R", "k"))
	assert.False(t, mgr.WriteLock("W2", "k"))

	mode, owners := mgr.Status("k")
	assert.Equal(t, Exclusive, mode)
	assert.Equal(t, []string{"W"}, owners)
}

func TestSharedWriterIsBlockedByReaders(t *testing.T) {
	mgr := NewShared[string](&readyQueue{})

	mgr.ReadLock("R1", "k")
	assert.False(t, mgr.WriteLock("W", "k"))

	mode, owners := mgr.Status("k")
	assert.Equal(t, Shared, mode)
	assert.Equal(t, []string{"R1"}, owners)
}

func TestSharedReaderQueuesBehindAWaitingWriter(t *testing.T) {
	ready := &readyQueue{}
	mgr := NewShared[string](ready)

	mgr.ReadLock("R1", "k")
	mgr.ReadLock("R2", "k")
	mgr.WriteLock("W", "k")

	// every owner is shared, but a writer is already queued
	assert.False(t, mgr.ReadLock("R3", "k"))

	mode, owners := mgr.Status("k")
	assert.Equal(t, Shared, mode)
	assert.Equal(t, []string{"R1", "R2"}, owners)
}

func TestSharedWriterReleasePromotesTheWholeRunOfReaders(t *testing.T) {
	ready := &readyQueue{}
	mgr := NewShared[string](ready)

	mgr.WriteLock("W", "k")
	mgr.ReadLock("R1", "k")
	mgr.ReadLock("R2", "k")
	mgr.WriteLock("W2", "k")
	mgr.ReadLock("R3", "k")

	mgr.Release("W", "k")

	mode, owners := mgr.Status("k")
	assert.Equal(t, Shared, mode)
	assert.Equal(t, []string{"R1", "R2"}, owners)
	assert.Equal(t, []string{"R1", "R2"}, ready.txns)
	assert.Equal(t, 1, mgr.Waiting("W2"))
	assert.Equal(t, 1, mgr.Waiting("R3"))
}

func TestSharedAbortedWaitingWriterLetsLaterReadersIn(t *testing.T) {
	ready := &readyQueue{}
	mgr := NewShared[string](ready)

	mgr.ReadLock("A", "k")
	mgr.WriteLock("W", "k")
	mgr.ReadLock("T", "k")

	mgr.Release("W", "k")

	_, owners := mgr.Status("k")
	assert.Equal(t, []string{"A", "T"}, owners)
	assert.Equal(t, []string{"T"}, ready.txns)
	assert.Equal(t, 1, mgr.Waiting("W"))
}

func TestSharedDroppingAWaitingReaderKeepsItsCount(t *testing.T) {
	ready := &readyQueue{}
	mgr := NewShared[string](ready)

	mgr.WriteLock("W", "k")
	assert.False(t, mgr.ReadLock("R", "k"))

	mgr.Release("R", "k")
	assert.Equal(t, 1, mgr.Waiting("R"))
	assert.Equal(t, 1, mgr.WaitingTxns())
	assert.Empty(t, ready.txns)

	mgr.Release("W", "k")
	assert.Empty(t, ready.txns)
	assert.Equal(t, Unlocked, first(mgr.Status("k")))
}

func TestSharedPromotedOwnerIsNotCountedTwice(t *testing.T) {
	ready := &readyQueue{}
	mgr := NewShared[string](ready)

	mgr.WriteLock("W", "k1")
	mgr.WriteLock("Y", "k2")
	assert.False(t, mgr.ReadLock("T", "k1"))
	assert.False(t, mgr.ReadLock("T", "k2"))
	assert.Equal(t, 2, mgr.Waiting("T"))

	mgr.Release("W", "k1")
	assert.Equal(t, 1, mgr.Waiting("T"))

	// T already owns k1; a reader coming and going must not grant it again.
	assert.True(t, mgr.ReadLock("U", "k1"))
	mgr.Release("U", "k1")
	assert.Equal(t, 1, mgr.Waiting("T"))
	assert.Empty(t, ready.txns)

	mgr.Release("Y", "k2")
	assert.Equal(t, []string{"T"}, ready.txns)
}

func TestSharedReleaseOfAnUnknownPairChangesNothing(t *testing.T) {
	ready := &readyQueue{}
	mgr := NewShared[string](ready)

	mgr.ReadLock("R", "k")
	mgr.WriteLock("W", "k")
	before := mgr.Queue("k")

	mgr.Release("nobody", "k")
	mgr.Release("R", "other")

	assert.Equal(t, before, mgr.Queue("k"))
	assert.Empty(t, ready.txns)
	assert.Equal(t, 1, mgr.Waiting("W"))
}
