package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqTrackerAdvancesOverFinishedSeqsOnly(t *testing.T) {
	seqs := newSeqTracker()
	seqs.track(1, 1)
	seqs.track(2, 1)
	seqs.track(3, 1)

	seqs.track(2, -1)
	assert.Equal(t, uint64(0), seqs.advance())

	seqs.track(1, -1)
	assert.Equal(t, uint64(2), seqs.advance())
	assert.Equal(t, 1, seqs.open.Len())
}

func TestSeqTrackerKeepsAnEarlyDoneOpenUntilItsBegin(t *testing.T) {
	seqs := newSeqTracker()
	seqs.track(1, -1)
	assert.Equal(t, uint64(0), seqs.advance())

	seqs.track(1, 1)
	assert.Equal(t, uint64(1), seqs.advance())
}

func TestSeqTrackerWakesWaitersInSeqOrder(t *testing.T) {
	seqs := newSeqTracker()
	early, late := make(chan struct{}), make(chan struct{})
	seqs.park(5, late)
	seqs.park(1, early)

	seqs.track(1, 1)
	seqs.track(1, -1)
	seqs.advance()

	assert.True(t, isClosed(early))
	assert.False(t, isClosed(late))

	seqs.wakeAll()
	assert.True(t, isClosed(late))
	assert.Zero(t, seqs.waiters.Len())
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
