package txn

import (
	"context"
)

// Event represents either a begin, a done or a wait event.
type Event struct {
	seq    uint64
	done   bool
	waitCh chan struct{}
}

// WaterMark tracks the highest seq below which every begun txn is done.
type WaterMark struct {
	eventCh   chan Event
	stopCh    chan struct{}
	stoppedCh chan struct{}
	seqs      *seqTracker
}

func NewWaterMark() *WaterMark {
	waterMark := &WaterMark{
		eventCh:   make(chan Event),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		seqs:      newSeqTracker(),
	}
	go waterMark.run()
	return waterMark
}

func (w *WaterMark) Begin(seq uint64) {
	w.send(Event{seq: seq})
}

func (w *WaterMark) Done(seq uint64) {
	w.send(Event{seq: seq, done: true})
}

func (w *WaterMark) send(event Event) bool {
	select {
	case w.eventCh <- event:
		return true
	case <-w.stoppedCh:
		return false
	}
}

// WaitFor blocks until every txn up to seq is done.
func (w *WaterMark) WaitFor(ctx context.Context, seq uint64) error {
	if w.DoneTill() >= seq {
		return nil
	}
	waitCh := make(chan struct{})
	if !w.send(Event{seq: seq, waitCh: waitCh}) {
		return WaterMarkStoppedErr
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-waitCh:
		if w.DoneTill() < seq {
			return WaterMarkStoppedErr
		}
		return nil
	}
}

func (w *WaterMark) DoneTill() uint64 {
	return w.seqs.doneTill.Load()
}

func (w *WaterMark) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	<-w.stoppedCh
}

func (w *WaterMark) run() {
	defer close(w.stoppedCh)
	for {
		select {
		case event := <-w.eventCh:
			switch {
			case event.waitCh != nil:
				w.processWaitEvent(event)
			case event.done:
				w.seqs.track(event.seq, -1)
				w.seqs.advance()
			default:
				w.seqs.track(event.seq, 1)
				w.seqs.advance()
			}
		case <-w.stopCh:
			w.seqs.wakeAll()
			return
		}
	}
}

func (w *WaterMark) processWaitEvent(event Event) {
	if w.DoneTill() >= event.seq {
		close(event.waitCh)
		return
	}
	w.seqs.park(event.seq, event.waitCh)
}
