package txn

import (
	"log/slog"
	"sync"

	"det_txn/pkg/lockmgr"
	"det_txn/pkg/logging"
)

type SchedulerOptions struct {
	Policy     lockmgr.Policy
	Workers    int
	QueueSize  int
	Prune      bool
	Serialized bool
}

type requestType int

const (
	submitRequest requestType = iota
	statusRequest
)

type request struct {
	typ        requestType
	txn        *Txn
	key        lockmgr.Key
	responseCh chan *response
}

type response struct {
	mode   lockmgr.LockMode
	owners []*Txn
}

// readyQueue is the sink of the lock manager. Txns land here once every
// lock they asked for is granted, in grant order.
type readyQueue struct {
	txns []*Txn
}

func (q *readyQueue) Push(txn *Txn) {
	q.txns = append(q.txns, txn)
}

func (q *readyQueue) front() *Txn {
	return q.txns[0]
}

func (q *readyQueue) pop() {
	q.txns[0] = nil
	q.txns = q.txns[1:]
}

func (q *readyQueue) len() int {
	return len(q.txns)
}

// Scheduler is the single goroutine that owns the lock manager. Txns get
// their seq in submit order and request their locks in that same order,
// which makes the lock grant order deterministic.
type Scheduler struct {
	submitMu sync.Mutex
	nextSeq  uint64
	stopped  bool

	lockMgr   lockmgr.Manager[*Txn]
	ready     *readyQueue
	executor  *Executor
	mvStore   *MvStore
	waterMark *WaterMark
	active    map[*Txn]struct{}

	reqCh       chan *request
	completedCh chan *Txn
	stopCh      chan struct{}
	stoppedCh   chan struct{}
	logger      *slog.Logger
}

func NewScheduler(mvStore *MvStore, opts SchedulerOptions) (*Scheduler, error) {
	logger := logging.WithComponent("scheduler")
	ready := &readyQueue{}

	lockMgr, err := lockmgr.New[*Txn](
		opts.Policy,
		ready,
		lockmgr.WithPruning(opts.Prune),
		lockmgr.WithLogger(logging.WithComponent("lockmgr")),
	)
	if err != nil {
		return nil, err
	}
	if opts.Serialized {
		lockMgr = lockmgr.NewSerialized(lockMgr)
	}

	completedCh := make(chan *Txn, opts.QueueSize)
	scheduler := &Scheduler{
		nextSeq:     1,
		lockMgr:     lockMgr,
		ready:       ready,
		executor:    NewExecutor(mvStore, opts.Workers, opts.QueueSize, completedCh),
		mvStore:     mvStore,
		waterMark:   NewWaterMark(),
		active:      make(map[*Txn]struct{}),
		reqCh:       make(chan *request, opts.QueueSize),
		completedCh: completedCh,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
		logger:      logger,
	}
	go scheduler.run()
	return scheduler, nil
}

// Submit assigns the next seq to txn and queues it for lock requests.
func (s *Scheduler) Submit(txn *Txn) (uint64, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if s.stopped {
		return 0, SchedulerStoppedErr
	}
	if txn.seq != 0 {
		return 0, TxnAlreadySubmittedErr
	}

	seq := s.nextSeq
	txn.seq = seq
	s.waterMark.Begin(seq)

	select {
	case s.reqCh <- &request{typ: submitRequest, txn: txn}:
		s.nextSeq++
		return seq, nil
	case <-s.stopCh:
		txn.seq = 0
		return 0, SchedulerStoppedErr
	}
}

// LockStatus reports the current mode and owners of key.
func (s *Scheduler) LockStatus(key lockmgr.Key) (lockmgr.LockMode, []*Txn, error) {
	responseCh := make(chan *response, 1)
	select {
	case s.reqCh <- &request{typ: statusRequest, key: key, responseCh: responseCh}:
	case <-s.stopCh:
		return lockmgr.Unlocked, nil, SchedulerStoppedErr
	}

	select {
	case resp := <-responseCh:
		if resp == nil {
			return lockmgr.Unlocked, nil, SchedulerStoppedErr
		}
		return resp.mode, resp.owners, nil
	case <-s.stoppedCh:
		return lockmgr.Unlocked, nil, SchedulerStoppedErr
	}
}

func (s *Scheduler) WaterMark() *WaterMark {
	return s.waterMark
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.stoppedCh
}

func (s *Scheduler) run() {
	defer close(s.stoppedCh)
	for {
		select {
		case req := <-s.reqCh:
			s.process(req)
		case txn := <-s.completedCh:
			s.finish(txn)
		case <-s.stopCh:
			s.shutdown()
			return
		}
		s.dispatch()
	}
}

func (s *Scheduler) process(req *request) {
	switch req.typ {
	case submitRequest:
		s.requestLocks(req.txn)
	case statusRequest:
		mode, owners := s.lockMgr.Status(req.key)
		req.responseCh <- &response{mode: mode, owners: owners}
	}
}

func (s *Scheduler) requestLocks(txn *Txn) {
	s.active[txn] = struct{}{}

	granted := true
	for _, key := range txn.readSet {
		if !s.lockMgr.ReadLock(txn, key) {
			granted = false
		}
	}
	for _, key := range txn.writeSet {
		if !s.lockMgr.WriteLock(txn, key) {
			granted = false
		}
	}
	if granted {
		s.ready.Push(txn)
	}
}

// finish applies the writes of a committed txn before releasing its locks,
// so that the next owner of any of its keys reads them.
func (s *Scheduler) finish(txn *Txn) {
	status := Committed
	if txn.err != nil {
		status = Aborted
		s.logger.Debug("txn aborted", "txn", txn.ID, "seq", txn.seq, "error", txn.err)
	} else if !txn.writes.IsEmpty() {
		s.mvStore.Apply(txn.seq, txn.writes)
	}

	for _, key := range txn.Keys() {
		s.lockMgr.Release(txn, key)
	}
	delete(s.active, txn)
	s.waterMark.Done(txn.seq)
	txn.finish(status, nil)
}

func (s *Scheduler) dispatch() {
	for s.ready.len() > 0 {
		if !s.executor.TrySubmit(s.ready.front()) {
			return
		}
		s.ready.pop()
	}
}

// shutdown finishes what the workers already executed and aborts the rest.
func (s *Scheduler) shutdown() {
	executorErrCh := make(chan error, 1)
	go func() {
		executorErrCh <- s.executor.Stop()
	}()
	for running := true; running; {
		select {
		case txn := <-s.completedCh:
			s.finish(txn)
		case err := <-executorErrCh:
			if err != nil {
				logging.WithError(err).Warn("executor stopped with error")
			}
			running = false
		}
	}

	s.submitMu.Lock()
	s.stopped = true
	s.submitMu.Unlock()

	for drained := false; !drained; {
		select {
		case txn := <-s.completedCh:
			s.finish(txn)
		case req := <-s.reqCh:
			if req.typ == statusRequest {
				req.responseCh <- nil
				continue
			}
			s.active[req.txn] = struct{}{}
		default:
			drained = true
		}
	}

	for txn := range s.active {
		txn.finish(Aborted, SchedulerStoppedErr)
	}
	if len(s.active) > 0 {
		s.logger.Info("aborted pending txns on stop", "count", len(s.active))
	}
	clear(s.active)
	s.waterMark.Stop()
}
