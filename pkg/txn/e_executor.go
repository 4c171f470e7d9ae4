package txn

import (
	"context"
	"log/slog"

	"det_txn/pkg/logging"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Executor runs the logic of ready txns on a fixed pool of workers and
// hands every executed txn back on completedCh. It never writes to the
// store: commit is applied by the scheduler.
type Executor struct {
	readyCh     chan *Txn
	completedCh chan<- *Txn
	mvStore     *MvStore

	cancel context.CancelFunc
	group  *errgroup.Group
	logger *slog.Logger
}

func NewExecutor(mvStore *MvStore, workers, queueSize int, completedCh chan<- *Txn) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	exec := &Executor{
		readyCh:     make(chan *Txn, queueSize),
		completedCh: completedCh,
		mvStore:     mvStore,
		cancel:      cancel,
		group:       group,
		logger:      logging.WithComponent("executor"),
	}
	for range workers {
		group.Go(func() error {
			return exec.run(ctx)
		})
	}
	return exec
}

// TrySubmit never blocks, so the scheduler loop can always drain completions.
func (e *Executor) TrySubmit(txn *Txn) bool {
	select {
	case e.readyCh <- txn:
		return true
	default:
		return false
	}
}

func (e *Executor) Stop() error {
	e.cancel()
	return e.group.Wait()
}

func (e *Executor) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case txn := <-e.readyCh:
			if ctx.Err() != nil {
				return nil
			}
			e.execute(txn)
			// an executed txn is always handed back, the scheduler keeps
			// draining completedCh until every worker returned
			e.completedCh <- txn
		}
	}
}

func (e *Executor) execute(txn *Txn) {
	txn.snapshot = e.mvStore.Snapshot(txn.seq)
	defer func() {
		if r := recover(); r != nil {
			txn.err = errors.Wrapf(TxnPanickedErr, "%v", r)
			e.logger.Warn("txn logic panicked", "txn", txn.ID, "panic", r)
		}
	}()

	if txn.logic == nil {
		return
	}
	if err := txn.logic(txn); err != nil {
		txn.err = err
	}
}
