package db

import (
	"context"
	"log/slog"
	"sync/atomic"

	"det_txn/pkg/config"
	"det_txn/pkg/lockmgr"
	"det_txn/pkg/logging"
	"det_txn/pkg/txn"

	"github.com/cockroachdb/errors"
)

type Db struct {
	stopped   atomic.Bool
	scheduler *txn.Scheduler
	mvStore   *txn.MvStore
	logger    *slog.Logger
	// set when this Db installed the global logger, which Stop then closes
	ownsLogger bool
}

// New validates cfg and starts the scheduler. The global logger is only
// installed when none was installed before.
func New(cfg config.Config) (*Db, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	ownsLogger := true
	if err := logging.Init(cfg.Log); err != nil {
		if !errors.Is(err, logging.AlreadyInitializedErr) {
			return nil, err
		}
		ownsLogger = false
	}

	mvStore := txn.NewMVStore()
	scheduler, err := txn.NewScheduler(mvStore, txn.SchedulerOptions{
		Policy:     cfg.Policy,
		Workers:    cfg.Workers,
		QueueSize:  cfg.QueueSize,
		Prune:      cfg.PruneEmptyQueues,
		Serialized: cfg.Serialized,
	})
	if err != nil {
		if ownsLogger {
			_ = logging.Close()
		}
		return nil, errors.Wrap(err, "creating scheduler")
	}

	logger := logging.WithComponent("db")
	logger.Info("db started", "policy", cfg.Policy, "workers", cfg.Workers)
	return &Db{
		scheduler:  scheduler,
		mvStore:    mvStore,
		logger:     logger,
		ownsLogger: ownsLogger,
	}, nil
}

// Submit queues a txn and returns without waiting for it.
func (db *Db) Submit(readSet, writeSet []lockmgr.Key, logic txn.Logic) (*txn.Txn, error) {
	if db.stopped.Load() {
		return nil, DbAlreadyStoppedErr
	}

	newTxn := txn.NewTxn(readSet, writeSet, logic)
	if _, err := db.scheduler.Submit(newTxn); err != nil {
		return nil, errors.Wrapf(err, "submitting txn %s", newTxn.ID)
	}
	return newTxn, nil
}

// Execute submits a txn and waits for it. The error is the abort reason.
func (db *Db) Execute(ctx context.Context, readSet, writeSet []lockmgr.Key, logic txn.Logic) error {
	newTxn, err := db.Submit(readSet, writeSet, logic)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-newTxn.Done():
	}
	if newTxn.Status() == txn.Aborted {
		return errors.Wrapf(newTxn.Err(), "txn %d aborted", newTxn.Seq())
	}
	return nil
}

// Get reads the latest committed value of key.
func (db *Db) Get(key lockmgr.Key) ([]byte, bool, error) {
	if db.stopped.Load() {
		return nil, false, DbAlreadyStoppedErr
	}
	value, ok := db.mvStore.Latest([]byte(key))
	return value.Slice(), ok, nil
}

func (db *Db) LockStatus(key lockmgr.Key) (lockmgr.LockMode, []*txn.Txn, error) {
	if db.stopped.Load() {
		return lockmgr.Unlocked, nil, DbAlreadyStoppedErr
	}
	return db.scheduler.LockStatus(key)
}

// WaitFor blocks until every txn with a seq up to seq is committed or aborted.
func (db *Db) WaitFor(ctx context.Context, seq uint64) error {
	if db.stopped.Load() {
		return DbAlreadyStoppedErr
	}
	return db.scheduler.WaterMark().WaitFor(ctx, seq)
}

func (db *Db) Stop() {
	if db.stopped.CompareAndSwap(false, true) {
		db.scheduler.Stop()
		db.logger.Info("db stopped")
		if db.ownsLogger {
			if err := logging.Close(); err != nil {
				db.logger.Warn("closing log output", "error", err)
			}
		}
	}
}
