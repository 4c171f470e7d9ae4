// Package config holds the settings of a Db.
package config

import (
	"det_txn/pkg/lockmgr"
	"det_txn/pkg/logging"

	"github.com/cockroachdb/errors"
)

type Config struct {
	Policy lockmgr.Policy
	// Workers is the number of executor goroutines running txn logic.
	Workers int
	// QueueSize bounds the submit and ready channels. It must be positive.
	QueueSize        int
	PruneEmptyQueues bool
	// Serialized wraps the lock manager in the exclusive-access assertion.
	Serialized bool
	Log        logging.Config
}

type Option func(*Config)

func Default() Config {
	return Config{
		Policy:     lockmgr.PolicyShared,
		Workers:    4,
		QueueSize:  128,
		Serialized: true,
		Log: logging.Config{
			Level:  logging.LevelInfo,
			Format: "text",
		},
	}
}

func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithPolicy(policy lockmgr.Policy) Option {
	return func(cfg *Config) {
		cfg.Policy = policy
	}
}

func WithWorkers(workers int) Option {
	return func(cfg *Config) {
		cfg.Workers = workers
	}
}

func WithQueueSize(size int) Option {
	return func(cfg *Config) {
		cfg.QueueSize = size
	}
}

func WithPruning(prune bool) Option {
	return func(cfg *Config) {
		cfg.PruneEmptyQueues = prune
	}
}

func WithSerialized(serialized bool) Option {
	return func(cfg *Config) {
		cfg.Serialized = serialized
	}
}

func WithLog(log logging.Config) Option {
	return func(cfg *Config) {
		cfg.Log = log
	}
}

func (cfg Config) Validate() error {
	switch cfg.Policy {
	case lockmgr.PolicyExclusive, lockmgr.PolicyShared:
	default:
		return errors.Wrapf(lockmgr.UnknownPolicyErr, "policy %d", cfg.Policy)
	}
	if cfg.Workers < 1 {
		return errors.Newf("workers must be at least 1, got %d", cfg.Workers)
	}
	// the scheduler hands ready txns over without blocking, which needs a
	// buffered ready channel
	if cfg.QueueSize < 1 {
		return errors.Newf("queue size must be at least 1, got %d", cfg.QueueSize)
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return errors.Newf("unknown log format %q", cfg.Log.Format)
	}
	return nil
}
