package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"

	"det_txn/pkg/config"
	"det_txn/pkg/db"
	"det_txn/pkg/lockmgr"
	"det_txn/pkg/logging"
	"det_txn/pkg/txn"

	"github.com/cockroachdb/errors"
)

func main() {
	cfg := config.Default()
	policy := flag.String("policy", cfg.Policy.String(), "lock policy: exclusive or shared")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "executor workers")
	flag.IntVar(&cfg.QueueSize, "queue", cfg.QueueSize, "submit and ready queue size")
	flag.BoolVar(&cfg.PruneEmptyQueues, "prune", cfg.PruneEmptyQueues, "drop empty lock queues")
	logLevel := flag.String("log-level", string(cfg.Log.Level), "DEBUG, INFO, WARN or ERROR")
	flag.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "text or json")
	accounts := flag.Int("accounts", 8, "number of accounts")
	transfers := flag.Int("transfers", 200, "number of transfer txns")
	seed := flag.Int64("seed", 1, "workload seed")
	flag.Parse()

	var err error
	if cfg.Policy, err = lockmgr.ParsePolicy(*policy); err != nil {
		fail(err)
	}
	cfg.Log.Level = logging.LogLevel(*logLevel)
	if *accounts < 2 {
		fail(errors.Newf("need at least 2 accounts, got %d", *accounts))
	}

	scenarios()
	if err := run(cfg, *accounts, *transfers, *seed); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "driver: %+v\n", err)
	os.Exit(1)
}

// scenarios replays the canonical single key schedules of both policies.
func scenarios() {
	for _, policy := range []lockmgr.Policy{lockmgr.PolicyExclusive, lockmgr.PolicyShared} {
		var ready []string
		mgr, _ := lockmgr.New[string](policy, lockmgr.SinkFunc[string](func(txn string) {
			ready = append(ready, txn)
		}))

		mgr.ReadLock("T1", "y")
		mgr.ReadLock("T2", "y")
		mgr.WriteLock("T3", "y")
		mgr.ReadLock("T4", "y")
		for _, owner := range []string{"T1", "T2", "T3"} {
			mode, owners := mgr.Status("y")
			fmt.Printf("%-9s status=%-9s owners=%v\n", policy, mode, owners)
			mgr.Release(owner, "y")
		}
		fmt.Printf("%-9s promoted=%v\n", policy, ready)
	}
}

func run(cfg config.Config, accounts, transfers int, seed int64) error {
	database, err := db.New(cfg)
	if err != nil {
		return err
	}
	defer database.Stop()

	keys := make([]lockmgr.Key, accounts)
	for i := range keys {
		keys[i] = lockmgr.Key("account:" + strconv.Itoa(i))
	}
	ctx := context.Background()
	err = database.Execute(ctx, nil, keys, func(txn *txn.Txn) error {
		for _, key := range keys {
			if err := txn.Set(key, []byte("100")); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "seeding accounts")
	}

	rng := rand.New(rand.NewSource(seed))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		aborted int
	)
	for range transfers {
		perm := rng.Perm(accounts)
		from, to, audit := keys[perm[0]], keys[perm[1]], keys[perm[2%accounts]]
		amount := 1 + rng.Intn(50)

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := database.Execute(ctx, []lockmgr.Key{audit}, []lockmgr.Key{from, to}, transfer(from, to, audit, amount))
			if err != nil {
				mu.Lock()
				aborted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, key := range keys {
		value, _, err := database.Get(key)
		if err != nil {
			return err
		}
		balance, _ := strconv.Atoi(string(value))
		total += balance
	}
	fmt.Printf("policy=%s transfers=%d aborted=%d total=%d\n", cfg.Policy, transfers, aborted, total)
	if total != 100*accounts {
		return errors.AssertionFailedf("total %d, expected %d", total, 100*accounts)
	}
	return nil
}

func transfer(from, to, audit lockmgr.Key, amount int) txn.Logic {
	return func(txn *txn.Txn) error {
		if _, _, err := txn.Get(audit); err != nil {
			return err
		}
		fromValue, _, err := txn.Get(from)
		if err != nil {
			return err
		}
		toValue, _, err := txn.Get(to)
		if err != nil {
			return err
		}
		fromBalance, _ := strconv.Atoi(string(fromValue))
		toBalance, _ := strconv.Atoi(string(toValue))
		if fromBalance < amount {
			return errors.Newf("%s has %d, can not move %d", from, fromBalance, amount)
		}
		if err := txn.Set(from, []byte(strconv.Itoa(fromBalance-amount))); err != nil {
			return err
		}
		return txn.Set(to, []byte(strconv.Itoa(toBalance+amount)))
	}
}
