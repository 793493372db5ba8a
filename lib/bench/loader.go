package bench

import (
	"context"
	"time"

	"github.com/ValentinKolb/tatp/lib/common"
	ledgergen "github.com/ValentinKolb/tatp/lib/ledger/datagen"
	"github.com/ValentinKolb/tatp/lib/retry"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/tatp/datagen"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/errgroup"
)

var log = logger.GetLogger("bench")

// loadDeadline bounds a single load transaction, batches write many rows.
const loadDeadline = 10 * skv.DefaultDeadline

// LoadSubscribers writes the subscribers 1..cfg.Subscribers and their
// dependent rows. The id range is split into batches of cfg.LoadBatchSize,
// every batch is written in one transaction and retried up to cfg.Retries
// times. At most cfg.LoadConcurrency batches are loaded at the same time.
// The loaded rows are counted in m (which may be nil).
func LoadSubscribers(ctx context.Context, client skv.Client, cfg *common.RunConfig, m *Metrics) error {
	if cfg.Subscribers < 1 {
		return errors.Newf("at least one subscriber required, got %d", cfg.Subscribers)
	}
	batch := max(cfg.LoadBatchSize, 1)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.LoadConcurrency, 1))

	for lo := 1; lo <= cfg.Subscribers; lo += batch {
		idStart := int32(lo)
		idEnd := int32(min(lo+batch, cfg.Subscribers+1))

		g.Go(func() error {
			return loadBatch(ctx, client, cfg.Retries, idStart, idEnd, m)
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "load subscribers")
	}
	log.Infof("Loaded %d subscribers in %s", cfg.Subscribers, time.Since(start).Round(time.Millisecond))
	return nil
}

// loadBatch generates and writes the subscribers in [idStart, idEnd).
func loadBatch(ctx context.Context, client skv.Client, retries int, idStart, idEnd int32, m *Metrics) error {
	ops := datagen.GenerateSubscriberData(idStart, idEnd)

	err := retry.NewFixed(retries).Run(ctx, func(ctx context.Context) (bool, error) {
		txn, err := client.BeginTxn(ctx, skv.TxnOptions{Deadline: loadDeadline})
		if err != nil {
			return false, err
		}
		if err := datagen.Apply(ctx, txn, ops); err != nil {
			txn.End(ctx, false)
			return false, err
		}
		if res := txn.End(ctx, true); !res.Status.Is2xxOK() {
			return false, errors.Newf("commit: %s", res.Status)
		}
		return true, nil
	})
	if err != nil {
		return errors.Wrapf(err, "batch [%d, %d)", idStart, idEnd)
	}

	if m != nil {
		for kind, n := range datagen.Count(ops) {
			m.RecordLoad(kind.String(), n)
		}
	}
	return nil
}

// LoadLedger writes a generated ledger, one transaction per warehouse.
// Warehouses are loaded concurrently like the subscriber batches.
func LoadLedger(ctx context.Context, client skv.Client, lcfg ledgergen.Config, cfg *common.RunConfig) error {
	if err := lcfg.Validate(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.LoadConcurrency, 1))

	for w := 1; w <= lcfg.Warehouses; w++ {
		wID := int32(w)
		g.Go(func() error {
			return retry.NewFixed(cfg.Retries).Run(ctx, func(ctx context.Context) (bool, error) {
				err := ledgergen.LoadWarehouse(ctx, client, lcfg, wID)
				return err == nil, err
			})
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "load ledger")
	}
	return nil
}

// LedgerConfig derives the ledger size from the run configuration.
func LedgerConfig(cfg *common.RunConfig) ledgergen.Config {
	lcfg := ledgergen.DefaultConfig()
	if cfg.Warehouses > 0 {
		lcfg.Warehouses = cfg.Warehouses
	}
	if cfg.CustomersPerDistrict > 0 {
		lcfg.CustomersPerDistrict = cfg.CustomersPerDistrict
	}
	if cfg.OrdersPerDistrict > 0 {
		lcfg.OrdersPerDistrict = cfg.OrdersPerDistrict
	}
	return lcfg
}
