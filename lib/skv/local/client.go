package local

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/tatp/lib/lockmgr"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/skv/codec"
	"github.com/ValentinKolb/tatp/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("skv")

const (
	dataPrefix = "data/"
	lockPrefix = "lock/"
)

var activeTxns atomic.Int64

var (
	beginCounter    = metrics.NewCounter(`skv_txn_begin_total`)
	commitCounter   = metrics.NewCounter(`skv_txn_end_total{result="commit"}`)
	abortCounter    = metrics.NewCounter(`skv_txn_end_total{result="abort"}`)
	conflictCounter = metrics.NewCounter(`skv_lock_conflicts_total`)
	deadlineCounter = metrics.NewCounter(`skv_deadline_exceeded_total`)
	_               = metrics.NewGauge(`skv_txn_active`, func() float64 {
		return float64(activeTxns.Load())
	})
)

// Client is an in-process skv.Client. It stores the records of all schemas of
// its catalog in a store.IStore and isolates transactions with strict two
// phase locking on partitions.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	catalog *skv.Catalog
	store   store.IStore
	locks   lockmgr.ILockManager
	codec   codec.ICodec
}

// NewClient creates a client that keeps its records (and its locks) in st
// and serializes records with c.
func NewClient(catalog *skv.Catalog, st store.IStore, c codec.ICodec) *Client {
	return &Client{
		catalog: catalog,
		store:   st,
		locks:   lockmgr.NewLockManager(st, lockPrefix),
		codec:   c,
	}
}

// Catalog returns the schemas known to the client.
func (c *Client) Catalog() *skv.Catalog {
	return c.catalog
}

// BeginTxn starts a new transaction. It fails only if the context is already done.
func (c *Client) BeginTxn(ctx context.Context, opts skv.TxnOptions) (skv.Txn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Deadline <= 0 {
		opts.Deadline = skv.DefaultDeadline
	}

	id := uuid.New()
	t := &txn{
		id:       id.String(),
		owner:    id[:],
		client:   c,
		deadline: time.Now().Add(opts.Deadline),
		locks:    make(map[string]struct{}),
		writes:   make(map[string]pendingWrite),
	}
	beginCounter.Inc()
	activeTxns.Add(1)
	log.Debugf("txn %s started (deadline %s)", t.id, opts.Deadline)
	return t, nil
}

// storageKey returns the key under which the record with the encoded key
// is stored.
func (c *Client) storageKey(schema *skv.Schema, encodedKey string) string {
	return c.schemaPrefix(schema) + encodedKey
}

func (c *Client) schemaPrefix(schema *skv.Schema) string {
	return dataPrefix + c.catalog.Collection() + "/" + schema.Name + "/"
}

// lockKey returns the key of the lock that guards one partition of a schema.
func (c *Client) lockKey(schema *skv.Schema, partitionKey string) string {
	return c.catalog.Collection() + "/" + schema.Name + "/" + partitionKey
}
