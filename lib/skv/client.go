package skv

import (
	"context"
	"time"
)

// DefaultDeadline is the deadline used by the benchmark transactions.
const DefaultDeadline = 5 * time.Second

// TxnOptions configures a transaction.
type TxnOptions struct {
	// Deadline bounds the lifetime of the transaction. Operations issued after
	// the deadline fail with CodeTimeout. Zero means DefaultDeadline.
	Deadline time.Duration
}

// ReadResult is the result of Txn.Read. Record is nil unless the status is 2xx.
type ReadResult struct {
	Status Status
	Record *Record
}

// WriteResult is the result of Txn.Write and Txn.PartialUpdate.
type WriteResult struct {
	Status Status
}

// QueryResult is the result of Txn.Query.
type QueryResult struct {
	Status  Status
	Records []*Record
}

// EndResult is the result of Txn.End.
type EndResult struct {
	Status Status
}

// Client creates transactions against a store.
//
// Thread-safety: implementations must be safe for concurrent use.
type Client interface {
	// BeginTxn starts a new transaction. An error is returned only if the
	// transaction could not be started at all.
	BeginTxn(ctx context.Context, opts TxnOptions) (Txn, error)
	// Catalog returns the schemas known to the client.
	Catalog() *Catalog
}

// Txn is a serializable transaction. All failures of individual operations
// are reported through the returned status, never as panics or errors.
//
// Thread-safety: a Txn may be used by concurrent goroutines (for example the
// two branches of one benchmark transaction).
type Txn interface {
	// ID returns the unique id of the transaction.
	ID() string
	// Read reads the record with the key of the given record (only the key
	// fields need to be set). Returns CodeNotFound if there is no such record.
	Read(ctx context.Context, key *Record) ReadResult
	// Write inserts or replaces a record. If erase is set the record with the
	// key of rec is deleted instead.
	Write(ctx context.Context, rec *Record, erase bool) WriteResult
	// PartialUpdate overwrites the given fields of an existing record with the
	// values from rec. Returns CodeNotFound if there is no such record.
	PartialUpdate(ctx context.Context, rec *Record, fields []int) WriteResult
	// Query runs a range scan.
	Query(ctx context.Context, q *Query) QueryResult
	// End commits (commit = true) or aborts the transaction.
	End(ctx context.Context, commit bool) EndResult
}
