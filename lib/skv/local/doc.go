// Package local implements skv.Client in process, on top of a store.IStore.
//
// Records are serialized with a codec.ICodec and stored under
// "data/<collection>/<schema>/<encoded key>". Because the key encoding is
// order preserving, range queries are plain range scans of the store.
//
// Isolation:
//
//	Transactions use strict two phase locking with exclusive locks on
//	partitions (schema + partition key), kept in the same store through
//	lockmgr. Locking is no-wait: an operation that hits a lock held by
//	another transaction fails with status 409 and the caller is expected to
//	end (abort) the transaction and retry. Locks are released when the
//	transaction ends.
//
//	Writes are buffered per transaction and applied on commit. Reads and
//	queries see the buffered writes of their own transaction.
//
// Deadlines:
//
//	Every operation checks the transaction deadline and the context.
//	After the deadline all operations, including a commit, fail with
//	status 408. The transaction still has to be ended to release its locks.
//
// Metrics:
//
//	The package exports skv_txn_begin_total, skv_txn_end_total,
//	skv_lock_conflicts_total, skv_deadline_exceeded_total and skv_txn_active
//	through the default VictoriaMetrics set.
package local
