package local

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ValentinKolb/tatp/lib/skv"
)

// pendingWrite is a buffered write, applied to the store on commit.
type pendingWrite struct {
	rec   *skv.Record
	erase bool
}

// txn implements skv.Txn.
//
// Every record access first locks the partition of the record (no-wait: a
// lock held by another transaction fails the operation with a conflict
// status). Writes are buffered and only applied to the store when the
// transaction commits, reads see the buffered writes of their own
// transaction. All locks are held until End.
//
// Thread-safety: all methods are serialized by mu.
type txn struct {
	id       string
	owner    []byte
	client   *Client
	deadline time.Time

	mu     sync.Mutex
	ended  bool
	locks  map[string]struct{}     // held lock keys
	writes map[string]pendingWrite // storage key -> pending write
}

// --------------------------------------------------------------------------
// Interface Methods (docu see skv.Txn)
// --------------------------------------------------------------------------

func (t *txn) ID() string {
	return t.id
}

func (t *txn) Read(ctx context.Context, key *skv.Record) skv.ReadResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status, ok := t.check(ctx, key.Schema); !ok {
		return skv.ReadResult{Status: status}
	}
	rec, status := t.read(key)
	return skv.ReadResult{Status: status, Record: rec}
}

func (t *txn) Write(ctx context.Context, rec *skv.Record, erase bool) skv.WriteResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status, ok := t.check(ctx, rec.Schema); !ok {
		return skv.WriteResult{Status: status}
	}
	if err := rec.Validate(); err != nil {
		return skv.WriteResult{Status: skv.NewStatus(skv.CodeBadRequest, "%v", err)}
	}
	storageKey, status, ok := t.lockRecord(rec)
	if !ok {
		return skv.WriteResult{Status: status}
	}

	if erase {
		t.writes[storageKey] = pendingWrite{rec: rec.KeyRecord(), erase: true}
		return skv.WriteResult{Status: skv.StatusOK}
	}
	t.writes[storageKey] = pendingWrite{rec: rec.Clone()}
	return skv.WriteResult{Status: skv.StatusCreated}
}

func (t *txn) PartialUpdate(ctx context.Context, rec *skv.Record, fields []int) skv.WriteResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status, ok := t.check(ctx, rec.Schema); !ok {
		return skv.WriteResult{Status: status}
	}
	if err := rec.Validate(); err != nil {
		return skv.WriteResult{Status: skv.NewStatus(skv.CodeBadRequest, "%v", err)}
	}
	for _, f := range fields {
		if f < 0 || f >= len(rec.Schema.Fields) {
			return skv.WriteResult{Status: skv.NewStatus(skv.CodeBadRequest, "field index %d out of range", f)}
		}
	}

	current, status := t.read(rec)
	if !status.Is2xxOK() {
		return skv.WriteResult{Status: status}
	}
	// the read succeeded, so the key of rec is valid
	storageKey, _ := t.storageKey(rec)
	for _, f := range fields {
		current.Values[f] = rec.Values[f]
	}
	if newKey, err := t.storageKey(current); err != nil || newKey != storageKey {
		return skv.WriteResult{Status: skv.NewStatus(skv.CodeBadRequest, "partial update must not change the key")}
	}
	t.writes[storageKey] = pendingWrite{rec: current}
	return skv.WriteResult{Status: skv.StatusOK}
}

func (t *txn) Query(ctx context.Context, q *skv.Query) skv.QueryResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status, ok := t.check(ctx, q.Schema); !ok {
		return skv.QueryResult{Status: status}
	}
	records, status := t.query(q)
	return skv.QueryResult{Status: status, Records: records}
}

func (t *txn) End(ctx context.Context, commit bool) skv.EndResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ended {
		return skv.EndResult{Status: skv.NewStatus(skv.CodeGone, "txn %s already ended", t.id)}
	}
	defer t.finish()

	if !commit {
		abortCounter.Inc()
		log.Debugf("txn %s aborted", t.id)
		return skv.EndResult{Status: skv.StatusOK}
	}

	if status, ok := t.checkDeadline(ctx); !ok {
		abortCounter.Inc()
		log.Debugf("txn %s can not commit: %s", t.id, status)
		return skv.EndResult{Status: status}
	}

	if status := t.apply(); !status.Is2xxOK() {
		abortCounter.Inc()
		return skv.EndResult{Status: status}
	}
	commitCounter.Inc()
	log.Debugf("txn %s committed %d writes", t.id, len(t.writes))
	return skv.EndResult{Status: skv.StatusOK}
}

// --------------------------------------------------------------------------
// Helper Methods (callers hold mu)
// --------------------------------------------------------------------------

// check validates the state of the transaction and the schema of an operation.
func (t *txn) check(ctx context.Context, schema *skv.Schema) (skv.Status, bool) {
	if t.ended {
		return skv.NewStatus(skv.CodeGone, "txn %s already ended", t.id), false
	}
	if status, ok := t.checkDeadline(ctx); !ok {
		return status, false
	}
	if !t.client.catalog.Contains(schema) {
		return skv.NewStatus(skv.CodeBadRequest, "unknown schema"), false
	}
	return skv.StatusOK, true
}

func (t *txn) checkDeadline(ctx context.Context) (skv.Status, bool) {
	if err := ctx.Err(); err != nil {
		deadlineCounter.Inc()
		return skv.NewStatus(skv.CodeTimeout, "%v", err), false
	}
	if time.Now().After(t.deadline) {
		deadlineCounter.Inc()
		return skv.NewStatus(skv.CodeTimeout, "txn %s exceeded its deadline", t.id), false
	}
	return skv.StatusOK, true
}

// finish releases all locks and marks the transaction as ended.
func (t *txn) finish() {
	for key := range t.locks {
		if _, err := t.client.locks.ReleaseLock(key, t.owner); err != nil {
			log.Errorf("txn %s failed to release lock %q: %v", t.id, key, err)
		}
	}
	t.locks = nil
	t.writes = nil
	t.ended = true
	activeTxns.Add(-1)
}

// lock acquires the lock of one partition of a schema.
func (t *txn) lock(schema *skv.Schema, partitionKey string) (skv.Status, bool) {
	key := t.client.lockKey(schema, partitionKey)
	if _, held := t.locks[key]; held {
		return skv.StatusOK, true
	}
	ok, err := t.client.locks.AcquireLock(key, t.owner)
	if err != nil {
		return skv.NewStatus(skv.CodeInternalError, "acquire lock: %v", err), false
	}
	if !ok {
		conflictCounter.Inc()
		return skv.NewStatus(skv.CodeConflict, "partition of %s locked by another txn", schema.Name), false
	}
	t.locks[key] = struct{}{}
	return skv.StatusOK, true
}

// storageKey encodes the full key of rec into its storage key.
func (t *txn) storageKey(rec *skv.Record) (string, error) {
	key, err := rec.EncodeKey()
	if err != nil {
		return "", err
	}
	return t.client.storageKey(rec.Schema, key), nil
}

// lockRecord locks the partition of rec and returns its storage key.
func (t *txn) lockRecord(rec *skv.Record) (string, skv.Status, bool) {
	storageKey, err := t.storageKey(rec)
	if err != nil {
		return "", skv.NewStatus(skv.CodeBadRequest, "%v", err), false
	}
	partition, err := rec.EncodePartitionKey()
	if err != nil {
		return "", skv.NewStatus(skv.CodeBadRequest, "%v", err), false
	}
	if status, ok := t.lock(rec.Schema, partition); !ok {
		return "", status, false
	}
	return storageKey, skv.StatusOK, true
}

// read returns a copy of the record with the key of rec as seen by this
// transaction.
func (t *txn) read(key *skv.Record) (*skv.Record, skv.Status) {
	storageKey, status, ok := t.lockRecord(key)
	if !ok {
		return nil, status
	}

	if w, ok := t.writes[storageKey]; ok {
		if w.erase {
			return nil, skv.StatusNotFound
		}
		return w.rec.Clone(), skv.StatusOK
	}

	data, found, err := t.client.store.Get(storageKey)
	if err != nil {
		return nil, skv.NewStatus(skv.CodeInternalError, "%v", err)
	}
	if !found {
		return nil, skv.StatusNotFound
	}
	rec, err := t.client.codec.Decode(key.Schema, data)
	if err != nil {
		return nil, skv.NewStatus(skv.CodeInternalError, "decode %s: %v", key.Schema.Name, err)
	}
	return rec, skv.StatusOK
}

// apply writes all buffered writes to the store. Records are encoded before
// the first write, so an encoding failure leaves the store untouched.
func (t *txn) apply() skv.Status {
	keys := make([]string, 0, len(t.writes))
	for k := range t.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	encoded := make(map[string][]byte, len(keys))
	for _, k := range keys {
		w := t.writes[k]
		if w.erase {
			continue
		}
		data, err := t.client.codec.Encode(w.rec)
		if err != nil {
			return skv.NewStatus(skv.CodeInternalError, "encode %s: %v", w.rec.Schema.Name, err)
		}
		encoded[k] = data
	}

	for _, k := range keys {
		var err error
		if t.writes[k].erase {
			err = t.client.store.Delete(k)
		} else {
			err = t.client.store.Set(k, encoded[k])
		}
		if err != nil {
			log.Errorf("txn %s failed to apply write %q: %v", t.id, k, err)
			return skv.NewStatus(skv.CodeInternalError, "apply write: %v", err)
		}
	}
	return skv.StatusOK
}
