package skvtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ClientFactory creates a new, empty client serving the given catalog.
type ClientFactory func(catalog *skv.Catalog) skv.Client

// --------------------------------------------------------------------------
// Test schemas
// --------------------------------------------------------------------------

// accounts: one record per account
var accountSchema = &skv.Schema{
	Name:    "account",
	Version: 1,
	Fields: []skv.SchemaField{
		{Type: skv.FieldInt32, Name: "id"},
		{Type: skv.FieldString, Name: "owner"},
		{Type: skv.FieldInt64, Name: "balance"},
	},
	PartitionKeyFields: []int{0},
}

// entries: many records per account, ordered by (kind, seq)
var entrySchema = &skv.Schema{
	Name:    "entry",
	Version: 1,
	Fields: []skv.SchemaField{
		{Type: skv.FieldInt32, Name: "account"},
		{Type: skv.FieldInt16, Name: "kind"},
		{Type: skv.FieldInt16, Name: "seq"},
		{Type: skv.FieldInt16, Name: "value"},
	},
	PartitionKeyFields: []int{0},
	RangeKeyFields:     []int{1, 2},
}

func newCatalog(t *testing.T) *skv.Catalog {
	c, err := skv.NewCatalog("SKVTEST", accountSchema, entrySchema)
	require.NoError(t, err)
	return c
}

func account(id int32, owner string, balance int64) *skv.Record {
	return skv.NewRecord(accountSchema).Set(0, id).Set(1, owner).Set(2, balance)
}

func accountKey(id int32) *skv.Record {
	return skv.NewRecord(accountSchema).Set(0, id)
}

func entry(acc int32, kind, seq, value int16) *skv.Record {
	return skv.NewRecord(entrySchema).Set(0, acc).Set(1, kind).Set(2, seq).Set(3, value)
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func begin(t testing.TB, client skv.Client, deadline time.Duration) skv.Txn {
	t.Helper()
	txn, err := client.BeginTxn(context.Background(), skv.TxnOptions{Deadline: deadline})
	require.NoError(t, err)
	return txn
}

func commit(t testing.TB, txn skv.Txn) {
	t.Helper()
	res := txn.End(context.Background(), true)
	require.True(t, res.Status.Is2xxOK(), "commit failed: %s", res.Status)
}

func abort(t testing.TB, txn skv.Txn) {
	t.Helper()
	res := txn.End(context.Background(), false)
	require.True(t, res.Status.Is2xxOK(), "abort failed: %s", res.Status)
}

// load writes the given records in one committed transaction.
func load(t testing.TB, client skv.Client, records ...*skv.Record) {
	t.Helper()
	txn := begin(t, client, time.Minute)
	for _, rec := range records {
		res := txn.Write(context.Background(), rec, false)
		require.True(t, res.Status.Is2xxOK(), "write %s failed: %s", rec, res.Status)
	}
	commit(t, txn)
}

// readCommitted reads a record in its own transaction.
func readCommitted(t testing.TB, client skv.Client, key *skv.Record) skv.ReadResult {
	t.Helper()
	txn := begin(t, client, time.Minute)
	defer abort(t, txn)
	return txn.Read(context.Background(), key)
}

func seqs(records []*skv.Record) []int16 {
	out := make([]int16, 0, len(records))
	for _, r := range records {
		out = append(out, r.Get(2).(int16))
	}
	return out
}

// --------------------------------------------------------------------------
// Suite
// --------------------------------------------------------------------------

// RunClientTests runs a comprehensive test suite for a skv.Client implementation.
func RunClientTests(t *testing.T, name string, factory ClientFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("ReadWrite", func(t *testing.T) {
			testReadWrite(t, factory(newCatalog(t)))
		})

		t.Run("ReadYourWrites", func(t *testing.T) {
			testReadYourWrites(t, factory(newCatalog(t)))
		})

		t.Run("Abort", func(t *testing.T) {
			testAbort(t, factory(newCatalog(t)))
		})

		t.Run("Erase", func(t *testing.T) {
			testErase(t, factory(newCatalog(t)))
		})

		t.Run("PartialUpdate", func(t *testing.T) {
			testPartialUpdate(t, factory(newCatalog(t)))
		})

		t.Run("Query", func(t *testing.T) {
			testQuery(t, factory(newCatalog(t)))
		})

		t.Run("Conflict", func(t *testing.T) {
			testConflict(t, factory(newCatalog(t)))
		})

		t.Run("Deadline", func(t *testing.T) {
			testDeadline(t, factory(newCatalog(t)))
		})

		t.Run("Ended", func(t *testing.T) {
			testEnded(t, factory(newCatalog(t)))
		})

		t.Run("BadRequests", func(t *testing.T) {
			testBadRequests(t, factory(newCatalog(t)))
		})

		t.Run("ConcurrentBranches", func(t *testing.T) {
			testConcurrentBranches(t, factory(newCatalog(t)))
		})

		t.Run("Serializability", func(t *testing.T) {
			testSerializability(t, factory(newCatalog(t)))
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testReadWrite(t *testing.T, client skv.Client) {
	load(t, client, account(1, "alice", 100), account(2, "bob", -5))

	res := readCommitted(t, client, accountKey(1))
	require.True(t, res.Status.Is2xxOK(), res.Status.String())
	assert.Equal(t, []any{int32(1), "alice", int64(100)}, res.Record.Values)

	res = readCommitted(t, client, accountKey(2))
	require.True(t, res.Status.Is2xxOK(), res.Status.String())
	assert.Equal(t, int64(-5), res.Record.Get(2))

	res = readCommitted(t, client, accountKey(3))
	assert.True(t, res.Status.IsNotFound(), "missing record: %s", res.Status)
	assert.Nil(t, res.Record)

	// overwrite
	load(t, client, account(1, "alice", 50))
	res = readCommitted(t, client, accountKey(1))
	assert.Equal(t, int64(50), res.Record.Get(2))
}

func testReadYourWrites(t *testing.T, client skv.Client) {
	ctx := context.Background()
	txn := begin(t, client, time.Minute)

	require.True(t, txn.Write(ctx, account(7, "carol", 1), false).Status.Is2xxOK())
	res := txn.Read(ctx, accountKey(7))
	require.True(t, res.Status.Is2xxOK(), res.Status.String())
	assert.Equal(t, "carol", res.Record.Get(1))

	// the returned record is a copy
	res.Record.Set(1, "mallory")
	res = txn.Read(ctx, accountKey(7))
	assert.Equal(t, "carol", res.Record.Get(1))

	commit(t, txn)
	assert.True(t, readCommitted(t, client, accountKey(7)).Status.Is2xxOK())
}

func testAbort(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client, account(1, "alice", 100))

	txn := begin(t, client, time.Minute)
	require.True(t, txn.Write(ctx, account(1, "alice", 0), false).Status.Is2xxOK())
	require.True(t, txn.Write(ctx, account(2, "bob", 0), false).Status.Is2xxOK())
	abort(t, txn)

	assert.Equal(t, int64(100), readCommitted(t, client, accountKey(1)).Record.Get(2))
	assert.True(t, readCommitted(t, client, accountKey(2)).Status.IsNotFound())
}

func testErase(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client, account(1, "alice", 100))

	txn := begin(t, client, time.Minute)
	require.True(t, txn.Write(ctx, accountKey(1), true).Status.Is2xxOK())
	assert.True(t, txn.Read(ctx, accountKey(1)).Status.IsNotFound(), "erased in own txn")
	commit(t, txn)

	assert.True(t, readCommitted(t, client, accountKey(1)).Status.IsNotFound())
}

func testPartialUpdate(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client, account(1, "alice", 100))

	txn := begin(t, client, time.Minute)
	update := accountKey(1).Set(2, int64(42))
	res := txn.PartialUpdate(ctx, update, []int{2})
	require.True(t, res.Status.Is2xxOK(), res.Status.String())

	res = txn.PartialUpdate(ctx, accountKey(99).Set(2, int64(1)), []int{2})
	assert.True(t, res.Status.IsNotFound(), "partial update of a missing record: %s", res.Status)
	commit(t, txn)

	rec := readCommitted(t, client, accountKey(1)).Record
	assert.Equal(t, []any{int32(1), "alice", int64(42)}, rec.Values)
	assert.True(t, readCommitted(t, client, accountKey(99)).Status.IsNotFound())
}

func testQuery(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client,
		entry(1, 1, 1, 10),
		entry(1, 1, 2, 20),
		entry(1, 1, 3, 30),
		entry(1, 2, 1, 40),
		entry(2, 1, 1, 50),
		entry(0, 1, 1, 60),
	)

	run := func(t *testing.T, q *skv.Query) []*skv.Record {
		t.Helper()
		txn := begin(t, client, time.Minute)
		defer abort(t, txn)
		res := txn.Query(ctx, q)
		require.True(t, res.Status.Is2xxOK(), res.Status.String())
		return res.Records
	}

	prefix := func() *skv.Query {
		q := skv.NewQuery(entrySchema)
		q.StartScanKey.Set(0, int32(1)).Set(1, int16(1))
		q.EndScanKey.Set(0, int32(1)).Set(1, int16(1))
		return q
	}

	t.Run("Prefix", func(t *testing.T) {
		assert.Equal(t, []int16{1, 2, 3}, seqs(run(t, prefix())))
	})

	t.Run("Reverse", func(t *testing.T) {
		q := prefix()
		q.Reverse = true
		assert.Equal(t, []int16{3, 2, 1}, seqs(run(t, q)))
	})

	t.Run("Limit", func(t *testing.T) {
		q := prefix()
		q.Limit = 2
		assert.Equal(t, []int16{1, 2}, seqs(run(t, q)))
		q.Reverse = true
		assert.Equal(t, []int16{3, 2}, seqs(run(t, q)))
		q.Limit = 0
		assert.Empty(t, run(t, q))
	})

	t.Run("Filter", func(t *testing.T) {
		q := prefix()
		q.Filter = skv.And(
			skv.Compare(skv.OpGT, skv.Ref("value"), skv.Lit(int32(10))),
			skv.Compare(skv.OpLTE, skv.Ref("seq"), skv.Lit(int32(2))),
		)
		assert.Equal(t, []int16{2}, seqs(run(t, q)))

		q.Filter = skv.Compare(skv.OpGT, skv.Ref("value"), skv.Lit(int32(100)))
		assert.Empty(t, run(t, q))
	})

	t.Run("Partition", func(t *testing.T) {
		q := skv.NewQuery(entrySchema)
		q.StartScanKey.Set(0, int32(1))
		q.EndScanKey.Set(0, int32(1))
		assert.Len(t, run(t, q), 4)
	})

	t.Run("WholeSchema", func(t *testing.T) {
		records := run(t, skv.NewQuery(entrySchema))
		require.Len(t, records, 6)
		// ordered by key: account 0, 1 (4 entries), 2
		assert.Equal(t, int32(0), records[0].Get(0))
		assert.Equal(t, int32(2), records[5].Get(0))
	})

	t.Run("OwnWrites", func(t *testing.T) {
		txn := begin(t, client, time.Minute)
		defer abort(t, txn)
		require.True(t, txn.Write(ctx, entry(1, 1, 4, 70), false).Status.Is2xxOK())
		require.True(t, txn.Write(ctx, entry(1, 1, 1, 0), true).Status.Is2xxOK())
		res := txn.Query(ctx, prefix())
		require.True(t, res.Status.Is2xxOK(), res.Status.String())
		assert.Equal(t, []int16{2, 3, 4}, seqs(res.Records))
	})
}

func testConflict(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client, account(1, "alice", 100), account(2, "bob", 100))

	t1 := begin(t, client, time.Minute)
	require.True(t, t1.Write(ctx, account(1, "alice", 90), false).Status.Is2xxOK())

	t2 := begin(t, client, time.Minute)
	res := t2.Read(ctx, accountKey(1))
	assert.Equal(t, skv.CodeConflict, res.Status.Code, "read of a locked partition: %s", res.Status)

	// other partitions are not affected
	assert.True(t, t2.Read(ctx, accountKey(2)).Status.Is2xxOK())
	abort(t, t2)

	commit(t, t1)

	t3 := begin(t, client, time.Minute)
	res = t3.Read(ctx, accountKey(1))
	require.True(t, res.Status.Is2xxOK(), "lock should be released after commit: %s", res.Status)
	assert.Equal(t, int64(90), res.Record.Get(2))
	abort(t, t3)
}

func testDeadline(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client, account(1, "alice", 100))

	short := begin(t, client, 10*time.Millisecond)
	require.True(t, short.Write(ctx, account(1, "alice", 1), false).Status.Is2xxOK())
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, skv.CodeTimeout, short.Read(ctx, accountKey(1)).Status.Code)
	assert.Equal(t, skv.CodeTimeout, short.End(ctx, true).Status.Code)

	// nothing was applied and the lock is gone
	res := readCommitted(t, client, accountKey(1))
	require.True(t, res.Status.Is2xxOK(), res.Status.String())
	assert.Equal(t, int64(100), res.Record.Get(2))

	// a cancelled context fails the operation the same way
	cancelled, cancel := context.WithCancel(ctx)
	txn := begin(t, client, time.Minute)
	cancel()
	assert.Equal(t, skv.CodeTimeout, txn.Read(cancelled, accountKey(1)).Status.Code)
	abort(t, txn)
}

func testEnded(t *testing.T, client skv.Client) {
	ctx := context.Background()
	txn := begin(t, client, time.Minute)
	commit(t, txn)

	assert.Equal(t, skv.CodeGone, txn.End(ctx, true).Status.Code)
	assert.Equal(t, skv.CodeGone, txn.Read(ctx, accountKey(1)).Status.Code)
	assert.Equal(t, skv.CodeGone, txn.Write(ctx, account(1, "x", 0), false).Status.Code)
}

func testBadRequests(t *testing.T, client skv.Client) {
	ctx := context.Background()
	txn := begin(t, client, time.Minute)
	defer abort(t, txn)

	unknown := &skv.Schema{
		Name:               "unknown",
		Version:            1,
		Fields:             []skv.SchemaField{{Type: skv.FieldInt32, Name: "id"}},
		PartitionKeyFields: []int{0},
	}
	assert.Equal(t, skv.CodeBadRequest, txn.Read(ctx, skv.NewRecord(unknown).Set(0, int32(1))).Status.Code)
	assert.Equal(t, skv.CodeBadRequest, txn.Read(ctx, skv.NewRecord(accountSchema)).Status.Code, "missing key")
	assert.Equal(t, skv.CodeBadRequest, txn.Write(ctx, accountKey(1).Set(2, "no int"), false).Status.Code)
	assert.Equal(t, skv.CodeBadRequest, txn.PartialUpdate(ctx, accountKey(1), []int{9}).Status.Code)

	q := skv.NewQuery(entrySchema)
	q.Filter = skv.Compare(skv.OpEQ, skv.Ref("missing"), skv.Lit(int32(1)))
	assert.Equal(t, skv.CodeBadRequest, txn.Query(ctx, q).Status.Code)
}

func testConcurrentBranches(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client, account(1, "alice", 100))

	txn := begin(t, client, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.True(t, txn.Read(ctx, accountKey(1)).Status.Is2xxOK())
			assert.True(t, txn.Write(ctx, entry(1, 1, int16(i), int16(i)), false).Status.Is2xxOK())
		}(i)
	}
	wg.Wait()
	commit(t, txn)

	rtxn := begin(t, client, time.Minute)
	defer abort(t, rtxn)
	q := skv.NewQuery(entrySchema)
	q.StartScanKey.Set(0, int32(1))
	q.EndScanKey.Set(0, int32(1))
	assert.Len(t, rtxn.Query(ctx, q).Records, 8)
}

// testSerializability runs concurrent read-modify-write transactions on one
// record. Conflicting attempts abort and retry, no increment may get lost.
func testSerializability(t *testing.T, client skv.Client) {
	ctx := context.Background()
	load(t, client, account(1, "counter", 0))

	const workers, increments = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				for {
					txn, err := client.BeginTxn(ctx, skv.TxnOptions{Deadline: time.Minute})
					if err != nil {
						t.Errorf("begin: %v", err)
						return
					}
					res := txn.Read(ctx, accountKey(1))
					if !res.Status.Is2xxOK() {
						txn.End(ctx, false)
						continue
					}
					res.Record.Set(2, res.Record.Get(2).(int64)+1)
					if !txn.Write(ctx, res.Record, false).Status.Is2xxOK() {
						txn.End(ctx, false)
						continue
					}
					if txn.End(ctx, true).Status.Is2xxOK() {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	res := readCommitted(t, client, accountKey(1))
	require.True(t, res.Status.Is2xxOK())
	assert.Equal(t, int64(workers*increments), res.Record.Get(2), fmt.Sprintf("%d workers x %d increments", workers, increments))
}
