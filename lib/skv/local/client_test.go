package local

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/skv/codec"
	"github.com/ValentinKolb/tatp/lib/skv/skvtest"
	"github.com/ValentinKolb/tatp/lib/store"
	"github.com/ValentinKolb/tatp/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	for _, name := range codec.Names {
		c, err := codec.New(name)
		require.NoError(t, err)
		skvtest.RunClientTests(t, "Local/"+name, func(catalog *skv.Catalog) skv.Client {
			return NewClient(catalog, lstore.NewLocalStore(), c)
		})
	}
}

func Benchmark(b *testing.B) {
	skvtest.RunClientBenchmarks(b, "Local", func(catalog *skv.Catalog) skv.Client {
		return NewClient(catalog, lstore.NewLocalStore(), codec.NewBinaryCodec())
	})
}

// TestLocksAreReleased checks that no lock keys survive the end of a transaction.
func TestLocksAreReleased(t *testing.T) {
	schema := &skv.Schema{
		Name:               "kv",
		Version:            1,
		Fields:             []skv.SchemaField{{Type: skv.FieldInt32, Name: "k"}, {Type: skv.FieldString, Name: "v"}},
		PartitionKeyFields: []int{0},
	}
	catalog, err := skv.NewCatalog("LOCAL", schema)
	require.NoError(t, err)

	st := lstore.NewLocalStore()
	client := NewClient(catalog, st, codec.NewJSONCodec())
	ctx := context.Background()

	countLocks := func() int {
		n := 0
		_ = st.Scan(lockPrefix, skv.PrefixEnd(lockPrefix), false, func(string, []byte) bool {
			n++
			return true
		})
		return n
	}

	for _, commit := range []bool{true, false} {
		txn, err := client.BeginTxn(ctx, skv.TxnOptions{Deadline: time.Minute})
		require.NoError(t, err)
		for i := int32(0); i < 5; i++ {
			require.True(t, txn.Write(ctx, skv.NewRecord(schema).Set(0, i).Set(1, "x"), false).Status.Is2xxOK())
		}
		assert.Equal(t, 5, countLocks())
		require.True(t, txn.End(ctx, commit).Status.Is2xxOK())
		assert.Equal(t, 0, countLocks())
	}

	// only the committed records are left in the data space
	var keys []string
	require.NoError(t, st.Scan(dataPrefix, skv.PrefixEnd(dataPrefix), false, func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	}))
	assert.Len(t, keys, 5)
	for _, k := range keys {
		assert.True(t, strings.HasPrefix(k, "data/LOCAL/kv/"), k)
	}
}

// failingStore fails every write.
type failingStore struct {
	store.IStore
}

func (f failingStore) Set(string, []byte) error {
	return store.NewError(store.RetCInternalError, "disk on fire")
}

func TestCommitFailure(t *testing.T) {
	schema := &skv.Schema{
		Name:               "kv",
		Version:            1,
		Fields:             []skv.SchemaField{{Type: skv.FieldInt32, Name: "k"}},
		PartitionKeyFields: []int{0},
	}
	catalog, err := skv.NewCatalog("LOCAL", schema)
	require.NoError(t, err)

	client := NewClient(catalog, failingStore{lstore.NewLocalStore()}, codec.NewBinaryCodec())
	ctx := context.Background()

	txn, err := client.BeginTxn(ctx, skv.TxnOptions{})
	require.NoError(t, err)
	require.True(t, txn.Write(ctx, skv.NewRecord(schema).Set(0, int32(1)), false).Status.Is2xxOK())
	res := txn.End(ctx, true)
	assert.Equal(t, skv.CodeInternalError, res.Status.Code)

	// the transaction is over even though the commit failed
	assert.Equal(t, skv.CodeGone, txn.End(ctx, false).Status.Code)

	_, err = client.BeginTxn(canceledContext(), skv.TxnOptions{})
	assert.Error(t, err)
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
