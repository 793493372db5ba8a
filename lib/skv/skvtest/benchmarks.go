package skvtest

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/stretchr/testify/require"
)

// RunClientBenchmarks runs single transaction benchmarks for a skv.Client implementation.
func RunClientBenchmarks(b *testing.B, name string, factory ClientFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Write", func(b *testing.B) {
			catalog, err := skv.NewCatalog("SKVTEST", accountSchema, entrySchema)
			require.NoError(b, err)
			benchmarkWrite(b, factory(catalog))
		})

		b.Run("Read", func(b *testing.B) {
			catalog, err := skv.NewCatalog("SKVTEST", accountSchema, entrySchema)
			require.NoError(b, err)
			benchmarkRead(b, factory(catalog))
		})
	})
}

func benchmarkWrite(b *testing.B, client skv.Client) {
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		txn := begin(b, client, time.Minute)
		txn.Write(ctx, account(int32(i), "bench", int64(i)), false)
		txn.End(ctx, true)
	}
}

func benchmarkRead(b *testing.B, client skv.Client) {
	ctx := context.Background()
	const records = 1000
	batch := make([]*skv.Record, 0, records)
	for i := 0; i < records; i++ {
		batch = append(batch, account(int32(i), "bench", int64(i)))
	}
	load(b, client, batch...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		txn := begin(b, client, time.Minute)
		txn.Read(ctx, accountKey(int32(i%records)))
		txn.End(ctx, false)
	}
}
