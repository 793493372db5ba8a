package bench

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/tatp/lib/common"
	"github.com/ValentinKolb/tatp/lib/ledger"
	"github.com/ValentinKolb/tatp/lib/ledger/verify"
	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/skv/codec"
	"github.com/ValentinKolb/tatp/lib/skv/local"
	"github.com/ValentinKolb/tatp/lib/store/lstore"
	"github.com/ValentinKolb/tatp/lib/tatp/datagen"
	"github.com/ValentinKolb/tatp/lib/tatp/schema"
	"github.com/ValentinKolb/tatp/lib/tatp/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) skv.Client {
	t.Helper()
	tatp, err := schema.NewCatalog()
	require.NoError(t, err)
	ldg, err := ledger.NewCatalog()
	require.NoError(t, err)
	catalog, err := skv.MergeCatalogs("BENCH", tatp, ldg)
	require.NoError(t, err)
	return local.NewClient(catalog, lstore.NewLocalStore(), codec.NewBinaryCodec())
}

func testConfig() *common.RunConfig {
	return &common.RunConfig{
		Subscribers:     50,
		LoadBatchSize:   7,
		LoadConcurrency: 3,
		Workers:         4,
		Retries:         5,
		Mix:             common.DefaultMix(),
		Seed:            1,
		Serializer:      "binary",
	}
}

// --------------------------------------------------------------------------
// Mix
// --------------------------------------------------------------------------

func TestMix(t *testing.T) {
	t.Run("Weights", func(t *testing.T) {
		mix, err := NewMix(map[string]int{
			"get-subscriber-data": 3,
			"get-access-data":     1,
			"get-new-destination": 0,
		})
		require.NoError(t, err)
		assert.Equal(t, []txn.Kind{txn.KindGetSubscriberData, txn.KindGetAccessData}, mix.Kinds())

		rnd := random.New(42)
		counts := make(map[txn.Kind]int)
		for i := 0; i < 4000; i++ {
			counts[mix.Pick(rnd)]++
		}
		assert.Zero(t, counts[txn.KindGetNewDestination])
		assert.InDelta(t, 3000, counts[txn.KindGetSubscriberData], 200)
		assert.InDelta(t, 1000, counts[txn.KindGetAccessData], 200)
	})

	t.Run("SingleKind", func(t *testing.T) {
		mix, err := NewMix(map[string]int{"update-subscriber-data": 1})
		require.NoError(t, err)
		rnd := random.New(1)
		for i := 0; i < 10; i++ {
			assert.Equal(t, txn.KindUpdateSubscriberData, mix.Pick(rnd))
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := NewMix(map[string]int{"delete-call-forwarding": 1})
		assert.Error(t, err)
		_, err = NewMix(map[string]int{"get-access-data": 0})
		assert.Error(t, err)
		_, err = NewMix(map[string]int{"get-access-data": -1})
		assert.Error(t, err)
	})
}

// --------------------------------------------------------------------------
// Load and run
// --------------------------------------------------------------------------

func TestLoadSubscribers(t *testing.T) {
	client := newClient(t)
	cfg := testConfig()
	m := NewMetrics()

	require.NoError(t, LoadSubscribers(context.Background(), client, cfg, m))

	// the generator is seeded per batch, count the same batches
	expected := make(map[datagen.Kind]int)
	for lo := 1; lo <= cfg.Subscribers; lo += cfg.LoadBatchSize {
		hi := min(lo+cfg.LoadBatchSize, cfg.Subscribers+1)
		for kind, n := range datagen.Count(datagen.GenerateSubscriberData(int32(lo), int32(hi))) {
			expected[kind] += n
		}
	}
	for kind, n := range expected {
		assert.Equal(t, uint64(n), m.Loaded(kind.String()), kind.String())
	}
	assert.Equal(t, uint64(cfg.Subscribers), m.Loaded(datagen.KindSubscriber.String()))

	// every subscriber is readable
	ctx := context.Background()
	handle, err := client.BeginTxn(ctx, skv.TxnOptions{})
	require.NoError(t, err)
	defer handle.End(ctx, false)
	for sid := int32(1); sid <= int32(cfg.Subscribers); sid++ {
		res := handle.Read(ctx, schema.SubscriberKey(sid))
		require.True(t, res.Status.Is2xxOK(), "s_id=%d: %s", sid, res.Status)
	}
}

func TestLoadSubscribersNeedsSubscribers(t *testing.T) {
	cfg := testConfig()
	cfg.Subscribers = 0
	assert.Error(t, LoadSubscribers(context.Background(), newClient(t), cfg, nil))
}

func TestRunTxnCount(t *testing.T) {
	client := newClient(t)
	cfg := testConfig()
	cfg.TxnCount = 200
	require.NoError(t, LoadSubscribers(context.Background(), client, cfg, nil))

	runner, err := NewRunner(client, cfg, nil)
	require.NoError(t, err)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(200), report.Total)
	assert.Equal(t, report.Total, report.Succeeded+report.Failed)
	assert.Positive(t, report.Succeeded)

	var sum uint64
	for _, k := range report.Kinds {
		sum += k.Total()
		assert.GreaterOrEqual(t, k.Attempts, k.Total())
	}
	assert.Equal(t, report.Total, sum)

	assert.Equal(t, 200.0, report.Workers.Mean*float64(cfg.Workers))
	assert.LessOrEqual(t, len(report.Slowest), DefaultSlowest)
	for i := 1; i < len(report.Slowest); i++ {
		assert.GreaterOrEqual(t, report.Slowest[i-1].Latency, report.Slowest[i].Latency)
	}

	var prom bytes.Buffer
	runner.Metrics().WritePrometheus(&prom)
	assert.Contains(t, prom.String(), `tatp_txn_total{type="get-subscriber-data",outcome="success"}`)
	assert.Contains(t, prom.String(), `skv_txn_begin_total`)

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "get-access-data")
	assert.Contains(t, out.String(), "throughput")
}

func TestRunDuration(t *testing.T) {
	client := newClient(t)
	cfg := testConfig()
	cfg.Duration = 200 * time.Millisecond
	cfg.Rate = 500
	require.NoError(t, LoadSubscribers(context.Background(), client, cfg, nil))

	runner, err := NewRunner(client, cfg, nil)
	require.NoError(t, err)

	start := time.Now()
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Positive(t, report.Total)
	// 500 txn/sec with a burst of 4 over 200ms
	assert.LessOrEqual(t, report.Total, uint64(150))
}

func TestNewRunnerValidation(t *testing.T) {
	client := newClient(t)

	cfg := testConfig()
	_, err := NewRunner(client, cfg, nil)
	assert.Error(t, err, "neither duration nor count")

	cfg = testConfig()
	cfg.TxnCount = 1
	cfg.Workers = 0
	_, err = NewRunner(client, cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.TxnCount = 1
	cfg.Mix = map[string]int{"unknown": 1}
	_, err = NewRunner(client, cfg, nil)
	assert.Error(t, err)
}

func TestLoadLedger(t *testing.T) {
	client := newClient(t)
	cfg := testConfig()
	cfg.Warehouses = 2
	cfg.CustomersPerDistrict = 3
	cfg.OrdersPerDistrict = 5

	lcfg := LedgerConfig(cfg)
	assert.Equal(t, 2, lcfg.Warehouses)
	assert.Equal(t, 3, lcfg.CustomersPerDistrict)
	assert.Equal(t, 5, lcfg.OrdersPerDistrict)

	require.NoError(t, LoadLedger(context.Background(), client, lcfg, cfg))
	assert.NoError(t, verify.New(client).Run(context.Background()))
}

// --------------------------------------------------------------------------
// Helper types
// --------------------------------------------------------------------------

func TestResultQueue(t *testing.T) {
	q := newResultQueue()

	const producers, perProducer = 8, 500
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.True(t, q.Push(&Result{Worker: p, Attempts: i}))
			}
		}()
	}

	// per producer order is kept
	next := make([]int, producers)
	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range q.Recv() {
			assert.Equal(t, next[res.Worker], res.Attempts)
			next[res.Worker]++
			received++
		}
	}()

	wg.Wait()
	q.Close()
	assert.False(t, q.Push(&Result{}))
	assert.False(t, q.Push(nil))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue was not drained after close")
	}
	assert.Equal(t, producers*perProducer, received)
}

func TestSlowest(t *testing.T) {
	s := newSlowest(3)
	for _, ms := range []int{5, 1, 9, 3, 7, 2} {
		s.Add(&Result{Latency: time.Duration(ms) * time.Millisecond})
	}

	sorted := s.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, 9*time.Millisecond, sorted[0].Latency)
	assert.Equal(t, 7*time.Millisecond, sorted[1].Latency)
	assert.Equal(t, 5*time.Millisecond, sorted[2].Latency)

	empty := newSlowest(0)
	empty.Add(&Result{Latency: time.Second})
	assert.Empty(t, empty.Sorted())
}

func TestStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 2.0, s.StdDeviation)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, 2.0/9.0, s.MinMaxRatio, 1e-9)

	even := NewStats([]float64{10, 10, 10})
	assert.Equal(t, 1.0, even.Balance())

	assert.Equal(t, Stats{}, NewStats(nil))
}

func TestWriteCSV(t *testing.T) {
	cfg := testConfig()
	cfg.TxnCount = 10
	report := &Report{
		Elapsed: time.Second,
		Kinds: []KindReport{{
			Kind:     txn.KindGetAccessData,
			Success:  9,
			Failure:  1,
			Attempts: 12,
			Latency: Latency{
				Mean:        time.Millisecond,
				Max:         3 * time.Millisecond,
				Percentiles: []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
			},
		}},
		Total: 10,
	}

	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, report.WriteCSV(path, cfg))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Transaction", rows[0][0])
	assert.Equal(t, []string{"get-access-data", "9", "1", "12", "1000000", "1000000", "2000000", "3000000", "3000000"}, rows[1][:9])
	assert.Equal(t, "10", rows[1][10])
}
