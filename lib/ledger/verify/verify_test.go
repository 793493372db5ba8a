package verify

import (
	"context"
	"fmt"
	"testing"

	"github.com/ValentinKolb/tatp/lib/ledger"
	"github.com/ValentinKolb/tatp/lib/ledger/datagen"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/skv/codec"
	"github.com/ValentinKolb/tatp/lib/skv/local"
	"github.com/ValentinKolb/tatp/lib/store/lstore"
	"github.com/ValentinKolb/tatp/lib/tatp/schema"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func newClient(t *testing.T) skv.Client {
	t.Helper()
	catalog, err := ledger.NewCatalog()
	require.NoError(t, err)
	return local.NewClient(catalog, lstore.NewLocalStore(), codec.NewJSONCodec())
}

// inTxn runs fn in a committed transaction.
func inTxn(t *testing.T, client skv.Client, fn func(ctx context.Context, txn skv.Txn)) {
	t.Helper()
	ctx := context.Background()
	txn, err := client.BeginTxn(ctx, skv.TxnOptions{})
	require.NoError(t, err)
	fn(ctx, txn)
	require.True(t, txn.End(ctx, true).Status.Is2xxOK())
}

func read(t *testing.T, ctx context.Context, txn skv.Txn, key *skv.Record) *skv.Record {
	t.Helper()
	res := txn.Read(ctx, key)
	require.True(t, res.Status.Is2xxOK(), "read %s: %s", key, res.Status)
	return res.Record
}

func update(t *testing.T, ctx context.Context, txn skv.Txn, rec *skv.Record, field int) {
	t.Helper()
	res := txn.PartialUpdate(ctx, rec, []int{field})
	require.True(t, res.Status.Is2xxOK(), "update %s: %s", rec, res.Status)
}

func addToDistrictYTD(t *testing.T, ctx context.Context, txn skv.Txn, wID int32, dID int16, cents int64) {
	t.Helper()
	d, err := ledger.DistrictFromRecord(read(t, ctx, txn, ledger.DistrictKey(wID, dID)))
	require.NoError(t, err)
	d.YTD, err = ledger.Sum(d.YTD, ledger.Amount(cents))
	require.NoError(t, err)
	update(t, ctx, txn, d.ToRecord(), ledger.DistrictYTDField)
}

func loadGenerated(t *testing.T) skv.Client {
	t.Helper()
	client := newClient(t)
	cfg := datagen.Config{Warehouses: 2, DistrictsPerWarehouse: 3, CustomersPerDistrict: 4, OrdersPerDistrict: 10}
	require.NoError(t, datagen.Load(context.Background(), client, cfg))
	return client
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestWarehouseYTD(t *testing.T) {
	client := newClient(t)
	inTxn(t, client, func(ctx context.Context, txn skv.Txn) {
		for _, row := range []skv.Row{
			ledger.Warehouse{ID: 1, YTD: ledger.Amount(3000)},
			ledger.District{WarehouseID: 1, ID: 1, YTD: ledger.Amount(1000), NextOrderID: 1},
			ledger.District{WarehouseID: 1, ID: 2, YTD: ledger.Amount(2000), NextOrderID: 1},
		} {
			require.NoError(t, skv.WriteRow(ctx, txn, row, false))
		}
	})

	v := New(client)
	check := Checks()[0]
	require.NoError(t, v.RunChecks(context.Background(), check))

	inTxn(t, client, func(ctx context.Context, txn skv.Txn) {
		require.NoError(t, ledger.AddWarehouseYTD(ctx, txn, 1, ledger.Amount(100)))
	})
	err := v.RunChecks(context.Background(), check)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConsistency))
	assert.Contains(t, err.Error(), "31.00")
}

func TestGeneratedLedgerIsConsistent(t *testing.T) {
	client := loadGenerated(t)
	require.NoError(t, New(client).Run(context.Background()))
}

func TestEmptyLedger(t *testing.T) {
	require.NoError(t, New(newClient(t)).Run(context.Background()))
}

// TestBrokenInvariants breaks one condition at a time without breaking any
// condition checked before it.
func TestBrokenInvariants(t *testing.T) {
	tests := []struct {
		condition int
		name      string
		corrupt   func(t *testing.T, ctx context.Context, txn skv.Txn)
	}{
		{1, "warehouse ytd", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			require.NoError(t, ledger.AddWarehouseYTD(ctx, txn, 1, ledger.Amount(1)))
		}},
		{2, "order ID", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			d, err := ledger.DistrictFromRecord(read(t, ctx, txn, ledger.DistrictKey(1, 1)))
			require.NoError(t, err)
			d.NextOrderID++
			update(t, ctx, txn, d.ToRecord(), ledger.DistrictNextOrderField)
		}},
		{3, "neworder ID", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			res := txn.Write(ctx, ledger.NewOrderKey(1, 2, 9), true)
			require.True(t, res.Status.Is2xxOK())
		}},
		{4, "order lines count", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			res := txn.Write(ctx, read(t, ctx, txn, ledger.OrderLineKey(2, 1, 1, 1)), true)
			require.True(t, res.Status.Is2xxOK())
		}},
		{5, "carrier ID", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			o, err := ledger.OrderFromRecord(read(t, ctx, txn, ledger.OrderKey(1, 3, 10)))
			require.NoError(t, err)
			o.CarrierID = 5
			update(t, ctx, txn, o.ToRecord(), ledger.OrderCarrierField)
		}},
		{6, "order line by order", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			// move one line from the count of order 2 to order 1
			o1, err := ledger.OrderFromRecord(read(t, ctx, txn, ledger.OrderKey(1, 1, 1)))
			require.NoError(t, err)
			o2, err := ledger.OrderFromRecord(read(t, ctx, txn, ledger.OrderKey(1, 1, 2)))
			require.NoError(t, err)
			o1.LineCount++
			o2.LineCount--
			update(t, ctx, txn, o1.ToRecord(), ledger.OrderLineCountField)
			update(t, ctx, txn, o2.ToRecord(), ledger.OrderLineCountField)
		}},
		{7, "order line delivery", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			l, err := ledger.OrderLineFromRecord(read(t, ctx, txn, ledger.OrderLineKey(1, 1, 1, 1)))
			require.NoError(t, err)
			l.DeliveryDate = 0
			update(t, ctx, txn, l.ToRecord(), ledger.OrderLineDeliveryField)
		}},
		{8, "warehouse ytd and history sum", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			h, err := ledger.HistoryFromRecord(read(t, ctx, txn, ledger.HistoryKey(2, 2, 2)))
			require.NoError(t, err)
			h.Amount = ledger.Amount(1100)
			update(t, ctx, txn, h.ToRecord(), ledger.HistoryAmountField)
		}},
		{9, "district ytd and history sum", func(t *testing.T, ctx context.Context, txn skv.Txn) {
			addToDistrictYTD(t, ctx, txn, 1, 1, 100)
			addToDistrictYTD(t, ctx, txn, 1, 2, -100)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := loadGenerated(t)
			inTxn(t, client, func(ctx context.Context, txn skv.Txn) { tt.corrupt(t, ctx, txn) })

			err := New(client).Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConsistency), "%v", err)
			assert.Contains(t, err.Error(), fmt.Sprintf("condition %d (%s)", tt.condition, tt.name))
			assert.Equal(t, tt.name, Checks()[tt.condition-1].Name)
		})
	}
}

func TestReadFailureIsNotAViolation(t *testing.T) {
	catalog, err := schema.NewCatalog()
	require.NoError(t, err)
	client := local.NewClient(catalog, lstore.NewLocalStore(), codec.NewJSONCodec())

	err = New(client).Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConsistency))
}

func TestCompareAbortValues(t *testing.T) {
	client := loadGenerated(t)
	v := New(client)
	ctx := context.Background()

	before, err := v.SnapshotYTD(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, before.Districts, 3)

	// aborted payment
	txn, err := client.BeginTxn(ctx, skv.TxnOptions{})
	require.NoError(t, err)
	require.NoError(t, ledger.AddWarehouseYTD(ctx, txn, 1, ledger.Amount(500)))
	addToDistrictYTD(t, ctx, txn, 1, 2, 500)
	require.True(t, txn.End(ctx, false).Status.Is2xxOK())

	after, err := v.SnapshotYTD(ctx, 1)
	require.NoError(t, err)
	assert.NoError(t, CompareAbortValues(before, after))

	// committed district change
	inTxn(t, client, func(ctx context.Context, txn skv.Txn) {
		addToDistrictYTD(t, ctx, txn, 1, 2, 500)
	})
	changed, err := v.SnapshotYTD(ctx, 1)
	require.NoError(t, err)
	err = CompareAbortValues(before, changed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConsistency))
	assert.Contains(t, err.Error(), "district 1/2")

	other, err := v.SnapshotYTD(ctx, 2)
	require.NoError(t, err)
	err = CompareAbortValues(before, other)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConsistency))

	_, err = v.SnapshotYTD(ctx, 9)
	assert.Error(t, err)
}
