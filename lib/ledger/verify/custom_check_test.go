package verify_test

import (
	"context"
	"testing"

	"github.com/ValentinKolb/tatp/lib/ledger"
	"github.com/ValentinKolb/tatp/lib/ledger/datagen"
	"github.com/ValentinKolb/tatp/lib/ledger/verify"
	"github.com/ValentinKolb/tatp/lib/skv/codec"
	"github.com/ValentinKolb/tatp/lib/skv/local"
	"github.com/ValentinKolb/tatp/lib/store/lstore"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCustomCheck runs a check defined outside the package.
func TestCustomCheck(t *testing.T) {
	catalog, err := ledger.NewCatalog()
	require.NoError(t, err)
	client := local.NewClient(catalog, lstore.NewLocalStore(), codec.NewBinaryCodec())
	cfg := datagen.Config{Warehouses: 1, DistrictsPerWarehouse: 2, CustomersPerDistrict: 3, OrdersPerDistrict: 5}
	require.NoError(t, datagen.Load(context.Background(), client, cfg))

	var visited []int16
	historyRows := verify.Check{
		Name:  "history per customer",
		Scope: verify.ScopeDistrict,
		Fn: func(_ context.Context, r *verify.Reader, wID int32, dID int16) error {
			visited = append(visited, dID)
			history, err := r.History(wID, dID)
			if err != nil {
				return err
			}
			if len(history) != cfg.CustomersPerDistrict {
				return errors.Newf("%d history rows", len(history))
			}
			return nil
		},
	}

	require.NoError(t, verify.New(client).RunChecks(context.Background(), historyRows))
	assert.Equal(t, []int16{1, 2}, visited)

	failing := verify.Check{
		Name:  "no orders",
		Scope: verify.ScopeWarehouse,
		Fn: func(_ context.Context, r *verify.Reader, wID int32, _ int16) error {
			orders, err := r.Orders(wID, 1)
			if err != nil {
				return err
			}
			if len(orders) > 0 {
				return errors.Newf("warehouse %d has orders", wID)
			}
			return nil
		},
	}
	err = verify.New(client).RunChecks(context.Background(), failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "condition 1 (no orders)")
}
