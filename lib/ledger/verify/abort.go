package verify

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// YTDSnapshot holds the year to date amounts of a warehouse and its
// districts at one point in time.
type YTDSnapshot struct {
	WarehouseID int32
	Warehouse   *apd.Decimal
	Districts   map[int16]*apd.Decimal
}

// SnapshotYTD reads the ytd amounts of a warehouse and its districts in one
// read-only transaction.
func (v *Verifier) SnapshotYTD(ctx context.Context, wID int32) (YTDSnapshot, error) {
	snap := YTDSnapshot{WarehouseID: wID, Districts: make(map[int16]*apd.Decimal)}
	err := v.inTxn(ctx, func(r *Reader) error {
		w, err := r.Warehouse(wID)
		if err != nil {
			return err
		}
		snap.Warehouse = w.YTD

		districts, err := r.Districts(wID)
		if err != nil {
			return err
		}
		for _, d := range districts {
			snap.Districts[d.ID] = d.YTD
		}
		return nil
	})
	if err != nil {
		return YTDSnapshot{}, errors.Wrapf(err, "snapshot ytd of warehouse %d", wID)
	}
	return snap, nil
}

// CompareAbortValues checks that the ytd amounts taken before and after an
// aborted transaction are equal. A difference is marked with ErrConsistency.
func CompareAbortValues(before, after YTDSnapshot) error {
	if before.WarehouseID != after.WarehouseID {
		return errors.Newf("snapshots of different warehouses %d and %d", before.WarehouseID, after.WarehouseID)
	}
	if !equalAmounts(before.Warehouse, after.Warehouse) {
		return violation("warehouse %d ytd did not abort: %s -> %s", before.WarehouseID, before.Warehouse, after.Warehouse)
	}
	if len(before.Districts) != len(after.Districts) {
		return violation("warehouse %d has %d districts after abort, %d before", before.WarehouseID, len(after.Districts), len(before.Districts))
	}
	for dID, ytd := range before.Districts {
		if !equalAmounts(ytd, after.Districts[dID]) {
			return violation("district %d/%d ytd did not abort: %s -> %s", before.WarehouseID, dID, ytd, after.Districts[dID])
		}
	}
	return nil
}

func equalAmounts(a, b *apd.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
