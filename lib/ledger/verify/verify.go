package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/tatp/lib/ledger"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("verify")

// ErrConsistency marks errors reporting a violated condition.
var ErrConsistency = errors.New("consistency violation")

// Scope is the granularity a check runs at.
type Scope uint8

const (
	ScopeWarehouse Scope = iota + 1
	ScopeDistrict
)

// CheckFunc checks one condition for a warehouse (dID is 0) or a district.
type CheckFunc func(ctx context.Context, r *Reader, wID int32, dID int16) error

// Check is one consistency condition.
type Check struct {
	Name  string
	Scope Scope
	Fn    CheckFunc
}

// Checks returns all conditions in the order they are verified.
func Checks() []Check {
	return []Check{
		{Name: "warehouse ytd", Scope: ScopeWarehouse, Fn: checkWarehouseYTD},
		{Name: "order ID", Scope: ScopeDistrict, Fn: checkOrderIDs},
		{Name: "neworder ID", Scope: ScopeDistrict, Fn: checkNewOrderIDs},
		{Name: "order lines count", Scope: ScopeDistrict, Fn: checkOrderLineCount},
		{Name: "carrier ID", Scope: ScopeDistrict, Fn: checkCarrierID},
		{Name: "order line by order", Scope: ScopeDistrict, Fn: checkOrderLineByOrder},
		{Name: "order line delivery", Scope: ScopeDistrict, Fn: checkOrderLineDelivery},
		{Name: "warehouse ytd and history sum", Scope: ScopeWarehouse, Fn: checkWarehouseHistorySum},
		{Name: "district ytd and history sum", Scope: ScopeDistrict, Fn: checkDistrictHistorySum},
	}
}

// --------------------------------------------------------------------------
// Verifier
// --------------------------------------------------------------------------

// Verifier runs consistency checks against the ledger of a client.
type Verifier struct {
	client   skv.Client
	deadline time.Duration
}

// New creates a verifier. The client must know the ledger schemas.
func New(client skv.Client) *Verifier {
	return &Verifier{client: client, deadline: skv.DefaultDeadline}
}

// Run checks all conditions in order and stops at the first violation.
func (v *Verifier) Run(ctx context.Context) error {
	return v.RunChecks(ctx, Checks()...)
}

// RunChecks checks the given conditions in order and stops at the first
// violation.
func (v *Verifier) RunChecks(ctx context.Context, checks ...Check) error {
	for i, check := range checks {
		log.Infof("Starting consistency verification %d: %s", i+1, check.Name)
		start := time.Now()
		if err := v.runCheck(ctx, check); err != nil {
			log.Errorf("%s consistency check failed: %v", check.Name, err)
			return errors.Wrapf(err, "condition %d (%s)", i+1, check.Name)
		}
		log.Infof("%s consistency success (took %s)", check.Name, time.Since(start))
	}
	return nil
}

func (v *Verifier) runCheck(ctx context.Context, check Check) error {
	warehouses, err := v.warehouses(ctx)
	if err != nil {
		return err
	}

	for _, wID := range warehouses {
		if check.Scope == ScopeWarehouse {
			err := v.inTxn(ctx, func(r *Reader) error { return check.Fn(ctx, r, wID, 0) })
			if err != nil {
				return errors.Wrapf(err, "warehouse %d", wID)
			}
			continue
		}

		districts, err := v.districts(ctx, wID)
		if err != nil {
			return err
		}
		for _, dID := range districts {
			err := v.inTxn(ctx, func(r *Reader) error { return check.Fn(ctx, r, wID, dID) })
			if err != nil {
				return errors.Wrapf(err, "warehouse %d district %d", wID, dID)
			}
		}
	}
	return nil
}

// inTxn runs fn in a new transaction which is aborted afterwards.
func (v *Verifier) inTxn(ctx context.Context, fn func(r *Reader) error) error {
	txn, err := v.client.BeginTxn(ctx, skv.TxnOptions{Deadline: v.deadline})
	if err != nil {
		return errors.Wrap(err, "begin verification txn")
	}
	defer txn.End(ctx, false)
	return fn(&Reader{ctx: ctx, txn: txn})
}

func (v *Verifier) warehouses(ctx context.Context) (ids []int32, err error) {
	err = v.inTxn(ctx, func(r *Reader) error {
		records, err := r.Scan(skv.NewQuery(ledger.WarehouseSchema))
		if err != nil {
			return err
		}
		for _, rec := range records {
			w, err := ledger.WarehouseFromRecord(rec)
			if err != nil {
				return err
			}
			ids = append(ids, w.ID)
		}
		return nil
	})
	return ids, err
}

func (v *Verifier) districts(ctx context.Context, wID int32) (ids []int16, err error) {
	err = v.inTxn(ctx, func(r *Reader) error {
		districts, err := r.Districts(wID)
		if err != nil {
			return err
		}
		for _, d := range districts {
			ids = append(ids, d.ID)
		}
		return nil
	})
	return ids, err
}

// violation creates an error marked with ErrConsistency.
func violation(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConsistency)
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// Reader reads typed ledger rows inside the transaction of one check.
type Reader struct {
	ctx context.Context
	txn skv.Txn
}

// Scan runs q and fails on a non 2xx status.
func (r *Reader) Scan(q *skv.Query) ([]*skv.Record, error) {
	res := r.txn.Query(r.ctx, q)
	if !res.Status.Is2xxOK() {
		return nil, errors.Newf("scan %s: %s", q.Schema.Name, res.Status)
	}
	return res.Records, nil
}

// Read reads the record with the key of key.
func (r *Reader) Read(key *skv.Record) (*skv.Record, error) {
	res := r.txn.Read(r.ctx, key)
	if !res.Status.Is2xxOK() {
		return nil, errors.Newf("read %s: %s", key, res.Status)
	}
	return res.Record, nil
}

// Warehouse reads one warehouse.
func (r *Reader) Warehouse(wID int32) (ledger.Warehouse, error) {
	rec, err := r.Read(ledger.WarehouseKey(wID))
	if err != nil {
		return ledger.Warehouse{}, err
	}
	return ledger.WarehouseFromRecord(rec)
}

// District reads one district.
func (r *Reader) District(wID int32, dID int16) (ledger.District, error) {
	rec, err := r.Read(ledger.DistrictKey(wID, dID))
	if err != nil {
		return ledger.District{}, err
	}
	return ledger.DistrictFromRecord(rec)
}

// scanRows scans all records of schema below the key prefix and converts
// them with conv.
func scanRows[T any](r *Reader, conv func(*skv.Record) (T, error), schema *skv.Schema, prefix ...any) ([]T, error) {
	records, err := r.Scan(ledger.ScanPrefix(schema, prefix...))
	if err != nil {
		return nil, err
	}
	rows := make([]T, 0, len(records))
	for _, rec := range records {
		row, err := conv(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Districts returns the districts of a warehouse.
func (r *Reader) Districts(wID int32) ([]ledger.District, error) {
	return scanRows(r, ledger.DistrictFromRecord, ledger.DistrictSchema, wID)
}

func (r *Reader) Orders(wID int32, dID int16) ([]ledger.Order, error) {
	return scanRows(r, ledger.OrderFromRecord, ledger.OrderSchema, wID, dID)
}

func (r *Reader) NewOrders(wID int32, dID int16) ([]ledger.NewOrder, error) {
	return scanRows(r, ledger.NewOrderFromRecord, ledger.NewOrderSchema, wID, dID)
}

func (r *Reader) OrderLines(wID int32, dID int16) ([]ledger.OrderLine, error) {
	return scanRows(r, ledger.OrderLineFromRecord, ledger.OrderLineSchema, wID, dID)
}

// history returns the history rows of a warehouse (dID 0) or a district.
func (r *Reader) History(wID int32, dID int16) ([]ledger.History, error) {
	if dID == 0 {
		return scanRows(r, ledger.HistoryFromRecord, ledger.HistorySchema, wID)
	}
	return scanRows(r, ledger.HistoryFromRecord, ledger.HistorySchema, wID, dID)
}

type orderKey struct {
	dID int16
	oID int32
}

func (k orderKey) String() string {
	return fmt.Sprintf("%d/%d", k.dID, k.oID)
}
