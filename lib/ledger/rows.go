package ledger

import (
	"context"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Rows
// --------------------------------------------------------------------------

type Warehouse struct {
	ID  int32
	YTD *apd.Decimal
}

type District struct {
	WarehouseID int32
	ID          int16
	YTD         *apd.Decimal
	NextOrderID int32
}

type Order struct {
	WarehouseID int32
	DistrictID  int16
	ID          int32
	CustomerID  int32
	CarrierID   int16
	LineCount   int16
	EntryDate   int64
}

type NewOrder struct {
	WarehouseID int32
	DistrictID  int16
	OrderID     int32
}

type OrderLine struct {
	WarehouseID  int32
	DistrictID   int16
	OrderID      int32
	Number       int16
	ItemID       int32
	DeliveryDate int64
	Amount       *apd.Decimal
}

type History struct {
	WarehouseID int32
	DistrictID  int16
	ID          int32
	CustomerID  int32
	Amount      *apd.Decimal
	Date        int64
}

func (w Warehouse) ToRecord() *skv.Record {
	return skv.NewRecord(WarehouseSchema).Set(0, w.ID).Set(1, w.YTD)
}

func (d District) ToRecord() *skv.Record {
	return skv.NewRecord(DistrictSchema).
		Set(0, d.WarehouseID).
		Set(1, d.ID).
		Set(2, d.YTD).
		Set(3, d.NextOrderID)
}

func (o Order) ToRecord() *skv.Record {
	return skv.NewRecord(OrderSchema).
		Set(0, o.WarehouseID).
		Set(1, o.DistrictID).
		Set(2, o.ID).
		Set(3, o.CustomerID).
		Set(4, o.CarrierID).
		Set(5, o.LineCount).
		Set(6, o.EntryDate)
}

func (n NewOrder) ToRecord() *skv.Record {
	return skv.NewRecord(NewOrderSchema).Set(0, n.WarehouseID).Set(1, n.DistrictID).Set(2, n.OrderID)
}

func (l OrderLine) ToRecord() *skv.Record {
	return skv.NewRecord(OrderLineSchema).
		Set(0, l.WarehouseID).
		Set(1, l.DistrictID).
		Set(2, l.OrderID).
		Set(3, l.Number).
		Set(4, l.ItemID).
		Set(5, l.DeliveryDate).
		Set(6, l.Amount)
}

func (h History) ToRecord() *skv.Record {
	return skv.NewRecord(HistorySchema).
		Set(0, h.WarehouseID).
		Set(1, h.DistrictID).
		Set(2, h.ID).
		Set(3, h.CustomerID).
		Set(4, h.Amount).
		Set(5, h.Date)
}

// --------------------------------------------------------------------------
// Conversion from records
// --------------------------------------------------------------------------

func WarehouseFromRecord(r *skv.Record) (w Warehouse, err error) {
	if err = expect(r, WarehouseSchema); err != nil {
		return w, err
	}
	w.ID, _ = r.Get(0).(int32)
	w.YTD, _ = r.Get(1).(*apd.Decimal)
	return w, nil
}

func DistrictFromRecord(r *skv.Record) (d District, err error) {
	if err = expect(r, DistrictSchema); err != nil {
		return d, err
	}
	d.WarehouseID, _ = r.Get(0).(int32)
	d.ID, _ = r.Get(1).(int16)
	d.YTD, _ = r.Get(2).(*apd.Decimal)
	d.NextOrderID, _ = r.Get(3).(int32)
	return d, nil
}

func OrderFromRecord(r *skv.Record) (o Order, err error) {
	if err = expect(r, OrderSchema); err != nil {
		return o, err
	}
	o.WarehouseID, _ = r.Get(0).(int32)
	o.DistrictID, _ = r.Get(1).(int16)
	o.ID, _ = r.Get(2).(int32)
	o.CustomerID, _ = r.Get(3).(int32)
	o.CarrierID, _ = r.Get(4).(int16)
	o.LineCount, _ = r.Get(5).(int16)
	o.EntryDate, _ = r.Get(6).(int64)
	return o, nil
}

func NewOrderFromRecord(r *skv.Record) (n NewOrder, err error) {
	if err = expect(r, NewOrderSchema); err != nil {
		return n, err
	}
	n.WarehouseID, _ = r.Get(0).(int32)
	n.DistrictID, _ = r.Get(1).(int16)
	n.OrderID, _ = r.Get(2).(int32)
	return n, nil
}

func OrderLineFromRecord(r *skv.Record) (l OrderLine, err error) {
	if err = expect(r, OrderLineSchema); err != nil {
		return l, err
	}
	l.WarehouseID, _ = r.Get(0).(int32)
	l.DistrictID, _ = r.Get(1).(int16)
	l.OrderID, _ = r.Get(2).(int32)
	l.Number, _ = r.Get(3).(int16)
	l.ItemID, _ = r.Get(4).(int32)
	l.DeliveryDate, _ = r.Get(5).(int64)
	l.Amount, _ = r.Get(6).(*apd.Decimal)
	return l, nil
}

func HistoryFromRecord(r *skv.Record) (h History, err error) {
	if err = expect(r, HistorySchema); err != nil {
		return h, err
	}
	h.WarehouseID, _ = r.Get(0).(int32)
	h.DistrictID, _ = r.Get(1).(int16)
	h.ID, _ = r.Get(2).(int32)
	h.CustomerID, _ = r.Get(3).(int32)
	h.Amount, _ = r.Get(4).(*apd.Decimal)
	h.Date, _ = r.Get(5).(int64)
	return h, nil
}

func expect(r *skv.Record, schema *skv.Schema) error {
	if r == nil {
		return errors.Newf("no %s record", schema.Name)
	}
	if r.Schema != schema {
		return errors.Newf("expected %s record, got %s", schema.Name, r.Schema.Name)
	}
	return r.Validate()
}

// --------------------------------------------------------------------------
// Keys and scans
// --------------------------------------------------------------------------

func WarehouseKey(wID int32) *skv.Record {
	return skv.NewRecord(WarehouseSchema).Set(0, wID)
}

func DistrictKey(wID int32, dID int16) *skv.Record {
	return skv.NewRecord(DistrictSchema).Set(0, wID).Set(1, dID)
}

func OrderKey(wID int32, dID int16, oID int32) *skv.Record {
	return skv.NewRecord(OrderSchema).Set(0, wID).Set(1, dID).Set(2, oID)
}

func NewOrderKey(wID int32, dID int16, oID int32) *skv.Record {
	return skv.NewRecord(NewOrderSchema).Set(0, wID).Set(1, dID).Set(2, oID)
}

func OrderLineKey(wID int32, dID int16, oID int32, number int16) *skv.Record {
	return skv.NewRecord(OrderLineSchema).Set(0, wID).Set(1, dID).Set(2, oID).Set(3, number)
}

func HistoryKey(wID int32, dID int16, hID int32) *skv.Record {
	return skv.NewRecord(HistorySchema).Set(0, wID).Set(1, dID).Set(2, hID)
}

// ScanPrefix returns an unlimited forward query over all records of schema
// whose key starts with the given key values.
func ScanPrefix(schema *skv.Schema, keyValues ...any) *skv.Query {
	prefix := skv.NewRecord(schema)
	for i, v := range keyValues {
		prefix.Set(schema.KeyFields()[i], v)
	}
	q := skv.NewQuery(schema)
	q.StartScanKey = prefix
	q.EndScanKey = prefix.Clone()
	return q
}

// --------------------------------------------------------------------------
// Updates
// --------------------------------------------------------------------------

// AddWarehouseYTD adds delta to the ytd of a warehouse inside txn.
func AddWarehouseYTD(ctx context.Context, txn skv.Txn, wID int32, delta *apd.Decimal) error {
	res := txn.Read(ctx, WarehouseKey(wID))
	if !res.Status.Is2xxOK() {
		return errors.Newf("read warehouse %d: %s", wID, res.Status)
	}
	w, err := WarehouseFromRecord(res.Record)
	if err != nil {
		return err
	}
	ytd, err := Sum(w.YTD, delta)
	if err != nil {
		return err
	}
	w.YTD = ytd
	return skv.PartialUpdateRow(ctx, txn, w, []int{WarehouseYTDField})
}
