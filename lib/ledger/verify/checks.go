package verify

import (
	"context"

	"github.com/ValentinKolb/tatp/lib/ledger"
	"github.com/cockroachdb/apd/v3"
)

// Consistency condition 1: sum of district YTD == warehouse YTD
func checkWarehouseYTD(_ context.Context, r *Reader, wID int32, _ int16) error {
	w, err := r.Warehouse(wID)
	if err != nil {
		return err
	}
	districts, err := r.Districts(wID)
	if err != nil {
		return err
	}

	amounts := make([]*apd.Decimal, 0, len(districts))
	for _, d := range districts {
		amounts = append(amounts, d.YTD)
	}
	sum, err := ledger.Sum(amounts...)
	if err != nil {
		return err
	}
	if w.YTD.Cmp(sum) != 0 {
		return violation("warehouse ytd %s != sum of district ytd %s", w.YTD, sum)
	}
	return nil
}

// Consistency condition 2: district next order ID - 1 == max order ID == max new order ID
func checkOrderIDs(_ context.Context, r *Reader, wID int32, dID int16) error {
	d, err := r.District(wID, dID)
	if err != nil {
		return err
	}
	orders, err := r.Orders(wID, dID)
	if err != nil {
		return err
	}
	newOrders, err := r.NewOrders(wID, dID)
	if err != nil {
		return err
	}

	var maxOrder int32
	for _, o := range orders {
		maxOrder = max(maxOrder, o.ID)
	}
	if d.NextOrderID-1 != maxOrder {
		return violation("next order id - 1 = %d, max order id = %d", d.NextOrderID-1, maxOrder)
	}

	if len(newOrders) == 0 {
		return nil
	}
	var maxNewOrder int32
	for _, n := range newOrders {
		maxNewOrder = max(maxNewOrder, n.OrderID)
	}
	if maxNewOrder != maxOrder {
		return violation("max new order id %d != max order id %d", maxNewOrder, maxOrder)
	}
	return nil
}

// Consistency condition 3: max(new order ID) - min(new order ID) + 1 == number of new order rows
func checkNewOrderIDs(_ context.Context, r *Reader, wID int32, dID int16) error {
	newOrders, err := r.NewOrders(wID, dID)
	if err != nil {
		return err
	}
	if len(newOrders) == 0 {
		return nil
	}

	lo, hi := newOrders[0].OrderID, newOrders[0].OrderID
	for _, n := range newOrders[1:] {
		lo = min(lo, n.OrderID)
		hi = max(hi, n.OrderID)
	}
	if int(hi-lo+1) != len(newOrders) {
		return violation("new order ids %d..%d but %d new order rows", lo, hi, len(newOrders))
	}
	return nil
}

// Consistency condition 4: sum of order lines from order table == number of rows in order line table
func checkOrderLineCount(_ context.Context, r *Reader, wID int32, dID int16) error {
	orders, err := r.Orders(wID, dID)
	if err != nil {
		return err
	}
	lines, err := r.OrderLines(wID, dID)
	if err != nil {
		return err
	}

	total := 0
	for _, o := range orders {
		total += int(o.LineCount)
	}
	if total != len(lines) {
		return violation("sum of order line counts %d != %d order line rows", total, len(lines))
	}
	return nil
}

// Consistency condition 5: order carrier ID is 0 iff there is a matching new order row
func checkCarrierID(_ context.Context, r *Reader, wID int32, dID int16) error {
	orders, err := r.Orders(wID, dID)
	if err != nil {
		return err
	}
	newOrders, err := r.NewOrders(wID, dID)
	if err != nil {
		return err
	}

	pending := make(map[int32]bool, len(newOrders))
	for _, n := range newOrders {
		pending[n.OrderID] = true
	}
	for _, o := range orders {
		if (o.CarrierID == 0) != pending[o.ID] {
			return violation("order %d has carrier id %d, new order row exists: %t", o.ID, o.CarrierID, pending[o.ID])
		}
		delete(pending, o.ID)
	}
	if len(pending) > 0 {
		return violation("%d new order rows without order", len(pending))
	}
	return nil
}

// Consistency condition 6: for each order, order line count == number of rows in order line table
func checkOrderLineByOrder(_ context.Context, r *Reader, wID int32, dID int16) error {
	orders, err := r.Orders(wID, dID)
	if err != nil {
		return err
	}
	lines, err := r.OrderLines(wID, dID)
	if err != nil {
		return err
	}

	counts := make(map[int32]int, len(orders))
	for _, l := range lines {
		counts[l.OrderID]++
	}
	for _, o := range orders {
		if int(o.LineCount) != counts[o.ID] {
			return violation("order %d has line count %d but %d order lines", o.ID, o.LineCount, counts[o.ID])
		}
	}
	return nil
}

// Consistency condition 7: order line delivery date is unset iff the carrier of its order is 0
func checkOrderLineDelivery(_ context.Context, r *Reader, wID int32, dID int16) error {
	orders, err := r.Orders(wID, dID)
	if err != nil {
		return err
	}
	lines, err := r.OrderLines(wID, dID)
	if err != nil {
		return err
	}

	carriers := make(map[orderKey]int16, len(orders))
	for _, o := range orders {
		carriers[orderKey{o.DistrictID, o.ID}] = o.CarrierID
	}
	for _, l := range lines {
		key := orderKey{l.DistrictID, l.OrderID}
		carrier, ok := carriers[key]
		if !ok {
			return violation("order line %s/%d without order", key, l.Number)
		}
		if (l.DeliveryDate == 0) != (carrier == 0) {
			return violation("order line %s/%d has delivery date %d, order carrier id %d", key, l.Number, l.DeliveryDate, carrier)
		}
	}
	return nil
}

// historySum is the helper for conditions 8 and 9.
func historySum(r *Reader, wID int32, dID int16) (*apd.Decimal, error) {
	history, err := r.History(wID, dID)
	if err != nil {
		return nil, err
	}
	amounts := make([]*apd.Decimal, 0, len(history))
	for _, h := range history {
		amounts = append(amounts, h.Amount)
	}
	return ledger.Sum(amounts...)
}

// Consistency condition 8: warehouse YTD == sum of history amount
func checkWarehouseHistorySum(_ context.Context, r *Reader, wID int32, _ int16) error {
	w, err := r.Warehouse(wID)
	if err != nil {
		return err
	}
	sum, err := historySum(r, wID, 0)
	if err != nil {
		return err
	}
	if w.YTD.Cmp(sum) != 0 {
		return violation("warehouse ytd %s != history sum %s", w.YTD, sum)
	}
	return nil
}

// Consistency condition 9: district YTD == sum of history amount
func checkDistrictHistorySum(_ context.Context, r *Reader, wID int32, dID int16) error {
	d, err := r.District(wID, dID)
	if err != nil {
		return err
	}
	sum, err := historySum(r, wID, dID)
	if err != nil {
		return err
	}
	if d.YTD.Cmp(sum) != 0 {
		return violation("district ytd %s != history sum %s", d.YTD, sum)
	}
	return nil
}
