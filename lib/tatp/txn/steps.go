package txn

import (
	"context"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/tatp/schema"
	"github.com/sourcegraph/conc"
)

// field masks of the partial updates
var (
	bitsField  = []int{schema.SubscriberBitsField}
	dataAField = []int{schema.SpecialFacilityDataAField}
)

// both runs the two branches concurrently and waits for both of them.
func both(a, b func() bool) (bool, bool) {
	var ra, rb bool
	var wg conc.WaitGroup
	wg.Go(func() { ra = a() })
	wg.Go(func() { rb = b() })
	wg.Wait()
	return ra, rb
}

// --------------------------------------------------------------------------
// Get Subscriber Data
// --------------------------------------------------------------------------

func (t *Txn) getSubscriberData(ctx context.Context, txn skv.Txn) bool {
	p := t.GetSubscriberData
	res := txn.Read(ctx, schema.SubscriberKey(p.SubID))
	if !res.Status.Is2xxOK() {
		log.Warningf("TATP Get subscriber Txn failed: %d, %s", p.SubID, res.Status)
		return false
	}
	return true
}

// --------------------------------------------------------------------------
// Get New Destination
// --------------------------------------------------------------------------

func (t *Txn) getNewDestination(ctx context.Context, txn skv.Txn) bool {
	facility, forwarding := both(
		func() bool { return t.readSpecialFacility(ctx, txn) },
		func() bool { return t.queryCallForwarding(ctx, txn) },
	)
	return facility && forwarding
}

func (t *Txn) readSpecialFacility(ctx context.Context, txn skv.Txn) bool {
	p := t.GetNewDestination
	res := txn.Read(ctx, schema.SpecialFacilityKey(p.SubID, p.SFType))
	if res.Status.IsNotFound() {
		return false
	}
	if !res.Status.Is2xxOK() {
		log.Warningf("TATP Get special facility Txn failed: %d, %d, %s", p.SubID, p.SFType, res.Status)
		return false
	}
	return true
}

// callForwardingQuery selects the forwardings of one special facility that
// are active at the given hours.
func callForwardingQuery(p GetNewDestinationParams) *skv.Query {
	prefix := skv.NewRecord(schema.CallForwardingSchema).Set(0, p.SubID).Set(1, p.SFType)

	q := skv.NewQuery(schema.CallForwardingSchema)
	q.StartScanKey = prefix
	q.EndScanKey = prefix.Clone()
	q.Limit = -1
	q.Reverse = false
	q.Filter = skv.And(
		skv.Compare(skv.OpLTE, skv.Ref("start_time"), skv.Lit(int32(p.StartTime))),
		skv.Compare(skv.OpGT, skv.Ref("end_time"), skv.Lit(int32(p.EndTime))),
	)
	return q
}

func (t *Txn) queryCallForwarding(ctx context.Context, txn skv.Txn) bool {
	res := txn.Query(ctx, callForwardingQuery(t.GetNewDestination))
	if !res.Status.Is2xxOK() {
		log.Errorf("Query response Error, status: %s", res.Status)
		return false
	}
	for _, rec := range res.Records {
		log.Debugf("Numberx: %v", rec.GetByName("numberx"))
	}
	return len(res.Records) > 0
}

// --------------------------------------------------------------------------
// Get Access Data
// --------------------------------------------------------------------------

// getAccessData succeeds if the access info exists or is not found.
func (t *Txn) getAccessData(ctx context.Context, txn skv.Txn) bool {
	p := t.GetAccessData
	res := txn.Read(ctx, schema.AccessInfoKey(p.SubID, p.AIType))
	switch {
	case res.Status.IsNotFound():
		return true
	case !res.Status.Is2xxOK():
		log.Warningf("TATP Get Access Data Txn failed: %d, %s", p.SubID, res.Status)
		return false
	}

	// the row is only logged, a record that does not decode still counts
	ai, err := schema.AccessInfoFromRecord(res.Record)
	if err != nil {
		log.Debugf("TATP access data of %d, %d not decodable: %v", p.SubID, p.AIType, err)
		return true
	}
	log.Debugf("TATP access data : %d, %d %s %s", ai.Data1, ai.Data2, ai.Data3, ai.Data4)
	return true
}

// --------------------------------------------------------------------------
// Update Subscriber Data
// --------------------------------------------------------------------------

func (t *Txn) updateSubscriberData(ctx context.Context, txn skv.Txn) bool {
	subscriber, facility := both(
		func() bool { return t.updateSubscriber(ctx, txn) },
		func() bool { return t.updateSpecialFacility(ctx, txn) },
	)
	return subscriber && facility
}

// updateSpecialFacility accepts a missing special facility.
func (t *Txn) updateSpecialFacility(ctx context.Context, txn skv.Txn) bool {
	p := t.UpdateSubscriberData
	rec := schema.SpecialFacilityKey(p.SubID, p.SFType).Set(schema.SpecialFacilityDataAField, p.DataA)

	res := txn.PartialUpdate(ctx, rec, dataAField)
	if res.Status.IsNotFound() {
		return true
	}
	if !res.Status.Is2xxOK() {
		log.Warningf("TATP Update special facility Txn failed: %d, %d, %s", p.SubID, p.SFType, res.Status)
		return false
	}
	return true
}

// updateSubscriber sets bit 0 of the subscriber bits to Bit1.
func (t *Txn) updateSubscriber(ctx context.Context, txn skv.Txn) bool {
	p := t.UpdateSubscriberData
	res := txn.Read(ctx, schema.SubscriberKey(p.SubID))
	if !res.Status.Is2xxOK() {
		log.Warningf("TATP Get subscriber Txn failed: %d, %s", p.SubID, res.Status)
		return false
	}

	rec := res.Record
	bits, _ := rec.Get(schema.SubscriberBitsField).(int16)
	rec.Set(schema.SubscriberBitsField, setBit0(bits, p.Bit1))

	update := txn.PartialUpdate(ctx, rec, bitsField)
	if !update.Status.Is2xxOK() {
		log.Warningf("TATP Update subscriber Txn failed: %d, %s", p.SubID, update.Status)
		return false
	}
	return true
}

func setBit0(bits, bit int16) int16 {
	if bit != 0 {
		return bits | 1
	}
	return bits &^ 1
}
