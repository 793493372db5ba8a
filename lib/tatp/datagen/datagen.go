package datagen

import (
	"context"

	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/tatp/schema"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("datagen")

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Kind is the table an Op writes to.
type Kind uint8

const (
	KindSubscriber Kind = iota + 1
	KindAccessInfo
	KindSpecialFacility
	KindCallForwarding
)

func (k Kind) String() string {
	switch k {
	case KindSubscriber:
		return "subscriber"
	case KindAccessInfo:
		return "access-info"
	case KindSpecialFacility:
		return "special-facility"
	case KindCallForwarding:
		return "call-forwarding"
	default:
		return "unknown"
	}
}

// Op is a single row write produced by the generator. Row holds one of
// schema.Subscriber, schema.AccessInfo, schema.SpecialFacility or
// schema.CallForwarding, matching Kind.
type Op struct {
	Kind Kind
	Row  skv.Row
}

// SID returns the subscriber id the row belongs to.
func (op Op) SID() int32 {
	switch row := op.Row.(type) {
	case schema.Subscriber:
		return row.SID
	case schema.AccessInfo:
		return row.SID
	case schema.SpecialFacility:
		return row.SID
	case schema.CallForwarding:
		return row.SID
	default:
		return 0
	}
}

// --------------------------------------------------------------------------
// Generator
// --------------------------------------------------------------------------

// GenerateSubscriberData generates the subscribers with ids in
// [idStart, idEnd) and all their dependent rows. Every subscriber is
// followed by its access infos, then by each special facility followed by
// its call forwardings. The random context is seeded with idStart, the
// result only depends on the id range.
func GenerateSubscriberData(idStart, idEnd int32) []Op {
	log.Infof("Generating Subscriber data start=%d, end=%d", idStart, idEnd)
	if idEnd <= idStart {
		return []Op{}
	}

	n := int(idEnd - idStart)
	// average number of rows per parent
	sfPerSub := float64(schema.MinSpecialFacilityPerSubscriber+schema.MaxSpecialFacilityPerSubscriber) / 2
	aiPerSub := float64(schema.MinAccessInfoPerSubscriber+schema.MaxAccessInfoPerSubscriber) / 2
	cfPerSF := float64(schema.MinCallForwardingPerFacility+schema.MaxCallForwardingPerFacility) / 2
	ops := make([]Op, 0, int(float64(n)*(1+sfPerSub+aiPerSub+sfPerSub*cfPerSF)))

	rnd := random.New(uint64(idStart))
	for id := idStart; id < idEnd; id++ {
		log.Debugf("Generating subscriber=%d", id)
		ops = append(ops, Op{Kind: KindSubscriber, Row: schema.NewSubscriber(rnd, id)})

		for _, aiType := range rnd.UniqueIDs(schema.MinAccessInfoPerSubscriber, schema.MaxAccessInfoPerSubscriber) {
			ops = append(ops, Op{Kind: KindAccessInfo, Row: schema.NewAccessInfo(rnd, id, int16(aiType))})
		}

		for _, sfType := range rnd.UniqueIDs(schema.MinSpecialFacilityPerSubscriber, schema.MaxSpecialFacilityPerSubscriber) {
			ops = append(ops, Op{Kind: KindSpecialFacility, Row: schema.NewSpecialFacility(rnd, id, int16(sfType))})

			for _, slot := range rnd.UniqueIDsIn(schema.MinCallForwardingPerFacility, schema.MaxCallForwardingPerFacility, len(schema.StartTimes)) {
				startTime := schema.StartTimes[slot-1]
				ops = append(ops, Op{Kind: KindCallForwarding, Row: schema.NewCallForwarding(rnd, id, int16(sfType), startTime)})
			}
		}
	}
	return ops
}

// Count returns the number of ops per kind.
func Count(ops []Op) map[Kind]int {
	counts := make(map[Kind]int, 4)
	for _, op := range ops {
		counts[op.Kind]++
	}
	return counts
}

// --------------------------------------------------------------------------
// Apply
// --------------------------------------------------------------------------

// Apply performs one single row write per op, in order, inside txn. It stops
// at the first write the store does not accept and returns an error marked
// with skv.ErrWriteFailed. Apply neither commits nor aborts txn.
func Apply(ctx context.Context, txn skv.Txn, ops []Op) error {
	for i, op := range ops {
		if op.Row == nil {
			return errors.Newf("op %d (%s) has no row", i, op.Kind)
		}
		if err := skv.WriteRow(ctx, txn, op.Row, false); err != nil {
			return errors.Wrapf(err, "op %d (%s, s_id=%d)", i, op.Kind, op.SID())
		}
	}
	return nil
}
