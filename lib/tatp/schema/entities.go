package schema

import (
	"fmt"

	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Subscriber
// --------------------------------------------------------------------------

// Subscriber is a row of the subscriber table.
type Subscriber struct {
	SID         int32
	SubNbr      string
	Bits        int16
	Hexes       int64
	MscLocation int32
	VlrLocation int32
}

// NewSubscriber generates the subscriber with the given id.
func NewSubscriber(rnd *random.Context, id int32) Subscriber {
	return Subscriber{
		SID:         id,
		SubNbr:      PhoneNumber(id),
		Bits:        rnd.Int16(),
		Hexes:       rnd.Int64(),
		MscLocation: rnd.Int32(),
		VlrLocation: rnd.Int32(),
	}
}

// PhoneNumber renders a subscriber id as zero padded 15 digit number.
func PhoneNumber(id int32) string {
	return fmt.Sprintf("%0*d", PhoneLength, uint32(id))
}

// SubscriberKey returns a record holding only the key of a subscriber.
func SubscriberKey(id int32) *skv.Record {
	return skv.NewRecord(SubscriberSchema).Set(0, id)
}

func (s Subscriber) ToRecord() *skv.Record {
	return skv.NewRecord(SubscriberSchema).
		Set(0, s.SID).
		Set(1, s.SubNbr).
		Set(2, s.Bits).
		Set(3, s.Hexes).
		Set(4, s.MscLocation).
		Set(5, s.VlrLocation)
}

// SubscriberFromRecord converts a record of the subscriber table.
func SubscriberFromRecord(r *skv.Record) (s Subscriber, err error) {
	if err = expect(r, SubscriberSchema); err != nil {
		return s, err
	}
	s.SID, _ = r.Get(0).(int32)
	s.SubNbr, _ = r.Get(1).(string)
	s.Bits, _ = r.Get(2).(int16)
	s.Hexes, _ = r.Get(3).(int64)
	s.MscLocation, _ = r.Get(4).(int32)
	s.VlrLocation, _ = r.Get(5).(int32)
	return s, nil
}

// --------------------------------------------------------------------------
// Access Info
// --------------------------------------------------------------------------

// AccessInfo is a row of the Access_Info table.
type AccessInfo struct {
	SID    int32
	AIType int16
	Data1  int16
	Data2  int16
	Data3  string
	Data4  string
}

// NewAccessInfo generates the access info of the given type for a subscriber.
func NewAccessInfo(rnd *random.Context, sid int32, aiType int16) AccessInfo {
	return AccessInfo{
		SID:    sid,
		AIType: aiType,
		Data1:  int16(rnd.UniformInt(0, 255)),
		Data2:  int16(rnd.UniformInt(0, 255)),
		Data3:  rnd.String(3, 3, 'A', 'Z'),
		Data4:  rnd.String(4, 4, 'A', 'Z'),
	}
}

// AccessInfoKey returns a record holding only the key of an access info.
func AccessInfoKey(sid int32, aiType int16) *skv.Record {
	return skv.NewRecord(AccessInfoSchema).Set(0, sid).Set(1, aiType)
}

func (a AccessInfo) ToRecord() *skv.Record {
	return skv.NewRecord(AccessInfoSchema).
		Set(0, a.SID).
		Set(1, a.AIType).
		Set(2, a.Data1).
		Set(3, a.Data2).
		Set(4, a.Data3).
		Set(5, a.Data4)
}

// AccessInfoFromRecord converts a record of the Access_Info table.
func AccessInfoFromRecord(r *skv.Record) (a AccessInfo, err error) {
	if err = expect(r, AccessInfoSchema); err != nil {
		return a, err
	}
	a.SID, _ = r.Get(0).(int32)
	a.AIType, _ = r.Get(1).(int16)
	a.Data1, _ = r.Get(2).(int16)
	a.Data2, _ = r.Get(3).(int16)
	a.Data3, _ = r.Get(4).(string)
	a.Data4, _ = r.Get(5).(string)
	return a, nil
}

// --------------------------------------------------------------------------
// Special Facility
// --------------------------------------------------------------------------

// SpecialFacility is a row of the Special_Facility table.
type SpecialFacility struct {
	SID        int32
	SFType     int16
	IsActive   int16
	ErrorCntrl int16
	DataA      int16
	DataB      string
}

// NewSpecialFacility generates the special facility of the given type for a
// subscriber. 85% of the facilities are active.
func NewSpecialFacility(rnd *random.Context, sid int32, sfType int16) SpecialFacility {
	sf := SpecialFacility{SID: sid, SFType: sfType, IsActive: 1}
	if rnd.UniformInt(1, 100) <= 15 {
		sf.IsActive = 0
	}
	sf.ErrorCntrl = int16(rnd.UniformInt(0, 255))
	sf.DataA = int16(rnd.UniformInt(0, 255))
	sf.DataB = rnd.String(5, 5, 'A', 'Z')
	return sf
}

// SpecialFacilityKey returns a record holding only the key of a special facility.
func SpecialFacilityKey(sid int32, sfType int16) *skv.Record {
	return skv.NewRecord(SpecialFacilitySchema).Set(0, sid).Set(1, sfType)
}

func (f SpecialFacility) ToRecord() *skv.Record {
	return skv.NewRecord(SpecialFacilitySchema).
		Set(0, f.SID).
		Set(1, f.SFType).
		Set(2, f.IsActive).
		Set(3, f.ErrorCntrl).
		Set(4, f.DataA).
		Set(5, f.DataB)
}

// SpecialFacilityFromRecord converts a record of the Special_Facility table.
func SpecialFacilityFromRecord(r *skv.Record) (f SpecialFacility, err error) {
	if err = expect(r, SpecialFacilitySchema); err != nil {
		return f, err
	}
	f.SID, _ = r.Get(0).(int32)
	f.SFType, _ = r.Get(1).(int16)
	f.IsActive, _ = r.Get(2).(int16)
	f.ErrorCntrl, _ = r.Get(3).(int16)
	f.DataA, _ = r.Get(4).(int16)
	f.DataB, _ = r.Get(5).(string)
	return f, nil
}

// --------------------------------------------------------------------------
// Call Forwarding
// --------------------------------------------------------------------------

// CallForwarding is a row of the Call_Forwarding table.
type CallForwarding struct {
	SID       int32
	SFType    int16
	StartTime int16
	EndTime   int16
	NumberX   string
}

// NewCallForwarding generates a call forwarding of a special facility. The
// forwarding ends 1 to 8 hours after it starts.
func NewCallForwarding(rnd *random.Context, sid int32, sfType, startTime int16) CallForwarding {
	return CallForwarding{
		SID:       sid,
		SFType:    sfType,
		StartTime: startTime,
		EndTime:   startTime + int16(rnd.UniformInt(1, 8)),
		NumberX:   rnd.String(PhoneLength, PhoneLength, '0', '9'),
	}
}

// CallForwardingKey returns a record holding only the key of a call forwarding.
func CallForwardingKey(sid int32, sfType, startTime int16) *skv.Record {
	return skv.NewRecord(CallForwardingSchema).Set(0, sid).Set(1, sfType).Set(2, startTime)
}

func (c CallForwarding) ToRecord() *skv.Record {
	return skv.NewRecord(CallForwardingSchema).
		Set(0, c.SID).
		Set(1, c.SFType).
		Set(2, c.StartTime).
		Set(3, c.EndTime).
		Set(4, c.NumberX)
}

// CallForwardingFromRecord converts a record of the Call_Forwarding table.
func CallForwardingFromRecord(r *skv.Record) (c CallForwarding, err error) {
	if err = expect(r, CallForwardingSchema); err != nil {
		return c, err
	}
	c.SID, _ = r.Get(0).(int32)
	c.SFType, _ = r.Get(1).(int16)
	c.StartTime, _ = r.Get(2).(int16)
	c.EndTime, _ = r.Get(3).(int16)
	c.NumberX, _ = r.Get(4).(string)
	return c, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func expect(r *skv.Record, schema *skv.Schema) error {
	if r == nil {
		return errors.Newf("no %s record", schema.Name)
	}
	if r.Schema != schema {
		return errors.Newf("expected %s record, got %s", schema.Name, r.Schema.Name)
	}
	return r.Validate()
}
