package txn

import (
	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/tatp/schema"
	"github.com/cockroachdb/errors"
)

// Kind is the type of a TATP transaction.
type Kind uint8

const (
	KindGetSubscriberData Kind = iota + 1
	KindGetNewDestination
	KindGetAccessData
	KindUpdateSubscriberData
)

// Kinds lists all transaction kinds.
var Kinds = []Kind{
	KindGetSubscriberData,
	KindGetNewDestination,
	KindGetAccessData,
	KindUpdateSubscriberData,
}

func (k Kind) String() string {
	switch k {
	case KindGetSubscriberData:
		return "get-subscriber-data"
	case KindGetNewDestination:
		return "get-new-destination"
	case KindGetAccessData:
		return "get-access-data"
	case KindUpdateSubscriberData:
		return "update-subscriber-data"
	default:
		return "unknown"
	}
}

// ParseKind returns the kind with the given name (as returned by String).
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown transaction type %q", name)
}

// --------------------------------------------------------------------------
// Parameters
// --------------------------------------------------------------------------

type GetSubscriberDataParams struct {
	SubID int32
}

type GetNewDestinationParams struct {
	SubID     int32
	SFType    int16
	StartTime int16
	EndTime   int16
}

type GetAccessDataParams struct {
	SubID  int32
	AIType int16
}

type UpdateSubscriberDataParams struct {
	SubID  int32
	SFType int16
	Bit1   int16 // new value of bit 0 of the subscriber bits
	DataA  int16
}

// New samples a transaction of the given kind. Subscriber ids are drawn
// from [1, maxSID].
func New(kind Kind, rnd *random.Context, maxSID int32) (*Txn, error) {
	subID := func() int32 { return int32(rnd.UniformInt(1, int64(maxSID))) }

	switch kind {
	case KindGetSubscriberData:
		return NewGetSubscriberData(GetSubscriberDataParams{
			SubID: subID(),
		}), nil

	case KindGetNewDestination:
		return NewGetNewDestination(GetNewDestinationParams{
			SubID:     subID(),
			SFType:    int16(rnd.UniformInt(1, 4)),
			StartTime: schema.StartTimes[rnd.UniformInt(0, int64(len(schema.StartTimes)-1))],
			EndTime:   int16(rnd.UniformInt(1, 24)),
		}), nil

	case KindGetAccessData:
		return NewGetAccessData(GetAccessDataParams{
			SubID:  subID(),
			AIType: int16(rnd.UniformInt(1, 4)),
		}), nil

	case KindUpdateSubscriberData:
		return NewUpdateSubscriberData(UpdateSubscriberDataParams{
			SubID:  subID(),
			SFType: int16(rnd.UniformInt(1, 4)),
			Bit1:   int16(rnd.UniformInt(0, 1)),
			DataA:  int16(rnd.UniformInt(0, 255)),
		}), nil

	default:
		return nil, errors.Newf("unknown transaction kind %d", kind)
	}
}

func NewGetSubscriberData(p GetSubscriberDataParams) *Txn {
	return &Txn{Kind: KindGetSubscriberData, GetSubscriberData: p}
}

func NewGetNewDestination(p GetNewDestinationParams) *Txn {
	return &Txn{Kind: KindGetNewDestination, GetNewDestination: p}
}

func NewGetAccessData(p GetAccessDataParams) *Txn {
	return &Txn{Kind: KindGetAccessData, GetAccessData: p}
}

func NewUpdateSubscriberData(p UpdateSubscriberDataParams) *Txn {
	return &Txn{Kind: KindUpdateSubscriberData, UpdateSubscriberData: p}
}
