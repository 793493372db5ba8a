package schema

import (
	"github.com/ValentinKolb/tatp/lib/skv"
)

// CollectionName is the collection all TATP tables belong to.
const CollectionName = "TATP"

// Cardinality of the generated data set, fixed by the benchmark.
const (
	MinAccessInfoPerSubscriber      = 1
	MaxAccessInfoPerSubscriber      = 4
	MinSpecialFacilityPerSubscriber = 1
	MaxSpecialFacilityPerSubscriber = 4
	MinCallForwardingPerFacility    = 0
	MaxCallForwardingPerFacility    = 3
)

// StartTimes are the possible call forwarding start times (hours).
var StartTimes = [3]int16{0, 8, 16}

// PhoneLength is the length of subscriber numbers and forwarding numbers.
const PhoneLength = 15

// Field indexes used for partial updates.
const (
	SubscriberBitsField       = 2
	SpecialFacilityDataAField = 4
)

// --------------------------------------------------------------------------
// Schemas
// --------------------------------------------------------------------------

var (
	SubscriberSchema = &skv.Schema{
		Name:    "subscriber",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "s_id"},
			{Type: skv.FieldString, Name: "sub_nbr"},
			{Type: skv.FieldInt16, Name: "bits"},
			{Type: skv.FieldInt64, Name: "hexes"},
			{Type: skv.FieldInt32, Name: "msc_location"},
			{Type: skv.FieldInt32, Name: "vlr_location"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{},
	}

	AccessInfoSchema = &skv.Schema{
		Name:    "Access_Info",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "s_id"},
			{Type: skv.FieldInt16, Name: "ai_type"}, // 1..4
			{Type: skv.FieldInt16, Name: "data1"},
			{Type: skv.FieldInt16, Name: "data2"},
			{Type: skv.FieldString, Name: "data3"},
			{Type: skv.FieldString, Name: "data4"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1},
	}

	SpecialFacilitySchema = &skv.Schema{
		Name:    "Special_Facility",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "s_id"},
			{Type: skv.FieldInt16, Name: "sf_type"}, // 1..4
			{Type: skv.FieldInt16, Name: "is_active"},
			{Type: skv.FieldInt16, Name: "error_cntrl"},
			{Type: skv.FieldInt16, Name: "data_a"},
			{Type: skv.FieldString, Name: "data_b"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1},
	}

	CallForwardingSchema = &skv.Schema{
		Name:    "Call_Forwarding",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "s_id"},
			{Type: skv.FieldInt16, Name: "sf_type"}, // 1..4
			{Type: skv.FieldInt16, Name: "start_time"},
			{Type: skv.FieldInt16, Name: "end_time"},
			{Type: skv.FieldString, Name: "numberx"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1, 2},
	}
)

// NewCatalog creates the catalog of the TATP collection.
func NewCatalog() (*skv.Catalog, error) {
	return skv.NewCatalog(CollectionName,
		SubscriberSchema,
		AccessInfoSchema,
		SpecialFacilitySchema,
		CallForwardingSchema,
	)
}
