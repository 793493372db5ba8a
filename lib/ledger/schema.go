package ledger

import (
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/apd/v3"
)

// CollectionName is the collection all ledger tables belong to.
const CollectionName = "LEDGER"

// decimalCtx is used for all sums of amounts. Amounts have two decimal
// places, 34 digits are enough for any realistic ledger.
var decimalCtx = apd.BaseContext.WithPrecision(34)

// --------------------------------------------------------------------------
// Schemas
// --------------------------------------------------------------------------

var (
	WarehouseSchema = &skv.Schema{
		Name:    "warehouse",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "w_id"},
			{Type: skv.FieldDecimal, Name: "w_ytd"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{},
	}

	DistrictSchema = &skv.Schema{
		Name:    "district",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "d_w_id"},
			{Type: skv.FieldInt16, Name: "d_id"},
			{Type: skv.FieldDecimal, Name: "d_ytd"},
			{Type: skv.FieldInt32, Name: "d_next_o_id"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1},
	}

	OrderSchema = &skv.Schema{
		Name:    "order",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "o_w_id"},
			{Type: skv.FieldInt16, Name: "o_d_id"},
			{Type: skv.FieldInt32, Name: "o_id"},
			{Type: skv.FieldInt32, Name: "o_c_id"},
			{Type: skv.FieldInt16, Name: "o_carrier_id"}, // 0 = not delivered
			{Type: skv.FieldInt16, Name: "o_ol_cnt"},
			{Type: skv.FieldInt64, Name: "o_entry_d"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1, 2},
	}

	NewOrderSchema = &skv.Schema{
		Name:    "new_order",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "no_w_id"},
			{Type: skv.FieldInt16, Name: "no_d_id"},
			{Type: skv.FieldInt32, Name: "no_o_id"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1, 2},
	}

	OrderLineSchema = &skv.Schema{
		Name:    "order_line",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "ol_w_id"},
			{Type: skv.FieldInt16, Name: "ol_d_id"},
			{Type: skv.FieldInt32, Name: "ol_o_id"},
			{Type: skv.FieldInt16, Name: "ol_number"},
			{Type: skv.FieldInt32, Name: "ol_i_id"},
			{Type: skv.FieldInt64, Name: "ol_delivery_d"}, // 0 = not delivered
			{Type: skv.FieldDecimal, Name: "ol_amount"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1, 2, 3},
	}

	HistorySchema = &skv.Schema{
		Name:    "history",
		Version: 1,
		Fields: []skv.SchemaField{
			{Type: skv.FieldInt32, Name: "h_w_id"},
			{Type: skv.FieldInt16, Name: "h_d_id"},
			{Type: skv.FieldInt32, Name: "h_id"},
			{Type: skv.FieldInt32, Name: "h_c_id"},
			{Type: skv.FieldDecimal, Name: "h_amount"},
			{Type: skv.FieldInt64, Name: "h_date"},
		},
		PartitionKeyFields: []int{0},
		RangeKeyFields:     []int{1, 2},
	}
)

// Field indexes used for partial updates.
const (
	WarehouseYTDField      = 1
	DistrictYTDField       = 2
	DistrictNextOrderField = 3
	OrderCarrierField      = 4
	OrderLineCountField    = 5 // o_ol_cnt
	OrderLineDeliveryField = 5 // ol_delivery_d
	HistoryAmountField     = 4
)

// NewCatalog creates the catalog of the ledger collection.
func NewCatalog() (*skv.Catalog, error) {
	return skv.NewCatalog(CollectionName,
		WarehouseSchema,
		DistrictSchema,
		OrderSchema,
		NewOrderSchema,
		OrderLineSchema,
		HistorySchema,
	)
}

// --------------------------------------------------------------------------
// Decimals
// --------------------------------------------------------------------------

// Amount returns cents/100 as decimal.
func Amount(cents int64) *apd.Decimal {
	return apd.New(cents, -2)
}

// Sum adds all amounts exactly.
func Sum(amounts ...*apd.Decimal) (*apd.Decimal, error) {
	sum := apd.New(0, -2)
	for _, a := range amounts {
		if a == nil {
			continue
		}
		if _, err := decimalCtx.Add(sum, sum, a); err != nil {
			return nil, err
		}
	}
	return sum, nil
}
