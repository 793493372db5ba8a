package datagen

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/tatp/lib/ledger"
	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("ledger")

// These constants follow TPC-C, they are not knobs.
const (
	minOrderLinesPerOrder = 5
	maxOrderLinesPerOrder = 15
	numItems              = 100000
	paymentCents          = 1000 // every initial history row pays 10.00
	baseDate              = int64(1_600_000_000)
)

// --------------------------------------------------------------------------
// Config
// --------------------------------------------------------------------------

// Config is the size of the generated ledger.
type Config struct {
	Warehouses            int
	DistrictsPerWarehouse int
	CustomersPerDistrict  int
	OrdersPerDistrict     int
}

// DefaultConfig returns a small ledger with the TPC-C district count.
func DefaultConfig() Config {
	return Config{
		Warehouses:            1,
		DistrictsPerWarehouse: 10,
		CustomersPerDistrict:  30,
		OrdersPerDistrict:     30,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Warehouses < 1:
		return errors.Newf("at least one warehouse required, got %d", c.Warehouses)
	case c.DistrictsPerWarehouse < 1 || c.DistrictsPerWarehouse > 1<<15-1:
		return errors.Newf("invalid number of districts per warehouse %d", c.DistrictsPerWarehouse)
	case c.CustomersPerDistrict < 1:
		return errors.Newf("at least one customer per district required, got %d", c.CustomersPerDistrict)
	case c.OrdersPerDistrict < 1:
		return errors.Newf("at least one order per district required, got %d", c.OrdersPerDistrict)
	}
	return nil
}

// NewOrdersPerDistrict returns the number of undelivered orders per district.
func (c Config) NewOrdersPerDistrict() int {
	return (c.OrdersPerDistrict*3 + 9) / 10
}

func (c Config) String() string {
	var sb strings.Builder
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}
	addField("Warehouses", strconv.Itoa(c.Warehouses))
	addField("Districts/Warehouse", strconv.Itoa(c.DistrictsPerWarehouse))
	addField("Customers/District", strconv.Itoa(c.CustomersPerDistrict))
	addField("Orders/District", strconv.Itoa(c.OrdersPerDistrict))
	return sb.String()
}

// --------------------------------------------------------------------------
// Generator
// --------------------------------------------------------------------------

// GenerateWarehouse generates all rows of one warehouse: the warehouse,
// then per district the district, its history, orders with their order
// lines and the new orders. The result only depends on cfg and wID.
func GenerateWarehouse(cfg Config, wID int32) []skv.Row {
	log.Infof("Generating ledger warehouse=%d", wID)
	rnd := random.New(uint64(wID))

	warehouseYTD := int64(cfg.DistrictsPerWarehouse*cfg.CustomersPerDistrict) * paymentCents
	rows := []skv.Row{ledger.Warehouse{ID: wID, YTD: ledger.Amount(warehouseYTD)}}
	firstNewOrder := int32(cfg.OrdersPerDistrict-cfg.NewOrdersPerDistrict()) + 1

	for d := 1; d <= cfg.DistrictsPerWarehouse; d++ {
		dID := int16(d)
		rows = append(rows, ledger.District{
			WarehouseID: wID,
			ID:          dID,
			YTD:         ledger.Amount(int64(cfg.CustomersPerDistrict) * paymentCents),
			NextOrderID: int32(cfg.OrdersPerDistrict) + 1,
		})

		for c := 1; c <= cfg.CustomersPerDistrict; c++ {
			rows = append(rows, ledger.History{
				WarehouseID: wID,
				DistrictID:  dID,
				ID:          int32(c),
				CustomerID:  int32(c),
				Amount:      ledger.Amount(paymentCents),
				Date:        baseDate,
			})
		}

		var newOrders []skv.Row
		for o := 1; o <= cfg.OrdersPerDistrict; o++ {
			oID := int32(o)
			delivered := oID < firstNewOrder

			order := ledger.Order{
				WarehouseID: wID,
				DistrictID:  dID,
				ID:          oID,
				CustomerID:  int32(rnd.UniformInt(1, int64(cfg.CustomersPerDistrict))),
				LineCount:   int16(rnd.UniformInt(minOrderLinesPerOrder, maxOrderLinesPerOrder)),
				EntryDate:   baseDate + int64(oID),
			}
			if delivered {
				order.CarrierID = int16(rnd.UniformInt(1, 10))
			} else {
				newOrders = append(newOrders, ledger.NewOrder{WarehouseID: wID, DistrictID: dID, OrderID: oID})
			}
			rows = append(rows, order)

			for n := int16(1); n <= order.LineCount; n++ {
				line := ledger.OrderLine{
					WarehouseID: wID,
					DistrictID:  dID,
					OrderID:     oID,
					Number:      n,
					ItemID:      int32(rnd.UniformInt(1, numItems)),
					Amount:      ledger.Amount(0),
				}
				if delivered {
					line.DeliveryDate = order.EntryDate + 1
				} else {
					line.Amount = ledger.Amount(rnd.UniformInt(1, 999999))
				}
				rows = append(rows, line)
			}
		}
		rows = append(rows, newOrders...)
	}
	return rows
}

// Apply writes the rows inside txn and stops at the first failed write.
func Apply(ctx context.Context, txn skv.Txn, rows []skv.Row) error {
	for i, row := range rows {
		if err := skv.WriteRow(ctx, txn, row, false); err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
	}
	return nil
}

// Load generates and writes the whole ledger, one transaction per warehouse.
func Load(ctx context.Context, client skv.Client, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for w := 1; w <= cfg.Warehouses; w++ {
		if err := LoadWarehouse(ctx, client, cfg, int32(w)); err != nil {
			return err
		}
	}
	return nil
}

// LoadWarehouse generates and writes one warehouse in a single transaction.
func LoadWarehouse(ctx context.Context, client skv.Client, cfg Config, wID int32) error {
	rows := GenerateWarehouse(cfg, wID)

	// a warehouse is written as one big transaction, give it time
	txn, err := client.BeginTxn(ctx, skv.TxnOptions{Deadline: 10 * skv.DefaultDeadline})
	if err != nil {
		return errors.Wrapf(err, "begin load of warehouse %d", wID)
	}
	if err := Apply(ctx, txn, rows); err != nil {
		txn.End(ctx, false)
		return errors.Wrapf(err, "load warehouse %d", wID)
	}
	if res := txn.End(ctx, true); !res.Status.Is2xxOK() {
		return errors.Newf("commit warehouse %d: %s", wID, res.Status)
	}
	log.Infof("Loaded ledger warehouse=%d (%d rows)", wID, len(rows))
	return nil
}
