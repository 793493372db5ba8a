package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/tatp/cmd/util"
	"github.com/ValentinKolb/tatp/lib/bench"
	"github.com/ValentinKolb/tatp/lib/common"
	"github.com/ValentinKolb/tatp/lib/ledger"
	ledgerverify "github.com/ValentinKolb/tatp/lib/ledger/verify"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	VerifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Load a generated ledger and check its consistency",
		Long: `Load a generated TPC-C style ledger into an in-process store and run the consistency conditions against it.

With --corrupt-ytd the year to date amount of a warehouse is changed after loading, which makes the first condition fail.`,
		RunE: runVerify,
	}
)

func init() {
	key := "warehouses"
	VerifyCmd.Flags().Int(key, 1, util.WrapString("Number of warehouses"))
	key = "customers-per-district"
	VerifyCmd.Flags().Int(key, 30, util.WrapString("Customers per district"))
	key = "orders-per-district"
	VerifyCmd.Flags().Int(key, 30, util.WrapString("Orders per district"))
	key = "load-concurrency"
	VerifyCmd.Flags().Int(key, 4, util.WrapString("Number of warehouses loaded in parallel"))
	key = "retries"
	VerifyCmd.Flags().Int(key, 5, util.WrapString("Attempts per load transaction"))
	key = "corrupt-ytd"
	VerifyCmd.Flags().String(key, "", util.WrapString("Amount added to the ytd of warehouse --corrupt-warehouse after loading (e.g. 1.00)"))
	key = "corrupt-warehouse"
	VerifyCmd.Flags().Int32(key, 1, util.WrapString("Warehouse changed by --corrupt-ytd"))
	key = "checks"
	VerifyCmd.Flags().String(key, "", util.WrapString(fmt.Sprintf("Comma separated names of the conditions to check, empty for all (%s)", checkNames())))
}

func checkNames() string {
	var names []string
	for _, c := range ledgerverify.Checks() {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// selectChecks returns the checks named in s in their defined order.
func selectChecks(s string) ([]ledgerverify.Check, error) {
	all := ledgerverify.Checks()
	if strings.TrimSpace(s) == "" {
		return all, nil
	}

	known := make(map[string]bool, len(all))
	for _, c := range all {
		known[c.Name] = true
	}

	wanted := make(map[string]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, errors.Newf("unknown check %q", name)
		}
		wanted[name] = true
	}

	var checks []ledgerverify.Check
	for _, c := range all {
		if wanted[c.Name] {
			checks = append(checks, c)
		}
	}
	return checks, nil
}

func runVerify(_ *cobra.Command, _ []string) error {
	cfg := &common.RunConfig{
		LoadConcurrency:      viper.GetInt("load-concurrency"),
		Retries:              viper.GetInt("retries"),
		Serializer:           viper.GetString("serializer"),
		Verify:               true,
		Warehouses:           viper.GetInt("warehouses"),
		CustomersPerDistrict: viper.GetInt("customers-per-district"),
		OrdersPerDistrict:    viper.GetInt("orders-per-district"),
	}
	checks, err := selectChecks(viper.GetString("checks"))
	if err != nil {
		return err
	}

	client, err := util.NewLedgerClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	lcfg := bench.LedgerConfig(cfg)
	fmt.Println("loading ledger...")
	fmt.Print(lcfg.String())
	if err := bench.LoadLedger(ctx, client, lcfg, cfg); err != nil {
		return err
	}

	if amount := viper.GetString("corrupt-ytd"); amount != "" {
		if err := corruptYTD(ctx, client, viper.GetInt32("corrupt-warehouse"), amount); err != nil {
			return err
		}
	}

	fmt.Printf("checking %d conditions...\n", len(checks))
	if err := ledgerverify.New(client).RunChecks(ctx, checks...); err != nil {
		return err
	}
	fmt.Println("ledger is consistent")
	return nil
}

// corruptYTD adds amount to the ytd of a warehouse without a matching
// district change.
func corruptYTD(ctx context.Context, client skv.Client, wID int32, amount string) error {
	delta, _, err := apd.NewFromString(amount)
	if err != nil {
		return errors.Wrapf(err, "invalid amount %q", amount)
	}

	txn, err := client.BeginTxn(ctx, skv.TxnOptions{})
	if err != nil {
		return err
	}
	if err := ledger.AddWarehouseYTD(ctx, txn, wID, delta); err != nil {
		txn.End(ctx, false)
		return err
	}
	if res := txn.End(ctx, true); !res.Status.Is2xxOK() {
		return errors.Newf("commit ytd change: %s", res.Status)
	}
	fmt.Printf("added %s to the ytd of warehouse %d\n", delta, wID)
	return nil
}
