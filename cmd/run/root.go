package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ValentinKolb/tatp/cmd/util"
	"github.com/ValentinKolb/tatp/lib/bench"
	"github.com/ValentinKolb/tatp/lib/common"
	"github.com/ValentinKolb/tatp/lib/ledger/verify"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	RunCmd = &cobra.Command{
		Use:   "run",
		Short: "Load the subscriber data and run the TATP transaction mix",
		Long: `Load the subscriber data into an in-process store and run the TATP transaction mix for a duration or a fixed number of transactions.

The configuration can be set via command line flags or environment variables. The format of the environment variables is TATP_<flag> (e.g. TATP_TXN_COUNT=1000)`,
		RunE: runBenchmark,
	}
)

func init() {
	defaults := common.RunConfig{Mix: common.DefaultMix()}

	key := "subscribers"
	RunCmd.Flags().Int(key, 10000, util.WrapString("Number of subscribers to load (ids 1..n)"))
	key = "load-batch-size"
	RunCmd.Flags().Int(key, 100, util.WrapString("Subscribers written per load transaction"))
	key = "load-concurrency"
	RunCmd.Flags().Int(key, 4, util.WrapString("Number of load transactions running in parallel"))
	key = "workers"
	RunCmd.Flags().Int(key, 8, util.WrapString("Number of workers running transactions in parallel"))
	key = "duration"
	RunCmd.Flags().Duration(key, 0, util.WrapString("How long to run the mix (e.g. 30s). 0 means until --txn-count transactions are done"))
	key = "txn-count"
	RunCmd.Flags().Int(key, 10000, util.WrapString("Number of transactions to run. 0 means until --duration is over"))
	key = "retries"
	RunCmd.Flags().Int(key, 5, util.WrapString("Attempts per transaction before it counts as failed"))
	key = "mix"
	RunCmd.Flags().String(key, defaults.MixString(), util.WrapString("Transaction mix as comma separated name=weight pairs"))
	key = "rate"
	RunCmd.Flags().Float64(key, 0, util.WrapString("Maximum transactions per second over all workers, 0 is unlimited"))
	key = "seed"
	RunCmd.Flags().Uint64(key, 0, util.WrapString("Seed offset of the per worker random generators"))
	key = "csv"
	RunCmd.Flags().String(key, "", util.WrapString("Optional path to save the results as CSV"))
	key = "prometheus"
	RunCmd.Flags().String(key, "", util.WrapString("Optional path to dump the metrics in the Prometheus text format ('-' for stdout)"))

	key = "verify"
	RunCmd.Flags().Bool(key, false, util.WrapString("Load a generated ledger after the run and verify its consistency"))
	key = "warehouses"
	RunCmd.Flags().Int(key, 1, util.WrapString("Number of ledger warehouses (with --verify)"))
	key = "customers-per-district"
	RunCmd.Flags().Int(key, 30, util.WrapString("Ledger customers per district (with --verify)"))
	key = "orders-per-district"
	RunCmd.Flags().Int(key, 30, util.WrapString("Ledger orders per district (with --verify)"))
}

func runBenchmark(_ *cobra.Command, _ []string) error {
	cfg, err := util.GetRunConfig()
	if err != nil {
		return err
	}

	fmt.Println("TATP benchmark")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(cfg.String())

	client, err := util.NewLocalClient(cfg.Verify)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	metrics := bench.NewMetrics()

	fmt.Println("loading subscribers...")
	loadCtx, cancel := context.WithTimeout(ctx, util.LoadDeadline)
	err = bench.LoadSubscribers(loadCtx, client, cfg, metrics)
	cancel()
	if err != nil {
		return err
	}

	runner, err := bench.NewRunner(client, cfg, metrics)
	if err != nil {
		return err
	}

	fmt.Println("running transactions...")
	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	report.Print(os.Stdout)

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := report.WriteCSV(csvPath, cfg); err != nil {
			return errors.Wrap(err, "failed to export results to CSV")
		}
		fmt.Println("Export complete")
	}

	if promPath := viper.GetString("prometheus"); promPath != "" {
		if err := writePrometheus(promPath, metrics); err != nil {
			return err
		}
	}

	if cfg.Verify {
		return verifyLedger(ctx, client, cfg)
	}
	return nil
}

func writePrometheus(path string, metrics *bench.Metrics) error {
	if path == "-" {
		fmt.Println()
		metrics.WritePrometheus(os.Stdout)
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create metrics file")
	}
	defer f.Close()
	metrics.WritePrometheus(f)
	fmt.Printf("\nMetrics written to %s\n", path)
	return nil
}

func verifyLedger(ctx context.Context, client skv.Client, cfg *common.RunConfig) error {
	lcfg := bench.LedgerConfig(cfg)

	fmt.Println("\nloading ledger...")
	fmt.Print(lcfg.String())
	if err := bench.LoadLedger(ctx, client, lcfg, cfg); err != nil {
		return err
	}

	fmt.Println("verifying ledger...")
	if err := verify.New(client).Run(ctx); err != nil {
		return err
	}
	fmt.Println("ledger is consistent")
	return nil
}
