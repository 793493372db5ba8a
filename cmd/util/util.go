package util

import (
	"strings"
	"time"

	"github.com/ValentinKolb/tatp/lib/common"
	"github.com/ValentinKolb/tatp/lib/ledger"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/skv/codec"
	"github.com/ValentinKolb/tatp/lib/skv/local"
	"github.com/ValentinKolb/tatp/lib/store/lstore"
	"github.com/ValentinKolb/tatp/lib/tatp/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and makes viper read TATP_* environment
// variables (e.g. TATP_WORKERS=8 for --workers)
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("tatp")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetLogConfig reads the logging flags from viper
func GetLogConfig() common.LogConfig {
	return common.LogConfig{
		Level:      viper.GetString("log-level"),
		File:       viper.GetString("log-file"),
		MaxSizeMB:  viper.GetInt("log-max-size"),
		MaxBackups: viper.GetInt("log-max-backups"),
	}
}

// GetCodec creates the record codec selected with --serializer
func GetCodec() (codec.ICodec, error) {
	return codec.New(viper.GetString("serializer"))
}

// NewLocalClient creates an in-process store client. withLedger adds the
// ledger schemas to the TATP catalog.
func NewLocalClient(withLedger bool) (skv.Client, error) {
	c, err := GetCodec()
	if err != nil {
		return nil, err
	}

	catalog, err := schema.NewCatalog()
	if err != nil {
		return nil, err
	}
	if withLedger {
		ledgerCatalog, err := ledger.NewCatalog()
		if err != nil {
			return nil, err
		}
		if catalog, err = skv.MergeCatalogs(schema.CollectionName, catalog, ledgerCatalog); err != nil {
			return nil, err
		}
	}

	return local.NewClient(catalog, lstore.NewLocalStore(), c), nil
}

// NewLedgerClient creates an in-process store client for the ledger only.
func NewLedgerClient() (skv.Client, error) {
	c, err := GetCodec()
	if err != nil {
		return nil, err
	}
	catalog, err := ledger.NewCatalog()
	if err != nil {
		return nil, err
	}
	return local.NewClient(catalog, lstore.NewLocalStore(), c), nil
}

// GetRunConfig reads the benchmark configuration from viper
func GetRunConfig() (*common.RunConfig, error) {
	mix, err := common.ParseMix(viper.GetString("mix"))
	if err != nil {
		return nil, err
	}

	return &common.RunConfig{
		Subscribers:          viper.GetInt("subscribers"),
		LoadBatchSize:        viper.GetInt("load-batch-size"),
		LoadConcurrency:      viper.GetInt("load-concurrency"),
		Workers:              viper.GetInt("workers"),
		Duration:             viper.GetDuration("duration"),
		TxnCount:             viper.GetInt("txn-count"),
		Retries:              viper.GetInt("retries"),
		Mix:                  mix,
		Rate:                 viper.GetFloat64("rate"),
		Seed:                 viper.GetUint64("seed"),
		Serializer:           viper.GetString("serializer"),
		Verify:               viper.GetBool("verify"),
		Warehouses:           viper.GetInt("warehouses"),
		CustomersPerDistrict: viper.GetInt("customers-per-district"),
		OrdersPerDistrict:    viper.GetInt("orders-per-district"),
	}, nil
}

// LoadDeadline is the overall timeout of loading data before a run.
const LoadDeadline = 10 * time.Minute
