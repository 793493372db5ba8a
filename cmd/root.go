package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/tatp/cmd/gen"
	"github.com/ValentinKolb/tatp/cmd/run"
	"github.com/ValentinKolb/tatp/cmd/util"
	"github.com/ValentinKolb/tatp/cmd/verify"
	"github.com/ValentinKolb/tatp/lib/common"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "tatp",
		Short: "TATP benchmark for transactional key-value stores",
		Long: fmt.Sprintf(`tatp (v%s)

Runs the TATP telecom benchmark against a schema based, transactional
key-value store and verifies the consistency of a TPC-C style ledger.`, Version),
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tatp",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tatp v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(run.RunCmd)
	RootCmd.AddCommand(gen.GenCmd)
	RootCmd.AddCommand(verify.VerifyCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer for the stored records (binary, json, gob)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("log level (debug, info, warn, error)"))
	key = "log-file"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Optional path of a log file. Log lines are written to stdout and to this file, which is rotated by size"))
	key = "log-max-size"
	RootCmd.PersistentFlags().Int(key, 100, util.WrapString("Size in MB after which the log file is rotated"))
	key = "log-max-backups"
	RootCmd.PersistentFlags().Int(key, 3, util.WrapString("Number of rotated log files to keep"))
}

// setup binds the flags of the executed command and configures the loggers
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(util.GetLogConfig())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
