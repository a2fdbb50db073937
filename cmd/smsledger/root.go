package main

import (
	"os"

	"github.com/spf13/cobra"

	"smsledger/internal/app"
	"smsledger/internal/config"
	"smsledger/internal/logger"
	"smsledger/internal/version"
)

var (
	dbPath  string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "smsledger",
	Short:         "Personal ledger built from bank SMS and payment-app notifications",
	Long:          `smsledger parses bank SMS backups into a local ledger, categorizes spending, removes duplicate records and tracks budgets.`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.SetDefault(logger.New(os.Stderr, level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Ledger database path (default from SMSLEDGER_DB_PATH or ./data/smsledger.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(importCmd, sweepCmd, parseCmd, reviewCmd, categorizeCmd, budgetsCmd, exportCmd)
}

// openApp opens the ledger configured by the persistent flags
func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.Open(cmd.Context(), cfg)
}
