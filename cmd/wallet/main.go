// Command wallet is the personal expense tracker: a web dashboard (serve)
// and terminal commands over the same ledger.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wallet/internal/backend"
	"wallet/internal/cli"
	"wallet/internal/config"
	"wallet/internal/ledger"
	"wallet/internal/log"
)

var (
	flagConfig   string
	flagBackend  string
	flagDataFile string
	flagDBPath   string
	flagLogLevel string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Personal expense tracker",
	Long:          "Track expenses against a monthly budget from the browser or the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()

		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger, err = cli.SetupLogger(cfg.LogLevel)
		return err
	},
	RunE: runSummary,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: "+fmt.Sprint(backend.GetBackendTypeStrings()))
	rootCmd.PersistentFlags().StringVar(&flagDataFile, "data-file", "", "JSON data file for the file backend")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path for the sqlite backend")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// applyFlags lets explicit flags win over file and environment.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		c.DataBackend = flagBackend
	}
	if flags.Changed("data-file") {
		c.DataFile = flagDataFile
	}
	if flags.Changed("db") {
		c.SQLiteDBPath = flagDBPath
	}
	if flags.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
}

// withLedger opens the configured ledger for the duration of fn.
func withLedger(ctx context.Context, fn func(m *ledger.Manager) error) error {
	m, res, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()
	return fn(m)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
