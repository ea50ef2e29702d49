//-------------------------------------------------------------------------
//
// Trade Ingest
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for trade-ingest.
package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/livetrade/trade-ingest/internal/config"
	"github.com/livetrade/trade-ingest/internal/logging"
	"github.com/livetrade/trade-ingest/pkg/version"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
	output   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "trade-ingest",
		Short: "Generate synthetic trades and bulk load them into PostgreSQL",
		Long: `trade-ingest writes a file of synthetic trade records and copies it
into the "trades" table of a PostgreSQL database in a single transaction.

Connection settings are read from DB_NAME, DB_USER, DB_PASS, DB_HOST and
DB_PORT, and the row count from INGEST_ROWS. A .env file in the working
directory is read first; variables already set in the environment win.

Running without a subcommand is the same as 'trade-ingest ingest'.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE:          runIngest,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./trade-ingest.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "",
		"path of the intermediate trade file (default: sample_trades.csv)")

	addGenerateFlags(rootCmd)
	addLoadFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(loadCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if output != "" {
		cfg.Generate.Output = output
	}
	applyGenerateFlags()
	applyLoadFlags()

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logging.WithRun(uuid.NewString())

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config loading so version works without a usable environment.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
