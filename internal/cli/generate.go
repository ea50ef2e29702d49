package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/livetrade/trade-ingest/internal/datagen"
	"github.com/livetrade/trade-ingest/internal/logging"
)

var (
	genRows             int64
	genTimestampMode    string
	genSeed             uint64
	genProgressInterval int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic trades to the intermediate file",
	Long: `Write synthetic trade records to the intermediate file without touching
the database. An existing file at the same path is replaced.

Example:
  trade-ingest generate --rows 100000 --output /tmp/trades.csv
  trade-ingest generate --seed 42 --timestamp-mode monotonic`,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&genRows, "rows", -1,
		"number of trades to generate (default: INGEST_ROWS or 20000)")
	cmd.Flags().StringVar(&genTimestampMode, "timestamp-mode", "",
		"timestamp mode: wrap (repeat within one day) or monotonic")
	cmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed for reproducible output (0 = random)")
	cmd.Flags().Int64Var(&genProgressInterval, "progress-interval", -1,
		"log progress every N rows (0 disables)")
}

func applyGenerateFlags() {
	if genRows >= 0 {
		cfg.Generate.Rows = genRows
	}
	if genTimestampMode != "" {
		cfg.Generate.TimestampMode = genTimestampMode
	}
	if genSeed > 0 {
		cfg.Generate.Seed = genSeed
	}
	if genProgressInterval >= 0 {
		cfg.Generate.ProgressInterval = genProgressInterval
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	_, err := generateFile(ctx)
	return err
}

// generateFile writes cfg.Generate.Rows trades to cfg.Generate.Output.
func generateFile(ctx context.Context) (datagen.Result, error) {
	faker := datagen.NewFaker()
	if cfg.Generate.Seed != 0 {
		faker = datagen.NewFakerWithSeed(cfg.Generate.Seed)
	}

	gen := datagen.NewGenerator(faker, datagen.GeneratorConfig{
		Rows:             cfg.Generate.Rows,
		TimestampMode:    datagen.TimestampMode(cfg.Generate.TimestampMode),
		ProgressInterval: cfg.Generate.ProgressInterval,
	})

	logging.Info().
		Int64("rows", cfg.Generate.Rows).
		Str("path", cfg.Generate.Output).
		Msg("Generating trades")

	res, err := gen.GenerateFile(ctx, cfg.Generate.Output)
	if err != nil {
		return datagen.Result{}, err
	}

	logging.Info().
		Int64("rows", res.Rows).
		Str("size", datagen.FormatSize(res.Bytes)).
		Dur("elapsed", res.Elapsed).
		Msgf("Generated %d rows in %s", res.Rows, res.Elapsed.Round(time.Millisecond))

	return res, nil
}
