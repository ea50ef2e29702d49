package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/livetrade/trade-ingest/internal/logging"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Generate trades and load them into the trades table",
	Long: `Generate synthetic trades into the intermediate file, then copy the
file into the "trades" table in one transaction. The file is kept
afterwards. This is the default when no subcommand is given.

Example:
  DB_NAME=livetrade INGEST_ROWS=50000 trade-ingest ingest
  trade-ingest ingest --rows 1000 --format binary`,
	RunE: runIngest,
}

func init() {
	addGenerateFlags(ingestCmd)
	addLoadFlags(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateIngest(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logging.Info().
		Str("target", cfg.DB.Target()).
		Msgf("Using database %s", cfg.DB.Target())

	gen, err := generateFile(ctx)
	if err != nil {
		return err
	}

	res, err := loadFile(ctx, cfg.Generate.Output)
	if err != nil {
		if ctx.Err() != nil && cmd.Context().Err() == nil {
			logging.Warn().Msg("Interrupted; load rolled back")
		}
		return err
	}

	logging.Info().
		Int64("rows", res.Rows).
		Dur("generate", gen.Elapsed).
		Dur("load", res.Elapsed).
		Msg("Ingest complete")

	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, which
// aborts an in-flight copy and rolls it back.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
