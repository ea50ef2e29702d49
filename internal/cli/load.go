package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/livetrade/trade-ingest/internal/db"
	"github.com/livetrade/trade-ingest/internal/loader"
	"github.com/livetrade/trade-ingest/internal/logging"
)

var loadFormat string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Copy an existing trade file into the trades table",
	Long: `Copy an existing trade file into the "trades" table in one transaction.
The table must already exist. If any row fails, nothing is committed.

Formats:
  csv    - Stream the file verbatim through COPY ... (FORMAT csv) (default)
  binary - Decode each record and use the binary COPY protocol

Example:
  trade-ingest load --output sample_trades.csv
  trade-ingest load --format binary`,
	RunE: runLoad,
}

func init() {
	addLoadFlags(loadCmd)
}

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&loadFormat, "format", "",
		"copy format: csv or binary")
}

func applyLoadFlags() {
	if loadFormat != "" {
		cfg.Load.Format = loadFormat
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logging.Info().
		Str("target", cfg.DB.Target()).
		Msgf("Using database %s", cfg.DB.Target())

	_, err := loadFile(ctx, cfg.Generate.Output)
	return err
}

// loadFile copies the trade file at path into the destination table over a
// single connection.
func loadFile(ctx context.Context, path string) (loader.Result, error) {
	conn, err := db.ConnectSingle(ctx, cfg.DB, "load")
	if err != nil {
		return loader.Result{}, err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	l := loader.New(conn, loader.Config{
		Format: loader.Format(cfg.Load.Format),
	})

	logging.Info().
		Str("path", path).
		Str("format", cfg.Load.Format).
		Msg("Loading trades")

	res, err := l.LoadFile(ctx, path)
	if err != nil {
		return loader.Result{}, err
	}

	logging.Info().
		Int64("rows", res.Rows).
		Dur("elapsed", res.Elapsed).
		Msgf("Loaded %d rows in %s", res.Rows, res.Elapsed.Round(time.Millisecond))

	return res, nil
}
