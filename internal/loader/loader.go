//-------------------------------------------------------------------------
//
// Trade Ingest
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader bulk-loads a trade file into PostgreSQL in a single
// transaction.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/livetrade/trade-ingest/internal/logging"
	"github.com/livetrade/trade-ingest/internal/trade"
)

// Format selects the copy protocol.
type Format string

const (
	// FormatCSV streams the file verbatim through COPY ... WITH (FORMAT csv).
	// The server converts text to column types.
	FormatCSV Format = "csv"

	// FormatBinary decodes each record and sends typed values with the
	// binary copy protocol.
	FormatBinary Format = "binary"
)

// Conn is the part of *pgx.Conn the loader needs.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Config configures a Loader.
type Config struct {
	// Table is the destination table (default: trades).
	Table string

	// Columns are the destination columns in file field order.
	Columns []string

	// Format selects the copy protocol (default: csv).
	Format Format
}

// Result summarizes a load.
type Result struct {
	Rows    int64
	Elapsed time.Duration
}

// copyTextFunc streams r through a COPY FROM STDIN statement on tx's
// connection and returns the number of rows copied.
type copyTextFunc func(ctx context.Context, tx pgx.Tx, r io.Reader, sql string) (int64, error)

// Loader copies trade files into the destination table.
type Loader struct {
	conn     Conn
	cfg      Config
	copyText copyTextFunc
}

// New creates a Loader using conn.
func New(conn Conn, cfg Config) *Loader {
	if cfg.Table == "" {
		cfg.Table = trade.TableName
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = trade.Columns
	}
	if cfg.Format == "" {
		cfg.Format = FormatCSV
	}
	return &Loader{
		conn:     conn,
		cfg:      cfg,
		copyText: pgconnCopyText,
	}
}

// LoadFile copies the trade file at path. The file is left in place.
func (l *Loader) LoadFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return l.Load(ctx, f)
}

// Load copies every trade in r inside one transaction. The transaction is
// committed if the whole copy succeeds and rolled back otherwise.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Result, error) {
	started := time.Now()

	tx, err := l.conn.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Roll back even if ctx was cancelled mid-copy.
		rbErr := tx.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logging.Error().Err(rbErr).Msg("Rollback failed")
			return
		}
		logging.Warn().
			Str("table", l.cfg.Table).
			Msg("Transaction rolled back")
	}()

	var rows int64
	switch l.cfg.Format {
	case FormatCSV:
		rows, err = l.copyCSV(ctx, tx, r)
	case FormatBinary:
		rows, err = l.copyBinary(ctx, tx, r)
	default:
		err = fmt.Errorf("unknown copy format %q", l.cfg.Format)
	}
	if err != nil {
		return Result{}, fmt.Errorf("copy into %s failed: %w", l.cfg.Table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	res := Result{Rows: rows, Elapsed: time.Since(started)}
	logging.Debug().
		Str("table", l.cfg.Table).
		Str("format", string(l.cfg.Format)).
		Int64("rows", res.Rows).
		Dur("elapsed", res.Elapsed).
		Msg("Copy committed")

	return res, nil
}

func (l *Loader) copyCSV(ctx context.Context, tx pgx.Tx, r io.Reader) (int64, error) {
	vr := trade.NewValidatingReader(r)

	rows, err := l.copyText(ctx, tx, vr, l.copySQL())
	if err != nil {
		return 0, readerFailure(err, vr.Err())
	}
	if verr := vr.Err(); verr != nil {
		return 0, verr
	}
	if rows != vr.Rows() {
		return 0, fmt.Errorf("server copied %d rows but file has %d", rows, vr.Rows())
	}
	return rows, nil
}

func (l *Loader) copyBinary(ctx context.Context, tx pgx.Tx, r io.Reader) (int64, error) {
	src := newTradeSource(trade.NewReader(r))

	rows, err := tx.CopyFrom(ctx, pgx.Identifier{l.cfg.Table}, l.cfg.Columns, src)
	if err != nil {
		return 0, readerFailure(err, src.Err())
	}
	return rows, nil
}

// sqlStateQueryCanceled is what the server reports after a CopyFail.
const sqlStateQueryCanceled = "57014"

// readerFailure picks the error to report for a failed copy. When the
// input reader failed, pgconn sends its message in a CopyFail and the
// server echoes it back; readErr is returned in that case so callers keep
// the typed error. Any other server or connection error wins.
func readerFailure(err, readErr error) error {
	if readErr == nil {
		return err
	}
	if errors.Is(err, readErr) {
		return readErr
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgErr.Code == sqlStateQueryCanceled &&
		strings.Contains(pgErr.Message, readErr.Error()) {
		return readErr
	}
	return err
}

// copySQL returns the COPY statement for the configured table and columns.
func (l *Loader) copySQL() string {
	cols := make([]string, len(l.cfg.Columns))
	for i, c := range l.cfg.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv)",
		pgx.Identifier{l.cfg.Table}.Sanitize(), strings.Join(cols, ", "))
}

func pgconnCopyText(ctx context.Context, tx pgx.Tx, r io.Reader, sql string) (int64, error) {
	tag, err := tx.Conn().PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
