// Package db provides database connection management for trade-ingest.
package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/livetrade/trade-ingest/internal/config"
	"github.com/livetrade/trade-ingest/internal/logging"
)

// BuildConnString builds a keyword/value connection string from config.
// A host starting with "/" is a Unix socket directory.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	params := []struct{ key, value string }{
		{"host", cfg.Host},
		{"port", strconv.Itoa(cfg.Port)},
		{"dbname", cfg.Name},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"sslmode", sslMode},
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.key+"="+quoteValue(p.value))
	}
	return strings.Join(parts, " ")
}

// quoteValue applies libpq quoting: values that are empty or contain
// whitespace, quotes or backslashes are single-quoted with \ escapes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// ConnectError reports a failed connection attempt.
type ConnectError struct {
	Target string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("could not connect to PostgreSQL at %s: %v\n"+
		"Check .env values or your Postgres server. Example .env:\n%s",
		e.Target, e.Err, config.ExampleEnv())
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ConnectSingle opens one dedicated connection. There is no retry; a
// failure is returned as *ConnectError.
func ConnectSingle(ctx context.Context, cfg config.DBConfig, purpose string) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, &ConnectError{
			Target: cfg.Target(),
			Err:    fmt.Errorf("invalid connection parameters: %w", err),
		}
	}
	if cfg.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second
	}
	connConfig.RuntimeParams["application_name"] = "trade-ingest " + purpose

	logging.Debug().
		Str("host", connConfig.Host).
		Uint16("port", connConfig.Port).
		Str("database", connConfig.Database).
		Dur("connect_timeout", connConfig.ConnectTimeout).
		Msg("Connecting to database")

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, &ConnectError{Target: cfg.Target(), Err: err}
	}

	logging.Info().
		Str("host", connConfig.Host).
		Str("database", connConfig.Database).
		Msg("Connected to database")

	return conn, nil
}
