//-------------------------------------------------------------------------
//
// Trade Ingest
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for trade-ingest.
// Configuration is read from an optional config file, a .env file, the
// environment and CLI flags. CLI flags take precedence over environment
// variables, which take precedence over config file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DotEnvFile is the optional file of environment variables loaded at startup.
const DotEnvFile = ".env"

// Config holds all configuration for trade-ingest.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// DB holds the connection parameters for the destination database.
	DB DBConfig `mapstructure:"db"`

	// Generate holds configuration for the record generator.
	Generate GenerateConfig `mapstructure:"generate"`

	// Load holds configuration for the bulk loader.
	Load LoadConfig `mapstructure:"load"`
}

// DBConfig holds database connection parameters.
type DBConfig struct {
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`

	// SSLMode is passed through to libpq-style sslmode (default: prefer).
	SSLMode string `mapstructure:"sslmode"`

	// ConnectTimeout bounds the initial connection attempt, in seconds.
	// Zero means no timeout.
	ConnectTimeout int `mapstructure:"connect_timeout"`
}

// GenerateConfig holds configuration for trade generation.
type GenerateConfig struct {
	// Rows is the number of trades to generate.
	Rows int64 `mapstructure:"rows"`

	// Output is the path of the intermediate file.
	Output string `mapstructure:"output"`

	// TimestampMode is "wrap" (offset = row mod 86400 seconds) or
	// "monotonic" (offset = row seconds).
	TimestampMode string `mapstructure:"timestamp_mode"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`

	// ProgressInterval is how often to log progress, in rows.
	ProgressInterval int64 `mapstructure:"progress_interval"`
}

// LoadConfig holds configuration for the bulk loader.
type LoadConfig struct {
	// Format is "csv" (stream the file verbatim through COPY ... FORMAT csv)
	// or "binary" (decode records and use the binary copy protocol).
	Format string `mapstructure:"format"`
}

// Environment variables recognized for the core settings.
var envBindings = map[string]string{
	"db.name":       "DB_NAME",
	"db.user":       "DB_USER",
	"db.password":   "DB_PASS",
	"db.host":       "DB_HOST",
	"db.port":       "DB_PORT",
	"generate.rows": "INGEST_ROWS",
}

// EnvPrefix prefixes environment overrides for every other key, e.g.
// TRADE_INGEST_LOAD_FORMAT.
const EnvPrefix = "TRADE_INGEST"

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		DB: DBConfig{
			Name:           "livetrade",
			User:           "postgres",
			Password:       "postgres",
			Host:           "localhost",
			Port:           5432,
			SSLMode:        "prefer",
			ConnectTimeout: 10,
		},
		Generate: GenerateConfig{
			Rows:             20000,
			Output:           "sample_trades.csv",
			TimestampMode:    "wrap",
			ProgressInterval: 100000,
		},
		Load: LoadConfig{
			Format: "csv",
		},
	}
}

// Load reads configuration from the environment and config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./trade-ingest.yaml
// 3. ~/.config/trade-ingest/config.yaml
func Load(configFile string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and type
	v.SetConfigName("trade-ingest")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "trade-ingest"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	setDefaults(v, DefaultConfig())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads path into the environment if it exists. Variables that
// are already set are left alone.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key with viper so that environment
// overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("db.name", d.DB.Name)
	v.SetDefault("db.user", d.DB.User)
	v.SetDefault("db.password", d.DB.Password)
	v.SetDefault("db.host", d.DB.Host)
	v.SetDefault("db.port", d.DB.Port)
	v.SetDefault("db.sslmode", d.DB.SSLMode)
	v.SetDefault("db.connect_timeout", d.DB.ConnectTimeout)

	v.SetDefault("generate.rows", d.Generate.Rows)
	v.SetDefault("generate.output", d.Generate.Output)
	v.SetDefault("generate.timestamp_mode", d.Generate.TimestampMode)
	v.SetDefault("generate.seed", d.Generate.Seed)
	v.SetDefault("generate.progress_interval", d.Generate.ProgressInterval)

	v.SetDefault("load.format", d.Load.Format)
}

// Target returns user@host:port/name for display. The password is omitted.
func (d DBConfig) Target() string {
	return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Name)
}

// ExampleEnv returns a sample .env file using the default settings.
func ExampleEnv() string {
	d := DefaultConfig().DB
	return fmt.Sprintf("DB_NAME=%s\nDB_USER=%s\nDB_PASS=%s\nDB_HOST=%s\nDB_PORT=%d",
		d.Name, d.User, d.Password, d.Host, d.Port)
}

// ValidateDB checks the database connection parameters.
func (c *Config) ValidateDB() error {
	if c.DB.Name == "" {
		return fmt.Errorf("database name is required (DB_NAME)")
	}
	if c.DB.User == "" {
		return fmt.Errorf("database user is required (DB_USER)")
	}
	if c.DB.Host == "" {
		return fmt.Errorf("database host is required (DB_HOST)")
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535 (DB_PORT)")
	}
	if c.DB.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout must be non-negative")
	}
	return nil
}

// ValidateGenerate checks configuration required for generation.
func (c *Config) ValidateGenerate() error {
	if c.Generate.Rows < 0 {
		return fmt.Errorf("rows must be non-negative (INGEST_ROWS)")
	}
	if c.Generate.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Generate.TimestampMode != "wrap" && c.Generate.TimestampMode != "monotonic" {
		return fmt.Errorf("timestamp_mode must be 'wrap' or 'monotonic'")
	}
	if c.Generate.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must be non-negative")
	}
	return nil
}

// ValidateLoad checks configuration required for loading.
func (c *Config) ValidateLoad() error {
	if err := c.ValidateDB(); err != nil {
		return err
	}
	if c.Generate.Output == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Load.Format != "csv" && c.Load.Format != "binary" {
		return fmt.Errorf("load format must be 'csv' or 'binary'")
	}
	return nil
}

// ValidateIngest checks configuration required for generate-then-load.
func (c *Config) ValidateIngest() error {
	if err := c.ValidateGenerate(); err != nil {
		return err
	}
	return c.ValidateLoad()
}
