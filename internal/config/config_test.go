package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads. Viper treats empty values
// as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
	for _, key := range []string{
		"LOG_LEVEL", "DB_SSLMODE", "DB_CONNECT_TIMEOUT", "GENERATE_OUTPUT",
		"GENERATE_TIMESTAMP_MODE", "GENERATE_SEED", "GENERATE_PROGRESS_INTERVAL",
		"LOAD_FORMAT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT",
		"GENERATE_ROWS",
	} {
		t.Setenv(EnvPrefix+"_"+key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	// DB defaults
	if cfg.DB.Name != "livetrade" {
		t.Errorf("Expected DB.Name 'livetrade', got '%s'", cfg.DB.Name)
	}
	if cfg.DB.User != "postgres" {
		t.Errorf("Expected DB.User 'postgres', got '%s'", cfg.DB.User)
	}
	if cfg.DB.Password != "postgres" {
		t.Errorf("Expected DB.Password 'postgres', got '%s'", cfg.DB.Password)
	}
	if cfg.DB.Host != "localhost" {
		t.Errorf("Expected DB.Host 'localhost', got '%s'", cfg.DB.Host)
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("Expected DB.Port 5432, got %d", cfg.DB.Port)
	}

	// Generate defaults
	if cfg.Generate.Rows != 20000 {
		t.Errorf("Expected Generate.Rows 20000, got %d", cfg.Generate.Rows)
	}
	if cfg.Generate.Output != "sample_trades.csv" {
		t.Errorf("Expected Generate.Output 'sample_trades.csv', got '%s'", cfg.Generate.Output)
	}
	if cfg.Generate.TimestampMode != "wrap" {
		t.Errorf("Expected Generate.TimestampMode 'wrap', got '%s'", cfg.Generate.TimestampMode)
	}

	// Load defaults
	if cfg.Load.Format != "csv" {
		t.Errorf("Expected Load.Format 'csv', got '%s'", cfg.Load.Format)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("DB_NAME", "ticks")
	t.Setenv("DB_USER", "loader")
	t.Setenv("DB_PASS", "s3cret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("INGEST_ROWS", "100")
	t.Setenv("TRADE_INGEST_LOAD_FORMAT", "binary")
	t.Setenv("TRADE_INGEST_GENERATE_TIMESTAMP_MODE", "monotonic")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DB.Name != "ticks" || cfg.DB.User != "loader" || cfg.DB.Password != "s3cret" {
		t.Errorf("Unexpected DB credentials: %+v", cfg.DB)
	}
	if cfg.DB.Host != "db.internal" || cfg.DB.Port != 6543 {
		t.Errorf("Unexpected DB address: %s:%d", cfg.DB.Host, cfg.DB.Port)
	}
	if cfg.Generate.Rows != 100 {
		t.Errorf("Expected 100 rows, got %d", cfg.Generate.Rows)
	}
	if cfg.Load.Format != "binary" {
		t.Errorf("Expected binary format, got %s", cfg.Load.Format)
	}
	if cfg.Generate.TimestampMode != "monotonic" {
		t.Errorf("Expected monotonic timestamps, got %s", cfg.Generate.TimestampMode)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	configPath := filepath.Join(dir, "custom.yaml")
	content := `
log_level: debug
db:
  host: filehost
  port: 5433
  sslmode: disable
generate:
  rows: 42
  output: out/trades.csv
  seed: 99
load:
  format: binary
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Environment takes precedence over the file.
	t.Setenv("DB_HOST", "envhost")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.DB.Host != "envhost" {
		t.Errorf("Expected DB.Host 'envhost', got '%s'", cfg.DB.Host)
	}
	if cfg.DB.Port != 5433 {
		t.Errorf("Expected DB.Port 5433, got %d", cfg.DB.Port)
	}
	if cfg.DB.SSLMode != "disable" {
		t.Errorf("Expected DB.SSLMode 'disable', got '%s'", cfg.DB.SSLMode)
	}
	if cfg.DB.Name != "livetrade" {
		t.Errorf("Expected default DB.Name, got '%s'", cfg.DB.Name)
	}
	if cfg.Generate.Rows != 42 || cfg.Generate.Seed != 99 {
		t.Errorf("Unexpected generate config: %+v", cfg.Generate)
	}
	if cfg.Generate.Output != "out/trades.csv" {
		t.Errorf("Expected Generate.Output 'out/trades.csv', got '%s'", cfg.Generate.Output)
	}
	if cfg.Load.Format != "binary" {
		t.Errorf("Expected Load.Format 'binary', got '%s'", cfg.Load.Format)
	}
}

func TestLoadInvalidConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	configPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("db: [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid config file, got nil")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	// Values already in the environment win over .env.
	t.Setenv("DB_USER", "from-env")
	os.Unsetenv("DB_NAME")
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	dotenv := "DB_NAME=from_dotenv\nDB_USER=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DB.Name != "from_dotenv" {
		t.Errorf("Expected DB.Name from .env, got '%s'", cfg.DB.Name)
	}
	if cfg.DB.User != "from-env" {
		t.Errorf("Expected DB.User from environment, got '%s'", cfg.DB.User)
	}
}

func TestDBTarget(t *testing.T) {
	d := DefaultConfig().DB
	d.Password = "hunter2"

	target := d.Target()
	if target != "postgres@localhost:5432/livetrade" {
		t.Errorf("Unexpected target %q", target)
	}
	if strings.Contains(target, "hunter2") {
		t.Error("Target must not include the password")
	}
}

func TestExampleEnv(t *testing.T) {
	example := ExampleEnv()
	for _, line := range []string{
		"DB_NAME=livetrade", "DB_USER=postgres", "DB_PASS=postgres",
		"DB_HOST=localhost", "DB_PORT=5432",
	} {
		if !strings.Contains(example, line) {
			t.Errorf("ExampleEnv missing %q", line)
		}
	}
}

func TestConfigValidateGenerate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero rows", func(c *Config) { c.Generate.Rows = 0 }, false},
		{"negative rows", func(c *Config) { c.Generate.Rows = -1 }, true},
		{"missing output", func(c *Config) { c.Generate.Output = "" }, true},
		{"monotonic", func(c *Config) { c.Generate.TimestampMode = "monotonic" }, false},
		{"unknown timestamp mode", func(c *Config) { c.Generate.TimestampMode = "random" }, true},
		{"negative progress interval", func(c *Config) { c.Generate.ProgressInterval = -5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.ValidateGenerate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateLoad(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"binary format", func(c *Config) { c.Load.Format = "binary" }, false},
		{"unknown format", func(c *Config) { c.Load.Format = "parquet" }, true},
		{"missing name", func(c *Config) { c.DB.Name = "" }, true},
		{"missing user", func(c *Config) { c.DB.User = "" }, true},
		{"empty password", func(c *Config) { c.DB.Password = "" }, false},
		{"missing host", func(c *Config) { c.DB.Host = "" }, true},
		{"port zero", func(c *Config) { c.DB.Port = 0 }, true},
		{"port too large", func(c *Config) { c.DB.Port = 70000 }, true},
		{"negative timeout", func(c *Config) { c.DB.ConnectTimeout = -1 }, true},
		{"missing input", func(c *Config) { c.Generate.Output = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.ValidateLoad()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateIngest(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateIngest(); err != nil {
		t.Errorf("Expected defaults to be valid, got: %v", err)
	}

	cfg.Generate.Rows = -10
	if err := cfg.ValidateIngest(); err == nil {
		t.Error("Expected generate error, got nil")
	}

	cfg = DefaultConfig()
	cfg.DB.Port = -1
	if err := cfg.ValidateIngest(); err == nil {
		t.Error("Expected load error, got nil")
	}
}
