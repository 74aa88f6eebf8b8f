package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file in a ledger directory.
const FileName = "gledger.yaml"

// Environment variables that override the configuration file.
const (
	EnvDBPath       = "GLEDGER_DB_PATH"
	EnvAddr         = "GLEDGER_ADDR"
	EnvLogLevel     = "GLEDGER_LOG_LEVEL"
	EnvYearEndBatch = "GLEDGER_YEAREND_BATCH"
)

// Config represents the top-level gledger.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Log      LogConfig      `yaml:"log"`
}

// BusinessConfig identifies the business keeping the ledger.
type BusinessConfig struct {
	Name  string `yaml:"name"`
	Chart string `yaml:"chart"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"` // relative to the config file
}

// ServerConfig controls the JSON API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LedgerConfig holds bookkeeping defaults.
type LedgerConfig struct {
	Currency      string `yaml:"currency"`
	ProfitAccount string `yaml:"profit_account"`
	YearEndBatch  int    `yaml:"yearend_batch"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Load reads a gledger.yaml file from disk and applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.ApplyEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(businessName, chart string) *Config {
	if chart == "" {
		chart = "sole_trader"
	}
	return &Config{
		Business: BusinessConfig{
			Name:  businessName,
			Chart: chart,
		},
		Database: DatabaseConfig{
			Path: "gledger.db",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Ledger: LedgerConfig{
			Currency:      "EUR",
			ProfitAccount: "winst",
			YearEndBatch:  250,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ApplyEnv loads envFile when it exists and lets the GLEDGER_ variables
// override the file values.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvYearEndBatch); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvYearEndBatch, err)
		}
		c.Ledger.YearEndBatch = n
	}
	return nil
}

// DatabasePath resolves the database path against the ledger directory.
func (c *Config) DatabasePath(dir string) string {
	if filepath.IsAbs(c.Database.Path) {
		return c.Database.Path
	}
	return filepath.Join(dir, c.Database.Path)
}
