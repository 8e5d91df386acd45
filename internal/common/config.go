// Package common provides shared utilities for CapVault
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for CapVault
type Config struct {
	Environment       string            `toml:"environment"`
	ReferenceCurrency string            `toml:"reference_currency"` // single valuation currency for the whole system
	DeniedInstruments []string          `toml:"denied_instruments"` // delisted/unsupported tickers, never fetched
	PlatformCurrency  map[string]string `toml:"platform_currency"`  // default currency assumption per platform
	Server            ServerConfig      `toml:"server"`
	Storage           StorageConfig     `toml:"storage"`
	Clients           ClientsConfig     `toml:"clients"`
	Ingest            IngestConfig      `toml:"ingest"`
	Logging           LoggingConfig     `toml:"logging"`
}

// IngestConfig holds ledger ingestion configuration
type IngestConfig struct {
	// BatchDir is where platform export tooling drops normalized record
	// batch files for pickup.
	BatchDir string `toml:"batch_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration.
type StorageConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Quotes QuotesConfig `toml:"quotes"`
}

// QuotesConfig holds price provider API configuration
type QuotesConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *QuotesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:       "development",
		ReferenceCurrency: "CHF",
		DeniedInstruments: []string{"ATVI", "RADCQ", "TUI.L", "EVVAQ"},
		PlatformCurrency: map[string]string{
			"BCGE":    "CHF",
			"Revolut": "CHF",
			"Kraken":  "USD",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000",
			Username:  "root",
			Password:  "root",
			Namespace: "capvault",
			Database:  "capital_vault",
		},
		Clients: ClientsConfig{
			Quotes: QuotesConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Ingest: IngestConfig{
			BatchDir: "data/batches",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateReferenceCurrency(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CAPVAULT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CAPVAULT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("CAPVAULT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("CAPVAULT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("CAPVAULT_DB_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if user := os.Getenv("CAPVAULT_DB_USERNAME"); user != "" {
		config.Storage.Username = user
	}
	if pass := os.Getenv("CAPVAULT_DB_PASSWORD"); pass != "" {
		config.Storage.Password = pass
	}

	if rc := os.Getenv("CAPVAULT_REFERENCE_CURRENCY"); rc != "" {
		config.ReferenceCurrency = strings.ToUpper(rc)
	}

	if dir := os.Getenv("CAPVAULT_BATCH_DIR"); dir != "" {
		config.Ingest.BatchDir = dir
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// IsDenied reports whether an instrument is on the deny-list of
// delisted/unsupported tickers that must never be fetched.
func (c *Config) IsDenied(instrument string) bool {
	for _, denied := range c.DeniedInstruments {
		if denied == instrument {
			return true
		}
	}
	return false
}

// validateReferenceCurrency ensures the reference currency is a 3-letter code,
// defaulting to CHF.
func validateReferenceCurrency(config *Config) {
	rc := strings.ToUpper(strings.TrimSpace(config.ReferenceCurrency))
	if len(rc) != 3 {
		rc = "CHF"
	}
	config.ReferenceCurrency = rc
}
