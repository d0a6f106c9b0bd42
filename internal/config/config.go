// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CYCLEBOT_* environment variables.
type Config struct {
	Binance  BinanceConfig  `toml:"binance"`
	Scanner  ScannerConfig  `toml:"scanner"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BinanceConfig holds exchange API endpoints and credentials. The REST
// endpoints the scanner uses are public; credentials are only needed when an
// operator points the client at authenticated endpoints.
type BinanceConfig struct {
	BaseURL          string   `toml:"base_url"`
	ApiKey           string   `toml:"api_key"`
	ApiSecret        string   `toml:"api_secret"`
	EncryptedKeyPath string   `toml:"encrypted_key_path"`
	KeyPassword      string   `toml:"key_password"`
	Timeout          duration `toml:"timeout"`
}

// ScannerConfig holds the arbitrage-scan parameters. Defaults mirror the
// values the scanner has always shipped with.
type ScannerConfig struct {
	// FeeRate is the taker fee applied to every conversion, as a fraction.
	FeeRate float64 `toml:"fee_rate"`
	// StartAsset is the asset every cycle must start and end at.
	StartAsset string `toml:"start_asset"`
	// MaxPathLength bounds the number of hops in a cycle, >= 2.
	MaxPathLength int `toml:"max_path_length"`
	// MinProfitPercent filters cycles; may be negative to surface
	// near-break-even paths for observation.
	MinProfitPercent float64 `toml:"min_profit_percent"`
	// MaxCycles caps how many ranked cycles a snapshot retains.
	MaxCycles int `toml:"max_cycles"`
	// TopLiquidPairs narrows the base-asset universe to the bases of the
	// top-N most liquid start-asset pairs. 0 disables the filter.
	TopLiquidPairs int `toml:"top_liquid_pairs"`
	// UseDepth switches rate estimation from top-of-book quotes to
	// order-book depth simulation.
	UseDepth bool `toml:"use_depth"`
	// DepthLimit is the number of book levels fetched per side in depth mode.
	DepthLimit int `toml:"depth_limit"`
	// SimBaseSize is the fixed base-asset quantity for the simulated sell.
	SimBaseSize float64 `toml:"sim_base_size"`
	// SimQuoteSize is the fixed quote-asset budget for the simulated buy.
	SimQuoteSize float64 `toml:"sim_quote_size"`
	// DepthWorkers bounds the concurrent per-symbol depth fetches.
	DepthWorkers int `toml:"depth_workers"`
	// CatalogTTL is how long a symbol catalog is reused before refresh.
	CatalogTTL duration `toml:"catalog_ttl"`
	// Interval is the pause between scan iterations.
	Interval duration `toml:"interval"`
	// HistoryEnabled persists published cycles to Postgres.
	HistoryEnabled bool `toml:"history_enabled"`
	// AlertProfitPercent fires a notification when a cycle's profit meets
	// this threshold.
	AlertProfitPercent float64 `toml:"alert_profit_percent"`
	// AlertCooldown suppresses repeat alerts for the same cycle path.
	AlertCooldown duration `toml:"alert_cooldown"`
	// ArchiveRetentionDays is how long cycle history stays in Postgres
	// before the archiver exports it to object storage.
	ArchiveRetentionDays int `toml:"archive_retention_days"`
	// ArchiveInterval is how often the archiver runs.
	ArchiveInterval duration `toml:"archive_interval"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string   `toml:"addr"`
	Password     string   `toml:"password"`
	DB           int      `toml:"db"`
	PoolSize     int      `toml:"pool_size"`
	MaxRetries   int      `toml:"max_retries"`
	TLSEnabled   bool     `toml:"tls_enabled"`
	SnapshotTTL  duration `toml:"snapshot_ttl"`
	StreamMaxLen int      `toml:"stream_max_len"`
}

// PostgresConfig holds PostgreSQL connection parameters for cycle history.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for history archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP/WebSocket server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit caps requests per client IP per RateWindow. 0 disables.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// Scanner defaults are the constants the scanner has shipped with from the
// start; everything else matches config.example.toml.
func Defaults() Config {
	return Config{
		Binance: BinanceConfig{
			BaseURL: "https://api.binance.com",
			Timeout: duration{10 * time.Second},
		},
		Scanner: ScannerConfig{
			FeeRate:              0.0005,
			StartAsset:           "USDT",
			MaxPathLength:        5,
			MinProfitPercent:     -5.0,
			MaxCycles:            200,
			TopLiquidPairs:       0,
			UseDepth:             false,
			DepthLimit:           5,
			SimBaseSize:          1.0,
			SimQuoteSize:         100.0,
			DepthWorkers:         8,
			CatalogTTL:           duration{5 * time.Minute},
			Interval:             duration{time.Second},
			HistoryEnabled:       false,
			AlertProfitPercent:   0.5,
			AlertCooldown:        duration{5 * time.Minute},
			ArchiveRetentionDays: 30,
			ArchiveInterval:      duration{24 * time.Hour},
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     20,
			MaxRetries:   3,
			TLSEnabled:   false,
			SnapshotTTL:  duration{time.Minute},
			StreamMaxLen: 10000,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "cyclebot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "cyclebot-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   50,
			RateWindow:  duration{time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"cycle_detected", "scan_error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":    true,
	"monitor": true,
	"server":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, monitor, server, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Binance
	if c.Binance.BaseURL == "" {
		errs = append(errs, "binance: base_url must not be empty")
	}
	if c.Binance.Timeout.Duration <= 0 {
		errs = append(errs, "binance: timeout must be positive")
	}
	if c.Binance.EncryptedKeyPath != "" && c.Binance.KeyPassword == "" {
		errs = append(errs, "binance: key_password is required when encrypted_key_path is set")
	}

	// Scanner
	if c.Scanner.FeeRate < 0 || c.Scanner.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("scanner: fee_rate must be in [0, 1), got %g", c.Scanner.FeeRate))
	}
	if c.Scanner.StartAsset == "" {
		errs = append(errs, "scanner: start_asset must not be empty")
	}
	if c.Scanner.MaxPathLength < 2 {
		errs = append(errs, fmt.Sprintf("scanner: max_path_length must be >= 2, got %d", c.Scanner.MaxPathLength))
	}
	if c.Scanner.MaxCycles < 1 {
		errs = append(errs, "scanner: max_cycles must be >= 1")
	}
	if c.Scanner.TopLiquidPairs < 0 {
		errs = append(errs, "scanner: top_liquid_pairs must be >= 0")
	}
	if c.Scanner.UseDepth {
		if c.Scanner.DepthLimit < 1 {
			errs = append(errs, "scanner: depth_limit must be >= 1 when use_depth is set")
		}
		if c.Scanner.SimBaseSize <= 0 {
			errs = append(errs, "scanner: sim_base_size must be > 0 when use_depth is set")
		}
		if c.Scanner.SimQuoteSize <= 0 {
			errs = append(errs, "scanner: sim_quote_size must be > 0 when use_depth is set")
		}
		if c.Scanner.DepthWorkers < 1 {
			errs = append(errs, "scanner: depth_workers must be >= 1 when use_depth is set")
		}
	}
	if c.Scanner.CatalogTTL.Duration <= 0 {
		errs = append(errs, "scanner: catalog_ttl must be positive")
	}
	if c.Scanner.Interval.Duration <= 0 {
		errs = append(errs, "scanner: interval must be positive")
	}
	if c.Scanner.ArchiveRetentionDays < 1 {
		errs = append(errs, "scanner: archive_retention_days must be >= 1")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres is only required when history persistence is on.
	if c.Scanner.HistoryEnabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when history is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when history is enabled")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be positive when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
