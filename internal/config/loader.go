package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CYCLEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CYCLEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Binance ──
	setStr(&cfg.Binance.BaseURL, "CYCLEBOT_BINANCE_BASE_URL")
	setStr(&cfg.Binance.ApiKey, "BINANCE_API_KEY") // compatibility alias
	setStr(&cfg.Binance.ApiKey, "CYCLEBOT_BINANCE_API_KEY")
	setStr(&cfg.Binance.ApiSecret, "BINANCE_API_SECRET") // compatibility alias
	setStr(&cfg.Binance.ApiSecret, "CYCLEBOT_BINANCE_API_SECRET")
	setStr(&cfg.Binance.EncryptedKeyPath, "CYCLEBOT_BINANCE_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Binance.KeyPassword, "CYCLEBOT_BINANCE_KEY_PASSWORD")
	setDuration(&cfg.Binance.Timeout, "CYCLEBOT_BINANCE_TIMEOUT")

	// ── Scanner ──
	setFloat64(&cfg.Scanner.FeeRate, "CYCLEBOT_SCANNER_FEE_RATE")
	setStr(&cfg.Scanner.StartAsset, "CYCLEBOT_SCANNER_START_ASSET")
	setInt(&cfg.Scanner.MaxPathLength, "CYCLEBOT_SCANNER_MAX_PATH_LENGTH")
	setFloat64(&cfg.Scanner.MinProfitPercent, "CYCLEBOT_SCANNER_MIN_PROFIT_PERCENT")
	setInt(&cfg.Scanner.MaxCycles, "CYCLEBOT_SCANNER_MAX_CYCLES")
	setInt(&cfg.Scanner.TopLiquidPairs, "CYCLEBOT_SCANNER_TOP_LIQUID_PAIRS")
	setBool(&cfg.Scanner.UseDepth, "CYCLEBOT_SCANNER_USE_DEPTH")
	setInt(&cfg.Scanner.DepthLimit, "CYCLEBOT_SCANNER_DEPTH_LIMIT")
	setFloat64(&cfg.Scanner.SimBaseSize, "CYCLEBOT_SCANNER_SIM_BASE_SIZE")
	setFloat64(&cfg.Scanner.SimQuoteSize, "CYCLEBOT_SCANNER_SIM_QUOTE_SIZE")
	setInt(&cfg.Scanner.DepthWorkers, "CYCLEBOT_SCANNER_DEPTH_WORKERS")
	setDuration(&cfg.Scanner.CatalogTTL, "CYCLEBOT_SCANNER_CATALOG_TTL")
	setDuration(&cfg.Scanner.Interval, "CYCLEBOT_SCANNER_INTERVAL")
	setBool(&cfg.Scanner.HistoryEnabled, "CYCLEBOT_SCANNER_HISTORY_ENABLED")
	setFloat64(&cfg.Scanner.AlertProfitPercent, "CYCLEBOT_SCANNER_ALERT_PROFIT_PERCENT")
	setDuration(&cfg.Scanner.AlertCooldown, "CYCLEBOT_SCANNER_ALERT_COOLDOWN")
	setInt(&cfg.Scanner.ArchiveRetentionDays, "CYCLEBOT_SCANNER_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Scanner.ArchiveInterval, "CYCLEBOT_SCANNER_ARCHIVE_INTERVAL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CYCLEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CYCLEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CYCLEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CYCLEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CYCLEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CYCLEBOT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SnapshotTTL, "CYCLEBOT_REDIS_SNAPSHOT_TTL")
	setInt(&cfg.Redis.StreamMaxLen, "CYCLEBOT_REDIS_STREAM_MAX_LEN")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CYCLEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CYCLEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CYCLEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CYCLEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CYCLEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CYCLEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CYCLEBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CYCLEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CYCLEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CYCLEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "CYCLEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CYCLEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "CYCLEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CYCLEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CYCLEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CYCLEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CYCLEBOT_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "CYCLEBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "CYCLEBOT_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "CYCLEBOT_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "CYCLEBOT_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "CYCLEBOT_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "CYCLEBOT_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CYCLEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CYCLEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CYCLEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CYCLEBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CYCLEBOT_MODE")
	setStr(&cfg.LogLevel, "CYCLEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
