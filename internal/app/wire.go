package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/cyclebot/internal/blob/s3"
	"github.com/alanyoungcy/cyclebot/internal/cache/redis"
	"github.com/alanyoungcy/cyclebot/internal/catalog"
	"github.com/alanyoungcy/cyclebot/internal/config"
	"github.com/alanyoungcy/cyclebot/internal/crypto"
	"github.com/alanyoungcy/cyclebot/internal/domain"
	"github.com/alanyoungcy/cyclebot/internal/graph"
	"github.com/alanyoungcy/cyclebot/internal/notify"
	"github.com/alanyoungcy/cyclebot/internal/platform/binance"
	"github.com/alanyoungcy/cyclebot/internal/rates"
	"github.com/alanyoungcy/cyclebot/internal/scanner"
	"github.com/alanyoungcy/cyclebot/internal/store/postgres"
)

// Dependencies bundles every dependency the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Market data
	Provider domain.MarketDataProvider
	Catalog  *catalog.Service
	Builder  *graph.Builder

	// Snapshot plumbing
	Snapshots     *scanner.SnapshotStore
	SnapshotCache domain.SnapshotCache
	SignalBus     domain.SignalBus
	RateLimiter   domain.RateLimiter

	// History persistence (nil unless scanner.history_enabled)
	CycleStore domain.CycleStore
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Snapshots: scanner.NewSnapshotStore(),
	}

	// --- Binance market data client ---
	apiSecret, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:           cfg.Binance.ApiSecret,
		EncryptedSecretPath: cfg.Binance.EncryptedKeyPath,
		Password:            cfg.Binance.KeyPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: binance secret: %w", err)
	}
	provider := binance.NewClient(binance.ClientConfig{
		BaseURL:   cfg.Binance.BaseURL,
		ApiKey:    cfg.Binance.ApiKey,
		ApiSecret: apiSecret,
		Timeout:   cfg.Binance.Timeout.Duration,
	})
	deps.Provider = provider

	// Public market data works without credentials; when a secret is
	// configured, confirm it is accepted so a typo surfaces at startup
	// rather than on the first authenticated call.
	if apiSecret != "" {
		if err := provider.VerifyCredentials(ctx); err != nil {
			logger.Warn("binance credential check failed",
				slog.String("error", err.Error()),
			)
		}
	}

	// --- Catalog ---
	deps.Catalog = catalog.New(catalog.Config{
		Provider:   provider,
		StartAsset: cfg.Scanner.StartAsset,
		TopPairs:   cfg.Scanner.TopLiquidPairs,
		TTL:        cfg.Scanner.CatalogTTL.Duration,
		Logger:     logger,
	})

	// --- Rate estimation and graph construction ---
	var estimator rates.Estimator
	if cfg.Scanner.UseDepth {
		estimator = rates.NewDepthSimulated(rates.DepthConfig{
			Provider:   provider,
			FeeRate:    cfg.Scanner.FeeRate,
			BaseSize:   cfg.Scanner.SimBaseSize,
			QuoteSize:  cfg.Scanner.SimQuoteSize,
			DepthLimit: cfg.Scanner.DepthLimit,
		})
	} else {
		estimator = rates.NewTopOfBook(cfg.Scanner.FeeRate)
	}
	deps.Builder = graph.NewBuilder(graph.BuilderConfig{
		Estimator: estimator,
		Workers:   cfg.Scanner.DepthWorkers,
		Logger:    logger,
	})

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SnapshotCache = redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL.Duration)
	deps.SignalBus = redis.NewSignalBus(redisClient, int64(cfg.Redis.StreamMaxLen))
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	// --- Postgres + S3 (history persistence and archival) ---
	if cfg.Scanner.HistoryEnabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.CycleStore = postgres.NewCycleStore(pgClient.Pool())

		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.CycleStore, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
