package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/cyclebot/internal/cycles"
	"github.com/alanyoungcy/cyclebot/internal/domain"
	"github.com/alanyoungcy/cyclebot/internal/scanner"
	"github.com/alanyoungcy/cyclebot/internal/server"
	"github.com/alanyoungcy/cyclebot/internal/server/handler"
	"github.com/alanyoungcy/cyclebot/internal/server/ws"
)

// ScanMode runs the scan loop only, publishing snapshots to Redis without
// serving an API. Archival still runs when history is enabled.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runScanner(ctx, deps)
	})
	a.startArchiver(ctx, g, deps)

	return ignoreCancel(ctx, g.Wait())
}

// MonitorMode consumes published snapshots from the signal bus and logs
// them. It also serves the read-only API backed by the shared snapshot
// cache, so it can run on a host separate from the scanner.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ch, err := deps.SignalBus.Subscribe(ctx, "cycles")
		if err != nil {
			return fmt.Errorf("monitor mode: subscribe cycles: %w", err)
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case payload, ok := <-ch:
				if !ok {
					return nil
				}
				var snap domain.ArbitrageSnapshot
				if err := json.Unmarshal(payload, &snap); err != nil {
					a.logger.WarnContext(ctx, "monitor: bad snapshot payload",
						slog.String("error", err.Error()),
					)
					continue
				}
				attrs := []any{
					slog.String("scan_id", snap.ScanID),
					slog.Int("cycles", len(snap.Cycles)),
				}
				if best, ok := snap.Best(); ok {
					attrs = append(attrs,
						slog.String("best_path", best.PathString()),
						slog.Float64("best_profit_percent", best.ProfitPercent),
					)
				}
				a.logger.InfoContext(ctx, "scan observed", attrs...)
			}
		}
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, false)
	}

	return ignoreCancel(ctx, g.Wait())
}

// ServerMode serves the HTTP and WebSocket API only, reading snapshots from
// the shared cache and history from Postgres.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, false)

	return ignoreCancel(ctx, g.Wait())
}

// FullMode runs everything in one process: the scan loop, the HTTP and
// WebSocket API with in-process snapshot access, and the archiver.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runScanner(ctx, deps)
	})
	a.startArchiver(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, true)
	}

	return ignoreCancel(ctx, g.Wait())
}

// runScanner builds and runs the scan loop with the configured search
// parameters.
func (a *App) runScanner(ctx context.Context, deps *Dependencies) error {
	sc := scanner.New(scanner.ScannerConfig{
		Provider: deps.Provider,
		Catalog:  deps.Catalog,
		Builder:  deps.Builder,
		Search: cycles.Options{
			StartAsset:       a.cfg.Scanner.StartAsset,
			MaxPathLength:    a.cfg.Scanner.MaxPathLength,
			MinProfitPercent: a.cfg.Scanner.MinProfitPercent,
			MaxCycles:        a.cfg.Scanner.MaxCycles,
		},
		Interval:           a.cfg.Scanner.Interval.Duration,
		Snapshots:          deps.Snapshots,
		Cache:              deps.SnapshotCache,
		Bus:                deps.SignalBus,
		History:            deps.CycleStore,
		Notifier:           deps.Notifier,
		AlertProfitPercent: a.cfg.Scanner.AlertProfitPercent,
		AlertCooldown:      a.cfg.Scanner.AlertCooldown.Duration,
		Logger:             a.logger,
	})
	return sc.Run(ctx)
}

// startArchiver adds a periodic archival goroutine when an archiver is
// wired. Each run exports cycle history older than the retention window to
// object storage and prunes it from Postgres.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Archiver == nil {
		return
	}

	retention := time.Duration(a.cfg.Scanner.ArchiveRetentionDays) * 24 * time.Hour
	interval := a.cfg.Scanner.ArchiveInterval.Duration
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-retention)
				count, err := deps.Archiver.ArchiveCycleHistory(ctx, cutoff)
				if err != nil {
					a.logger.ErrorContext(ctx, "archive run failed",
						slog.String("error", err.Error()),
					)
					continue
				}
				if count > 0 {
					a.logger.InfoContext(ctx, "archive run complete",
						slog.Int64("records", count),
						slog.Time("cutoff", cutoff),
					)
				}
			}
		}
	})
}

// startHTTPServer adds the HTTP server and WebSocket hub goroutines to the
// errgroup. When local is true, handlers read the in-process snapshot store
// first; otherwise they rely on the shared Redis cache.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, local bool) {
	var localSource handler.SnapshotSource
	var hubSource ws.SnapshotSource
	if local {
		localSource = deps.Snapshots
		hubSource = deps.Snapshots
	} else {
		// Without a scan loop in-process, prime the catalog once so the
		// catalog endpoint has data to serve.
		g.Go(func() error {
			deps.Catalog.RefreshIfStale(ctx)
			return nil
		})
	}

	hub := ws.NewHub(deps.SignalBus, hubSource, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Snapshot: handler.NewSnapshotHandler(localSource, deps.SnapshotCache, deps.SignalBus, a.logger),
		Catalog:  handler.NewCatalogHandler(deps.Catalog, a.logger),
		History:  handler.NewHistoryHandler(deps.CycleStore, deps.BlobReader, a.logger),
	}, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// ignoreCancel converts the errgroup's context-cancellation error into a
// clean shutdown.
func ignoreCancel(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
