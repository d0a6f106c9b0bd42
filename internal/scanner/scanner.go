// Package scanner drives the scan loop: refresh the symbol catalog on its
// TTL, fetch live quotes, rebuild the exchange-rate graph, search it for
// profitable cycles, and publish the resulting snapshot to every configured
// consumer.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/cyclebot/internal/catalog"
	"github.com/alanyoungcy/cyclebot/internal/cycles"
	"github.com/alanyoungcy/cyclebot/internal/domain"
	"github.com/alanyoungcy/cyclebot/internal/graph"
	"github.com/alanyoungcy/cyclebot/internal/notify"
)

// cyclesChannel is the signal-bus channel scan snapshots are published on.
const cyclesChannel = "cycles"

// Scanner owns the periodic scan loop. The loop itself is single-threaded;
// only the per-symbol depth fetches inside the graph builder fan out.
type Scanner struct {
	provider domain.MarketDataProvider
	catalog  *catalog.Service
	builder  *graph.Builder
	search   cycles.Options
	interval time.Duration

	snapshots *SnapshotStore
	cache     domain.SnapshotCache // optional
	bus       domain.SignalBus     // optional
	history   domain.CycleStore    // optional
	notifier  *notify.Notifier     // optional

	alertProfit   float64
	alertCooldown time.Duration

	logger *slog.Logger

	mu             sync.Mutex
	lastAlerts     map[string]time.Time
	lastErrorAlert time.Time
}

// ScannerConfig bundles the scanner's collaborators. Cache, Bus, History, and
// Notifier may be nil; the loop simply skips those consumers.
type ScannerConfig struct {
	Provider  domain.MarketDataProvider
	Catalog   *catalog.Service
	Builder   *graph.Builder
	Search    cycles.Options
	Interval  time.Duration
	Snapshots *SnapshotStore
	Cache     domain.SnapshotCache
	Bus       domain.SignalBus
	History   domain.CycleStore
	Notifier  *notify.Notifier

	AlertProfitPercent float64
	AlertCooldown      time.Duration

	Logger *slog.Logger
}

// New creates a Scanner.
func New(cfg ScannerConfig) *Scanner {
	return &Scanner{
		provider:      cfg.Provider,
		catalog:       cfg.Catalog,
		builder:       cfg.Builder,
		search:        cfg.Search,
		interval:      cfg.Interval,
		snapshots:     cfg.Snapshots,
		cache:         cfg.Cache,
		bus:           cfg.Bus,
		history:       cfg.History,
		notifier:      cfg.Notifier,
		alertProfit:   cfg.AlertProfitPercent,
		alertCooldown: cfg.AlertCooldown,
		logger:        cfg.Logger.With(slog.String("component", "scanner")),
		lastAlerts:    make(map[string]time.Time),
	}
}

// Run executes scan iterations on the configured interval until ctx is
// cancelled. A failed iteration is logged and the loop proceeds to the next
// tick; nothing short of cancellation stops it.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scan loop starting",
		slog.String("start_asset", s.search.StartAsset),
		slog.Int("max_path_length", s.search.MaxPathLength),
		slog.Duration("interval", s.interval),
	)

	// Prime the catalog before the first tick.
	s.catalog.RefreshIfStale(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				if ctx.Err() != nil {
					continue // shutdown in progress; the next select exits
				}
				s.logger.Error("scan iteration failed", slog.String("error", err.Error()))
				s.notifyError(ctx, err)
			}
		}
	}
}

// runOnce performs a single scan iteration.
func (s *Scanner) runOnce(ctx context.Context) error {
	s.catalog.RefreshIfStale(ctx)

	cat := s.catalog.Current()
	if cat.Len() == 0 {
		return domain.ErrEmptyCatalog
	}

	quotes, err := s.provider.GetTopOfBookQuotes(ctx)
	if err != nil {
		return fmt.Errorf("scanner: fetch quotes: %w", err)
	}

	g := s.builder.Build(ctx, cat, quotes, s.catalog.AllowedBases())
	if !g.HasAsset(s.search.StartAsset) {
		// Valid outcome, not an error: nothing trades against the start
		// asset this iteration, so the previous snapshot stays current.
		s.logger.Debug("start asset absent from graph, skipping publish",
			slog.String("start_asset", s.search.StartAsset),
		)
		return nil
	}

	found := cycles.Find(g, s.search)

	snap := &domain.ArbitrageSnapshot{
		ScanID:     uuid.NewString(),
		StartAsset: s.search.StartAsset,
		Cycles:     found,
		GraphStats: domain.GraphStats{
			Assets:  g.NumAssets(),
			Edges:   g.NumEdges(),
			Symbols: cat.Len(),
		},
		CreatedAt: time.Now().UTC(),
	}

	s.publish(ctx, snap)

	s.logger.Info("scan complete",
		slog.String("scan_id", snap.ScanID),
		slog.Int("cycles", len(found)),
		slog.Int("graph_assets", snap.GraphStats.Assets),
		slog.Int("graph_edges", snap.GraphStats.Edges),
	)
	return nil
}

// publish replaces the in-process snapshot and fans the result out to the
// optional consumers. Consumer failures are logged and do not affect the
// snapshot swap or each other.
func (s *Scanner) publish(ctx context.Context, snap *domain.ArbitrageSnapshot) {
	s.snapshots.Store(snap)

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, snap); err != nil {
			s.logger.Warn("snapshot cache write failed", slog.String("error", err.Error()))
		}
	}

	if s.bus != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			s.logger.Warn("snapshot marshal failed", slog.String("error", err.Error()))
		} else {
			if err := s.bus.Publish(ctx, cyclesChannel, payload); err != nil {
				s.logger.Warn("snapshot publish failed", slog.String("error", err.Error()))
			}
			if err := s.bus.StreamAppend(ctx, cyclesChannel, payload); err != nil {
				s.logger.Warn("snapshot stream append failed", slog.String("error", err.Error()))
			}
		}
	}

	if s.history != nil && len(snap.Cycles) > 0 {
		records := make([]domain.CycleRecord, 0, len(snap.Cycles))
		for _, c := range snap.Cycles {
			records = append(records, domain.CycleRecord{
				ID:            uuid.NewString(),
				ScanID:        snap.ScanID,
				StartAsset:    snap.StartAsset,
				Path:          c.Path,
				LegRates:      c.LegRates,
				TotalRate:     c.TotalRate,
				ProfitPercent: c.ProfitPercent,
				Hops:          c.Hops(),
				DetectedAt:    snap.CreatedAt,
			})
		}
		if err := s.history.InsertBatch(ctx, records); err != nil {
			s.logger.Warn("cycle history insert failed", slog.String("error", err.Error()))
		}
	}

	s.alert(ctx, snap)
}

// alert notifies operators about cycles whose profit crossed the alert
// threshold, applying a per-path cooldown so a persistent cycle does not
// spam.
func (s *Scanner) alert(ctx context.Context, snap *domain.ArbitrageSnapshot) {
	if s.notifier == nil {
		return
	}

	now := time.Now()
	for _, c := range snap.Cycles {
		if c.ProfitPercent < s.alertProfit {
			break // cycles are sorted by profit; nothing further qualifies
		}
		key := c.PathString()

		s.mu.Lock()
		last, seen := s.lastAlerts[key]
		if seen && now.Sub(last) < s.alertCooldown {
			s.mu.Unlock()
			continue
		}
		s.lastAlerts[key] = now
		s.mu.Unlock()

		title := fmt.Sprintf("Arbitrage cycle +%.3f%%", c.ProfitPercent)
		message := fmt.Sprintf("%s\ncompounded return %.6f over %d hops", key, c.TotalRate, c.Hops())
		if err := s.notifier.Notify(ctx, "cycle_detected", title, message); err != nil {
			s.logger.Warn("cycle alert failed", slog.String("error", err.Error()))
		}
	}
}

// notifyError forwards iteration failures to the notifier under the
// scan_error event. The alert cooldown applies so a sustained outage pages
// operators once per cooldown window, not once per tick.
func (s *Scanner) notifyError(ctx context.Context, scanErr error) {
	if s.notifier == nil {
		return
	}

	now := time.Now()
	s.mu.Lock()
	if !s.lastErrorAlert.IsZero() && now.Sub(s.lastErrorAlert) < s.alertCooldown {
		s.mu.Unlock()
		return
	}
	s.lastErrorAlert = now
	s.mu.Unlock()

	if err := s.notifier.Notify(ctx, "scan_error", "Scan iteration failed", scanErr.Error()); err != nil {
		s.logger.Warn("error notification failed", slog.String("error", err.Error()))
	}
}
