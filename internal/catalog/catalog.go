// Package catalog maintains the set of actively-trading symbols, refreshed on
// a time-to-live, together with the advisory liquidity filter over base
// assets.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// Service caches the symbol catalog and replaces it wholesale when the TTL
// elapses. Readers always observe a complete catalog: the current value is
// held behind an atomic pointer and never mutated after publication. Refresh
// failures keep the previous catalog in place; they are logged, never fatal.
type Service struct {
	provider   domain.MarketDataProvider
	startAsset string
	// topPairs narrows the base universe to the bases of the N most liquid
	// start-asset pairs; 0 disables the filter.
	topPairs int
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	current      atomic.Pointer[domain.SymbolCatalog]
	allowedBases atomic.Pointer[map[string]bool]
	// lastRefresh is written by the single refresh caller (the scan loop)
	// and read nowhere else, so it needs no synchronization.
	lastRefresh time.Time
}

// Config configures a Service.
type Config struct {
	Provider   domain.MarketDataProvider
	StartAsset string
	TopPairs   int
	TTL        time.Duration
	Logger     *slog.Logger
	// Now overrides the clock; nil means time.Now. Used by tests.
	Now func() time.Time
}

// New creates a catalog Service. The catalog starts empty; call Refresh (or
// RefreshIfStale) before the first scan iteration.
func New(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		provider:   cfg.Provider,
		startAsset: cfg.StartAsset,
		topPairs:   cfg.TopPairs,
		ttl:        cfg.TTL,
		logger:     cfg.Logger.With(slog.String("component", "symbol_catalog")),
		now:        now,
	}
}

// Current returns the latest complete catalog, or nil when no refresh has
// succeeded yet.
func (s *Service) Current() *domain.SymbolCatalog {
	return s.current.Load()
}

// AllowedBases returns the advisory base-asset restriction from the liquidity
// filter, or nil when the filter is disabled or produced no restriction.
func (s *Service) AllowedBases() map[string]bool {
	p := s.allowedBases.Load()
	if p == nil {
		return nil
	}
	return *p
}

// RefreshIfStale refreshes the catalog when it has never been fetched or the
// TTL has elapsed since the last successful attempt. It reports whether a
// refresh was attempted.
func (s *Service) RefreshIfStale(ctx context.Context) bool {
	if !s.lastRefresh.IsZero() && s.now().Sub(s.lastRefresh) < s.ttl {
		return false
	}
	s.Refresh(ctx)
	return true
}

// Refresh fetches the symbol universe and replaces the catalog atomically.
// On provider failure the previous catalog stays in place.
func (s *Service) Refresh(ctx context.Context) {
	entries, err := s.provider.ListActiveSymbols(ctx)
	if err != nil {
		s.logger.Warn("catalog refresh failed, reusing previous catalog",
			slog.String("error", err.Error()),
			slog.Int("previous_symbols", s.current.Load().Len()),
		)
		// Failed attempts still advance the refresh clock so a dead
		// provider is retried once per TTL, not once per iteration.
		s.lastRefresh = s.now()
		return
	}

	cat := domain.NewSymbolCatalog(entries, s.now().UTC())
	s.current.Store(cat)
	s.lastRefresh = s.now()

	bases := s.topLiquidBases(ctx, cat)
	s.allowedBases.Store(&bases)

	s.logger.Info("catalog refreshed",
		slog.Int("symbols", cat.Len()),
		slog.Int("allowed_bases", len(bases)),
	)
}

// topLiquidBases computes the advisory base-asset set from 24h quote volumes
// of start-asset pairs. It returns nil, meaning no restriction, when the
// filter is disabled, the ticker fetch fails, or no qualifying pair is found.
func (s *Service) topLiquidBases(ctx context.Context, cat *domain.SymbolCatalog) map[string]bool {
	if s.topPairs <= 0 {
		return nil
	}

	tickers, err := s.provider.Get24hTickers(ctx)
	if err != nil {
		s.logger.Warn("24h ticker fetch failed, liquidity filter disabled this cycle",
			slog.String("error", err.Error()),
		)
		return nil
	}

	type pairVolume struct {
		base   string
		volume float64
	}
	candidates := make([]pairVolume, 0, len(tickers))
	for _, t := range tickers {
		entry, ok := cat.Lookup(t.Symbol)
		if !ok || entry.QuoteAsset != s.startAsset {
			continue
		}
		if t.QuoteVolume <= 0 {
			continue
		}
		candidates = append(candidates, pairVolume{base: entry.BaseAsset, volume: t.QuoteVolume})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].volume > candidates[j].volume
	})
	if len(candidates) > s.topPairs {
		candidates = candidates[:s.topPairs]
	}

	bases := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		bases[c.base] = true
	}
	if len(bases) == 0 {
		return nil
	}
	// The start asset itself must always be able to act as a base, or every
	// start-quoted symbol would be filtered out of the graph.
	bases[s.startAsset] = true
	return bases
}

// Describe summarizes the catalog state for the status API.
func (s *Service) Describe() string {
	cat := s.current.Load()
	if cat == nil {
		return "catalog: empty (never fetched)"
	}
	return fmt.Sprintf("catalog: %d active symbols captured at %s", cat.Len(), cat.CapturedAt.Format(time.RFC3339))
}
