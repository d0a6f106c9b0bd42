// Package graph builds the directed exchange-rate graph a scan iteration
// searches. The graph is assembled from scratch every iteration and handed to
// the cycle finder as an immutable value; nothing mutates it afterwards.
package graph

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/cyclebot/internal/domain"
	"github.com/alanyoungcy/cyclebot/internal/rates"
)

// Builder turns a symbol catalog plus fresh quotes into a MarketGraph using
// the configured rate estimator.
type Builder struct {
	estimator rates.Estimator
	// workers bounds concurrent per-symbol estimation. Estimation is pure
	// CPU for the top-of-book strategy but involves one depth fetch per
	// symbol in depth mode, so the bound keeps iteration latency low
	// without hammering the provider.
	workers int
	logger  *slog.Logger
}

// BuilderConfig configures a Builder.
type BuilderConfig struct {
	Estimator rates.Estimator
	Workers   int
	Logger    *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		estimator: cfg.Estimator,
		workers:   workers,
		logger:    cfg.Logger.With(slog.String("component", "graph_builder")),
	}
}

// symbolRates pairs a quote with its estimation result so the insert phase
// can run serially in input order regardless of estimation concurrency.
type symbolRates struct {
	entry domain.SymbolEntry
	rates rates.DirectionalRates
	ok    bool
}

// Build produces the market graph for one iteration. Quotes whose symbol is
// absent from the catalog are ignored. allowedBases, when non-nil, restricts
// which assets may enter the graph on a symbol's base side; it is an advisory
// liquidity filter, and nil means no restriction. Per-symbol estimation
// failures exclude only that symbol.
func (b *Builder) Build(ctx context.Context, catalog *domain.SymbolCatalog, quotes []domain.BookTicker, allowedBases map[string]bool) domain.MarketGraph {
	// Estimation phase: resolve catalog entries first, then estimate each
	// survivor with bounded concurrency. Results land at fixed indices so
	// insertion order stays deterministic.
	work := make([]symbolRates, 0, len(quotes))
	for _, q := range quotes {
		entry, ok := catalog.Lookup(q.Symbol)
		if !ok {
			continue
		}
		if allowedBases != nil && !allowedBases[entry.BaseAsset] {
			continue
		}
		work = append(work, symbolRates{entry: entry})
	}

	quoteFor := make(map[string]domain.BookTicker, len(quotes))
	for _, q := range quotes {
		quoteFor[q.Symbol] = q
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range work {
		g.Go(func() error {
			w := &work[i]
			est, err := b.estimator.Estimate(gctx, quoteFor[w.entry.Symbol])
			if err != nil {
				b.logger.Debug("rate estimate failed",
					slog.String("symbol", w.entry.Symbol),
					slog.String("error", err.Error()),
				)
				return nil // symbol excluded, never fatal
			}
			w.rates = est
			w.ok = true
			return nil
		})
	}
	_ = g.Wait()

	// Insert phase: serial and deterministic. A symbol whose estimate came
	// back fully unavailable contributes nothing; otherwise each available
	// direction is inserted under the highest-rate tie-break.
	graph := make(domain.MarketGraph)
	for _, w := range work {
		if !w.ok || w.rates.Unavailable() {
			continue
		}
		if w.rates.BaseToQuoteOK {
			graph.Upsert(w.entry.BaseAsset, w.entry.QuoteAsset, w.rates.BaseToQuote)
		}
		if w.rates.QuoteToBaseOK {
			graph.Upsert(w.entry.QuoteAsset, w.entry.BaseAsset, w.rates.QuoteToBase)
		}
	}

	return graph
}
