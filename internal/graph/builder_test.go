package graph

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cyclebot/internal/domain"
	"github.com/alanyoungcy/cyclebot/internal/rates"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *domain.SymbolCatalog {
	return domain.NewSymbolCatalog([]domain.SymbolEntry{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"},
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT"},
		{Symbol: "ETHBTC", BaseAsset: "ETH", QuoteAsset: "BTC"},
	}, time.Now())
}

func TestBuildTopOfBookEdges(t *testing.T) {
	b := NewBuilder(BuilderConfig{
		Estimator: rates.NewTopOfBook(0),
		Workers:   4,
		Logger:    discardLogger(),
	})

	quotes := []domain.BookTicker{
		{Symbol: "BTCUSDT", BidPrice: 60000, AskPrice: 60010},
		{Symbol: "ETHUSDT", BidPrice: 3000, AskPrice: 3001},
	}

	g := b.Build(context.Background(), testCatalog(), quotes, nil)

	require.True(t, g.HasAsset("BTC"))
	require.True(t, g.HasAsset("USDT"))
	require.True(t, g.HasAsset("ETH"))
	assert.InEpsilon(t, 60000.0, g["BTC"]["USDT"], 1e-12)
	assert.InEpsilon(t, 1/60010.0, g["USDT"]["BTC"], 1e-12)
	assert.InEpsilon(t, 3000.0, g["ETH"]["USDT"], 1e-12)
	assert.InEpsilon(t, 1/3001.0, g["USDT"]["ETH"], 1e-12)
	assert.Equal(t, 4, g.NumEdges())
}

func TestBuildIgnoresUnknownSymbols(t *testing.T) {
	b := NewBuilder(BuilderConfig{
		Estimator: rates.NewTopOfBook(0),
		Workers:   1,
		Logger:    discardLogger(),
	})

	quotes := []domain.BookTicker{
		{Symbol: "DOGEUSDT", BidPrice: 0.1, AskPrice: 0.11}, // not in catalog
		{Symbol: "BTCUSDT", BidPrice: 60000, AskPrice: 60010},
	}

	g := b.Build(context.Background(), testCatalog(), quotes, nil)

	assert.False(t, g.HasAsset("DOGE"))
	assert.True(t, g.HasAsset("BTC"))
}

func TestBuildAllowedBasesFilter(t *testing.T) {
	b := NewBuilder(BuilderConfig{
		Estimator: rates.NewTopOfBook(0),
		Workers:   1,
		Logger:    discardLogger(),
	})

	quotes := []domain.BookTicker{
		{Symbol: "BTCUSDT", BidPrice: 60000, AskPrice: 60010},
		{Symbol: "ETHUSDT", BidPrice: 3000, AskPrice: 3001},
	}

	g := b.Build(context.Background(), testCatalog(), quotes, map[string]bool{"BTC": true})

	assert.True(t, g.HasAsset("BTC"))
	assert.False(t, g.HasAsset("ETH"))
}

func TestBuildDropsInvalidQuotes(t *testing.T) {
	b := NewBuilder(BuilderConfig{
		Estimator: rates.NewTopOfBook(0.0005),
		Workers:   2,
		Logger:    discardLogger(),
	})

	quotes := []domain.BookTicker{
		{Symbol: "BTCUSDT", BidPrice: 0, AskPrice: 60010},    // one-sided
		{Symbol: "ETHUSDT", BidPrice: -3000, AskPrice: 3001}, // negative
	}

	g := b.Build(context.Background(), testCatalog(), quotes, nil)
	assert.Equal(t, 0, g.NumAssets())
}

type directionalEstimator struct {
	out rates.DirectionalRates
}

func (e directionalEstimator) Estimate(context.Context, domain.BookTicker) (rates.DirectionalRates, error) {
	return e.out, nil
}

func (e directionalEstimator) Name() string { return "fixed" }

func TestBuildSingleDirection(t *testing.T) {
	// Depth mode can fail one side independently; only the surviving
	// direction enters the graph.
	b := NewBuilder(BuilderConfig{
		Estimator: directionalEstimator{out: rates.DirectionalRates{
			BaseToQuote:   59000,
			BaseToQuoteOK: true,
		}},
		Workers: 1,
		Logger:  discardLogger(),
	})

	quotes := []domain.BookTicker{{Symbol: "BTCUSDT", BidPrice: 60000, AskPrice: 60010}}
	g := b.Build(context.Background(), testCatalog(), quotes, nil)

	assert.InEpsilon(t, 59000.0, g["BTC"]["USDT"], 1e-12)
	_, hasReverse := g["USDT"]
	assert.False(t, hasReverse)
}

func TestUpsertTieBreakKeepsHighestRate(t *testing.T) {
	g := make(domain.MarketGraph)
	g.Upsert("EUR", "USDT", 1.01)
	g.Upsert("EUR", "USDT", 1.02)
	assert.Equal(t, 1.02, g["EUR"]["USDT"])

	// Lower rate arriving later must not displace the better edge.
	g.Upsert("EUR", "USDT", 1.005)
	assert.Equal(t, 1.02, g["EUR"]["USDT"])
}

type flakyEstimator struct {
	failSymbol string
	inner      rates.Estimator
}

func (e flakyEstimator) Estimate(ctx context.Context, q domain.BookTicker) (rates.DirectionalRates, error) {
	if q.Symbol == e.failSymbol {
		return rates.DirectionalRates{}, context.DeadlineExceeded
	}
	return e.inner.Estimate(ctx, q)
}

func (e flakyEstimator) Name() string { return "flaky" }

func TestBuildEstimatorErrorExcludesOnlyThatSymbol(t *testing.T) {
	b := NewBuilder(BuilderConfig{
		Estimator: flakyEstimator{failSymbol: "ETHUSDT", inner: rates.NewTopOfBook(0)},
		Workers:   2,
		Logger:    discardLogger(),
	})

	quotes := []domain.BookTicker{
		{Symbol: "BTCUSDT", BidPrice: 60000, AskPrice: 60010},
		{Symbol: "ETHUSDT", BidPrice: 3000, AskPrice: 3001},
	}

	g := b.Build(context.Background(), testCatalog(), quotes, nil)

	assert.True(t, g.HasAsset("BTC"))
	assert.False(t, g.HasAsset("ETH"))
}

func TestBuildRejectsNonFiniteRates(t *testing.T) {
	b := NewBuilder(BuilderConfig{
		Estimator: rates.NewTopOfBook(0),
		Workers:   1,
		Logger:    discardLogger(),
	})

	quotes := []domain.BookTicker{
		{Symbol: "BTCUSDT", BidPrice: math.Inf(1), AskPrice: 60010},
	}

	g := b.Build(context.Background(), testCatalog(), quotes, nil)
	assert.Equal(t, 0, g.NumAssets())
}
