package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

type stubProvider struct {
	symbols     []domain.SymbolEntry
	symbolsErr  error
	tickers     []domain.VolumeTicker
	tickersErr  error
	listCalls   int
	tickerCalls int
}

func (p *stubProvider) ListActiveSymbols(context.Context) ([]domain.SymbolEntry, error) {
	p.listCalls++
	return p.symbols, p.symbolsErr
}

func (p *stubProvider) Get24hTickers(context.Context) ([]domain.VolumeTicker, error) {
	p.tickerCalls++
	return p.tickers, p.tickersErr
}

func (p *stubProvider) GetTopOfBookQuotes(context.Context) ([]domain.BookTicker, error) {
	return nil, nil
}

func (p *stubProvider) GetOrderBookDepth(context.Context, string, int) (domain.OrderBook, error) {
	return domain.OrderBook{}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func usdtSymbols() []domain.SymbolEntry {
	return []domain.SymbolEntry{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"},
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT"},
		{Symbol: "SOLUSDT", BaseAsset: "SOL", QuoteAsset: "USDT"},
		{Symbol: "ETHBTC", BaseAsset: "ETH", QuoteAsset: "BTC"},
	}
}

func TestRefreshIfStaleWithinTTLReusesCatalog(t *testing.T) {
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	provider := &stubProvider{symbols: usdtSymbols()}
	svc := New(Config{
		Provider:   provider,
		StartAsset: "USDT",
		TTL:        5 * time.Minute,
		Logger:     quietLogger(),
		Now:        func() time.Time { return clock },
	})

	require.True(t, svc.RefreshIfStale(context.Background()))
	require.Equal(t, 1, provider.listCalls)
	first := svc.Current()
	require.NotNil(t, first)
	assert.Equal(t, 4, first.Len())

	// Inside the TTL window nothing refetches, even across many calls.
	clock = clock.Add(4 * time.Minute)
	for i := 0; i < 10; i++ {
		assert.False(t, svc.RefreshIfStale(context.Background()))
	}
	assert.Equal(t, 1, provider.listCalls)
	assert.Same(t, first, svc.Current())

	// Crossing the TTL triggers exactly one refetch.
	clock = clock.Add(2 * time.Minute)
	assert.True(t, svc.RefreshIfStale(context.Background()))
	assert.Equal(t, 2, provider.listCalls)
	assert.False(t, svc.RefreshIfStale(context.Background()))
	assert.Equal(t, 2, provider.listCalls)
}

func TestRefreshFailureKeepsPreviousCatalog(t *testing.T) {
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	provider := &stubProvider{symbols: usdtSymbols()}
	svc := New(Config{
		Provider:   provider,
		StartAsset: "USDT",
		TTL:        time.Minute,
		Logger:     quietLogger(),
		Now:        func() time.Time { return clock },
	})

	svc.Refresh(context.Background())
	first := svc.Current()
	require.NotNil(t, first)

	provider.symbolsErr = errors.New("exchange down")
	clock = clock.Add(2 * time.Minute)
	svc.Refresh(context.Background())

	assert.Same(t, first, svc.Current())

	// A failed attempt still advances the clock so the provider is retried
	// once per TTL, not every iteration.
	assert.False(t, svc.RefreshIfStale(context.Background()))
	clock = clock.Add(2 * time.Minute)
	assert.True(t, svc.RefreshIfStale(context.Background()))
}

func TestRefreshNeverFetchedStartsEmpty(t *testing.T) {
	svc := New(Config{
		Provider:   &stubProvider{symbolsErr: errors.New("down")},
		StartAsset: "USDT",
		TTL:        time.Minute,
		Logger:     quietLogger(),
	})

	assert.Nil(t, svc.Current())
	svc.Refresh(context.Background())
	assert.Nil(t, svc.Current())
	assert.Contains(t, svc.Describe(), "never fetched")
}

func TestTopLiquidBasesFilter(t *testing.T) {
	provider := &stubProvider{
		symbols: usdtSymbols(),
		tickers: []domain.VolumeTicker{
			{Symbol: "BTCUSDT", QuoteVolume: 900},
			{Symbol: "ETHUSDT", QuoteVolume: 500},
			{Symbol: "SOLUSDT", QuoteVolume: 100},
			{Symbol: "ETHBTC", QuoteVolume: 9999}, // not a start-asset pair
		},
	}
	svc := New(Config{
		Provider:   provider,
		StartAsset: "USDT",
		TopPairs:   2,
		TTL:        time.Minute,
		Logger:     quietLogger(),
	})

	svc.Refresh(context.Background())

	bases := svc.AllowedBases()
	require.NotNil(t, bases)
	assert.True(t, bases["BTC"])
	assert.True(t, bases["ETH"])
	assert.False(t, bases["SOL"])
	// The start asset always passes so start-quoted symbols survive.
	assert.True(t, bases["USDT"])
}

func TestTopLiquidBasesDisabled(t *testing.T) {
	provider := &stubProvider{symbols: usdtSymbols()}
	svc := New(Config{
		Provider:   provider,
		StartAsset: "USDT",
		TopPairs:   0,
		TTL:        time.Minute,
		Logger:     quietLogger(),
	})

	svc.Refresh(context.Background())

	assert.Nil(t, svc.AllowedBases())
	assert.Zero(t, provider.tickerCalls)
}

func TestTopLiquidBasesTickerFailureDisablesFilter(t *testing.T) {
	provider := &stubProvider{
		symbols:    usdtSymbols(),
		tickersErr: errors.New("rate limited"),
	}
	svc := New(Config{
		Provider:   provider,
		StartAsset: "USDT",
		TopPairs:   3,
		TTL:        time.Minute,
		Logger:     quietLogger(),
	})

	svc.Refresh(context.Background())

	assert.Nil(t, svc.AllowedBases())
	assert.NotNil(t, svc.Current())
}
