package rates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

func TestSimulateSellBaseSingleLevel(t *testing.T) {
	bids := []domain.PriceLevel{{Price: 100, Quantity: 5}}

	rate, ok := SimulateSellBase(bids, 1.0, 0.001)
	require.True(t, ok)
	assert.InEpsilon(t, 100*(1-0.001), rate, 1e-12)
}

func TestSimulateSellBaseWalksLadder(t *testing.T) {
	bids := []domain.PriceLevel{
		{Price: 100, Quantity: 1},
		{Price: 99, Quantity: 1},
		{Price: 98, Quantity: 2},
	}

	// Selling 3 units: 1 @ 100, 1 @ 99, 1 @ 98 = 297 quote total.
	rate, ok := SimulateSellBase(bids, 3.0, 0)
	require.True(t, ok)
	assert.InEpsilon(t, 297.0/3.0, rate, 1e-12)
}

func TestSimulateSellBaseExhausted(t *testing.T) {
	bids := []domain.PriceLevel{
		{Price: 100, Quantity: 1},
		{Price: 99, Quantity: 1},
	}

	rate, ok := SimulateSellBase(bids, 5.0, 0)
	assert.False(t, ok)
	assert.Zero(t, rate)
}

func TestSimulateSellBaseRejectsNonPositiveSize(t *testing.T) {
	bids := []domain.PriceLevel{{Price: 100, Quantity: 1}}

	_, ok := SimulateSellBase(bids, 0, 0)
	assert.False(t, ok)
	_, ok = SimulateSellBase(bids, -1, 0)
	assert.False(t, ok)
}

func TestSimulateBuyBaseSingleLevel(t *testing.T) {
	asks := []domain.PriceLevel{{Price: 200, Quantity: 10}}

	// Spending 100 quote at 200 buys 0.5 base before fees.
	rate, ok := SimulateBuyBase(asks, 100, 0.001)
	require.True(t, ok)
	assert.InEpsilon(t, (0.5/100)*(1-0.001), rate, 1e-12)
}

func TestSimulateBuyBaseWalksLadder(t *testing.T) {
	asks := []domain.PriceLevel{
		{Price: 100, Quantity: 1}, // costs 100
		{Price: 110, Quantity: 1}, // costs 110
	}

	// Budget 155: 1 unit @ 100, then 55/110 = 0.5 units at the next level.
	rate, ok := SimulateBuyBase(asks, 155, 0)
	require.True(t, ok)
	assert.InEpsilon(t, 1.5/155.0, rate, 1e-12)
}

func TestSimulateBuyBaseExhausted(t *testing.T) {
	asks := []domain.PriceLevel{{Price: 100, Quantity: 1}}

	rate, ok := SimulateBuyBase(asks, 500, 0)
	assert.False(t, ok)
	assert.Zero(t, rate)
}

type depthProvider struct {
	book domain.OrderBook
	err  error
}

func (p depthProvider) ListActiveSymbols(context.Context) ([]domain.SymbolEntry, error) {
	return nil, nil
}

func (p depthProvider) Get24hTickers(context.Context) ([]domain.VolumeTicker, error) {
	return nil, nil
}

func (p depthProvider) GetTopOfBookQuotes(context.Context) ([]domain.BookTicker, error) {
	return nil, nil
}

func (p depthProvider) GetOrderBookDepth(context.Context, string, int) (domain.OrderBook, error) {
	return p.book, p.err
}

func TestDepthEstimateIndependentDirections(t *testing.T) {
	// The bid ladder can absorb the simulated sell but the ask ladder is too
	// thin for the quote budget, so only base-to-quote survives.
	est := NewDepthSimulated(DepthConfig{
		Provider: depthProvider{book: domain.OrderBook{
			Symbol: "BTCUSDT",
			Bids:   []domain.PriceLevel{{Price: 100, Quantity: 10}},
			Asks:   []domain.PriceLevel{{Price: 101, Quantity: 0.1}},
		}},
		FeeRate:    0,
		BaseSize:   1.0,
		QuoteSize:  100.0,
		DepthLimit: 20,
	})

	out, err := est.Estimate(context.Background(), domain.BookTicker{Symbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.True(t, out.BaseToQuoteOK)
	assert.False(t, out.QuoteToBaseOK)
	assert.InEpsilon(t, 100.0, out.BaseToQuote, 1e-12)
}

func TestDepthEstimateEmptyBookUnavailable(t *testing.T) {
	est := NewDepthSimulated(DepthConfig{
		Provider:   depthProvider{book: domain.OrderBook{Symbol: "BTCUSDT"}},
		BaseSize:   1.0,
		QuoteSize:  100.0,
		DepthLimit: 20,
	})

	out, err := est.Estimate(context.Background(), domain.BookTicker{Symbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.True(t, out.Unavailable())
}

func TestDepthEstimateFetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("boom")
	est := NewDepthSimulated(DepthConfig{
		Provider:   depthProvider{err: fetchErr},
		BaseSize:   1.0,
		QuoteSize:  100.0,
		DepthLimit: 20,
	})

	_, err := est.Estimate(context.Background(), domain.BookTicker{Symbol: "BTCUSDT"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
}
