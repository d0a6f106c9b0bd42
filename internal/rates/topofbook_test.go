package rates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

func TestTopOfBookRates(t *testing.T) {
	est := NewTopOfBook(0.0005)

	out, err := est.Estimate(context.Background(), domain.BookTicker{
		Symbol:   "BTCUSDT",
		BidPrice: 60000,
		AskPrice: 60010,
	})
	require.NoError(t, err)
	require.True(t, out.BaseToQuoteOK)
	require.True(t, out.QuoteToBaseOK)
	assert.InEpsilon(t, 60000*(1-0.0005), out.BaseToQuote, 1e-12)
	assert.InEpsilon(t, (1/60010.0)*(1-0.0005), out.QuoteToBase, 1e-12)
}

func TestTopOfBookZeroFee(t *testing.T) {
	est := NewTopOfBook(0)

	out, err := est.Estimate(context.Background(), domain.BookTicker{
		Symbol:   "ETHBTC",
		BidPrice: 0.05,
		AskPrice: 0.051,
	})
	require.NoError(t, err)
	assert.InEpsilon(t, 0.05, out.BaseToQuote, 1e-12)
	assert.InEpsilon(t, 1/0.051, out.QuoteToBase, 1e-12)
}

func TestTopOfBookOneSidedQuoteUnavailable(t *testing.T) {
	est := NewTopOfBook(0.0005)

	// A missing side poisons both directions.
	cases := []domain.BookTicker{
		{Symbol: "A", BidPrice: 0, AskPrice: 100},
		{Symbol: "B", BidPrice: 100, AskPrice: 0},
		{Symbol: "C", BidPrice: -1, AskPrice: 100},
		{Symbol: "D"},
	}
	for _, q := range cases {
		out, err := est.Estimate(context.Background(), q)
		require.NoError(t, err)
		assert.True(t, out.Unavailable(), "symbol %s", q.Symbol)
	}
}
