package rates

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// DepthSimulated estimates conversion rates by walking live order-book depth,
// simulating a fixed-size fill so the estimate includes slippage. Each
// direction fails independently: a bid ladder too thin to absorb the
// simulated sell leaves the buy direction untouched, and vice versa.
type DepthSimulated struct {
	provider domain.MarketDataProvider
	feeRate  float64
	// baseSize is the fixed base-asset quantity sold into the bid ladder.
	baseSize float64
	// quoteSize is the fixed quote-asset budget spent against the ask ladder.
	quoteSize float64
	// depthLimit is the number of levels fetched per side.
	depthLimit int
}

// DepthConfig holds construction parameters for DepthSimulated.
type DepthConfig struct {
	Provider   domain.MarketDataProvider
	FeeRate    float64
	BaseSize   float64
	QuoteSize  float64
	DepthLimit int
}

// NewDepthSimulated creates a depth-walking estimator.
func NewDepthSimulated(cfg DepthConfig) *DepthSimulated {
	return &DepthSimulated{
		provider:   cfg.Provider,
		feeRate:    cfg.FeeRate,
		baseSize:   cfg.BaseSize,
		quoteSize:  cfg.QuoteSize,
		depthLimit: cfg.DepthLimit,
	}
}

// Name implements Estimator.
func (d *DepthSimulated) Name() string { return "depth_simulated" }

// Estimate implements Estimator. It fetches the live book for the quoted
// symbol; a fetch failure excludes the whole symbol for this iteration.
func (d *DepthSimulated) Estimate(ctx context.Context, quote domain.BookTicker) (DirectionalRates, error) {
	book, err := d.provider.GetOrderBookDepth(ctx, quote.Symbol, d.depthLimit)
	if err != nil {
		return DirectionalRates{}, fmt.Errorf("rates: fetch depth %s: %w", quote.Symbol, err)
	}
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return DirectionalRates{}, nil
	}

	var out DirectionalRates
	if rate, ok := SimulateSellBase(book.Bids, d.baseSize, d.feeRate); ok {
		out.BaseToQuote = rate
		out.BaseToQuoteOK = true
	}
	if rate, ok := SimulateBuyBase(book.Asks, d.quoteSize, d.feeRate); ok {
		out.QuoteToBase = rate
		out.QuoteToBaseOK = true
	}
	return out, nil
}

// SimulateSellBase walks the bid ladder from best to worst, selling baseSize
// units of the base asset and accumulating quote proceeds. It returns the
// fee-adjusted average fill price (quote per base) and false when the ladder
// is exhausted before the full size fills.
func SimulateSellBase(bids []domain.PriceLevel, baseSize, feeRate float64) (float64, bool) {
	if baseSize <= 0 {
		return 0, false
	}

	remaining := baseSize
	totalQuote := 0.0
	for _, level := range bids {
		if level.Quantity >= remaining {
			totalQuote += remaining * level.Price
			remaining = 0
			break
		}
		totalQuote += level.Quantity * level.Price
		remaining -= level.Quantity
	}
	if remaining > 0 {
		return 0, false
	}

	avgPrice := totalQuote / baseSize
	rate := avgPrice * (1 - feeRate)
	if !validRate(rate) {
		return 0, false
	}
	return rate, true
}

// SimulateBuyBase walks the ask ladder from best to worst, spending a fixed
// quoteBudget and accumulating base quantity received. It returns the
// fee-adjusted rate (base per quote) and false when the ladder is exhausted
// before the budget is fully spent.
func SimulateBuyBase(asks []domain.PriceLevel, quoteBudget, feeRate float64) (float64, bool) {
	if quoteBudget <= 0 {
		return 0, false
	}

	remainingQuote := quoteBudget
	totalBase := 0.0
	for _, level := range asks {
		cost := level.Price * level.Quantity
		if cost >= remainingQuote {
			totalBase += remainingQuote / level.Price
			remainingQuote = 0
			break
		}
		totalBase += level.Quantity
		remainingQuote -= cost
	}
	if remainingQuote > 0 || totalBase <= 0 {
		return 0, false
	}

	rate := (totalBase / quoteBudget) * (1 - feeRate)
	if !validRate(rate) {
		return 0, false
	}
	return rate, true
}

// Compile-time interface check.
var _ Estimator = (*DepthSimulated)(nil)
