package rates

import (
	"context"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// TopOfBook estimates conversion rates from the best bid and ask alone.
// Selling base yields bid*(1-fee) quote per unit; buying base yields
// (1/ask)*(1-fee) base per quote unit. When either price is missing or
// non-positive, both directions are unavailable: a pair quoted on only one
// side is not trustworthy in either direction.
type TopOfBook struct {
	feeRate float64
}

// NewTopOfBook creates a top-of-book estimator with the given taker fee
// fraction.
func NewTopOfBook(feeRate float64) *TopOfBook {
	return &TopOfBook{feeRate: feeRate}
}

// Name implements Estimator.
func (t *TopOfBook) Name() string { return "top_of_book" }

// Estimate implements Estimator.
func (t *TopOfBook) Estimate(_ context.Context, quote domain.BookTicker) (DirectionalRates, error) {
	if quote.BidPrice <= 0 || quote.AskPrice <= 0 {
		return DirectionalRates{}, nil
	}

	baseToQuote := quote.BidPrice * (1 - t.feeRate)
	quoteToBase := (1 / quote.AskPrice) * (1 - t.feeRate)

	if !validRate(baseToQuote) || !validRate(quoteToBase) {
		return DirectionalRates{}, nil
	}

	return DirectionalRates{
		BaseToQuote:   baseToQuote,
		QuoteToBase:   quoteToBase,
		BaseToQuoteOK: true,
		QuoteToBaseOK: true,
	}, nil
}

// Compile-time interface check.
var _ Estimator = (*TopOfBook)(nil)
