// Package rates estimates achievable conversion rates for tradable symbols.
// Two interchangeable strategies exist: top-of-book quoting and order-book
// depth simulation. Both produce rates in identical units (destination asset
// per one unit of source asset, after fees) so the graph builder can treat
// them interchangeably.
package rates

import (
	"context"
	"math"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// DirectionalRates carries the two conversion estimates for one symbol. Each
// direction has its own availability flag: the depth strategy can fail one
// side independently, while the top-of-book strategy always reports both
// sides available or neither.
type DirectionalRates struct {
	// BaseToQuote is how many quote units one base unit sells for.
	BaseToQuote float64
	// QuoteToBase is how many base units one quote unit buys.
	QuoteToBase float64

	BaseToQuoteOK bool
	QuoteToBaseOK bool
}

// Unavailable reports whether neither direction produced a usable rate.
func (r DirectionalRates) Unavailable() bool {
	return !r.BaseToQuoteOK && !r.QuoteToBaseOK
}

// Estimator is the rate-estimation capability. Implementations are selected
// once at configuration time. A returned error means the symbol could not be
// evaluated at all this iteration (for example a failed depth fetch); it is
// never fatal to the caller's loop.
type Estimator interface {
	// Estimate computes both directional rates for the symbol carried by
	// quote. Implementations must reject non-positive or non-finite rates
	// by marking the direction unavailable.
	Estimate(ctx context.Context, quote domain.BookTicker) (DirectionalRates, error)

	// Name identifies the strategy for logging.
	Name() string
}

// validRate reports whether r can be stored as a graph edge weight: strictly
// positive and finite. Zero, negative, NaN, or infinite estimates would
// corrupt the profit arithmetic downstream.
func validRate(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}
