package domain

import "context"

// MarketDataProvider is the read-only capability the scanner needs from the
// exchange. Implementations must bound every call with a timeout; a failed or
// timed-out call affects only the unit of work that issued it.
type MarketDataProvider interface {
	// ListActiveSymbols returns the tradable symbols that are actively
	// trading, already filtered to entries with a symbol, base, and quote.
	ListActiveSymbols(ctx context.Context) ([]SymbolEntry, error)

	// Get24hTickers returns 24-hour rolling quote volumes for all symbols.
	Get24hTickers(ctx context.Context) ([]VolumeTicker, error)

	// GetTopOfBookQuotes returns the best bid/ask for all symbols in one
	// batched call.
	GetTopOfBookQuotes(ctx context.Context) ([]BookTicker, error)

	// GetOrderBookDepth returns up to limit levels per side for one symbol.
	GetOrderBookDepth(ctx context.Context, symbol string, limit int) (OrderBook, error)
}
