// Package domain defines the core types and capability interfaces shared by
// every layer of the arbitrage scanner: the symbol catalog, market quotes,
// the exchange-rate graph, discovered cycles, and the provider/cache/store
// contracts their consumers depend on.
package domain

import "time"

// SymbolEntry maps a tradable symbol to its base and quote assets. Entries are
// immutable once fetched; only actively-trading symbols are ever retained.
type SymbolEntry struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"base_asset"`
	QuoteAsset string `json:"quote_asset"`
}

// SymbolCatalog is the full set of active tradable symbols captured at a point
// in time. A catalog is replaced wholesale on refresh, never merged; readers
// always see either the previous complete catalog or the new one.
type SymbolCatalog struct {
	Entries    map[string]SymbolEntry `json:"entries"`
	CapturedAt time.Time              `json:"captured_at"`
}

// NewSymbolCatalog builds a catalog from the given entries, keyed by symbol.
func NewSymbolCatalog(entries []SymbolEntry, capturedAt time.Time) *SymbolCatalog {
	m := make(map[string]SymbolEntry, len(entries))
	for _, e := range entries {
		m[e.Symbol] = e
	}
	return &SymbolCatalog{Entries: m, CapturedAt: capturedAt}
}

// Lookup returns the catalog entry for symbol, if present.
func (c *SymbolCatalog) Lookup(symbol string) (SymbolEntry, bool) {
	if c == nil {
		return SymbolEntry{}, false
	}
	e, ok := c.Entries[symbol]
	return e, ok
}

// Len returns the number of symbols in the catalog. A nil catalog is empty.
func (c *SymbolCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// VolumeTicker is a 24-hour rolling volume figure for one symbol. Only the
// quote-denominated volume is carried; it feeds the advisory liquidity filter.
type VolumeTicker struct {
	Symbol      string  `json:"symbol"`
	QuoteVolume float64 `json:"quote_volume"`
}
