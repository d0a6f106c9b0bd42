package domain

import "time"

// PriceLevel is a single price+quantity entry in an order-book ladder.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// BookTicker is the top-of-book quote for one symbol: best bid and best ask.
// Quotes are transient; they are read once per scan iteration and discarded.
type BookTicker struct {
	Symbol   string  `json:"symbol"`
	BidPrice float64 `json:"bid_price"`
	AskPrice float64 `json:"ask_price"`
}

// OrderBook is a depth snapshot for one symbol. Bids are ordered best (highest
// price) to worst, asks best (lowest price) to worst, as delivered by the
// provider.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	FetchedAt time.Time    `json:"fetched_at"`
}
