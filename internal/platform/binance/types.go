package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// exchangeInfoResponse is the wire shape of GET /api/v3/exchangeInfo, reduced
// to the fields the scanner reads.
type exchangeInfoResponse struct {
	Symbols []symbolInfo `json:"symbols"`
}

// symbolInfo is one tradable pair's metadata.
type symbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// statusTrading is the exchange's status value for an actively-trading pair.
const statusTrading = "TRADING"

// bookTickerEntry is one row of GET /api/v3/ticker/bookTicker. Prices arrive
// as decimal strings.
type bookTickerEntry struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

// dayTickerEntry is one row of GET /api/v3/ticker/24hr, reduced to the quote
// volume the liquidity filter needs.
type dayTickerEntry struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
}

// depthResponse is the wire shape of GET /api/v3/depth. Each level is a
// [price, quantity] pair of decimal strings.
type depthResponse struct {
	LastUpdateID int64        `json:"lastUpdateId"`
	Bids         []depthLevel `json:"bids"`
	Asks         []depthLevel `json:"asks"`
}

// accountResponse is the wire shape of the signed GET /api/v3/account,
// reduced to the trading permission flag the credential check reads.
type accountResponse struct {
	CanTrade bool `json:"canTrade"`
}

// depthLevel decodes the exchange's ["price", "qty"] tuple form.
type depthLevel struct {
	Price    float64
	Quantity float64
}

// UnmarshalJSON implements json.Unmarshaler for the tuple encoding.
func (l *depthLevel) UnmarshalJSON(data []byte) error {
	var raw [2]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("depth level: %w", err)
	}
	price, err := strconv.ParseFloat(raw[0], 64)
	if err != nil {
		return fmt.Errorf("depth level price %q: %w", raw[0], err)
	}
	qty, err := strconv.ParseFloat(raw[1], 64)
	if err != nil {
		return fmt.Errorf("depth level quantity %q: %w", raw[1], err)
	}
	l.Price = price
	l.Quantity = qty
	return nil
}

// apiError is the exchange's error payload, e.g. {"code":-1121,"msg":"..."}.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// parseFloat converts a decimal string to float64, treating the empty string
// as zero the way the exchange omits unavailable prices.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
