// Package binance implements domain.MarketDataProvider against the Binance
// spot REST API. All endpoints the scanner uses are public market-data
// endpoints; the optional API key and HMAC secret are only attached when the
// client is pointed at authenticated routes.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/cyclebot/internal/crypto"
	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// Client is the REST client for the Binance spot API.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	httpClient *http.Client
}

// ClientConfig holds construction parameters for the Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://api.binance.com".
	BaseURL string
	// ApiKey and ApiSecret are optional; public market-data endpoints work
	// without them.
	ApiKey    string
	ApiSecret string
	// Timeout bounds every request. Zero means 10 seconds.
	Timeout time.Duration
}

// NewClient creates a new Binance REST client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var auth *crypto.HMACAuth
	if cfg.ApiKey != "" {
		auth = &crypto.HMACAuth{Key: cfg.ApiKey, Secret: cfg.ApiSecret}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		auth:    auth,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListActiveSymbols fetches the full exchange metadata and returns the
// actively-trading symbols with complete base/quote identifiers.
func (c *Client) ListActiveSymbols(ctx context.Context) ([]domain.SymbolEntry, error) {
	body, err := c.doRequest(ctx, "/api/v3/exchangeInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("binance: get exchange info: %w", err)
	}

	var resp exchangeInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("binance: decode exchange info: %w", err)
	}

	entries := make([]domain.SymbolEntry, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.Status != statusTrading {
			continue
		}
		if s.Symbol == "" || s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		entries = append(entries, domain.SymbolEntry{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
		})
	}

	return entries, nil
}

// Get24hTickers returns 24-hour rolling quote volumes for all symbols.
func (c *Client) Get24hTickers(ctx context.Context) ([]domain.VolumeTicker, error) {
	body, err := c.doRequest(ctx, "/api/v3/ticker/24hr", nil)
	if err != nil {
		return nil, fmt.Errorf("binance: get 24h tickers: %w", err)
	}

	var resp []dayTickerEntry
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("binance: decode 24h tickers: %w", err)
	}

	tickers := make([]domain.VolumeTicker, 0, len(resp))
	for _, t := range resp {
		tickers = append(tickers, domain.VolumeTicker{
			Symbol:      t.Symbol,
			QuoteVolume: parseFloat(t.QuoteVolume),
		})
	}

	return tickers, nil
}

// GetTopOfBookQuotes returns the best bid/ask for every symbol in one call.
func (c *Client) GetTopOfBookQuotes(ctx context.Context) ([]domain.BookTicker, error) {
	body, err := c.doRequest(ctx, "/api/v3/ticker/bookTicker", nil)
	if err != nil {
		return nil, fmt.Errorf("binance: get book tickers: %w", err)
	}

	var resp []bookTickerEntry
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("binance: decode book tickers: %w", err)
	}

	quotes := make([]domain.BookTicker, 0, len(resp))
	for _, q := range resp {
		quotes = append(quotes, domain.BookTicker{
			Symbol:   q.Symbol,
			BidPrice: parseFloat(q.BidPrice),
			AskPrice: parseFloat(q.AskPrice),
		})
	}

	return quotes, nil
}

// GetOrderBookDepth returns up to limit price levels per side for one symbol.
func (c *Client) GetOrderBookDepth(ctx context.Context, symbol string, limit int) (domain.OrderBook, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.doRequest(ctx, "/api/v3/depth", params)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: get depth %s: %w", symbol, err)
	}

	var resp depthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: decode depth %s: %w", symbol, err)
	}

	book := domain.OrderBook{
		Symbol:    symbol,
		Bids:      make([]domain.PriceLevel, 0, len(resp.Bids)),
		Asks:      make([]domain.PriceLevel, 0, len(resp.Asks)),
		FetchedAt: time.Now().UTC(),
	}
	for _, l := range resp.Bids {
		book.Bids = append(book.Bids, domain.PriceLevel{Price: l.Price, Quantity: l.Quantity})
	}
	for _, l := range resp.Asks {
		book.Asks = append(book.Asks, domain.PriceLevel{Price: l.Price, Quantity: l.Quantity})
	}

	return book, nil
}

// VerifyCredentials calls the signed account endpoint to confirm the
// configured API key and secret are accepted by the exchange. It returns an
// error when no credentials are configured or the exchange rejects them.
func (c *Client) VerifyCredentials(ctx context.Context) error {
	if c.auth == nil || c.auth.Secret == "" {
		return fmt.Errorf("binance: verify credentials: no api secret configured")
	}

	body, err := c.doSignedRequest(ctx, "/api/v3/account", nil)
	if err != nil {
		return fmt.Errorf("binance: verify credentials: %w", err)
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("binance: decode account: %w", err)
	}
	if !resp.CanTrade {
		return fmt.Errorf("binance: verify credentials: account cannot trade")
	}
	return nil
}

// doSignedRequest issues a GET against an authenticated endpoint, appending
// the timestamp and HMAC signature to the query string.
func (c *Client) doSignedRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	query := ""
	if len(params) > 0 {
		query = params.Encode()
	}
	fullURL := c.baseURL + path + "?" + c.auth.SignedQuery(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-MBX-APIKEY", c.auth.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// doRequest issues a GET against path with the given query parameters and
// returns the raw response body. The API key header is attached when
// configured.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.auth != nil {
		req.Header.Set("X-MBX-APIKEY", c.auth.Key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx responses to errors, surfacing the exchange's
// error payload when it can be decoded.
func (c *Client) checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	if status == http.StatusTooManyRequests || status == http.StatusTeapot {
		return fmt.Errorf("status %d: %w", status, domain.ErrRateLimited)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
		return fmt.Errorf("status %d: code %d: %s", status, apiErr.Code, apiErr.Msg)
	}
	return fmt.Errorf("status %d: %s", status, string(body))
}

// Compile-time interface check.
var _ domain.MarketDataProvider = (*Client)(nil)
