package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"streamcache/internal/bybit/memorystore"
)

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// get performs a GET on path and decodes the result field of the response envelope into out.
func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bybit error: %s", body)
	}

	var rawResp BybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rawResp.RetCode != 0 {
		return fmt.Errorf("bybit error %d: %s", rawResp.RetCode, rawResp.RetMsg)
	}

	if err := json.Unmarshal(rawResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// GetUSDTAltcoinSymbols fetches linear symbols with quoteCoin = USDT (altcoins).
func (c *RESTClient) GetUSDTAltcoinSymbols(ctx context.Context) ([]string, error) {
	var result InstrumentListResponse
	query := url.Values{"category": {"linear"}, "limit": {"1000"}}
	if err := c.get(ctx, "/v5/market/instruments-info", query, &result); err != nil {
		return nil, err
	}

	// Collect tradable USDT-based altcoins, one symbol per base coin
	seen := map[string]bool{}
	var symbols []string
	for _, symbol := range result.List {
		if symbol.Status != "" && symbol.Status != "Trading" {
			continue
		}
		if symbol.QuoteCoin == "USDT" && !seen[symbol.BaseCoin] {
			symbols = append(symbols, symbol.Symbol)
			seen[symbol.BaseCoin] = true
		}
	}

	return symbols, nil
}

// GetKlines fetches closed klines between start and end, oldest first.
func (c *RESTClient) GetKlines(ctx context.Context, category, symbol, interval string,
	start, end time.Time) ([]memorystore.Kline, error) {
	query := url.Values{
		"category": {category},
		"symbol":   {symbol},
		"interval": {interval},
		"start":    {strconv.FormatInt(start.UnixMilli(), 10)},
		"end":      {strconv.FormatInt(end.UnixMilli(), 10)},
	}

	var result KlinesResponse
	if err := c.get(ctx, "/v5/market/kline", query, &result); err != nil {
		return nil, err
	}

	klines, err := ParseKlineList(interval, result.List)
	if err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}

	return klines, nil
}

// GetRecentTrades fetches up to limit of the latest public trades, oldest first.
func (c *RESTClient) GetRecentTrades(ctx context.Context, category, symbol string, limit int) ([]memorystore.Trade, error) {
	query := url.Values{
		"category": {category},
		"symbol":   {symbol},
		"limit":    {strconv.Itoa(limit)},
	}

	var result RecentTradesResponse
	if err := c.get(ctx, "/v5/market/recent-trade", query, &result); err != nil {
		return nil, err
	}

	trades := make([]memorystore.Trade, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		trade, err := result.List[i].ToTrade()
		if err != nil {
			return nil, fmt.Errorf("parse trade %s: %w", result.List[i].ExecID, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}
