package fubon

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the Fubon market-data REST API. The provider caps
// candle queries at one trading year, so callers chunk long ranges.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// Candle is one daily OHLCV record as the provider returns it.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// CandleResponse wraps the provider's historical candles payload.
type CandleResponse struct {
	Symbol string   `json:"symbol"`
	Market string   `json:"market"`
	Data   []Candle `json:"data"`
}

// SnapshotQuote is one stock's end-of-day quote from the market snapshot.
type SnapshotQuote struct {
	Symbol      string  `json:"symbol"`
	OpenPrice   float64 `json:"openPrice"`
	HighPrice   float64 `json:"highPrice"`
	LowPrice    float64 `json:"lowPrice"`
	ClosePrice  float64 `json:"closePrice"`
	TradeVolume int64   `json:"tradeVolume"`
}

// SnapshotResponse wraps one market's snapshot payload.
type SnapshotResponse struct {
	Date   string          `json:"date"`
	Market string          `json:"market"`
	Data   []SnapshotQuote `json:"data"`
}

// StockInfo is one listed company from the provider's ticker directory.
type StockInfo struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Industry     string `json:"industry"`
	IndustryName string `json:"industryName"`
	Market       string `json:"market"`
}

func NewClient(baseURL, apiKey string) *Client {
	// Custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// Rate limiter: 10 requests per second with burst of 20
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  httpClient,
		rateLimiter: limiter,
	}
}

// GetCandles fetches daily candles for a symbol inside one range. Ranges
// longer than a year are rejected by the provider.
func (c *Client) GetCandles(ctx context.Context, symbol string, from, to time.Time) (*CandleResponse, error) {
	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))
	query.Set("fields", "open,high,low,close,volume")

	var resp CandleResponse
	path := fmt.Sprintf("/marketdata/v1/stock/historical/candles/%s", url.PathEscape(symbol))
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSnapshot fetches the end-of-day quotes for one market (TSE, OTC, ...).
func (c *Client) GetSnapshot(ctx context.Context, market string) (*SnapshotResponse, error) {
	query := url.Values{}
	query.Set("market", market)

	var resp SnapshotResponse
	if err := c.get(ctx, "/marketdata/v1/stock/snapshot/quotes", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStockList fetches the ticker directory for one market and industry.
func (c *Client) GetStockList(ctx context.Context, market, industry string) ([]StockInfo, error) {
	query := url.Values{}
	query.Set("market", market)
	query.Set("industry", industry)

	var resp struct {
		Data []StockInfo `json:"data"`
	}
	if err := c.get(ctx, "/marketdata/v1/stock/tickers", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// get runs one rate-limited GET with retry and exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	maxRetries := 3
	backoff := 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.doGet(ctx, path, query, out)
		if lastErr == nil {
			return nil
		}

		if attempt == maxRetries {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
	return lastErr
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fubon api returned %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
