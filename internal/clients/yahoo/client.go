// Package yahoo provides a price provider over the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
	"github.com/bobmcallan/capvault/internal/timeseries"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the PriceProvider interface against the chart endpoint.
// Currencies are addressed as pair symbols (EURCHF=X), equities and crypto
// pairs as plain tickers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

// chartResponse is the subset of the chart payload this client reads.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrices retrieves daily closes for the given instruments over
// [start, end]. Instruments the provider does not know are logged and left
// out of the result; the caller treats them as still-missing.
func (c *Client) FetchPrices(ctx context.Context, instruments []string, start, end time.Time) ([]*models.SeriesRow, error) {
	byDay := make(map[string]*models.SeriesRow)
	var rows []*models.SeriesRow

	for _, symbol := range instruments {
		closes, err := c.fetchChart(ctx, symbol, start, end)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Err(err).Msg("Symbol fetch failed, skipping")
			continue
		}
		for day, value := range closes {
			row, ok := byDay[day.Format("2006-01-02")]
			if !ok {
				row = &models.SeriesRow{Date: day, Rates: make(map[string]float64)}
				byDay[day.Format("2006-01-02")] = row
				rows = append(rows, row)
			}
			row.Rates[symbol] = value
		}
	}
	return rows, nil
}

// fetchChart loads one symbol's daily closes, preferring adjusted values.
func (c *Client) fetchChart(ctx context.Context, symbol string, start, end time.Time) (map[time.Time]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive; push it past the last requested day.
	params.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "history")

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; capvault/1.0)")

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Symbol:     symbol,
		}
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    payload.Chart.Error.Description,
			Symbol:     symbol,
		}
	}
	if len(payload.Chart.Result) == 0 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "empty chart result", Symbol: symbol}
	}

	result := payload.Chart.Result[0]
	var values []*float64
	if len(result.Indicators.Adjclose) > 0 {
		values = result.Indicators.Adjclose[0].Adjclose
	} else if len(result.Indicators.Quote) > 0 {
		values = result.Indicators.Quote[0].Close
	}

	closes := make(map[time.Time]float64, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(values) || values[i] == nil {
			continue
		}
		closes[timeseries.Day(time.Unix(ts, 0))] = *values[i]
	}
	return closes, nil
}

// Compile-time check
var _ interfaces.PriceProvider = (*Client)(nil)
