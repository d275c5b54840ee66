// Package quote fetches live market quotes from Yahoo Finance.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable marks any whole-batch provider failure: network error,
// rate limiting, or a malformed/error response. Unknown symbols are not
// failures; they are simply absent from the returned map.
var ErrUnavailable = errors.New("quote provider unavailable")

// Quote is one symbol's current price plus display metadata, with
// provider-omitted fields already defaulted.
type Quote struct {
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	MarketState string  `json:"market_state"`
	DisplayName string  `json:"display_name"`
}

// Source returns current quotes for a batch of symbols. The returned
// map contains an entry per symbol the provider knows; symbols the
// provider does not recognize are absent, never an error.
type Source interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]Quote, error)
}

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	DefaultTimeout = 15 * time.Second
)

// YahooClient fetches batched quotes from the Yahoo Finance v7 quote
// endpoint.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewYahooClient creates a Yahoo Finance client. baseURL may be empty
// to use the public endpoint; timeout <= 0 falls back to the default.
func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &YahooClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// yahooQuoteResponse mirrors the provider's v7 quote payload. Fields the
// provider may omit decode to their zero value and are defaulted before
// a Quote leaves this package.
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			PreMarketPrice     float64 `json:"preMarketPrice"`
			PostMarketPrice    float64 `json:"postMarketPrice"`
			Currency           string  `json:"currency"`
			MarketState        string  `json:"marketState"`
			ShortName          string  `json:"shortName"`
			LongName           string  `json:"longName"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// GetPrices issues one batched quote request for all symbols.
func (c *YahooClient) GetPrices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	prices := make(map[string]Quote)
	if len(symbols) == 0 {
		return prices, nil
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (stock-support-tracker)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: rate limited (HTTP 429)", ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var parsed yahooQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if parsed.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("%w: provider error %s: %s", ErrUnavailable,
			parsed.QuoteResponse.Error.Code, parsed.QuoteResponse.Error.Description)
	}

	for _, r := range parsed.QuoteResponse.Result {
		price := r.RegularMarketPrice
		if price == 0 {
			if r.PreMarketPrice != 0 {
				price = r.PreMarketPrice
			} else if r.PostMarketPrice != 0 {
				price = r.PostMarketPrice
			}
		}

		currency := r.Currency
		if currency == "" {
			currency = "USD"
		}
		marketState := r.MarketState
		if marketState == "" {
			marketState = "REGULAR"
		}
		name := r.ShortName
		if name == "" {
			name = r.LongName
		}
		if name == "" {
			name = r.Symbol
		}

		prices[r.Symbol] = Quote{
			Price:       price,
			Currency:    currency,
			MarketState: marketState,
			DisplayName: name,
		}
	}

	return prices, nil
}
