// Package oplab provides a client for the OpLab market-data API, with
// persistent quote caching.
package oplab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/domain"
	"github.com/aristath/optracker/internal/quotecache"
)

// Client for the OpLab v3 market API.
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
	log         zerolog.Logger
	cacheRepo   *quotecache.Repository
}

// NewClient creates a new OpLab client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL, accessToken string, cacheRepo *quotecache.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log.With().Str("client", "oplab").Logger(),
		cacheRepo:   cacheRepo,
	}
}

// cachedQuote is the structure stored in the quote cache tables.
type cachedQuote struct {
	Price float64 `json:"price"`
}

// stockResponse is the subset of the OpLab stock payload we consume.
type stockResponse struct {
	Close *float64 `json:"close"`
}

// optionResponse is the subset of the OpLab option details payload we consume.
type optionResponse struct {
	Symbol   string   `json:"symbol"`
	Category string   `json:"category"`
	Strike   float64  `json:"strike"`
	DueDate  string   `json:"due_date"`
	Close    *float64 `json:"close"`
}

// StockPrice returns the last close price for a stock ticker.
// Quotes are cached fresh-only: an expired cache entry is never returned,
// a failed lookup surfaces as an error so callers can show "unavailable".
func (c *Client) StockPrice(ctx context.Context, ticker string) (float64, error) {
	ticker = domain.NormalizeSymbol(ticker)
	if ticker == "" {
		return 0, fmt.Errorf("ticker is required")
	}

	if price, ok := c.cachedPrice("stock_quotes", ticker); ok {
		return price, nil
	}

	var result stockResponse
	if err := c.get(ctx, "/stocks/"+ticker, &result); err != nil {
		return 0, err
	}
	if result.Close == nil {
		return 0, fmt.Errorf("no close price for %s", ticker)
	}

	c.storePrice("stock_quotes", ticker, *result.Close, quotecache.TTLStockQuote)

	c.log.Info().Str("ticker", ticker).Float64("price", *result.Close).Msg("Fetched stock price")
	return *result.Close, nil
}

// OptionPrice returns the last close price for an option symbol.
func (c *Client) OptionPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return 0, fmt.Errorf("option symbol is required")
	}

	if price, ok := c.cachedPrice("option_quotes", symbol); ok {
		return price, nil
	}

	var result optionResponse
	if err := c.get(ctx, "/options/details/"+symbol, &result); err != nil {
		return 0, err
	}
	if result.Close == nil {
		return 0, fmt.Errorf("no close price for %s", symbol)
	}

	c.storePrice("option_quotes", symbol, *result.Close, quotecache.TTLOptionQuote)

	c.log.Info().Str("symbol", symbol).Float64("price", *result.Close).Msg("Fetched option price")
	return *result.Close, nil
}

// OptionDetails returns contract metadata for an option symbol.
// Contract terms never change after listing, so a stale cache entry is an
// acceptable fallback when the API is unreachable.
func (c *Client) OptionDetails(ctx context.Context, symbol string) (domain.OptionDetails, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.OptionDetails{}, fmt.Errorf("option symbol is required")
	}

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("option_details", symbol)
		if err == nil && data != nil {
			var details domain.OptionDetails
			if err := json.Unmarshal(data, &details); err == nil {
				c.log.Debug().Str("symbol", symbol).Msg("Cache hit")
				return details, nil
			}
		}
	}

	var result optionResponse
	if err := c.get(ctx, "/options/details/"+symbol, &result); err != nil {
		if details, ok := c.staleDetails(symbol); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using cached contract details")
			return details, nil
		}
		return domain.OptionDetails{}, err
	}

	details, err := toDomainDetails(symbol, result)
	if err != nil {
		return domain.OptionDetails{}, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("option_details", symbol, details, quotecache.TTLOptionDetails); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache option details")
		}
	}

	c.log.Info().Str("symbol", symbol).Str("category", string(details.Category)).Msg("Fetched option details")
	return details, nil
}

// get performs an authenticated GET against the OpLab API and decodes into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Access-Token", c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// cachedPrice returns a fresh cached price, if any.
func (c *Client) cachedPrice(table, symbol string) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}

	data, err := c.cacheRepo.GetIfFresh(table, symbol)
	if err != nil || data == nil {
		return 0, false
	}

	var cached cachedQuote
	if err := json.Unmarshal(data, &cached); err != nil {
		return 0, false
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", cached.Price).Msg("Cache hit")
	return cached.Price, true
}

// storePrice caches a price, logging but not failing on cache errors.
func (c *Client) storePrice(table, symbol string, price float64, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(table, symbol, cachedQuote{Price: price}, ttl); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}
}

// staleDetails retrieves cached contract details regardless of expiry.
func (c *Client) staleDetails(symbol string) (domain.OptionDetails, bool) {
	if c.cacheRepo == nil {
		return domain.OptionDetails{}, false
	}

	data, err := c.cacheRepo.Get("option_details", symbol)
	if err != nil || data == nil {
		return domain.OptionDetails{}, false
	}

	var details domain.OptionDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return domain.OptionDetails{}, false
	}

	return details, true
}

// toDomainDetails validates and converts an API payload to domain.OptionDetails.
func toDomainDetails(symbol string, result optionResponse) (domain.OptionDetails, error) {
	var category domain.AssetType
	switch strings.ToUpper(result.Category) {
	case "CALL":
		category = domain.AssetTypeCall
	case "PUT":
		category = domain.AssetTypePut
	default:
		return domain.OptionDetails{}, fmt.Errorf("unknown option category %q for %s", result.Category, symbol)
	}

	// The API reports due_date as a full timestamp; keep the date part only.
	dueDate := result.DueDate
	if idx := strings.IndexByte(dueDate, 'T'); idx >= 0 {
		dueDate = dueDate[:idx]
	}

	return domain.OptionDetails{
		Symbol:   symbol,
		Category: category,
		Strike:   result.Strike,
		DueDate:  dueDate,
	}, nil
}
