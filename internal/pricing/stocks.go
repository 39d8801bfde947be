// Package pricing fetches market prices for stocks, metals and
// currencies, with a cache-first strategy so reports keep working when
// the network or an upstream source is down.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wealthwise/internal/errors"
	"wealthwise/internal/logging"
	"wealthwise/internal/models"
	"wealthwise/pkg/utils"
)

// StockQuoteCache is the slice of the store the stock service needs.
type StockQuoteCache interface {
	StockQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
	SaveStockQuote(ctx context.Context, quote *models.StockQuote) error
}

// StockService resolves previous-close prices for PSX symbols.
//
// Resolution order: today's cached price, then a live fetch (which
// refreshes the cache and demotes the old close to the buffer), then
// any cached price, then the buffer price. Only when every source is
// exhausted does the lookup fail.
type StockService struct {
	cache   StockQuoteCache
	client  *http.Client
	baseURL string
	retry   utils.RetryConfig
	logger  zerolog.Logger
}

// NewStockService creates a stock price service backed by cache.
func NewStockService(cache StockQuoteCache, baseURL string, timeout time.Duration, retry utils.RetryConfig, logger zerolog.Logger) *StockService {
	return &StockService{
		cache:   cache,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		retry:   retry,
		logger:  logger,
	}
}

// PreviousClose returns the previous-close price for a symbol.
func (s *StockService) PreviousClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, errors.NewValidationError("symbol", symbol, "must not be empty")
	}

	today := time.Now().Format("2006-01-02")

	cached, cacheErr := s.cache.StockQuote(ctx, symbol)
	if cacheErr == nil && cached.LastUpdated == today {
		return cached.PreviousClose, nil
	}

	start := time.Now()
	price, fetchErr := utils.RetryWithResult(ctx, s.retry, func() (decimal.Decimal, error) {
		return s.fetchClose(ctx, symbol)
	})
	logging.LogPriceFetch(s.logger, "psx", symbol, time.Since(start), fetchErr)

	if fetchErr == nil {
		quote := &models.StockQuote{
			Symbol:        symbol,
			PreviousClose: price,
			LastUpdated:   today,
			BufferPrice:   decimal.Zero,
		}
		if err := s.cache.SaveStockQuote(ctx, quote); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache stock quote")
		}
		return price, nil
	}

	// Fetch failed: fall back to whatever the cache still holds.
	if cacheErr == nil {
		if cached.PreviousClose.IsPositive() {
			s.logger.Warn().Str("symbol", symbol).Msg("Using stale cached price")
			return cached.PreviousClose, nil
		}
		if cached.BufferPrice.IsPositive() {
			s.logger.Warn().Str("symbol", symbol).Msg("Using buffer price")
			return cached.BufferPrice, nil
		}
	}

	return decimal.Zero, errors.NewPriceError("psx", symbol, errors.Wrap(fetchErr, errors.ErrNoQuote.Error()))
}

// fetchClose pulls the end-of-day timeseries for a symbol and takes the
// most recent close.
func (s *StockService) fetchClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/timeseries/eod/%s", s.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("User-Agent", "wealthwise/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("psx http %d", resp.StatusCode)
	}

	// Each data point is [timestamp, price, volume].
	var raw struct {
		Status int               `json:"status"`
		Data   [][3]json.Number  `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return decimal.Zero, err
	}
	if raw.Status != 1 || len(raw.Data) == 0 {
		return decimal.Zero, errors.ErrNoQuote
	}

	last := raw.Data[len(raw.Data)-1]
	price, err := decimal.NewFromString(last[1].String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad price in psx response: %w", err)
	}
	if !price.IsPositive() {
		return decimal.Zero, errors.ErrNoQuote
	}
	return price.Round(2), nil
}

// PriceMap resolves prices for a set of symbols. Symbols that cannot be
// priced are skipped; the caller decides whether a gap is fatal.
func (s *StockService) PriceMap(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		price, err := s.PreviousClose(ctx, sym)
		if err != nil {
			if errors.Is(err, errors.ErrNoQuote) {
				continue
			}
			return nil, err
		}
		prices[sym] = price
	}
	return prices, nil
}
