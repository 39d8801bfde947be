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

// metalSymbols maps metals to their goldapi.io codes.
var metalSymbols = map[models.Metal]string{
	models.Gold:      "XAU",
	models.Silver:    "XAG",
	models.Platinum:  "XPT",
	models.Palladium: "XPD",
}

// MetalQuoteCache is the slice of the store the metal service needs.
type MetalQuoteCache interface {
	MetalQuote(ctx context.Context, metal models.Metal) (*models.MetalQuote, error)
	SaveMetalQuote(ctx context.Context, quote *models.MetalQuote) error
}

// MetalService resolves per-gram spot prices in USD from goldapi.io,
// falling back to the cached quote when the fetch fails or no API key
// is configured.
type MetalService struct {
	cache      MetalQuoteCache
	client     *http.Client
	baseURL    string
	apiKey     string
	retry      utils.RetryConfig
	staleAfter time.Duration
	logger     zerolog.Logger
}

// NewMetalService creates a metal price service backed by cache.
func NewMetalService(cache MetalQuoteCache, baseURL, apiKey string, timeout time.Duration, retry utils.RetryConfig, staleAfter time.Duration, logger zerolog.Logger) *MetalService {
	return &MetalService{
		cache:      cache,
		client:     &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		retry:      retry,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Quote returns per-gram USD prices for a metal across karat purities.
func (s *MetalService) Quote(ctx context.Context, metal models.Metal) (*models.MetalQuote, error) {
	symbol, ok := metalSymbols[metal]
	if !ok {
		return nil, errors.NewValidationError("metal", string(metal), "unknown metal")
	}

	cached, cacheErr := s.cache.MetalQuote(ctx, metal)
	if cacheErr == nil && time.Since(cached.LastUpdated) < s.staleAfter {
		return cached, nil
	}

	if s.apiKey == "" {
		if cacheErr == nil {
			s.logger.Warn().Str("metal", string(metal)).Msg("No metals API key, using cached quote")
			return cached, nil
		}
		return nil, errors.NewPriceError("goldapi", symbol, errors.Wrap(errors.ErrNoQuote, "no API key and no cached quote"))
	}

	start := time.Now()
	quote, fetchErr := utils.RetryWithResult(ctx, s.retry, func() (*models.MetalQuote, error) {
		return s.fetchQuote(ctx, metal, symbol)
	})
	logging.LogPriceFetch(s.logger, "goldapi", symbol, time.Since(start), fetchErr)
	if fetchErr != nil {
		if cacheErr == nil {
			s.logger.Warn().Str("metal", string(metal)).Msg("Using stale cached metal quote")
			return cached, nil
		}
		return nil, errors.NewPriceError("goldapi", symbol, fetchErr)
	}

	if err := s.cache.SaveMetalQuote(ctx, quote); err != nil {
		s.logger.Warn().Err(err).Str("metal", string(metal)).Msg("Failed to cache metal quote")
	}
	return quote, nil
}

func (s *MetalService) fetchQuote(ctx context.Context, metal models.Metal, symbol string) (*models.MetalQuote, error) {
	url := fmt.Sprintf("%s/%s/USD", s.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-access-token", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("goldapi http %d", resp.StatusCode)
	}

	var raw struct {
		PriceGram24k float64 `json:"price_gram_24k"`
		PriceGram22k float64 `json:"price_gram_22k"`
		PriceGram21k float64 `json:"price_gram_21k"`
		PriceGram20k float64 `json:"price_gram_20k"`
		PriceGram18k float64 `json:"price_gram_18k"`
		PriceGram16k float64 `json:"price_gram_16k"`
		PriceGram14k float64 `json:"price_gram_14k"`
		PriceGram10k float64 `json:"price_gram_10k"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if raw.PriceGram24k <= 0 {
		return nil, errors.ErrNoQuote
	}

	grams := map[int]float64{
		24: raw.PriceGram24k, 22: raw.PriceGram22k, 21: raw.PriceGram21k,
		20: raw.PriceGram20k, 18: raw.PriceGram18k, 16: raw.PriceGram16k,
		14: raw.PriceGram14k, 10: raw.PriceGram10k,
	}
	quote := &models.MetalQuote{
		Metal:       metal,
		GramPrices:  make(map[int]decimal.Decimal, len(grams)),
		LastUpdated: time.Now().UTC(),
	}
	for karat, price := range grams {
		if price > 0 {
			quote.GramPrices[karat] = decimal.NewFromFloat(price).Round(4)
		}
	}
	return quote, nil
}
