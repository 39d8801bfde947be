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

// RateCache is the slice of the store the currency service needs.
type RateCache interface {
	ExchangeRate(ctx context.Context, base, target string) (*models.ExchangeRate, error)
	SaveExchangeRate(ctx context.Context, rate *models.ExchangeRate) error
}

// CurrencyService resolves conversion rates from exchangerate-api,
// falling back to the cached rate and finally to a static rate for
// USD/PKR so metal valuations always have a number.
type CurrencyService struct {
	cache          RateCache
	client         *http.Client
	baseURL        string
	apiKey         string
	retry          utils.RetryConfig
	staleAfter     time.Duration
	fallbackUSDPKR decimal.Decimal
	logger         zerolog.Logger
}

// NewCurrencyService creates a currency conversion service.
func NewCurrencyService(cache RateCache, baseURL, apiKey string, timeout time.Duration, retry utils.RetryConfig, staleAfter time.Duration, fallbackUSDPKR decimal.Decimal, logger zerolog.Logger) *CurrencyService {
	return &CurrencyService{
		cache:          cache,
		client:         &http.Client{Timeout: timeout},
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		apiKey:         apiKey,
		retry:          retry,
		staleAfter:     staleAfter,
		fallbackUSDPKR: fallbackUSDPKR,
		logger:         logger,
	}
}

// Rate returns how many target units one base unit buys.
func (s *CurrencyService) Rate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	target = strings.ToUpper(strings.TrimSpace(target))
	if base == "" || target == "" {
		return decimal.Zero, errors.NewValidationError("currency", base+"/"+target, "must not be empty")
	}
	if base == target {
		return decimal.NewFromInt(1), nil
	}

	cached, cacheErr := s.cache.ExchangeRate(ctx, base, target)
	if cacheErr == nil && time.Since(cached.LastUpdated) < s.staleAfter {
		return cached.Rate, nil
	}

	if s.apiKey != "" {
		start := time.Now()
		rate, fetchErr := utils.RetryWithResult(ctx, s.retry, func() (decimal.Decimal, error) {
			return s.fetchRate(ctx, base, target)
		})
		logging.LogPriceFetch(s.logger, "exchangerate", base+"/"+target, time.Since(start), fetchErr)
		if fetchErr == nil {
			if err := s.cache.SaveExchangeRate(ctx, &models.ExchangeRate{
				Base: base, Target: target, Rate: rate, LastUpdated: time.Now().UTC(),
			}); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to cache exchange rate")
			}
			return rate, nil
		}
	}

	if cacheErr == nil {
		s.logger.Warn().Str("pair", base+"/"+target).Msg("Using stale cached exchange rate")
		return cached.Rate, nil
	}

	if base == "USD" && target == "PKR" && s.fallbackUSDPKR.IsPositive() {
		s.logger.Warn().Msg("Using static USD/PKR fallback rate")
		return s.fallbackUSDPKR, nil
	}

	return decimal.Zero, errors.NewPriceError("exchangerate", base+"/"+target, errors.ErrNoQuote)
}

// Convert converts an amount between currencies at the resolved rate.
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, base, target string) (decimal.Decimal, error) {
	rate, err := s.Rate(ctx, base, target)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func (s *CurrencyService) fetchRate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/pair/%s/%s", s.baseURL, s.apiKey, base, target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchangerate http %d", resp.StatusCode)
	}

	var raw struct {
		Result         string          `json:"result"`
		ConversionRate json.Number     `json:"conversion_rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return decimal.Zero, err
	}
	if raw.Result != "success" {
		return decimal.Zero, fmt.Errorf("exchangerate result %q", raw.Result)
	}

	rate, err := decimal.NewFromString(raw.ConversionRate.String())
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("bad conversion rate %q", raw.ConversionRate)
	}
	return rate, nil
}
