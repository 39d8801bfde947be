// Package config provides configuration management for the portfolio application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Ledger      LedgerConfig     `mapstructure:"ledger"`
	Tax         TaxConfig        `mapstructure:"tax"`
	Pricing     PricingConfig    `mapstructure:"pricing"`
	Extraction  ExtractionConfig `mapstructure:"extraction"`
	UI          UIConfig         `mapstructure:"ui"`
	Credentials Credentials      `mapstructure:"-"` // Loaded separately
}

// LedgerConfig holds ledger storage configuration.
type LedgerConfig struct {
	DBDir        string `mapstructure:"db_dir"`
	BaseCurrency string `mapstructure:"base_currency"`
}

// TaxConfig holds tax rate configuration.
type TaxConfig struct {
	DefaultCGTRate      float64 `mapstructure:"default_cgt_rate"`
	DefaultDividendRate float64 `mapstructure:"default_dividend_rate"`
}

// PricingConfig holds market data configuration.
type PricingConfig struct {
	PSXBaseURL      string  `mapstructure:"psx_base_url"`
	MetalsBaseURL   string  `mapstructure:"metals_base_url"`
	ExchangeBaseURL string  `mapstructure:"exchange_base_url"`
	FallbackUSDPKR  float64 `mapstructure:"fallback_usd_pkr"`
	RequestTimeout  int     `mapstructure:"request_timeout_seconds"`
	RetryAttempts   int     `mapstructure:"retry_attempts"`
	CacheStaleAfter int     `mapstructure:"cache_stale_after_hours"`
}

// ExtractionConfig holds document extraction configuration.
type ExtractionConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	Currency     string `mapstructure:"currency_symbol"`
}

// Credentials holds API credentials.
type Credentials struct {
	GoldAPI      GoldAPICredentials      `mapstructure:"goldapi"`
	ExchangeRate ExchangeRateCredentials `mapstructure:"exchangerate"`
	OpenAI       OpenAICredentials       `mapstructure:"openai"`
}

// GoldAPICredentials holds goldapi.io credentials.
type GoldAPICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// ExchangeRateCredentials holds exchangerate-api credentials.
type ExchangeRateCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/wealthwise"
	}
	return filepath.Join(home, ".config", "wealthwise")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// A local .env file can seed credentials before env overrides run.
	_ = godotenv.Load()

	cfg := &Config{}

	// Load main config
	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return err
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("ledger.db_dir", filepath.Join(configDir, "db"))
	v.SetDefault("ledger.base_currency", "PKR")
	v.SetDefault("tax.default_cgt_rate", 0.15)
	v.SetDefault("tax.default_dividend_rate", 0.15)
	v.SetDefault("pricing.psx_base_url", "https://dps.psx.com.pk")
	v.SetDefault("pricing.metals_base_url", "https://www.goldapi.io/api")
	v.SetDefault("pricing.exchange_base_url", "https://v6.exchangerate-api.com/v6")
	v.SetDefault("pricing.fallback_usd_pkr", 278.50)
	v.SetDefault("pricing.request_timeout_seconds", 15)
	v.SetDefault("pricing.retry_attempts", 3)
	v.SetDefault("pricing.cache_stale_after_hours", 24)
	v.SetDefault("extraction.model", "gpt-4o")
	v.SetDefault("extraction.temperature", 0.0)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("ui.currency_symbol", "Rs.")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GOLDAPI_KEY"); v != "" {
		cfg.Credentials.GoldAPI.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_RATE_API_KEY"); v != "" {
		cfg.Credentials.ExchangeRate.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("WEALTHWISE_DB_DIR"); v != "" {
		cfg.Ledger.DBDir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ledger.DBDir == "" {
		return fmt.Errorf("ledger db_dir must not be empty")
	}
	if c.Tax.DefaultCGTRate < 0 || c.Tax.DefaultCGTRate > 1 {
		return fmt.Errorf("default_cgt_rate must be between 0 and 1")
	}
	if c.Tax.DefaultDividendRate < 0 || c.Tax.DefaultDividendRate > 1 {
		return fmt.Errorf("default_dividend_rate must be between 0 and 1")
	}
	if c.Pricing.FallbackUSDPKR <= 0 {
		return fmt.Errorf("fallback_usd_pkr must be positive")
	}
	if c.Pricing.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive")
	}
	if c.Pricing.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	return nil
}

// HasMetalsCredentials reports whether metals pricing is configured.
func (c *Config) HasMetalsCredentials() bool {
	return c.Credentials.GoldAPI.APIKey != ""
}

// HasExchangeCredentials reports whether currency conversion is configured.
func (c *Config) HasExchangeCredentials() bool {
	return c.Credentials.ExchangeRate.APIKey != ""
}

// HasExtractionCredentials reports whether document extraction is configured.
func (c *Config) HasExtractionCredentials() bool {
	return c.Credentials.OpenAI.APIKey != ""
}
