package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# WealthWise Configuration

[ledger]
# Directory holding per-user ledger databases
db_dir = ""
# Base currency for valuations
base_currency = "PKR"

[tax]
# Capital gains tax rate applied to realized gains (0.0 - 1.0)
default_cgt_rate = 0.15
# Withholding tax rate applied to dividend payments (0.0 - 1.0)
default_dividend_rate = 0.15

[pricing]
# PSX market data endpoint
psx_base_url = "https://dps.psx.com.pk"
# Precious metals spot price API
metals_base_url = "https://www.goldapi.io/api"
# Currency conversion API
exchange_base_url = "https://v6.exchangerate-api.com/v6"
# Static USD to PKR rate used when conversion is unavailable
fallback_usd_pkr = 278.50
# HTTP request timeout in seconds
request_timeout_seconds = 15
# Retry attempts for transient price fetch failures
retry_attempts = 3
# Hours after which a cached quote is considered stale
cache_stale_after_hours = 24

[extraction]
# LLM model used for document extraction
model = "gpt-4o"
# Temperature for extraction responses
temperature = 0.0

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "2006-01-02"
# Currency symbol for formatted amounts
currency_symbol = "Rs."
`

const credentialsTemplate = `# WealthWise Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[goldapi]
api_key = ""

[exchangerate]
api_key = ""

[openai]
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return nil
}
