package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wealthwise/internal/config"
	"wealthwise/internal/errors"
	"wealthwise/internal/extract"
	"wealthwise/internal/logging"
	"wealthwise/internal/pricing"
	"wealthwise/internal/store"
	"wealthwise/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

const dateLayout = "2006-01-02"

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Users     *store.Factory
	Extractor extract.Extractor
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	users, err := store.NewFactory(cfg.Ledger.DBDir)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize user registry, ledger commands unavailable")
	} else {
		app.Users = users
		logger.Debug().Str("dir", cfg.Ledger.DBDir).Msg("User registry initialized")
	}

	if cfg.HasExtractionCredentials() {
		app.Extractor = extract.NewOpenAIExtractor(
			cfg.Credentials.OpenAI.APIKey,
			cfg.Extraction.Model,
			float32(cfg.Extraction.Temperature),
		)
		logger.Debug().Str("model", cfg.Extraction.Model).Msg("Extraction client initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "wealthwise",
		Short: "WealthWise - personal investment record keeper",
		Long: `WealthWise keeps per-user ledgers of stock trades, dividends and
physical metal purchases, and derives positions, realized P&L, capital
gains tax and portfolio valuations from the recorded history.

Use 'wealthwise help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/wealthwise)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "ledger user")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addUserCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addDividendCommands(rootCmd, app)
	addMetalCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addPriceCommands(rootCmd, app)
	addExportCommands(rootCmd, app)
	addExtractCommands(rootCmd, app)

	return rootCmd
}

// openLedger opens the ledger database for the --user flag.
func (app *App) openLedger(cmd *cobra.Command) (*store.SQLiteLedger, string, error) {
	if app.Users == nil {
		return nil, "", errors.Wrap(errors.ErrConfigInvalid, "user registry unavailable")
	}
	username, _ := cmd.Flags().GetString("user")
	if username == "" {
		return nil, "", errors.NewValidationError("user", username, "required, pass --user")
	}
	ledger, err := app.Users.Open(username)
	if err != nil {
		return nil, "", err
	}
	return ledger, username, nil
}

func (app *App) retryConfig() utils.RetryConfig {
	cfg := utils.DefaultRetryConfig()
	cfg.MaxAttempts = app.Config.Pricing.RetryAttempts
	return cfg
}

func (app *App) requestTimeout() time.Duration {
	return time.Duration(app.Config.Pricing.RequestTimeout) * time.Second
}

func (app *App) staleAfter() time.Duration {
	return time.Duration(app.Config.Pricing.CacheStaleAfter) * time.Hour
}

// stockService builds a stock price service over the user's quote cache.
func (app *App) stockService(ledger *store.SQLiteLedger) *pricing.StockService {
	return pricing.NewStockService(ledger, app.Config.Pricing.PSXBaseURL,
		app.requestTimeout(), app.retryConfig(), app.Logger)
}

// metalService builds a metal price service over the user's quote cache.
func (app *App) metalService(ledger *store.SQLiteLedger) *pricing.MetalService {
	return pricing.NewMetalService(ledger, app.Config.Pricing.MetalsBaseURL,
		app.Config.Credentials.GoldAPI.APIKey, app.requestTimeout(),
		app.retryConfig(), app.staleAfter(), app.Logger)
}

// currencyService builds a currency service over the user's rate cache.
func (app *App) currencyService(ledger *store.SQLiteLedger) *pricing.CurrencyService {
	return pricing.NewCurrencyService(ledger, app.Config.Pricing.ExchangeBaseURL,
		app.Config.Credentials.ExchangeRate.APIKey, app.requestTimeout(),
		app.retryConfig(), app.staleAfter(),
		decimal.NewFromFloat(app.Config.Pricing.FallbackUSDPKR), app.Logger)
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("WealthWise v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			output.Bold("Ledger")
			output.Printf("  db_dir:         %s\n", app.Config.Ledger.DBDir)
			output.Printf("  base_currency:  %s\n", app.Config.Ledger.BaseCurrency)
			output.Bold("Tax")
			output.Printf("  cgt_rate:       %.2f\n", app.Config.Tax.DefaultCGTRate)
			output.Printf("  dividend_rate:  %.2f\n", app.Config.Tax.DefaultDividendRate)
			output.Bold("Pricing")
			output.Printf("  psx:            %s\n", app.Config.Pricing.PSXBaseURL)
			output.Printf("  metals key:     %v\n", app.Config.HasMetalsCredentials())
			output.Printf("  exchange key:   %v\n", app.Config.HasExchangeCredentials())
			output.Bold("Extraction")
			output.Printf("  model:          %s\n", app.Config.Extraction.Model)
			output.Printf("  openai key:     %v\n", app.Config.HasExtractionCredentials())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}
