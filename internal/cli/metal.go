package cli

import (
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wealthwise/internal/errors"
	"wealthwise/internal/ledger"
	"wealthwise/internal/models"
	"wealthwise/pkg/utils"
)

func parseMetal(raw string) (models.Metal, error) {
	switch raw {
	case "gold", "Gold":
		return models.Gold, nil
	case "silver", "Silver":
		return models.Silver, nil
	case "platinum", "Platinum":
		return models.Platinum, nil
	case "palladium", "Palladium":
		return models.Palladium, nil
	}
	return "", errors.NewValidationError("metal", raw, "must be gold, silver, platinum or palladium")
}

// addMetalCommands adds the physical metal commands.
func addMetalCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "metal",
		Short: "Physical metal purchases",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a metal purchase",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			date, err := parseDateFlag(cmd, "date")
			if err != nil {
				return err
			}
			rawMetal, _ := cmd.Flags().GetString("metal")
			metal, err := parseMetal(rawMetal)
			if err != nil {
				return err
			}
			weight, err := parseDecimalFlag(cmd, "weight", true)
			if err != nil {
				return err
			}
			price, err := parseDecimalFlag(cmd, "price-per-gram", true)
			if err != nil {
				return err
			}
			karat, _ := cmd.Flags().GetInt("karat")

			trade := &models.MetalTrade{
				Date:         date,
				Metal:        metal,
				WeightGrams:  weight,
				Karat:        karat,
				PricePerGram: price,
			}
			if err := db.RecordMetalTrade(cmd.Context(), trade); err != nil {
				return err
			}

			app.Logger.Info().
				Str("user", username).
				Str("event", "metal_buy").
				Str("metal", string(trade.Metal)).
				Int("karat", trade.Karat).
				Str("weight", trade.WeightGrams.String()).
				Msg("Metal purchase recorded")

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Recorded %s %dk: %s @ %s/g", trade.Metal, trade.Karat,
				utils.FormatGrams(trade.WeightGrams), utils.FormatCurrency(trade.PricePerGram))
			output.Printf("  Total cost: %s\n", utils.FormatCurrency(trade.TotalCost))
			return nil
		},
	}
	addCmd.Flags().String("date", "", "purchase date YYYY-MM-DD (default: today)")
	addCmd.Flags().String("metal", "", "metal: gold, silver, platinum, palladium")
	addCmd.Flags().String("weight", "", "weight in grams")
	addCmd.Flags().Int("karat", 24, "karat purity (10, 14, 16, 18, 20, 21, 22, 24)")
	addCmd.Flags().String("price-per-gram", "", "purchase price per gram")
	addCmd.MarkFlagRequired("metal")
	addCmd.MarkFlagRequired("weight")
	addCmd.MarkFlagRequired("price-per-gram")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List metal purchases",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			trades, err := db.MetalTrades(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No metal purchases recorded")
				return nil
			}
			table := NewTable(output, "ID", "DATE", "METAL", "KARAT", "WEIGHT", "PRICE/G", "COST")
			for _, t := range trades {
				table.AddRow(
					strconv.FormatInt(t.ID, 10),
					t.Date.Format(dateLayout),
					string(t.Metal),
					strconv.Itoa(t.Karat),
					utils.FormatGrams(t.WeightGrams),
					utils.FormatCurrency(t.PricePerGram),
					utils.FormatCurrency(t.TotalCost),
				)
			}
			table.Render()
			return nil
		},
	})

	valueCmd := &cobra.Command{
		Use:   "value",
		Short: "Value the metal book at spot prices",
		Long: `Aggregate metal purchases by metal and karat and mark them to
current spot prices. Spot prices are quoted in USD per gram and
converted to the base currency. Metals without a quote stay on the
books at cost with a zero market value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			trades, err := db.MetalTrades(cmd.Context())
			if err != nil {
				return err
			}
			if len(trades) == 0 {
				output.Dim("No metal purchases recorded")
				return nil
			}

			metals := app.metalService(db)
			currency := app.currencyService(db)

			usdRate, err := currency.Rate(cmd.Context(), "USD", app.Config.Ledger.BaseCurrency)
			if err != nil {
				return err
			}

			// Spot quotes come back in USD per gram; convert to the
			// base currency before valuing the book.
			seen := make(map[models.Metal]bool)
			quotes := make(map[models.Metal]models.MetalQuote)
			for _, t := range trades {
				if seen[t.Metal] {
					continue
				}
				seen[t.Metal] = true
				q, err := metals.Quote(cmd.Context(), t.Metal)
				if err != nil {
					app.Logger.Warn().Err(err).Str("metal", string(t.Metal)).Msg("No spot quote")
					continue
				}
				converted := models.MetalQuote{
					Metal:       q.Metal,
					GramPrices:  make(map[int]decimal.Decimal, len(q.GramPrices)),
					LastUpdated: q.LastUpdated,
				}
				for karat, price := range q.GramPrices {
					converted.GramPrices[karat] = price.Mul(usdRate)
				}
				quotes[t.Metal] = converted
			}

			valuation := ledger.ValueMetals(trades, quotes)

			if output.IsJSON() {
				return output.JSON(valuation)
			}
			table := NewTable(output, "METAL", "KARAT", "WEIGHT", "COST", "MARKET", "P&L")
			for _, h := range valuation.Holdings {
				marketCell := utils.FormatCurrency(h.MarketValue)
				if h.PriceMissing {
					marketCell = output.DimText("no quote")
				}
				table.AddRow(
					string(h.Metal),
					strconv.Itoa(h.Karat),
					utils.FormatGrams(h.WeightGrams),
					utils.FormatCurrency(h.TotalCost),
					marketCell,
					output.FormatPnL(h.UnrealizedPL),
				)
			}
			table.Render()
			output.Printf("\nTotal cost:   %s\n", utils.FormatCurrency(valuation.TotalCost))
			output.Printf("Total market: %s\n", utils.FormatCurrency(valuation.TotalMarket))
			output.Printf("Unrealized:   %s\n", output.FormatPnL(valuation.TotalUnrealized))
			return nil
		},
	}
	cmd.AddCommand(valueCmd)

	rootCmd.AddCommand(cmd)
}
