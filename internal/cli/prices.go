package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wealthwise/internal/models"
	"wealthwise/pkg/utils"
)

// addPriceCommands adds the prices command group.
func addPriceCommands(rootCmd *cobra.Command, app *App) {
	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Fetch market prices",
	}
	pricesCmd.AddCommand(newStockPriceCmd(app))
	pricesCmd.AddCommand(newMetalPricesCmd(app))
	pricesCmd.AddCommand(newFXCmd(app))
	rootCmd.AddCommand(pricesCmd)
}

func newStockPriceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <symbol>",
		Short: "Previous close for a stock",
		Long: `Resolve the previous close for a PSX symbol. Fresh quotes come
from the exchange; when the exchange is unreachable the last cached
close is used instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			symbol := strings.ToUpper(args[0])
			price, err := app.stockService(db).PreviousClose(cmd.Context(), symbol)
			if err != nil {
				return fmt.Errorf("resolving price for %s: %w", symbol, err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"symbol": symbol, "previous_close": price.String()})
			}
			output.Printf("%s  %s\n", output.ColoredString(ColorBold, symbol), utils.FormatCurrency(price))
			return nil
		},
	}
}

func newMetalPricesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "metals",
		Short: "Per-gram metal prices in USD",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.metalService(db)
			quotes := make(map[models.Metal]*models.MetalQuote)
			for _, metal := range models.AllMetals {
				q, err := svc.Quote(cmd.Context(), metal)
				if err != nil {
					output.Warning("No quote for %s: %v", metal, err)
					continue
				}
				quotes[metal] = q
			}
			if len(quotes) == 0 {
				return fmt.Errorf("no metal quotes available")
			}

			if output.IsJSON() {
				return output.JSON(quotes)
			}
			table := NewTable(output, "METAL", "KARAT", "USD/GRAM")
			for _, metal := range models.AllMetals {
				q, ok := quotes[metal]
				if !ok {
					continue
				}
				for _, karat := range models.ValidKarats {
					price, ok := q.GramPrices[karat]
					if !ok {
						continue
					}
					table.AddRow(string(metal), fmt.Sprintf("%dk", karat), price.String())
				}
			}
			table.Render()
			return nil
		},
	}
}

func newFXCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fx <base> <target>",
		Short: "Exchange rate between two currencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			base := strings.ToUpper(args[0])
			target := strings.ToUpper(args[1])
			rate, err := app.currencyService(db).Rate(cmd.Context(), base, target)
			if err != nil {
				return fmt.Errorf("resolving %s/%s rate: %w", base, target, err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"base": base, "target": target, "rate": rate.String()})
			}
			output.Printf("1 %s = %s %s\n", base, rate.String(), target)
			return nil
		},
	}
	return cmd
}
