package cli

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wealthwise/internal/errors"
	"wealthwise/internal/logging"
	"wealthwise/internal/models"
	"wealthwise/internal/store"
	"wealthwise/pkg/utils"
)

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.NewValidationError(name, raw, "must be YYYY-MM-DD")
	}
	return t, nil
}

func parseDecimalFlag(cmd *cobra.Command, name string, required bool) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		if required {
			return decimal.Zero, errors.NewValidationError(name, raw, "required")
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.NewValidationError(name, raw, "must be a number")
	}
	return d, nil
}

// addTradeCommands adds buy, sell and trade history commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
}

func newBuyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Record a stock purchase",
		Long: `Record a buy trade against a broker memo number. The memo number
must be unique; recording the same memo twice is rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ledger, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			date, err := parseDateFlag(cmd, "date")
			if err != nil {
				return err
			}
			qty, err := parseDecimalFlag(cmd, "quantity", true)
			if err != nil {
				return err
			}
			rate, err := parseDecimalFlag(cmd, "rate", true)
			if err != nil {
				return err
			}
			commission, err := parseDecimalFlag(cmd, "commission", false)
			if err != nil {
				return err
			}
			cdc, err := parseDecimalFlag(cmd, "cdc-charges", false)
			if err != nil {
				return err
			}
			tax, err := parseDecimalFlag(cmd, "sales-tax", false)
			if err != nil {
				return err
			}
			memo, _ := cmd.Flags().GetString("memo")
			stock, _ := cmd.Flags().GetString("stock")

			trade := &models.Trade{
				Date:       date,
				MemoNumber: memo,
				Instrument: stock,
				Quantity:   qty,
				Rate:       rate,
				Commission: commission,
				CDCCharges: cdc,
				SalesTax:   tax,
			}
			if err := ledger.RecordBuy(cmd.Context(), trade); err != nil {
				return err
			}

			logging.LogBuy(logging.WithUser(app.Logger, username),
				trade.MemoNumber, trade.Instrument, trade.Quantity.String(), trade.Rate.String())

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Recorded buy %s: %s × %s @ %s", trade.MemoNumber,
				utils.FormatQuantity(trade.Quantity), trade.Instrument, utils.FormatCurrency(trade.Rate))
			output.Printf("  Total: %s\n", utils.FormatCurrency(trade.TotalAmount))
			return nil
		},
	}

	cmd.Flags().String("date", "", "trade date YYYY-MM-DD (default: today)")
	cmd.Flags().String("memo", "", "broker memo number")
	cmd.Flags().String("stock", "", "stock symbol")
	cmd.Flags().String("quantity", "", "number of shares")
	cmd.Flags().String("rate", "", "price per share")
	cmd.Flags().String("commission", "", "broker commission")
	cmd.Flags().String("cdc-charges", "", "CDC charges")
	cmd.Flags().String("sales-tax", "", "sales tax on charges")
	cmd.MarkFlagRequired("memo")
	cmd.MarkFlagRequired("stock")
	cmd.MarkFlagRequired("quantity")
	cmd.MarkFlagRequired("rate")
	return cmd
}

func newSellCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell",
		Short: "Record a stock sale",
		Long: `Record a disposal. The sale is checked against the position derived
from the recorded history; selling more than is held is rejected.
Capital gains tax is charged on the realized gain only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ledger, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			date, err := parseDateFlag(cmd, "date")
			if err != nil {
				return err
			}
			qty, err := parseDecimalFlag(cmd, "quantity", true)
			if err != nil {
				return err
			}
			rate, err := parseDecimalFlag(cmd, "rate", true)
			if err != nil {
				return err
			}
			cgtRate, err := parseDecimalFlag(cmd, "cgt-rate", false)
			if err != nil {
				return err
			}
			if cgtRate.IsZero() && !cmd.Flags().Changed("cgt-rate") {
				cgtRate = decimal.NewFromFloat(app.Config.Tax.DefaultCGTRate)
			}
			stock, _ := cmd.Flags().GetString("stock")
			memo, _ := cmd.Flags().GetString("memo")

			sell, err := ledger.RecordSell(cmd.Context(), store.SellRequest{
				Date:       date,
				Instrument: stock,
				Quantity:   qty,
				Rate:       rate,
				CGTRate:    cgtRate,
				MemoNumber: memo,
			})
			if err != nil {
				return err
			}

			logging.LogSell(logging.WithUser(app.Logger, username),
				sell.MemoNumber, sell.Instrument, sell.Quantity.String(),
				sell.RealizedPL.String(), sell.CGTAmount.String())

			if output.IsJSON() {
				return output.JSON(sell)
			}
			output.Success("Recorded sell %s: %s × %s @ %s", sell.MemoNumber,
				utils.FormatQuantity(sell.Quantity), sell.Instrument, utils.FormatCurrency(sell.Rate))
			output.Printf("  Sale amount:  %s\n", utils.FormatCurrency(sell.SaleAmount))
			output.Printf("  Realized P&L: %s\n", output.FormatPnL(sell.RealizedPL))
			output.Printf("  CGT (%s%%):    %s\n", sell.CGTRate.Mul(decimal.NewFromInt(100)).String(), utils.FormatCurrency(sell.CGTAmount))
			output.Printf("  Net proceeds: %s\n", utils.FormatCurrency(sell.NetAmount))
			return nil
		},
	}

	cmd.Flags().String("date", "", "sale date YYYY-MM-DD (default: today)")
	cmd.Flags().String("stock", "", "stock symbol")
	cmd.Flags().String("quantity", "", "number of shares")
	cmd.Flags().String("rate", "", "price per share")
	cmd.Flags().String("cgt-rate", "", "capital gains tax rate (default from config)")
	cmd.Flags().String("memo", "", "sale memo number (generated if omitted)")
	cmd.MarkFlagRequired("stock")
	cmd.MarkFlagRequired("quantity")
	cmd.MarkFlagRequired("rate")
	return cmd
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Trade history",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ledger, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			stock, _ := cmd.Flags().GetString("stock")
			limit, _ := cmd.Flags().GetInt("limit")
			trades, err := ledger.Trades(cmd.Context(), store.TradeFilter{
				Instrument: stock,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades recorded")
				return nil
			}
			table := NewTable(output, "ID", "DATE", "MEMO", "STOCK", "TYPE", "QTY", "RATE", "TOTAL")
			for _, t := range trades {
				table.AddRow(
					strconv.FormatInt(t.ID, 10),
					t.Date.Format(dateLayout),
					t.MemoNumber,
					t.Instrument,
					string(t.Type),
					utils.FormatQuantity(t.Quantity),
					utils.FormatCurrency(t.Rate),
					utils.FormatCurrency(t.TotalAmount),
				)
			}
			table.Render()
			return nil
		},
	}
	listCmd.Flags().String("stock", "", "filter by stock symbol")
	listCmd.Flags().Int("limit", 0, "maximum rows")
	cmd.AddCommand(listCmd)

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a recorded buy trade",
		Long: `Rewrite the fields of a buy trade. The edit is rejected if the
corrected history would no longer cover the recorded sales.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ledger, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.NewValidationError("id", args[0], "must be an integer")
			}
			trade, err := ledger.TradeByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if trade.Type != models.TradeBuy {
				return errors.NewValidationError("id", args[0], "only buy trades can be edited")
			}

			if cmd.Flags().Changed("date") {
				if trade.Date, err = parseDateFlag(cmd, "date"); err != nil {
					return err
				}
			}
			for _, f := range []struct {
				name string
				dst  *decimal.Decimal
			}{
				{"quantity", &trade.Quantity},
				{"rate", &trade.Rate},
				{"commission", &trade.Commission},
				{"cdc-charges", &trade.CDCCharges},
				{"sales-tax", &trade.SalesTax},
			} {
				if cmd.Flags().Changed(f.name) {
					if *f.dst, err = parseDecimalFlag(cmd, f.name, true); err != nil {
						return err
					}
				}
			}
			if cmd.Flags().Changed("memo") {
				trade.MemoNumber, _ = cmd.Flags().GetString("memo")
			}
			if cmd.Flags().Changed("stock") {
				trade.Instrument, _ = cmd.Flags().GetString("stock")
			}
			trade.TotalAmount = decimal.Zero // recomputed

			if err := ledger.UpdateTrade(cmd.Context(), trade); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Updated trade %d", trade.ID)
			return nil
		},
	}
	editCmd.Flags().String("date", "", "trade date YYYY-MM-DD")
	editCmd.Flags().String("memo", "", "broker memo number")
	editCmd.Flags().String("stock", "", "stock symbol")
	editCmd.Flags().String("quantity", "", "number of shares")
	editCmd.Flags().String("rate", "", "price per share")
	editCmd.Flags().String("commission", "", "broker commission")
	editCmd.Flags().String("cdc-charges", "", "CDC charges")
	editCmd.Flags().String("sales-tax", "", "sales tax on charges")
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded trade",
		Long: `Remove a trade. The delete is rejected if the remaining history
would no longer cover the recorded sales.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ledger, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.NewValidationError("id", args[0], "must be an integer")
			}
			if err := ledger.DeleteTrade(cmd.Context(), id); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int64{"deleted": id})
			}
			output.Success("Deleted trade %d", id)
			return nil
		},
	})

	sellsCmd := &cobra.Command{
		Use:   "sells",
		Short: "List recorded disposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ledger, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			stock, _ := cmd.Flags().GetString("stock")
			limit, _ := cmd.Flags().GetInt("limit")
			sells, err := ledger.SellTrades(cmd.Context(), store.SellFilter{
				Instrument: stock,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(sells)
			}
			if len(sells) == 0 {
				output.Dim("No disposals recorded")
				return nil
			}
			table := NewTable(output, "DATE", "MEMO", "STOCK", "QTY", "RATE", "P&L", "CGT", "NET")
			for _, s := range sells {
				table.AddRow(
					s.Date.Format(dateLayout),
					s.MemoNumber,
					s.Instrument,
					utils.FormatQuantity(s.Quantity),
					utils.FormatCurrency(s.Rate),
					output.FormatPnL(s.RealizedPL),
					utils.FormatCurrency(s.CGTAmount),
					utils.FormatCurrency(s.NetAmount),
				)
			}
			table.Render()
			return nil
		},
	}
	sellsCmd.Flags().String("stock", "", "filter by stock symbol")
	sellsCmd.Flags().Int("limit", 0, "maximum rows")
	cmd.AddCommand(sellsCmd)

	return cmd
}
