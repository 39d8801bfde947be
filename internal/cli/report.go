package cli

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wealthwise/internal/ledger"
	"wealthwise/internal/store"
	"wealthwise/pkg/utils"
)

// addReportCommands adds positions, summary and income reports.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newSummaryCmd(app))
	rootCmd.AddCommand(newRealizedCmd(app))
	rootCmd.AddCommand(newIncomeCmd(app))
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show open positions",
		Long: `Derive open positions by replaying the recorded trade history.
The average cost reflects buys only; sales never move it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			trades, err := db.Trades(cmd.Context(), store.TradeFilter{})
			if err != nil {
				return err
			}
			positions, err := ledger.Positions(trades)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}
			if len(positions) == 0 {
				output.Dim("No open positions")
				return nil
			}
			table := NewTable(output, "STOCK", "QTY", "AVG COST", "COST VALUE")
			for _, p := range positions {
				table.AddRow(
					p.Instrument,
					utils.FormatQuantity(p.Quantity),
					utils.FormatCurrency(p.AverageCost),
					utils.FormatCurrency(p.CostValue()),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newSummaryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Portfolio valuation",
		Long: `Mark open positions to current prices. By default an instrument
without a price fails the report; with --zero-missing it is valued at
zero and flagged instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			trades, err := db.Trades(cmd.Context(), store.TradeFilter{})
			if err != nil {
				return err
			}
			positions, err := ledger.Positions(trades)
			if err != nil {
				return err
			}
			if len(positions) == 0 {
				output.Dim("No open positions")
				return nil
			}

			symbols := make([]string, 0, len(positions))
			for _, p := range positions {
				symbols = append(symbols, p.Instrument)
			}
			prices, err := app.stockService(db).PriceMap(cmd.Context(), symbols)
			if err != nil {
				return err
			}

			zeroMissing, _ := cmd.Flags().GetBool("zero-missing")
			valuation, err := ledger.Value(positions, prices, ledger.ValuationOptions{ZeroMissing: zeroMissing})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(valuation)
			}

			table := NewTable(output, "STOCK", "QTY", "AVG COST", "PRICE", "MARKET", "UNREALIZED", "WEIGHT")
			for _, h := range valuation.Holdings {
				priceCell := utils.FormatCurrency(h.MarketPrice)
				marketCell := utils.FormatCurrency(h.MarketValue)
				if h.PriceMissing {
					priceCell = output.DimText("missing")
					marketCell = output.DimText("-")
				}
				table.AddRow(
					h.Instrument,
					utils.FormatQuantity(h.Quantity),
					utils.FormatCurrency(h.AverageCost),
					priceCell,
					marketCell,
					output.FormatPnL(h.UnrealizedPL),
					h.Weight.Mul(decimal.NewFromInt(100)).StringFixed(1)+"%",
				)
			}
			table.Render()

			output.Printf("\nTotal cost:   %s\n", utils.FormatCurrency(valuation.TotalCost))
			output.Printf("Total market: %s\n", utils.FormatCurrency(valuation.TotalMarket))
			output.Printf("Unrealized:   %s\n", output.FormatPnL(valuation.TotalUnrealized))
			for _, sym := range valuation.MissingPrices {
				output.Warning("No price for %s; valued at zero", sym)
			}
			return nil
		},
	}
	cmd.Flags().Bool("zero-missing", false, "value instruments without a price at zero instead of failing")
	return cmd
}

func newRealizedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "realized",
		Short: "Realized P&L report",
		Long: `Aggregate completed disposals per instrument. Losses stay in the
totals as negatives; they are never offset against gains.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			sells, err := db.SellTrades(cmd.Context(), store.SellFilter{})
			if err != nil {
				return err
			}
			report := ledger.Realized(sells)

			if output.IsJSON() {
				return output.JSON(report)
			}
			if len(report.Rows) == 0 {
				output.Dim("No disposals recorded")
				return nil
			}
			table := NewTable(output, "STOCK", "QTY SOLD", "COST BASIS", "SALE AMOUNT", "REALIZED P&L", "CGT", "NET")
			for _, r := range report.Rows {
				table.AddRow(
					r.Instrument,
					utils.FormatQuantity(r.Quantity),
					utils.FormatCurrency(r.CostBasis),
					utils.FormatCurrency(r.SaleAmount),
					output.FormatPnL(r.RealizedPL),
					utils.FormatCurrency(r.CGTAmount),
					utils.FormatCurrency(r.NetAmount),
				)
			}
			table.Render()
			output.Printf("\nTotal realized: %s\n", output.FormatPnL(report.TotalRealizedPL))
			output.Printf("Total CGT:      %s\n", utils.FormatCurrency(report.TotalCGT))
			output.Printf("Total net:      %s\n", utils.FormatCurrency(report.TotalNet))
			return nil
		},
	}
}

func newIncomeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "income",
		Short: "Dividend income report",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			divs, err := db.Dividends(cmd.Context(), store.DividendFilter{})
			if err != nil {
				return err
			}
			report := ledger.Dividends(divs)

			if output.IsJSON() {
				return output.JSON(report)
			}
			if len(report.Rows) == 0 {
				output.Dim("No dividends recorded")
				return nil
			}
			table := NewTable(output, "STOCK", "PAYMENTS", "GROSS", "TAX", "NET")
			for _, r := range report.Rows {
				table.AddRow(
					r.Instrument,
					decimal.NewFromInt(int64(r.Payments)).String(),
					utils.FormatCurrency(r.GrossAmount),
					utils.FormatCurrency(r.TaxDeducted),
					utils.FormatCurrency(r.NetAmount),
				)
			}
			table.Render()
			output.Printf("\nTotal net dividend income: %s\n", utils.FormatCurrency(report.TotalNet))
			return nil
		},
	}
}
