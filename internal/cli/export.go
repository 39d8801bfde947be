package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"wealthwise/internal/store"
)

// addExportCommands adds the export command group.
func addExportCommands(rootCmd *cobra.Command, app *App) {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export ledger records to CSV",
	}
	exportCmd.AddCommand(newExportTradesCmd(app))
	exportCmd.AddCommand(newExportSellsCmd(app))
	exportCmd.AddCommand(newExportDividendsCmd(app))
	rootCmd.AddCommand(exportCmd)
}

// CSV rows carry decimals and dates as plain strings so the files
// round-trip through spreadsheets without float drift.

type tradeCSVRow struct {
	Date        string `csv:"date"`
	MemoNumber  string `csv:"memo_number"`
	Type        string `csv:"type"`
	Stock       string `csv:"stock"`
	Quantity    string `csv:"quantity"`
	Rate        string `csv:"rate"`
	Commission  string `csv:"commission"`
	CDCCharges  string `csv:"cdc_charges"`
	SalesTax    string `csv:"sales_tax"`
	TotalAmount string `csv:"total_amount"`
}

type sellCSVRow struct {
	Date       string `csv:"date"`
	MemoNumber string `csv:"memo_number"`
	Stock      string `csv:"stock"`
	Quantity   string `csv:"quantity"`
	Rate       string `csv:"rate"`
	SaleAmount string `csv:"sale_amount"`
	RealizedPL string `csv:"realized_pl"`
	CGTRate    string `csv:"cgt_rate"`
	CGTAmount  string `csv:"cgt_amount"`
	NetAmount  string `csv:"net_amount"`
}

type dividendCSVRow struct {
	WarrantNo    string `csv:"warrant_no"`
	PaymentDate  string `csv:"payment_date"`
	Stock        string `csv:"stock"`
	RatePerShare string `csv:"rate_per_share"`
	Shares       string `csv:"shares"`
	GrossAmount  string `csv:"gross_amount"`
	TaxDeducted  string `csv:"tax_deducted"`
	NetAmount    string `csv:"net_amount"`
}

func writeCSV(path string, rows interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func newExportTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Export buy and sell trade legs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			trades, err := db.Trades(cmd.Context(), store.TradeFilter{})
			if err != nil {
				return err
			}
			rows := make([]tradeCSVRow, 0, len(trades))
			for _, t := range trades {
				rows = append(rows, tradeCSVRow{
					Date:        t.Date.Format(dateLayout),
					MemoNumber:  t.MemoNumber,
					Type:        string(t.Type),
					Stock:       t.Instrument,
					Quantity:    t.Quantity.String(),
					Rate:        t.Rate.String(),
					Commission:  t.Commission.String(),
					CDCCharges:  t.CDCCharges.String(),
					SalesTax:    t.SalesTax.String(),
					TotalAmount: t.TotalAmount.String(),
				})
			}

			path := exportPath(cmd, username, "trades.csv")
			if err := writeCSV(path, &rows); err != nil {
				return err
			}
			output.Success("Exported %d trades to %s", len(rows), path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file path")
	return cmd
}

func newExportSellsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sells",
		Short: "Export completed disposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			sells, err := db.SellTrades(cmd.Context(), store.SellFilter{})
			if err != nil {
				return err
			}
			rows := make([]sellCSVRow, 0, len(sells))
			for _, s := range sells {
				rows = append(rows, sellCSVRow{
					Date:       s.Date.Format(dateLayout),
					MemoNumber: s.MemoNumber,
					Stock:      s.Instrument,
					Quantity:   s.Quantity.String(),
					Rate:       s.Rate.String(),
					SaleAmount: s.SaleAmount.String(),
					RealizedPL: s.RealizedPL.String(),
					CGTRate:    s.CGTRate.String(),
					CGTAmount:  s.CGTAmount.String(),
					NetAmount:  s.NetAmount.String(),
				})
			}

			path := exportPath(cmd, username, "sells.csv")
			if err := writeCSV(path, &rows); err != nil {
				return err
			}
			output.Success("Exported %d disposals to %s", len(rows), path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file path")
	return cmd
}

func newExportDividendsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dividends",
		Short: "Export dividend payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			db, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			divs, err := db.Dividends(cmd.Context(), store.DividendFilter{})
			if err != nil {
				return err
			}
			rows := make([]dividendCSVRow, 0, len(divs))
			for _, d := range divs {
				rows = append(rows, dividendCSVRow{
					WarrantNo:    d.WarrantNo,
					PaymentDate:  d.PaymentDate.Format(dateLayout),
					Stock:        d.Instrument,
					RatePerShare: d.RatePerShare.String(),
					Shares:       d.Shares.String(),
					GrossAmount:  d.GrossAmount.String(),
					TaxDeducted:  d.TaxDeducted.String(),
					NetAmount:    d.NetAmount.String(),
				})
			}

			path := exportPath(cmd, username, "dividends.csv")
			if err := writeCSV(path, &rows); err != nil {
				return err
			}
			output.Success("Exported %d dividends to %s", len(rows), path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file path")
	return cmd
}

// exportPath resolves the output path, defaulting to a per-user file in
// the working directory.
func exportPath(cmd *cobra.Command, username, name string) string {
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		return path
	}
	return fmt.Sprintf("%s_%s", username, name)
}
