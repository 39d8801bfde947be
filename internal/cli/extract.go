package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wealthwise/internal/models"
)

// addExtractCommands adds the extract command group.
func addExtractCommands(rootCmd *cobra.Command, app *App) {
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract records from broker document text",
		Long: `Parse the text of a broker memo or dividend warrant into a draft
record. Drafts are printed for review; pass --save to run the draft
through validation and record it.`,
	}
	extractCmd.AddCommand(newExtractTradeCmd(app))
	extractCmd.AddCommand(newExtractDividendCmd(app))
	rootCmd.AddCommand(extractCmd)
}

func newExtractTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade <file>",
		Short: "Extract a buy trade from memo text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Extractor == nil {
				return fmt.Errorf("extraction not configured: set OPENAI_API_KEY or openai_api_key in credentials.toml")
			}

			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
			draft, err := app.Extractor.ExtractTrade(cmd.Context(), string(text))
			if err != nil {
				return err
			}

			if output.IsJSON() && !cmd.Flags().Changed("save") {
				return output.JSON(draft)
			}
			printDraftTrade(output, draft)

			save, _ := cmd.Flags().GetBool("save")
			if !save {
				output.Dim("Review the draft, then re-run with --save to record it")
				return nil
			}

			trade, err := draftToTrade(draft)
			if err != nil {
				return err
			}
			db, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.RecordBuy(cmd.Context(), trade); err != nil {
				return err
			}
			app.Logger.Info().Str("user", username).Str("memo", trade.MemoNumber).Msg("Recorded extracted trade")
			output.Success("Recorded buy %s: %s x %s @ %s", trade.MemoNumber, trade.Instrument,
				trade.Quantity.String(), trade.Rate.String())
			return nil
		},
	}
	cmd.Flags().Bool("save", false, "record the draft after validation")
	return cmd
}

func newExtractDividendCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dividend <file>",
		Short: "Extract a dividend from warrant text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Extractor == nil {
				return fmt.Errorf("extraction not configured: set OPENAI_API_KEY or openai_api_key in credentials.toml")
			}

			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
			draft, err := app.Extractor.ExtractDividend(cmd.Context(), string(text))
			if err != nil {
				return err
			}

			if output.IsJSON() && !cmd.Flags().Changed("save") {
				return output.JSON(draft)
			}
			printDraftDividend(output, draft)

			save, _ := cmd.Flags().GetBool("save")
			if !save {
				output.Dim("Review the draft, then re-run with --save to record it")
				return nil
			}

			dividend, err := draftToDividend(draft)
			if err != nil {
				return err
			}
			db, username, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.RecordDividend(cmd.Context(), dividend); err != nil {
				return err
			}
			app.Logger.Info().Str("user", username).Str("warrant", dividend.WarrantNo).Msg("Recorded extracted dividend")
			output.Success("Recorded dividend %s: %s net %s", dividend.WarrantNo, dividend.Instrument,
				dividend.NetAmount.String())
			return nil
		},
	}
	cmd.Flags().Bool("save", false, "record the draft after validation")
	return cmd
}

func printDraftTrade(output *Output, d *models.DraftTrade) {
	table := NewTable(output, "FIELD", "VALUE")
	table.AddRow("memo_number", draftCell(output, d.MemoNumber))
	table.AddRow("date", draftCell(output, d.Date))
	table.AddRow("stock", draftCell(output, d.Instrument))
	table.AddRow("quantity", draftCell(output, d.Quantity))
	table.AddRow("rate", draftCell(output, d.Rate))
	table.AddRow("commission", draftCell(output, d.Commission))
	table.AddRow("cdc_charges", draftCell(output, d.CDCCharges))
	table.AddRow("sales_tax", draftCell(output, d.SalesTax))
	table.Render()
}

func printDraftDividend(output *Output, d *models.DraftDividend) {
	table := NewTable(output, "FIELD", "VALUE")
	table.AddRow("warrant_no", draftCell(output, d.WarrantNo))
	table.AddRow("payment_date", draftCell(output, d.PaymentDate))
	table.AddRow("stock", draftCell(output, d.Instrument))
	table.AddRow("rate_per_share", draftCell(output, d.RatePerShare))
	table.AddRow("shares", draftCell(output, d.Shares))
	table.AddRow("tax_deducted", draftCell(output, d.TaxDeducted))
	table.Render()
}

func draftCell(output *Output, v string) string {
	if v == "" {
		return output.DimText("(missing)")
	}
	return v
}

func draftToTrade(d *models.DraftTrade) (*models.Trade, error) {
	date, err := time.Parse(dateLayout, d.Date)
	if err != nil {
		return nil, fmt.Errorf("draft date %q: expected YYYY-MM-DD", d.Date)
	}
	qty, err := draftDecimal("quantity", d.Quantity)
	if err != nil {
		return nil, err
	}
	rate, err := draftDecimal("rate", d.Rate)
	if err != nil {
		return nil, err
	}
	commission, err := draftDecimal("commission", d.Commission)
	if err != nil {
		return nil, err
	}
	cdc, err := draftDecimal("cdc_charges", d.CDCCharges)
	if err != nil {
		return nil, err
	}
	salesTax, err := draftDecimal("sales_tax", d.SalesTax)
	if err != nil {
		return nil, err
	}
	return &models.Trade{
		Date:       date,
		MemoNumber: strings.TrimSpace(d.MemoNumber),
		Instrument: strings.ToUpper(strings.TrimSpace(d.Instrument)),
		Quantity:   qty,
		Rate:       rate,
		Commission: commission,
		CDCCharges: cdc,
		SalesTax:   salesTax,
	}, nil
}

func draftToDividend(d *models.DraftDividend) (*models.Dividend, error) {
	date, err := time.Parse(dateLayout, d.PaymentDate)
	if err != nil {
		return nil, fmt.Errorf("draft payment date %q: expected YYYY-MM-DD", d.PaymentDate)
	}
	rate, err := draftDecimal("rate_per_share", d.RatePerShare)
	if err != nil {
		return nil, err
	}
	shares, err := draftDecimal("shares", d.Shares)
	if err != nil {
		return nil, err
	}
	tax, err := draftDecimal("tax_deducted", d.TaxDeducted)
	if err != nil {
		return nil, err
	}
	return &models.Dividend{
		WarrantNo:    strings.TrimSpace(d.WarrantNo),
		PaymentDate:  date,
		Instrument:   strings.ToUpper(strings.TrimSpace(d.Instrument)),
		RatePerShare: rate,
		Shares:       shares,
		TaxDeducted:  tax,
	}, nil
}

// draftDecimal parses a draft money field, treating "" as zero.
func draftDecimal(field, v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
	if v == "" {
		return decimal.Zero, nil
	}
	dec, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("draft %s %q: not a number", field, v)
	}
	return dec, nil
}
