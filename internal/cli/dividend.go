package cli

import (
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wealthwise/internal/errors"
	"wealthwise/internal/logging"
	"wealthwise/internal/models"
	"wealthwise/internal/store"
	"wealthwise/pkg/utils"
)

// addDividendCommands adds the dividend commands.
func addDividendCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "dividend",
		Short: "Dividend payments",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a dividend payment",
		Long: `Record a dividend against a warrant number. The warrant number must
be unique; paying in the same warrant twice is rejected. The gross
amount is rate × shares and the net amount deducts the withholding tax.`,
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
			rate, err := parseDecimalFlag(cmd, "rate", true)
			if err != nil {
				return err
			}
			shares, err := parseDecimalFlag(cmd, "shares", true)
			if err != nil {
				return err
			}
			tax, err := parseDecimalFlag(cmd, "tax", false)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("tax") {
				// Default withholding: gross × configured rate.
				gross := rate.Mul(shares)
				tax = gross.Mul(decimal.NewFromFloat(app.Config.Tax.DefaultDividendRate))
			}
			warrant, _ := cmd.Flags().GetString("warrant")
			stock, _ := cmd.Flags().GetString("stock")

			d := &models.Dividend{
				WarrantNo:    warrant,
				PaymentDate:  date,
				Instrument:   stock,
				RatePerShare: rate,
				Shares:       shares,
				TaxDeducted:  tax,
			}
			if err := ledger.RecordDividend(cmd.Context(), d); err != nil {
				return err
			}

			logging.LogDividend(logging.WithUser(app.Logger, username),
				d.WarrantNo, d.Instrument, d.NetAmount.String())

			if output.IsJSON() {
				return output.JSON(d)
			}
			output.Success("Recorded dividend %s: %s", d.WarrantNo, d.Instrument)
			output.Printf("  Gross: %s\n", utils.FormatCurrency(d.GrossAmount))
			output.Printf("  Tax:   %s\n", utils.FormatCurrency(d.TaxDeducted))
			output.Printf("  Net:   %s\n", utils.FormatCurrency(d.NetAmount))
			return nil
		},
	}
	addCmd.Flags().String("date", "", "payment date YYYY-MM-DD (default: today)")
	addCmd.Flags().String("warrant", "", "dividend warrant number")
	addCmd.Flags().String("stock", "", "stock symbol")
	addCmd.Flags().String("rate", "", "dividend per share")
	addCmd.Flags().String("shares", "", "number of shares")
	addCmd.Flags().String("tax", "", "tax deducted (default: gross × configured rate)")
	addCmd.MarkFlagRequired("warrant")
	addCmd.MarkFlagRequired("stock")
	addCmd.MarkFlagRequired("rate")
	addCmd.MarkFlagRequired("shares")
	cmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded dividends",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ledger, _, err := app.openLedger(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			stock, _ := cmd.Flags().GetString("stock")
			divs, err := ledger.Dividends(cmd.Context(), store.DividendFilter{Instrument: stock})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(divs)
			}
			if len(divs) == 0 {
				output.Dim("No dividends recorded")
				return nil
			}
			table := NewTable(output, "ID", "DATE", "WARRANT", "STOCK", "SHARES", "RATE", "GROSS", "TAX", "NET")
			for _, d := range divs {
				table.AddRow(
					strconv.FormatInt(d.ID, 10),
					d.PaymentDate.Format(dateLayout),
					d.WarrantNo,
					d.Instrument,
					utils.FormatQuantity(d.Shares),
					utils.FormatCurrency(d.RatePerShare),
					utils.FormatCurrency(d.GrossAmount),
					utils.FormatCurrency(d.TaxDeducted),
					utils.FormatCurrency(d.NetAmount),
				)
			}
			table.Render()
			return nil
		},
	}
	listCmd.Flags().String("stock", "", "filter by stock symbol")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded dividend",
		Args:  cobra.ExactArgs(1),
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
			if err := ledger.DeleteDividend(cmd.Context(), id); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int64{"deleted": id})
			}
			output.Success("Deleted dividend %d", id)
			return nil
		},
	})

	rootCmd.AddCommand(cmd)
}
