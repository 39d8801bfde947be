package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"wealthwise/internal/models"
)

// RealizedRow is the per-instrument aggregate of completed disposals.
type RealizedRow struct {
	Instrument string
	Quantity   decimal.Decimal
	CostBasis  decimal.Decimal
	SaleAmount decimal.Decimal
	RealizedPL decimal.Decimal
	CGTAmount  decimal.Decimal
	NetAmount  decimal.Decimal
}

// RealizedReport aggregates disposals per instrument and in total.
// Losses stay negative in the totals; they are never netted away.
type RealizedReport struct {
	Rows            []RealizedRow
	TotalSaleAmount decimal.Decimal
	TotalRealizedPL decimal.Decimal
	TotalCGT        decimal.Decimal
	TotalNet        decimal.Decimal
}

// Realized summarizes the sell history per instrument.
func Realized(sells []models.SellTrade) *RealizedReport {
	agg := make(map[string]*RealizedRow)
	for _, s := range sells {
		row, ok := agg[s.Instrument]
		if !ok {
			row = &RealizedRow{Instrument: s.Instrument}
			agg[s.Instrument] = row
		}
		row.Quantity = row.Quantity.Add(s.Quantity)
		row.CostBasis = row.CostBasis.Add(s.SaleAmount.Sub(s.RealizedPL))
		row.SaleAmount = row.SaleAmount.Add(s.SaleAmount)
		row.RealizedPL = row.RealizedPL.Add(s.RealizedPL)
		row.CGTAmount = row.CGTAmount.Add(s.CGTAmount)
		row.NetAmount = row.NetAmount.Add(s.NetAmount)
	}

	report := &RealizedReport{
		TotalSaleAmount: decimal.Zero,
		TotalRealizedPL: decimal.Zero,
		TotalCGT:        decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, row := range agg {
		report.Rows = append(report.Rows, *row)
		report.TotalSaleAmount = report.TotalSaleAmount.Add(row.SaleAmount)
		report.TotalRealizedPL = report.TotalRealizedPL.Add(row.RealizedPL)
		report.TotalCGT = report.TotalCGT.Add(row.CGTAmount)
		report.TotalNet = report.TotalNet.Add(row.NetAmount)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].Instrument < report.Rows[j].Instrument
	})
	return report
}

// DividendRow is the per-instrument aggregate of dividend payments.
type DividendRow struct {
	Instrument  string
	Payments    int
	GrossAmount decimal.Decimal
	TaxDeducted decimal.Decimal
	NetAmount   decimal.Decimal
}

// DividendReport aggregates dividend income per instrument and in total.
// Series holds the individual payments ordered by payment date.
type DividendReport struct {
	Rows       []DividendRow
	Series     []models.Dividend
	TotalGross decimal.Decimal
	TotalTax   decimal.Decimal
	TotalNet   decimal.Decimal
}

// Dividends summarizes dividend income per instrument.
func Dividends(divs []models.Dividend) *DividendReport {
	agg := make(map[string]*DividendRow)
	for _, d := range divs {
		row, ok := agg[d.Instrument]
		if !ok {
			row = &DividendRow{Instrument: d.Instrument}
			agg[d.Instrument] = row
		}
		row.Payments++
		row.GrossAmount = row.GrossAmount.Add(d.GrossAmount)
		row.TaxDeducted = row.TaxDeducted.Add(d.TaxDeducted)
		row.NetAmount = row.NetAmount.Add(d.NetAmount)
	}

	report := &DividendReport{
		TotalGross: decimal.Zero,
		TotalTax:   decimal.Zero,
		TotalNet:   decimal.Zero,
	}
	for _, row := range agg {
		report.Rows = append(report.Rows, *row)
		report.TotalGross = report.TotalGross.Add(row.GrossAmount)
		report.TotalTax = report.TotalTax.Add(row.TaxDeducted)
		report.TotalNet = report.TotalNet.Add(row.NetAmount)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].Instrument < report.Rows[j].Instrument
	})

	report.Series = append(report.Series, divs...)
	sort.SliceStable(report.Series, func(i, j int) bool {
		return report.Series[i].PaymentDate.Before(report.Series[j].PaymentDate)
	})
	return report
}
