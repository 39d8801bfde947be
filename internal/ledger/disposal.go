package ledger

import (
	"github.com/shopspring/decimal"

	"wealthwise/internal/errors"
	"wealthwise/internal/models"
)

// Disposal is the computed outcome of selling part of a holding.
type Disposal struct {
	Instrument string
	Quantity   decimal.Decimal
	SalePrice  decimal.Decimal
	SaleAmount decimal.Decimal
	CostBasis  decimal.Decimal
	RealizedPL decimal.Decimal
	CGTRate    decimal.Decimal
	CGTAmount  decimal.Decimal
	NetAmount  decimal.Decimal
}

// ComputeDisposal prices a sale against the current position.
//
// Realized P&L is (sale price − average cost) × quantity. Capital gains
// tax applies to the gain only; a disposal at a loss owes no tax, and
// the loss never offsets later gains. Net proceeds are the sale amount
// less the tax.
func ComputeDisposal(pos models.Position, quantity, salePrice, cgtRate decimal.Decimal) (Disposal, error) {
	if !quantity.IsPositive() {
		return Disposal{}, errors.NewValidationError("quantity", quantity.String(), "must be positive")
	}
	if salePrice.IsNegative() {
		return Disposal{}, errors.NewValidationError("rate", salePrice.String(), "must not be negative")
	}
	if cgtRate.IsNegative() || cgtRate.GreaterThan(decimal.NewFromInt(1)) {
		return Disposal{}, errors.NewValidationError("cgt_rate", cgtRate.String(), "must be between 0 and 1")
	}
	if quantity.GreaterThan(pos.Quantity) {
		return Disposal{}, errors.NewLedgerError("sell", pos.Instrument, errors.ErrInsufficientPosition)
	}

	saleAmount := salePrice.Mul(quantity)
	costBasis := pos.AverageCost.Mul(quantity)
	realizedPL := saleAmount.Sub(costBasis)

	cgt := decimal.Zero
	if realizedPL.IsPositive() {
		cgt = realizedPL.Mul(cgtRate)
	}

	return Disposal{
		Instrument: pos.Instrument,
		Quantity:   quantity,
		SalePrice:  salePrice,
		SaleAmount: saleAmount,
		CostBasis:  costBasis,
		RealizedPL: realizedPL,
		CGTRate:    cgtRate,
		CGTAmount:  cgt,
		NetAmount:  saleAmount.Sub(cgt),
	}, nil
}
