package models

import "github.com/shopspring/decimal"

// Position is the derived holding for a single instrument. It is never
// stored; it is recomputed by replaying the trade history.
type Position struct {
	Instrument  string
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// CostValue returns quantity × average cost, the cost basis of the holding.
func (p Position) CostValue() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}
