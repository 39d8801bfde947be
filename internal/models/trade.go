package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType distinguishes buys from sells in the trades table.
type TradeType string

const (
	TradeBuy  TradeType = "Buy"
	TradeSell TradeType = "Sell"
)

// Trade represents a buy trade recorded against a memo number.
type Trade struct {
	ID          int64
	Date        time.Time
	MemoNumber  string
	Instrument  string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Commission  decimal.Decimal
	CDCCharges  decimal.Decimal
	SalesTax    decimal.Decimal
	TotalAmount decimal.Decimal
	Type        TradeType
}

// Charges returns the sum of commission, CDC charges and sales tax.
func (t Trade) Charges() decimal.Decimal {
	return t.Commission.Add(t.CDCCharges).Add(t.SalesTax)
}

// StockValue returns quantity × rate, excluding charges.
func (t Trade) StockValue() decimal.Decimal {
	return t.Quantity.Mul(t.Rate)
}

// SellTrade represents a completed disposal with its computed outcome.
type SellTrade struct {
	ID         int64
	Date       time.Time
	Instrument string
	Quantity   decimal.Decimal
	Rate       decimal.Decimal
	SaleAmount decimal.Decimal
	RealizedPL decimal.Decimal
	CGTRate    decimal.Decimal
	CGTAmount  decimal.Decimal
	NetAmount  decimal.Decimal
	MemoNumber string
	CreatedAt  time.Time
}
