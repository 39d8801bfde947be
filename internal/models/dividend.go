package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dividend represents a dividend payment recorded against a warrant number.
type Dividend struct {
	ID           int64
	WarrantNo    string
	PaymentDate  time.Time
	Instrument   string
	RatePerShare decimal.Decimal
	Shares       decimal.Decimal
	GrossAmount  decimal.Decimal
	TaxDeducted  decimal.Decimal
	NetAmount    decimal.Decimal
}
