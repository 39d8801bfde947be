package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockQuote is a cached previous-close price for a stock symbol.
// BufferPrice holds the price from the prior refresh and serves as a
// fallback when both the reader and today's cache are unavailable.
type StockQuote struct {
	Symbol        string
	PreviousClose decimal.Decimal
	LastUpdated   string // YYYY-MM-DD of the last successful refresh
	BufferPrice   decimal.Decimal
}

// MetalQuote holds per-gram prices for a metal across karat purities.
type MetalQuote struct {
	Metal       Metal
	GramPrices  map[int]decimal.Decimal // karat -> price per gram
	LastUpdated time.Time
}

// PriceFor returns the per-gram price for the given karat.
func (q MetalQuote) PriceFor(karat int) (decimal.Decimal, bool) {
	p, ok := q.GramPrices[karat]
	return p, ok
}

// ExchangeRate is a cached conversion rate between two currencies.
type ExchangeRate struct {
	Base        string
	Target      string
	Rate        decimal.Decimal
	LastUpdated time.Time
}
