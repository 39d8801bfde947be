package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"wealthwise/internal/errors"
	"wealthwise/internal/models"
)

// Holding is an open position marked to a current price.
type Holding struct {
	models.Position
	MarketPrice  decimal.Decimal
	MarketValue  decimal.Decimal
	UnrealizedPL decimal.Decimal
	// Weight is this holding's share of the total market value, 0..1.
	Weight       decimal.Decimal
	PriceMissing bool
}

// Valuation is a portfolio marked to a set of prices.
type Valuation struct {
	Holdings        []Holding
	TotalCost       decimal.Decimal
	TotalMarket     decimal.Decimal
	TotalUnrealized decimal.Decimal
	MissingPrices   []string
}

// ValuationOptions controls how missing prices are handled.
type ValuationOptions struct {
	// ZeroMissing values instruments without a price at zero instead of
	// failing. Affected instruments are listed in MissingPrices.
	ZeroMissing bool
}

// Value marks each position to the supplied price map. An instrument
// held but absent from the map fails with ErrMissingPrice unless
// ZeroMissing is set.
func Value(positions []models.Position, prices map[string]decimal.Decimal, opts ValuationOptions) (*Valuation, error) {
	v := &Valuation{
		TotalCost:       decimal.Zero,
		TotalMarket:     decimal.Zero,
		TotalUnrealized: decimal.Zero,
	}

	for _, pos := range positions {
		h := Holding{Position: pos}
		cost := pos.CostValue()
		v.TotalCost = v.TotalCost.Add(cost)

		price, ok := prices[pos.Instrument]
		if !ok {
			if !opts.ZeroMissing {
				return nil, errors.NewLedgerError("valuation", pos.Instrument, errors.ErrMissingPrice)
			}
			h.PriceMissing = true
			h.MarketPrice = decimal.Zero
			h.MarketValue = decimal.Zero
			h.UnrealizedPL = cost.Neg()
			v.MissingPrices = append(v.MissingPrices, pos.Instrument)
		} else {
			h.MarketPrice = price
			h.MarketValue = price.Mul(pos.Quantity)
			h.UnrealizedPL = h.MarketValue.Sub(cost)
		}

		v.TotalMarket = v.TotalMarket.Add(h.MarketValue)
		v.TotalUnrealized = v.TotalUnrealized.Add(h.UnrealizedPL)
		v.Holdings = append(v.Holdings, h)
	}

	if v.TotalMarket.IsPositive() {
		for i := range v.Holdings {
			v.Holdings[i].Weight = v.Holdings[i].MarketValue.Div(v.TotalMarket)
		}
	}

	return v, nil
}

// MetalHolding aggregates metal purchases of one metal and karat.
type MetalHolding struct {
	Metal        models.Metal
	Karat        int
	WeightGrams  decimal.Decimal
	TotalCost    decimal.Decimal
	MarketPrice  decimal.Decimal // per gram
	MarketValue  decimal.Decimal
	UnrealizedPL decimal.Decimal
	PriceMissing bool
}

// MetalValuation is the metal book marked to spot quotes.
type MetalValuation struct {
	Holdings        []MetalHolding
	TotalCost       decimal.Decimal
	TotalMarket     decimal.Decimal
	TotalUnrealized decimal.Decimal
}

// ValueMetals aggregates metal trades by metal and karat and marks them
// to per-gram quotes. Metals without a quote are valued at zero and
// flagged; physical holdings remain on the books regardless of quote
// availability.
func ValueMetals(trades []models.MetalTrade, quotes map[models.Metal]models.MetalQuote) *MetalValuation {
	type key struct {
		metal models.Metal
		karat int
	}

	agg := make(map[key]*MetalHolding)
	var order []key
	for _, t := range trades {
		k := key{t.Metal, t.Karat}
		h, ok := agg[k]
		if !ok {
			h = &MetalHolding{Metal: t.Metal, Karat: t.Karat}
			agg[k] = h
			order = append(order, k)
		}
		h.WeightGrams = h.WeightGrams.Add(t.WeightGrams)
		h.TotalCost = h.TotalCost.Add(t.TotalCost)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].metal != order[j].metal {
			return order[i].metal < order[j].metal
		}
		return order[i].karat < order[j].karat
	})

	v := &MetalValuation{
		TotalCost:       decimal.Zero,
		TotalMarket:     decimal.Zero,
		TotalUnrealized: decimal.Zero,
	}
	for _, k := range order {
		h := agg[k]
		if q, ok := quotes[h.Metal]; ok {
			if price, ok := q.PriceFor(h.Karat); ok {
				h.MarketPrice = price
				h.MarketValue = price.Mul(h.WeightGrams)
			} else {
				h.PriceMissing = true
			}
		} else {
			h.PriceMissing = true
		}
		h.UnrealizedPL = h.MarketValue.Sub(h.TotalCost)

		v.TotalCost = v.TotalCost.Add(h.TotalCost)
		v.TotalMarket = v.TotalMarket.Add(h.MarketValue)
		v.TotalUnrealized = v.TotalUnrealized.Add(h.UnrealizedPL)
		v.Holdings = append(v.Holdings, *h)
	}

	return v
}
