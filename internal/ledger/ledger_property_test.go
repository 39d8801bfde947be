package ledger

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"wealthwise/internal/models"
)

// Property: after any sequence of buys, the average cost lies between
// the lowest and the highest buy price, and the quantity is the sum of
// the bought quantities.
func TestProperty_AverageCostBoundedByBuyPrices(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	// Quantities and prices stay integral so the expected bounds are
	// exact.
	properties.Property("average cost bounded by min and max buy price", prop.ForAll(
		func(qtys, prices []int64) bool {
			n := len(qtys)
			if len(prices) < n {
				n = len(prices)
			}
			if n == 0 {
				return true
			}

			var trades []models.Trade
			totalQty := decimal.Zero
			minP := decimal.NewFromInt(prices[0])
			maxP := minP
			for i := 0; i < n; i++ {
				p := decimal.NewFromInt(prices[i])
				q := decimal.NewFromInt(qtys[i])
				trades = append(trades, models.Trade{
					ID: int64(i + 1), Date: day("2024-01-02"),
					Instrument: "OGDC", Quantity: q, Rate: p,
					Type: models.TradeBuy,
				})
				totalQty = totalQty.Add(q)
				if p.LessThan(minP) {
					minP = p
				}
				if p.GreaterThan(maxP) {
					maxP = p
				}
			}

			positions, err := Positions(trades)
			if err != nil {
				t.Logf("FAILED: Positions error: %v", err)
				return false
			}
			pos := positions[0]

			if !pos.Quantity.Equal(totalQty) {
				t.Logf("FAILED: quantity %s != total bought %s", pos.Quantity, totalQty)
				return false
			}
			if pos.AverageCost.LessThan(minP) || pos.AverageCost.GreaterThan(maxP) {
				t.Logf("FAILED: average %s outside [%s, %s]", pos.AverageCost, minP, maxP)
				return false
			}
			return true
		},
		gen.SliceOfN(8, gen.Int64Range(1, 1000)),
		gen.SliceOfN(8, gen.Int64Range(1, 10000)),
	))

	properties.TestingRun(t)
}

// Property: selling part of a holding never changes the average cost,
// and the remaining quantity is exactly the held quantity minus the
// sold quantity.
func TestProperty_SellPreservesAverageCost(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("sell preserves average cost", prop.ForAll(
		func(qty1, price1, qty2, price2, sellQty int64) bool {
			trades := []models.Trade{
				{ID: 1, Date: day("2024-01-02"), Instrument: "HBL",
					Quantity: decimal.NewFromInt(qty1), Rate: decimal.NewFromInt(price1),
					Type: models.TradeBuy},
				{ID: 2, Date: day("2024-01-03"), Instrument: "HBL",
					Quantity: decimal.NewFromInt(qty2), Rate: decimal.NewFromInt(price2),
					Type: models.TradeBuy},
			}
			before, err := Positions(trades)
			if err != nil {
				t.Logf("FAILED: Positions error: %v", err)
				return false
			}
			avgBefore := before[0].AverageCost

			held := qty1 + qty2
			sold := sellQty % held
			if sold == 0 {
				sold = 1
			}
			trades = append(trades, models.Trade{
				ID: 3, Date: day("2024-01-04"), Instrument: "HBL",
				Quantity: decimal.NewFromInt(sold), Rate: decimal.NewFromInt(price2),
				Type: models.TradeSell,
			})

			after, err := Positions(trades)
			if err != nil {
				t.Logf("FAILED: Positions after sell error: %v", err)
				return false
			}
			pos := after[0]

			if !pos.AverageCost.Equal(avgBefore) {
				t.Logf("FAILED: average moved from %s to %s on a sale", avgBefore, pos.AverageCost)
				return false
			}
			want := decimal.NewFromInt(held - sold)
			if !pos.Quantity.Equal(want) {
				t.Logf("FAILED: quantity %s != %s", pos.Quantity, want)
				return false
			}
			return true
		},
		gen.Int64Range(1, 1000),
		gen.Int64Range(1, 10000),
		gen.Int64Range(1, 1000),
		gen.Int64Range(1, 10000),
		gen.Int64Range(1, 1999),
	))

	properties.TestingRun(t)
}

// Property: a disposal at or below average cost owes zero tax; a
// disposal above average cost owes exactly gain × rate, and the net
// amount is always sale amount minus tax.
func TestProperty_CGTAppliesOnlyToGains(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("tax charged only on positive realized P&L", prop.ForAll(
		func(qty, avg, price int64) bool {
			pos := models.Position{
				Instrument:  "PSO",
				Quantity:    decimal.NewFromInt(qty),
				AverageCost: decimal.NewFromInt(avg),
			}
			rate := dec("0.15")

			d, err := ComputeDisposal(pos, pos.Quantity, decimal.NewFromInt(price), rate)
			if err != nil {
				t.Logf("FAILED: ComputeDisposal error: %v", err)
				return false
			}

			if d.RealizedPL.IsPositive() {
				want := d.RealizedPL.Mul(rate)
				if !d.CGTAmount.Equal(want) {
					t.Logf("FAILED: CGT %s != gain×rate %s", d.CGTAmount, want)
					return false
				}
			} else if !d.CGTAmount.IsZero() {
				t.Logf("FAILED: CGT %s on non-positive P&L %s", d.CGTAmount, d.RealizedPL)
				return false
			}

			if !d.NetAmount.Equal(d.SaleAmount.Sub(d.CGTAmount)) {
				t.Logf("FAILED: net %s != sale %s − tax %s", d.NetAmount, d.SaleAmount, d.CGTAmount)
				return false
			}
			return true
		},
		gen.Int64Range(1, 1000),
		gen.Int64Range(1, 5000),
		gen.Int64Range(0, 5000),
	))

	properties.TestingRun(t)
}

// Property: with every instrument priced, the valuation totals are the
// exact sums over holdings, and unrealized P&L is market minus cost.
func TestProperty_ValuationTotalsAreExactSums(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("valuation totals equal the sum of holdings", prop.ForAll(
		func(qtys []int64, prices []int64) bool {
			n := len(qtys)
			if len(prices) < n {
				n = len(prices)
			}
			symbols := []string{"HBL", "OGDC", "PSO", "LUCK", "MEBL", "ENGRO"}
			if n > len(symbols) {
				n = len(symbols)
			}

			var positions []models.Position
			priceMap := make(map[string]decimal.Decimal)
			for i := 0; i < n; i++ {
				positions = append(positions, models.Position{
					Instrument:  symbols[i],
					Quantity:    decimal.NewFromInt(qtys[i]),
					AverageCost: decimal.NewFromInt(prices[i]),
				})
				priceMap[symbols[i]] = decimal.NewFromInt(prices[i] + 7)
			}

			v, err := Value(positions, priceMap, ValuationOptions{})
			if err != nil {
				t.Logf("FAILED: Value error: %v", err)
				return false
			}

			cost, market := decimal.Zero, decimal.Zero
			for _, h := range v.Holdings {
				cost = cost.Add(h.CostValue())
				market = market.Add(h.MarketValue)
				if !h.UnrealizedPL.Equal(h.MarketValue.Sub(h.CostValue())) {
					t.Logf("FAILED: %s unrealized %s != market-cost", h.Instrument, h.UnrealizedPL)
					return false
				}
			}
			if !v.TotalCost.Equal(cost) || !v.TotalMarket.Equal(market) {
				t.Logf("FAILED: totals cost=%s market=%s, want %s / %s", v.TotalCost, v.TotalMarket, cost, market)
				return false
			}
			if !v.TotalUnrealized.Equal(market.Sub(cost)) {
				t.Logf("FAILED: unrealized total %s != %s", v.TotalUnrealized, market.Sub(cost))
				return false
			}
			return true
		},
		gen.SliceOfN(6, gen.Int64Range(1, 1000)),
		gen.SliceOfN(6, gen.Int64Range(1, 10000)),
	))

	properties.TestingRun(t)
}
