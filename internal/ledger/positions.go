// Package ledger derives holdings, disposals and valuations from the
// recorded trade history. All derivations are pure folds over the
// stored records; nothing here touches the database.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"wealthwise/internal/errors"
	"wealthwise/internal/models"
)

// Positions replays the trade history and returns the open position for
// each instrument, sorted by instrument name. Trades are applied in
// chronological order; trades on the same date apply in the order they
// were recorded. Closed positions (quantity zero) are omitted.
//
// A sell that would take an instrument below zero returns
// ErrNegativePosition; the history is never silently clamped.
func Positions(trades []models.Trade) ([]models.Position, error) {
	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	open := make(map[string]models.Position)
	for _, t := range sorted {
		pos := open[t.Instrument]
		pos.Instrument = t.Instrument

		switch t.Type {
		case models.TradeBuy:
			// New average cost: (avg*qty + rate*q) / (qty + q).
			newQty := pos.Quantity.Add(t.Quantity)
			if newQty.IsPositive() {
				total := pos.AverageCost.Mul(pos.Quantity).Add(t.Rate.Mul(t.Quantity))
				pos.AverageCost = total.Div(newQty)
			}
			pos.Quantity = newQty
		case models.TradeSell:
			// Average cost is untouched by a sale.
			pos.Quantity = pos.Quantity.Sub(t.Quantity)
			if pos.Quantity.IsNegative() {
				return nil, errors.NewLedgerError("positions", t.Instrument, errors.ErrNegativePosition)
			}
		default:
			return nil, errors.NewValidationError("type", string(t.Type), "unknown trade type")
		}

		open[t.Instrument] = pos
	}

	positions := make([]models.Position, 0, len(open))
	for _, pos := range open {
		if pos.Quantity.IsZero() {
			continue
		}
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Instrument < positions[j].Instrument
	})
	return positions, nil
}

// PositionOf replays the trade history for a single instrument. A flat
// holding is returned as a zero-quantity position, not an error.
func PositionOf(trades []models.Trade, instrument string) (models.Position, error) {
	filtered := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Instrument == instrument {
			filtered = append(filtered, t)
		}
	}
	positions, err := Positions(filtered)
	if err != nil {
		return models.Position{}, err
	}
	for _, pos := range positions {
		if pos.Instrument == instrument {
			return pos, nil
		}
	}
	return models.Position{Instrument: instrument, Quantity: decimal.Zero, AverageCost: decimal.Zero}, nil
}
