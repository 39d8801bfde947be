package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/errors"
	"wealthwise/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func buy(id int64, date, instrument, qty, rate string) models.Trade {
	return models.Trade{
		ID: id, Date: day(date), Instrument: instrument,
		Quantity: dec(qty), Rate: dec(rate), Type: models.TradeBuy,
	}
}

func sell(id int64, date, instrument, qty, rate string) models.Trade {
	return models.Trade{
		ID: id, Date: day(date), Instrument: instrument,
		Quantity: dec(qty), Rate: dec(rate), Type: models.TradeSell,
	}
}

func TestPositions_AverageCostAcrossBuys(t *testing.T) {
	trades := []models.Trade{
		buy(1, "2024-01-10", "OGDC", "10", "100"),
		buy(2, "2024-02-10", "OGDC", "10", "200"),
	}

	positions, err := Positions(trades)
	if err != nil {
		t.Fatalf("Positions returned error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	pos := positions[0]
	if !pos.Quantity.Equal(dec("20")) {
		t.Errorf("quantity = %s, want 20", pos.Quantity)
	}
	if !pos.AverageCost.Equal(dec("150")) {
		t.Errorf("average cost = %s, want 150", pos.AverageCost)
	}
}

func TestPositions_SellLeavesAverageCostUnchanged(t *testing.T) {
	trades := []models.Trade{
		buy(1, "2024-01-10", "HBL", "10", "100"),
		buy(2, "2024-02-10", "HBL", "10", "200"),
		sell(3, "2024-03-10", "HBL", "5", "300"),
	}

	positions, err := Positions(trades)
	if err != nil {
		t.Fatalf("Positions returned error: %v", err)
	}

	pos := positions[0]
	if !pos.Quantity.Equal(dec("15")) {
		t.Errorf("quantity = %s, want 15", pos.Quantity)
	}
	if !pos.AverageCost.Equal(dec("150")) {
		t.Errorf("average cost = %s, want 150 (sale must not move it)", pos.AverageCost)
	}
}

func TestPositions_ClosedPositionOmitted(t *testing.T) {
	trades := []models.Trade{
		buy(1, "2024-01-10", "LUCK", "10", "500"),
		sell(2, "2024-02-10", "LUCK", "10", "600"),
	}

	positions, err := Positions(trades)
	if err != nil {
		t.Fatalf("Positions returned error: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("expected no open positions, got %d", len(positions))
	}
}

func TestPositions_OversellFails(t *testing.T) {
	trades := []models.Trade{
		buy(1, "2024-01-10", "PSO", "10", "250"),
		sell(2, "2024-02-10", "PSO", "15", "300"),
	}

	_, err := Positions(trades)
	if !errors.Is(err, errors.ErrNegativePosition) {
		t.Fatalf("expected ErrNegativePosition, got %v", err)
	}
}

func TestPositions_SameDayOrderedByInsertion(t *testing.T) {
	// Buy and sell on the same date: the buy was recorded first (lower
	// id), so the sell is covered and the history replays cleanly.
	trades := []models.Trade{
		sell(2, "2024-01-10", "MEBL", "10", "120"),
		buy(1, "2024-01-10", "MEBL", "10", "100"),
	}

	positions, err := Positions(trades)
	if err != nil {
		t.Fatalf("Positions returned error: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("expected flat position, got %d open", len(positions))
	}
}

func TestPositions_UnorderedInputSortedByDate(t *testing.T) {
	trades := []models.Trade{
		sell(3, "2024-03-01", "ENGRO", "5", "310"),
		buy(1, "2024-01-01", "ENGRO", "5", "290"),
		buy(2, "2024-02-01", "ENGRO", "5", "300"),
	}

	positions, err := Positions(trades)
	if err != nil {
		t.Fatalf("Positions returned error: %v", err)
	}

	pos := positions[0]
	if !pos.Quantity.Equal(dec("5")) {
		t.Errorf("quantity = %s, want 5", pos.Quantity)
	}
	if !pos.AverageCost.Equal(dec("295")) {
		t.Errorf("average cost = %s, want 295", pos.AverageCost)
	}
}

func TestPositionOf_FlatInstrumentReturnsZero(t *testing.T) {
	trades := []models.Trade{
		buy(1, "2024-01-10", "OGDC", "10", "100"),
	}

	pos, err := PositionOf(trades, "HBL")
	if err != nil {
		t.Fatalf("PositionOf returned error: %v", err)
	}
	if !pos.Quantity.IsZero() {
		t.Errorf("quantity = %s, want 0", pos.Quantity)
	}
	if pos.Instrument != "HBL" {
		t.Errorf("instrument = %s, want HBL", pos.Instrument)
	}
}

// BenchmarkPositions measures the history fold over a large ledger.
func BenchmarkPositions(b *testing.B) {
	symbols := []string{"MARI", "ENGRO", "HBL", "HUBC", "LUCK", "OGDC", "PPL", "FFC"}
	trades := make([]models.Trade, 0, 10000)
	for i := 0; i < 10000; i++ {
		sym := symbols[i%len(symbols)]
		t := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i/8)
		trades = append(trades, models.Trade{
			ID: int64(i + 1), Date: t, Instrument: sym,
			Quantity: decimal.NewFromInt(int64(10 + i%90)),
			Rate:     decimal.NewFromInt(int64(100 + i%400)),
			Type:     models.TradeBuy,
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Positions(trades); err != nil {
			b.Fatal(err)
		}
	}
}
