// Package integration provides end-to-end tests for the ledger system.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/ledger"
	"wealthwise/internal/models"
	"wealthwise/internal/store"
)

// TestLedgerWorkflow walks the full record-keeping flow: register a
// user, record buys, sell part of a position, record a dividend and a
// metal purchase, then derive positions, realized P&L and a valuation
// from the stored history.
func TestLedgerWorkflow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	factory, err := store.NewFactory(t.TempDir())
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	if err := factory.Register("hamza"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	db, err := factory.Open("hamza")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	day := func(d int) time.Time {
		return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	dec := decimal.RequireFromString

	// Two buys at different rates: 100 @ 200 and 100 @ 300.
	buys := []*models.Trade{
		{
			Date: day(1), MemoNumber: "M-1001", Instrument: "MARI",
			Quantity: dec("100"), Rate: dec("200"),
			Commission: dec("50"), CDCCharges: dec("10"), SalesTax: dec("8"),
		},
		{
			Date: day(2), MemoNumber: "M-1002", Instrument: "MARI",
			Quantity: dec("100"), Rate: dec("300"),
		},
		{
			Date: day(3), MemoNumber: "M-1003", Instrument: "ENGRO",
			Quantity: dec("50"), Rate: dec("120"),
		},
	}
	for _, b := range buys {
		if err := db.RecordBuy(ctx, b); err != nil {
			t.Fatalf("RecordBuy %s: %v", b.MemoNumber, err)
		}
	}

	// Sell 50 MARI @ 320 against the 250 average: PL 3500, CGT 525.
	sell, err := db.RecordSell(ctx, store.SellRequest{
		Date:       day(10),
		Instrument: "MARI",
		Quantity:   dec("50"),
		Rate:       dec("320"),
		CGTRate:    dec("0.15"),
		MemoNumber: "M-2001",
	})
	if err != nil {
		t.Fatalf("RecordSell: %v", err)
	}
	if !sell.RealizedPL.Equal(dec("3500")) {
		t.Errorf("RealizedPL = %s, want 3500", sell.RealizedPL)
	}
	if !sell.CGTAmount.Equal(dec("525")) {
		t.Errorf("CGTAmount = %s, want 525", sell.CGTAmount)
	}

	dividend := &models.Dividend{
		WarrantNo:    "W-5001",
		PaymentDate:  day(15),
		Instrument:   "ENGRO",
		RatePerShare: dec("4"),
		Shares:       dec("50"),
		TaxDeducted:  dec("30"),
	}
	if err := db.RecordDividend(ctx, dividend); err != nil {
		t.Fatalf("RecordDividend: %v", err)
	}
	if !dividend.NetAmount.Equal(dec("170")) {
		t.Errorf("dividend NetAmount = %s, want 170", dividend.NetAmount)
	}

	if err := db.RecordMetalTrade(ctx, &models.MetalTrade{
		Date: day(20), Metal: models.Gold, WeightGrams: dec("10"),
		Karat: 22, PricePerGram: dec("21000"),
	}); err != nil {
		t.Fatalf("RecordMetalTrade: %v", err)
	}

	// Positions: MARI 150 @ avg 250, ENGRO 50 @ avg 120. The sale must
	// not have moved the MARI average.
	trades, err := db.Trades(ctx, store.TradeFilter{})
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	positions, err := ledger.Positions(trades)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}
	mari, err := ledger.PositionOf(trades, "MARI")
	if err != nil {
		t.Fatalf("PositionOf: %v", err)
	}
	if !mari.Quantity.Equal(dec("150")) || !mari.AverageCost.Equal(dec("250")) {
		t.Errorf("MARI position = %s @ %s, want 150 @ 250", mari.Quantity, mari.AverageCost)
	}

	// Valuation with a price for MARI only: ENGRO fails the strict
	// report and is zeroed with the fallback.
	prices := map[string]decimal.Decimal{"MARI": dec("310")}
	if _, err := ledger.Value(positions, prices, ledger.ValuationOptions{}); err == nil {
		t.Error("expected missing price error for ENGRO")
	}
	valuation, err := ledger.Value(positions, prices, ledger.ValuationOptions{ZeroMissing: true})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if len(valuation.MissingPrices) != 1 || valuation.MissingPrices[0] != "ENGRO" {
		t.Errorf("MissingPrices = %v, want [ENGRO]", valuation.MissingPrices)
	}
	if !valuation.TotalMarket.Equal(dec("46500")) {
		t.Errorf("TotalMarket = %s, want 46500", valuation.TotalMarket)
	}

	// Realized report picks up the single disposal.
	sells, err := db.SellTrades(ctx, store.SellFilter{})
	if err != nil {
		t.Fatalf("SellTrades: %v", err)
	}
	realized := ledger.Realized(sells)
	if !realized.TotalRealizedPL.Equal(dec("3500")) {
		t.Errorf("TotalRealizedPL = %s, want 3500", realized.TotalRealizedPL)
	}
	if !realized.TotalNet.Equal(dec("15475")) {
		t.Errorf("TotalNet = %s, want 15475", realized.TotalNet)
	}

	// Reopening through the factory sees the same history.
	db2, err := factory.Open("hamza")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	again, err := db2.Trades(ctx, store.TradeFilter{})
	if err != nil {
		t.Fatalf("Trades after reopen: %v", err)
	}
	if len(again) != len(trades) {
		t.Errorf("got %d trades after reopen, want %d", len(again), len(trades))
	}
}

// TestOversellRejectedAcrossUsers checks that ledgers are isolated per
// user: a position in one ledger cannot cover a sale in another.
func TestOversellRejectedAcrossUsers(t *testing.T) {
	ctx := context.Background()
	dec := decimal.RequireFromString

	factory, err := store.NewFactory(t.TempDir())
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	for _, u := range []string{"alice", "bob"} {
		if err := factory.Register(u); err != nil {
			t.Fatalf("Register %s: %v", u, err)
		}
	}

	alice, err := factory.Open("alice")
	if err != nil {
		t.Fatalf("Open alice: %v", err)
	}
	defer alice.Close()
	if err := alice.RecordBuy(ctx, &models.Trade{
		Date:       time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		MemoNumber: "M-1", Instrument: "HUBC",
		Quantity: dec("100"), Rate: dec("90"),
	}); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}

	bob, err := factory.Open("bob")
	if err != nil {
		t.Fatalf("Open bob: %v", err)
	}
	defer bob.Close()
	_, err = bob.RecordSell(ctx, store.SellRequest{
		Date:       time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC),
		Instrument: "HUBC",
		Quantity:   dec("10"),
		Rate:       dec("95"),
		CGTRate:    dec("0.15"),
	})
	if err == nil {
		t.Fatal("expected sell in empty ledger to fail")
	}
}
