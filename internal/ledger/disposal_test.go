package ledger

import (
	"testing"

	"wealthwise/internal/errors"
	"wealthwise/internal/models"
)

func TestComputeDisposal_GainTaxedAtRate(t *testing.T) {
	pos := models.Position{Instrument: "AAPL", Quantity: dec("10"), AverageCost: dec("150")}

	d, err := ComputeDisposal(pos, dec("5"), dec("180"), dec("0.15"))
	if err != nil {
		t.Fatalf("ComputeDisposal returned error: %v", err)
	}

	if !d.SaleAmount.Equal(dec("900")) {
		t.Errorf("sale amount = %s, want 900", d.SaleAmount)
	}
	if !d.RealizedPL.Equal(dec("150")) {
		t.Errorf("realized P&L = %s, want 150", d.RealizedPL)
	}
	if !d.CGTAmount.Equal(dec("22.5")) {
		t.Errorf("CGT = %s, want 22.5", d.CGTAmount)
	}
	if !d.NetAmount.Equal(dec("877.5")) {
		t.Errorf("net amount = %s, want 877.5", d.NetAmount)
	}
}

func TestComputeDisposal_LossOwesNoTax(t *testing.T) {
	pos := models.Position{Instrument: "TRG", Quantity: dec("100"), AverageCost: dec("60")}

	d, err := ComputeDisposal(pos, dec("40"), dec("45"), dec("0.15"))
	if err != nil {
		t.Fatalf("ComputeDisposal returned error: %v", err)
	}

	if !d.RealizedPL.Equal(dec("-600")) {
		t.Errorf("realized P&L = %s, want -600", d.RealizedPL)
	}
	if !d.CGTAmount.IsZero() {
		t.Errorf("CGT = %s, want 0 on a loss", d.CGTAmount)
	}
	if !d.NetAmount.Equal(d.SaleAmount) {
		t.Errorf("net = %s, want full sale amount %s", d.NetAmount, d.SaleAmount)
	}
}

func TestComputeDisposal_BreakEvenOwesNoTax(t *testing.T) {
	pos := models.Position{Instrument: "FFC", Quantity: dec("10"), AverageCost: dec("100")}

	d, err := ComputeDisposal(pos, dec("10"), dec("100"), dec("0.15"))
	if err != nil {
		t.Fatalf("ComputeDisposal returned error: %v", err)
	}
	if !d.RealizedPL.IsZero() {
		t.Errorf("realized P&L = %s, want 0", d.RealizedPL)
	}
	if !d.CGTAmount.IsZero() {
		t.Errorf("CGT = %s, want 0 at break-even", d.CGTAmount)
	}
}

func TestComputeDisposal_InsufficientPosition(t *testing.T) {
	pos := models.Position{Instrument: "OGDC", Quantity: dec("5"), AverageCost: dec("100")}

	_, err := ComputeDisposal(pos, dec("6"), dec("120"), dec("0.15"))
	if !errors.Is(err, errors.ErrInsufficientPosition) {
		t.Fatalf("expected ErrInsufficientPosition, got %v", err)
	}
}

func TestComputeDisposal_RejectsBadInputs(t *testing.T) {
	pos := models.Position{Instrument: "OGDC", Quantity: dec("5"), AverageCost: dec("100")}

	cases := []struct {
		name            string
		qty, rate, cgt  string
	}{
		{"zero quantity", "0", "120", "0.15"},
		{"negative quantity", "-1", "120", "0.15"},
		{"negative rate", "1", "-10", "0.15"},
		{"rate above one", "1", "120", "1.5"},
		{"negative cgt rate", "1", "120", "-0.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeDisposal(pos, dec(tc.qty), dec(tc.rate), dec(tc.cgt))
			var verr *errors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}
