// Package utils provides shared utility functions.
package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// For any amount, FormatCurrency should:
// 1. Start with Rs. (or -Rs. for negative)
// 2. Have exactly 2 decimal places
// 3. Group digits in the South Asian system (3 digits, then pairs)
// 4. Preserve the numeric value when parsed back
func TestProperty_CurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	properties := gopter.NewProperties(parameters)

	groupPattern := regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

	properties.Property("FormatCurrency produces valid rupee format", prop.ForAll(
		func(paisa int64) bool {
			amount := decimal.NewFromInt(paisa).Div(decimal.NewFromInt(100))
			formatted := FormatCurrency(amount)

			if amount.IsNegative() {
				if !strings.HasPrefix(formatted, "-Rs.") {
					t.Logf("FAILED: expected -Rs. prefix for %s, got %s", amount, formatted)
					return false
				}
			} else if !strings.HasPrefix(formatted, "Rs.") {
				t.Logf("FAILED: expected Rs. prefix for %s, got %s", amount, formatted)
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts[len(parts)-1]) != 2 {
				t.Logf("FAILED: expected 2 decimal places for %s, got %s", amount, formatted)
				return false
			}

			numPart := strings.TrimPrefix(formatted, "-")
			numPart = strings.TrimPrefix(numPart, "Rs.")
			numPart = numPart[:strings.LastIndexByte(numPart, '.')]
			if !groupPattern.MatchString(numPart) {
				t.Logf("FAILED: invalid grouping for %s: %s", amount, formatted)
				return false
			}
			return true
		},
		gen.Int64Range(-1e15, 1e15),
	))

	properties.Property("FormatCurrency preserves value", prop.ForAll(
		func(paisa int64) bool {
			amount := decimal.NewFromInt(paisa).Div(decimal.NewFromInt(100))
			formatted := FormatCurrency(amount)

			stripped := strings.TrimPrefix(formatted, "-")
			stripped = strings.TrimPrefix(stripped, "Rs.")
			stripped = strings.ReplaceAll(stripped, ",", "")
			parsed, err := decimal.NewFromString(stripped)
			if err != nil {
				t.Logf("FAILED: cannot parse back %s: %v", formatted, err)
				return false
			}
			if strings.HasPrefix(formatted, "-") {
				parsed = parsed.Neg()
			}
			if !parsed.Equal(amount.Round(2)) {
				t.Logf("FAILED: value not preserved: %s -> %s -> %s", amount, formatted, parsed)
				return false
			}
			return true
		},
		gen.Int64Range(-1e15, 1e15),
	))

	properties.Property("FormatPnL signs gains explicitly", prop.ForAll(
		func(paisa int64) bool {
			pnl := decimal.NewFromInt(paisa).Div(decimal.NewFromInt(100))
			formatted := FormatPnL(pnl)

			switch {
			case pnl.IsPositive():
				return strings.HasPrefix(formatted, "+Rs.")
			case pnl.IsNegative():
				return strings.HasPrefix(formatted, "-Rs.")
			default:
				return formatted == "Rs.0.00"
			}
		},
		gen.Int64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}

func TestFormatCurrencyExamples(t *testing.T) {
	testCases := []struct {
		amount   string
		expected string
	}{
		{"0", "Rs.0.00"},
		{"1", "Rs.1.00"},
		{"100", "Rs.100.00"},
		{"1000", "Rs.1,000.00"},
		{"100000", "Rs.1,00,000.00"},
		{"1000000", "Rs.10,00,000.00"},
		{"10000000", "Rs.1,00,00,000.00"},
		{"-1234.56", "-Rs.1,234.56"},
		{"12345678.9", "Rs.1,23,45,678.90"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatCurrency(decimal.RequireFromString(tc.amount))
			if result != tc.expected {
				t.Errorf("FormatCurrency(%s) = %s, want %s", tc.amount, result, tc.expected)
			}
		})
	}
}

func TestFormatPercentExamples(t *testing.T) {
	testCases := []struct {
		value    string
		expected string
	}{
		{"0", "0.00%"},
		{"1.5", "+1.50%"},
		{"-2.5", "-2.50%"},
		{"100", "+100.00%"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatPercent(decimal.RequireFromString(tc.value))
			if result != tc.expected {
				t.Errorf("FormatPercent(%s) = %s, want %s", tc.value, result, tc.expected)
			}
		})
	}
}

func TestFormatQuantityExamples(t *testing.T) {
	testCases := []struct {
		qty      string
		expected string
	}{
		{"500", "500"},
		{"1500", "1,500"},
		{"150000", "1,50,000"},
		{"12.5", "12.5"},
		{"-2500", "-2,500"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatQuantity(decimal.RequireFromString(tc.qty))
			if result != tc.expected {
				t.Errorf("FormatQuantity(%s) = %s, want %s", tc.qty, result, tc.expected)
			}
		})
	}
}
