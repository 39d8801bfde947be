// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency formats an amount in Pakistani rupee format with
// lakh/crore digit grouping.
func FormatCurrency(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	str := amount.StringFixed(2)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	result := "Rs." + groupSouthAsian(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupSouthAsian applies the South Asian numbering system: the last
// three digits form one group, the rest group in pairs.
func groupSouthAsian(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a percentage with an explicit sign on gains.
func FormatPercent(value decimal.Decimal) string {
	sign := ""
	if value.IsPositive() {
		sign = "+"
	}
	return sign + value.StringFixed(2) + "%"
}

// FormatPnL formats P&L with an explicit sign on gains.
func FormatPnL(pnl decimal.Decimal) string {
	formatted := FormatCurrency(pnl)
	if pnl.IsPositive() {
		return "+" + formatted
	}
	return formatted
}

// FormatQuantity formats a quantity with digit grouping. Fractional
// quantities keep their digits as recorded.
func FormatQuantity(qty decimal.Decimal) string {
	str := qty.String()
	intPart := str
	frac := ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		intPart, frac = str[:i], str[i:]
	}
	neg := ""
	if strings.HasPrefix(intPart, "-") {
		neg, intPart = "-", intPart[1:]
	}
	return neg + groupSouthAsian(intPart) + frac
}

// FormatGrams formats a metal weight.
func FormatGrams(weight decimal.Decimal) string {
	return fmt.Sprintf("%sg", weight.String())
}
