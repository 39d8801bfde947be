package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metal identifies a precious metal tradeable in the ledger.
type Metal string

const (
	Gold      Metal = "Gold"
	Silver    Metal = "Silver"
	Platinum  Metal = "Platinum"
	Palladium Metal = "Palladium"
)

// AllMetals lists every metal with a quotable spot price.
var AllMetals = []Metal{Gold, Silver, Platinum, Palladium}

// ValidKarats lists the karat purities accepted for metal trades.
var ValidKarats = []int{10, 14, 16, 18, 20, 21, 22, 24}

// MetalTrade represents a purchase of physical metal by weight.
type MetalTrade struct {
	ID           int64
	Date         time.Time
	Metal        Metal
	WeightGrams  decimal.Decimal
	Karat        int
	PricePerGram decimal.Decimal
	TotalCost    decimal.Decimal
}
