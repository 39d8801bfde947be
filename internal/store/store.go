// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/models"
)

// LedgerStore defines the persistence interface for one user's ledger.
type LedgerStore interface {
	// Buy trades
	RecordBuy(ctx context.Context, trade *models.Trade) error
	Trades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	TradeByID(ctx context.Context, id int64) (*models.Trade, error)
	UpdateTrade(ctx context.Context, trade *models.Trade) error
	DeleteTrade(ctx context.Context, id int64) error

	// Disposals
	RecordSell(ctx context.Context, req SellRequest) (*models.SellTrade, error)
	SellTrades(ctx context.Context, filter SellFilter) ([]models.SellTrade, error)

	// Dividends
	RecordDividend(ctx context.Context, dividend *models.Dividend) error
	Dividends(ctx context.Context, filter DividendFilter) ([]models.Dividend, error)
	DeleteDividend(ctx context.Context, id int64) error

	// Metals
	RecordMetalTrade(ctx context.Context, trade *models.MetalTrade) error
	MetalTrades(ctx context.Context) ([]models.MetalTrade, error)

	// Quote cache
	StockQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
	SaveStockQuote(ctx context.Context, quote *models.StockQuote) error
	MetalQuote(ctx context.Context, metal models.Metal) (*models.MetalQuote, error)
	SaveMetalQuote(ctx context.Context, quote *models.MetalQuote) error
	ExchangeRate(ctx context.Context, base, target string) (*models.ExchangeRate, error)
	SaveExchangeRate(ctx context.Context, rate *models.ExchangeRate) error

	// Lifecycle
	Close() error
}

// SellRequest describes a disposal to be recorded. The position check
// and the P&L computation happen inside the same transaction as the
// insert, so a concurrent writer cannot oversell the holding.
type SellRequest struct {
	Date       time.Time
	Instrument string
	Quantity   decimal.Decimal
	Rate       decimal.Decimal
	CGTRate    decimal.Decimal
	MemoNumber string // generated when empty
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Instrument string
	Type       models.TradeType
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
}

// SellFilter represents filters for querying disposals.
type SellFilter struct {
	Instrument string
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
}

// DividendFilter represents filters for querying dividends.
type DividendFilter struct {
	Instrument string
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
}
