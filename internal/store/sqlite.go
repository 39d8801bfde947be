package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"wealthwise/internal/errors"
	"wealthwise/internal/ledger"
	"wealthwise/internal/models"
)

const dateLayout = "2006-01-02"

// SQLiteLedger implements LedgerStore using SQLite. Monetary values are
// stored as TEXT so decimal amounts round-trip without drift.
type SQLiteLedger struct {
	db *sql.DB
}

var _ LedgerStore = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens (or creates) a ledger database at dbPath.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteLedger{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteLedger) initSchema() error {
	schema := `
	-- Buy and sell legs of the trade history
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date DATE NOT NULL,
		memo_number TEXT NOT NULL UNIQUE,
		instrument TEXT NOT NULL,
		quantity TEXT NOT NULL,
		rate TEXT NOT NULL,
		commission TEXT NOT NULL DEFAULT '0',
		cdc_charges TEXT NOT NULL DEFAULT '0',
		sales_tax TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('Buy', 'Sell')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Disposal outcomes, one row per sell
	CREATE TABLE IF NOT EXISTS sell_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date DATE NOT NULL,
		instrument TEXT NOT NULL,
		quantity TEXT NOT NULL,
		rate TEXT NOT NULL,
		sale_amount TEXT NOT NULL,
		realized_pl TEXT NOT NULL,
		cgt_rate TEXT NOT NULL,
		cgt_amount TEXT NOT NULL,
		net_amount TEXT NOT NULL,
		memo_number TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Dividend payments keyed by warrant number
	CREATE TABLE IF NOT EXISTS dividends (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		warrant_no TEXT NOT NULL UNIQUE,
		payment_date DATE NOT NULL,
		instrument TEXT NOT NULL,
		rate_per_share TEXT NOT NULL,
		shares TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		tax_deducted TEXT NOT NULL,
		net_amount TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Physical metal purchases
	CREATE TABLE IF NOT EXISTS metal_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date DATE NOT NULL,
		metal TEXT NOT NULL CHECK(metal IN ('Gold', 'Silver', 'Platinum', 'Palladium')),
		weight_grams TEXT NOT NULL,
		karat INTEGER NOT NULL CHECK(karat IN (10, 14, 16, 18, 20, 21, 22, 24)),
		price_per_gram TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Cached previous-close prices with a buffer fallback
	CREATE TABLE IF NOT EXISTS stock_prices (
		symbol TEXT PRIMARY KEY,
		previous_close TEXT NOT NULL,
		last_updated TEXT NOT NULL,
		buffer_price TEXT NOT NULL DEFAULT '0'
	);

	-- Cached per-gram metal prices by karat
	CREATE TABLE IF NOT EXISTS metal_prices (
		metal TEXT NOT NULL,
		karat INTEGER NOT NULL,
		price_per_gram TEXT NOT NULL,
		last_updated DATETIME NOT NULL,
		PRIMARY KEY(metal, karat)
	);

	-- Cached currency conversion rates
	CREATE TABLE IF NOT EXISTS exchange_rates (
		base TEXT NOT NULL,
		target TEXT NOT NULL,
		rate TEXT NOT NULL,
		last_updated DATETIME NOT NULL,
		PRIMARY KEY(base, target)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_instrument ON trades(instrument, date);
	CREATE INDEX IF NOT EXISTS idx_sell_trades_instrument ON sell_trades(instrument, date);
	CREATE INDEX IF NOT EXISTS idx_dividends_instrument ON dividends(instrument, payment_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// RecordBuy inserts a buy trade. The memo number must be unique across
// the trade history; a repeat fails with ErrDuplicateMemo. The total
// amount is computed from quantity, rate and charges when not supplied.
func (s *SQLiteLedger) RecordBuy(ctx context.Context, trade *models.Trade) error {
	if err := validateTrade(trade); err != nil {
		return err
	}
	trade.Type = models.TradeBuy
	if trade.TotalAmount.IsZero() {
		trade.TotalAmount = trade.StockValue().Add(trade.Charges())
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (date, memo_number, instrument, quantity, rate, commission, cdc_charges, sales_tax, total_amount, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.Date.Format(dateLayout), trade.MemoNumber, trade.Instrument,
		trade.Quantity.String(), trade.Rate.String(), trade.Commission.String(),
		trade.CDCCharges.String(), trade.SalesTax.String(), trade.TotalAmount.String(),
		string(trade.Type))
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errors.ErrDuplicateMemo, "memo %s", trade.MemoNumber)
		}
		return fmt.Errorf("failed to record buy: %w", err)
	}

	trade.ID, _ = res.LastInsertId()
	return nil
}

// RecordSell checks the position, computes the disposal outcome and
// records both the sell leg and the disposal row in one transaction.
func (s *SQLiteLedger) RecordSell(ctx context.Context, req SellRequest) (*models.SellTrade, error) {
	memo := req.MemoNumber
	if memo == "" {
		memo = "S-" + uuid.NewString()[:8]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trades, err := queryTrades(ctx, tx, TradeFilter{Instrument: req.Instrument})
	if err != nil {
		return nil, err
	}

	pos, err := ledger.PositionOf(trades, req.Instrument)
	if err != nil {
		return nil, err
	}

	disposal, err := ledger.ComputeDisposal(pos, req.Quantity, req.Rate, req.CGTRate)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades (date, memo_number, instrument, quantity, rate, total_amount, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, req.Date.Format(dateLayout), memo, req.Instrument,
		req.Quantity.String(), req.Rate.String(), disposal.SaleAmount.String(),
		string(models.TradeSell))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(errors.ErrDuplicateMemo, "memo %s", memo)
		}
		return nil, fmt.Errorf("failed to record sell leg: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sell_trades (date, instrument, quantity, rate, sale_amount, realized_pl, cgt_rate, cgt_amount, net_amount, memo_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.Date.Format(dateLayout), req.Instrument,
		req.Quantity.String(), req.Rate.String(), disposal.SaleAmount.String(),
		disposal.RealizedPL.String(), disposal.CGTRate.String(),
		disposal.CGTAmount.String(), disposal.NetAmount.String(), memo)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(errors.ErrDuplicateMemo, "memo %s", memo)
		}
		return nil, fmt.Errorf("failed to record disposal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sell: %w", err)
	}

	id, _ := res.LastInsertId()
	return &models.SellTrade{
		ID:         id,
		Date:       req.Date,
		Instrument: req.Instrument,
		Quantity:   req.Quantity,
		Rate:       req.Rate,
		SaleAmount: disposal.SaleAmount,
		RealizedPL: disposal.RealizedPL,
		CGTRate:    disposal.CGTRate,
		CGTAmount:  disposal.CGTAmount,
		NetAmount:  disposal.NetAmount,
		MemoNumber: memo,
	}, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func queryTrades(ctx context.Context, q queryer, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT id, date, memo_number, instrument, quantity, rate, commission, cdc_charges, sales_tax, total_amount, type FROM trades WHERE 1=1`
	args := []interface{}{}

	if filter.Instrument != "" {
		query += " AND instrument = ?"
		args = append(args, filter.Instrument)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if !filter.StartDate.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.StartDate.Format(dateLayout))
	}
	if !filter.EndDate.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.EndDate.Format(dateLayout))
	}

	query += " ORDER BY date, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func scanTrade(rows *sql.Rows) (models.Trade, error) {
	var t models.Trade
	var date, qty, rate, comm, cdc, tax, total, typ string

	if err := rows.Scan(&t.ID, &date, &t.MemoNumber, &t.Instrument, &qty, &rate, &comm, &cdc, &tax, &total, &typ); err != nil {
		return t, fmt.Errorf("failed to scan trade: %w", err)
	}

	var err error
	if t.Date, err = time.Parse(dateLayout, date); err != nil {
		return t, fmt.Errorf("failed to parse trade date: %w", err)
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&t.Quantity, qty}, {&t.Rate, rate}, {&t.Commission, comm},
		{&t.CDCCharges, cdc}, {&t.SalesTax, tax}, {&t.TotalAmount, total},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return t, fmt.Errorf("failed to parse trade amount: %w", err)
		}
	}
	t.Type = models.TradeType(typ)
	return t, nil
}

// Trades retrieves trades matching the filter, in replay order.
func (s *SQLiteLedger) Trades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	return queryTrades(ctx, s.db, filter)
}

// TradeByID retrieves a single trade.
func (s *SQLiteLedger) TradeByID(ctx context.Context, id int64) (*models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, memo_number, instrument, quantity, rate, commission, cdc_charges, sales_tax, total_amount, type
		FROM trades WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.Wrapf(errors.ErrTradeNotFound, "trade %d", id)
	}
	t, err := scanTrade(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTrade rewrites a buy trade's fields. The corrected history must
// still replay cleanly; an edit that would drive any later position
// negative is rejected.
func (s *SQLiteLedger) UpdateTrade(ctx context.Context, trade *models.Trade) error {
	if err := validateTrade(trade); err != nil {
		return err
	}
	if trade.TotalAmount.IsZero() {
		trade.TotalAmount = trade.StockValue().Add(trade.Charges())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE trades
		SET date = ?, memo_number = ?, instrument = ?, quantity = ?, rate = ?,
		    commission = ?, cdc_charges = ?, sales_tax = ?, total_amount = ?
		WHERE id = ?
	`, trade.Date.Format(dateLayout), trade.MemoNumber, trade.Instrument,
		trade.Quantity.String(), trade.Rate.String(), trade.Commission.String(),
		trade.CDCCharges.String(), trade.SalesTax.String(), trade.TotalAmount.String(),
		trade.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errors.ErrDuplicateMemo, "memo %s", trade.MemoNumber)
		}
		return fmt.Errorf("failed to update trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrTradeNotFound, "trade %d", trade.ID)
	}

	if err := replayCheck(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteTrade removes a trade, provided the remaining history still
// replays cleanly.
func (s *SQLiteLedger) DeleteTrade(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrTradeNotFound, "trade %d", id)
	}

	if err := replayCheck(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// replayCheck verifies that the full history still folds into
// non-negative positions after an edit or delete.
func replayCheck(ctx context.Context, tx *sql.Tx) error {
	trades, err := queryTrades(ctx, tx, TradeFilter{})
	if err != nil {
		return err
	}
	_, err = ledger.Positions(trades)
	return err
}

// SellTrades retrieves disposals matching the filter, newest first.
func (s *SQLiteLedger) SellTrades(ctx context.Context, filter SellFilter) ([]models.SellTrade, error) {
	query := `SELECT id, date, instrument, quantity, rate, sale_amount, realized_pl, cgt_rate, cgt_amount, net_amount, memo_number, created_at FROM sell_trades WHERE 1=1`
	args := []interface{}{}

	if filter.Instrument != "" {
		query += " AND instrument = ?"
		args = append(args, filter.Instrument)
	}
	if !filter.StartDate.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.StartDate.Format(dateLayout))
	}
	if !filter.EndDate.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.EndDate.Format(dateLayout))
	}

	query += " ORDER BY date DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sell trades: %w", err)
	}
	defer rows.Close()

	var sells []models.SellTrade
	for rows.Next() {
		var st models.SellTrade
		var date, qty, rate, sale, pl, cgtRate, cgt, net string

		if err := rows.Scan(&st.ID, &date, &st.Instrument, &qty, &rate, &sale, &pl, &cgtRate, &cgt, &net, &st.MemoNumber, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sell trade: %w", err)
		}
		if st.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("failed to parse sell date: %w", err)
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{
			{&st.Quantity, qty}, {&st.Rate, rate}, {&st.SaleAmount, sale},
			{&st.RealizedPL, pl}, {&st.CGTRate, cgtRate}, {&st.CGTAmount, cgt},
			{&st.NetAmount, net},
		} {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, fmt.Errorf("failed to parse sell amount: %w", err)
			}
		}
		sells = append(sells, st)
	}
	return sells, rows.Err()
}

// RecordDividend inserts a dividend payment. The warrant number must be
// unique; a repeat fails with ErrDuplicateWarrant. The gross and net
// amounts are derived when not supplied.
func (s *SQLiteLedger) RecordDividend(ctx context.Context, d *models.Dividend) error {
	if err := validateDividend(d); err != nil {
		return err
	}
	if d.GrossAmount.IsZero() {
		d.GrossAmount = d.RatePerShare.Mul(d.Shares)
	}
	if d.NetAmount.IsZero() {
		d.NetAmount = d.GrossAmount.Sub(d.TaxDeducted)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO dividends (warrant_no, payment_date, instrument, rate_per_share, shares, gross_amount, tax_deducted, net_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.WarrantNo, d.PaymentDate.Format(dateLayout), d.Instrument,
		d.RatePerShare.String(), d.Shares.String(), d.GrossAmount.String(),
		d.TaxDeducted.String(), d.NetAmount.String())
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errors.ErrDuplicateWarrant, "warrant %s", d.WarrantNo)
		}
		return fmt.Errorf("failed to record dividend: %w", err)
	}

	d.ID, _ = res.LastInsertId()
	return nil
}

// Dividends retrieves dividend payments matching the filter.
func (s *SQLiteLedger) Dividends(ctx context.Context, filter DividendFilter) ([]models.Dividend, error) {
	query := `SELECT id, warrant_no, payment_date, instrument, rate_per_share, shares, gross_amount, tax_deducted, net_amount FROM dividends WHERE 1=1`
	args := []interface{}{}

	if filter.Instrument != "" {
		query += " AND instrument = ?"
		args = append(args, filter.Instrument)
	}
	if !filter.StartDate.IsZero() {
		query += " AND payment_date >= ?"
		args = append(args, filter.StartDate.Format(dateLayout))
	}
	if !filter.EndDate.IsZero() {
		query += " AND payment_date <= ?"
		args = append(args, filter.EndDate.Format(dateLayout))
	}

	query += " ORDER BY payment_date DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends: %w", err)
	}
	defer rows.Close()

	var divs []models.Dividend
	for rows.Next() {
		var d models.Dividend
		var date, rate, shares, gross, tax, net string

		if err := rows.Scan(&d.ID, &d.WarrantNo, &date, &d.Instrument, &rate, &shares, &gross, &tax, &net); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		if d.PaymentDate, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("failed to parse dividend date: %w", err)
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{
			{&d.RatePerShare, rate}, {&d.Shares, shares}, {&d.GrossAmount, gross},
			{&d.TaxDeducted, tax}, {&d.NetAmount, net},
		} {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, fmt.Errorf("failed to parse dividend amount: %w", err)
			}
		}
		divs = append(divs, d)
	}
	return divs, rows.Err()
}

// DeleteDividend removes a dividend payment.
func (s *SQLiteLedger) DeleteDividend(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dividends WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete dividend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrDividendNotFound, "dividend %d", id)
	}
	return nil
}

// RecordMetalTrade inserts a metal purchase. The total cost is derived
// from weight and per-gram price when not supplied.
func (s *SQLiteLedger) RecordMetalTrade(ctx context.Context, t *models.MetalTrade) error {
	if err := validateMetalTrade(t); err != nil {
		return err
	}
	if t.TotalCost.IsZero() {
		t.TotalCost = t.WeightGrams.Mul(t.PricePerGram)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO metal_trades (date, metal, weight_grams, karat, price_per_gram, total_cost)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.Date.Format(dateLayout), string(t.Metal), t.WeightGrams.String(),
		t.Karat, t.PricePerGram.String(), t.TotalCost.String())
	if err != nil {
		return fmt.Errorf("failed to record metal trade: %w", err)
	}

	t.ID, _ = res.LastInsertId()
	return nil
}

// MetalTrades retrieves all metal purchases in chronological order.
func (s *SQLiteLedger) MetalTrades(ctx context.Context) ([]models.MetalTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, metal, weight_grams, karat, price_per_gram, total_cost
		FROM metal_trades ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metal trades: %w", err)
	}
	defer rows.Close()

	var trades []models.MetalTrade
	for rows.Next() {
		var t models.MetalTrade
		var date, metal, weight, price, cost string

		if err := rows.Scan(&t.ID, &date, &metal, &weight, &t.Karat, &price, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan metal trade: %w", err)
		}
		if t.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("failed to parse metal trade date: %w", err)
		}
		t.Metal = models.Metal(metal)
		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{
			{&t.WeightGrams, weight}, {&t.PricePerGram, price}, {&t.TotalCost, cost},
		} {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, fmt.Errorf("failed to parse metal amount: %w", err)
			}
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// StockQuote retrieves the cached quote for a symbol. A symbol never
// cached fails with ErrNoQuote.
func (s *SQLiteLedger) StockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	var q models.StockQuote
	var prevClose, buffer string

	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, previous_close, last_updated, buffer_price
		FROM stock_prices WHERE symbol = ?
	`, symbol).Scan(&q.Symbol, &prevClose, &q.LastUpdated, &buffer)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNoQuote, "symbol %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stock quote: %w", err)
	}

	if q.PreviousClose, err = decimal.NewFromString(prevClose); err != nil {
		return nil, fmt.Errorf("failed to parse cached price: %w", err)
	}
	if q.BufferPrice, err = decimal.NewFromString(buffer); err != nil {
		return nil, fmt.Errorf("failed to parse buffer price: %w", err)
	}
	return &q, nil
}

// SaveStockQuote upserts a quote, demoting the previous close to the
// buffer price so a later fetch failure still has a fallback.
func (s *SQLiteLedger) SaveStockQuote(ctx context.Context, q *models.StockQuote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_prices (symbol, previous_close, last_updated, buffer_price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			buffer_price = stock_prices.previous_close,
			previous_close = excluded.previous_close,
			last_updated = excluded.last_updated
	`, q.Symbol, q.PreviousClose.String(), q.LastUpdated, q.BufferPrice.String())
	if err != nil {
		return fmt.Errorf("failed to save stock quote: %w", err)
	}
	return nil
}

// MetalQuote retrieves the cached per-gram prices for a metal.
func (s *SQLiteLedger) MetalQuote(ctx context.Context, metal models.Metal) (*models.MetalQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT karat, price_per_gram, last_updated
		FROM metal_prices WHERE metal = ?
	`, string(metal))
	if err != nil {
		return nil, fmt.Errorf("failed to query metal quote: %w", err)
	}
	defer rows.Close()

	q := &models.MetalQuote{Metal: metal, GramPrices: make(map[int]decimal.Decimal)}
	for rows.Next() {
		var karat int
		var price string
		var updated time.Time
		if err := rows.Scan(&karat, &price, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan metal quote: %w", err)
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("failed to parse metal price: %w", err)
		}
		q.GramPrices[karat] = p
		if updated.After(q.LastUpdated) {
			q.LastUpdated = updated
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(q.GramPrices) == 0 {
		return nil, errors.Wrapf(errors.ErrNoQuote, "metal %s", metal)
	}
	return q, nil
}

// SaveMetalQuote upserts per-gram prices for every karat in the quote.
func (s *SQLiteLedger) SaveMetalQuote(ctx context.Context, q *models.MetalQuote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for karat, price := range q.GramPrices {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO metal_prices (metal, karat, price_per_gram, last_updated)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(metal, karat) DO UPDATE SET
				price_per_gram = excluded.price_per_gram,
				last_updated = excluded.last_updated
		`, string(q.Metal), karat, price.String(), q.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to save metal quote: %w", err)
		}
	}

	return tx.Commit()
}

// ExchangeRate retrieves the cached conversion rate for a pair.
func (s *SQLiteLedger) ExchangeRate(ctx context.Context, base, target string) (*models.ExchangeRate, error) {
	var r models.ExchangeRate
	var rate string

	err := s.db.QueryRowContext(ctx, `
		SELECT base, target, rate, last_updated
		FROM exchange_rates WHERE base = ? AND target = ?
	`, base, target).Scan(&r.Base, &r.Target, &rate, &r.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNoQuote, "pair %s/%s", base, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange rate: %w", err)
	}

	if r.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("failed to parse exchange rate: %w", err)
	}
	return &r, nil
}

// SaveExchangeRate upserts a conversion rate.
func (s *SQLiteLedger) SaveExchangeRate(ctx context.Context, r *models.ExchangeRate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchange_rates (base, target, rate, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(base, target) DO UPDATE SET
			rate = excluded.rate,
			last_updated = excluded.last_updated
	`, r.Base, r.Target, r.Rate.String(), r.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save exchange rate: %w", err)
	}
	return nil
}

func validateTrade(t *models.Trade) error {
	if t.MemoNumber == "" {
		return errors.NewValidationError("memo_number", t.MemoNumber, "must not be empty")
	}
	if t.Instrument == "" {
		return errors.NewValidationError("instrument", t.Instrument, "must not be empty")
	}
	if t.Date.IsZero() {
		return errors.NewValidationError("date", t.Date, "must be set")
	}
	if !t.Quantity.IsPositive() {
		return errors.NewValidationError("quantity", t.Quantity.String(), "must be positive")
	}
	if t.Rate.IsNegative() {
		return errors.NewValidationError("rate", t.Rate.String(), "must not be negative")
	}
	if t.Commission.IsNegative() || t.CDCCharges.IsNegative() || t.SalesTax.IsNegative() {
		return errors.NewValidationError("charges", "", "must not be negative")
	}
	return nil
}

func validateDividend(d *models.Dividend) error {
	if d.WarrantNo == "" {
		return errors.NewValidationError("warrant_no", d.WarrantNo, "must not be empty")
	}
	if d.Instrument == "" {
		return errors.NewValidationError("instrument", d.Instrument, "must not be empty")
	}
	if d.PaymentDate.IsZero() {
		return errors.NewValidationError("payment_date", d.PaymentDate, "must be set")
	}
	if !d.Shares.IsPositive() {
		return errors.NewValidationError("shares", d.Shares.String(), "must be positive")
	}
	if d.RatePerShare.IsNegative() {
		return errors.NewValidationError("rate_per_share", d.RatePerShare.String(), "must not be negative")
	}
	if d.TaxDeducted.IsNegative() {
		return errors.NewValidationError("tax_deducted", d.TaxDeducted.String(), "must not be negative")
	}
	return nil
}

func validateMetalTrade(t *models.MetalTrade) error {
	switch t.Metal {
	case models.Gold, models.Silver, models.Platinum, models.Palladium:
	default:
		return errors.NewValidationError("metal", string(t.Metal), "unknown metal")
	}
	valid := false
	for _, k := range models.ValidKarats {
		if t.Karat == k {
			valid = true
			break
		}
	}
	if !valid {
		return errors.NewValidationError("karat", t.Karat, "must be one of 10, 14, 16, 18, 20, 21, 22, 24")
	}
	if t.Date.IsZero() {
		return errors.NewValidationError("date", t.Date, "must be set")
	}
	if !t.WeightGrams.IsPositive() {
		return errors.NewValidationError("weight_grams", t.WeightGrams.String(), "must be positive")
	}
	if t.PricePerGram.IsNegative() {
		return errors.NewValidationError("price_per_gram", t.PricePerGram.String(), "must not be negative")
	}
	return nil
}
