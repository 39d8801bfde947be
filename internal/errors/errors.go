// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDuplicateMemo        = errors.New("memo number already exists")
	ErrDuplicateWarrant     = errors.New("warrant number already exists")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrNegativePosition     = errors.New("negative position")
	ErrMissingPrice         = errors.New("missing price")
	ErrNoQuote              = errors.New("no quote available")
	ErrUserExists           = errors.New("user already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrTradeNotFound        = errors.New("trade not found")
	ErrDividendNotFound     = errors.New("dividend not found")
	ErrConfigInvalid        = errors.New("invalid configuration")
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// LedgerError represents an error from a ledger store operation.
type LedgerError struct {
	Op         string
	Instrument string
	Err        error
}

func (e *LedgerError) Error() string {
	if e.Instrument != "" {
		return fmt.Sprintf("ledger error [%s] %s: %v", e.Op, e.Instrument, e.Err)
	}
	return fmt.Sprintf("ledger error [%s]: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError.
func NewLedgerError(op, instrument string, err error) *LedgerError {
	return &LedgerError{
		Op:         op,
		Instrument: instrument,
		Err:        err,
	}
}

// PriceError represents an error from a price reader.
type PriceError struct {
	Source string
	Symbol string
	Err    error
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("price error [%s] %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *PriceError) Unwrap() error {
	return e.Err
}

// NewPriceError creates a new PriceError.
func NewPriceError(source, symbol string, err error) *PriceError {
	return &PriceError{
		Source: source,
		Symbol: symbol,
		Err:    err,
	}
}

// ExtractionError represents a failure to extract structured fields from a
// document. Callers treat it as "no draft", never as fatal.
type ExtractionError struct {
	Kind string // "trade" or "dividend"
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error [%s]: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(kind string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
