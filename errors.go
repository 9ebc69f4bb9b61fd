package holdings

import (
	"errors"
	"fmt"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// Data faults are recoverable by the caller: something the computation needs is
// not available from the collaborators.
var (
	// ErrMissingData matches any *MissingDataError.
	ErrMissingData = errors.New("missing data")
	// ErrInvalidData matches any *InvalidDataError.
	ErrInvalidData = errors.New("invalid data")
)

// Invariant faults indicate a logically impossible request. They are fatal to
// the computation.
var (
	// ErrInsufficientPosition matches any *InsufficientPositionError.
	ErrInsufficientPosition = errors.New("insufficient position")
	// ErrEmptyPosition is returned when closing a position group that holds no lot.
	ErrEmptyPosition = errors.New("empty position")
	// ErrCurrencyMismatch matches any *CurrencyMismatchError.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// MissingDataError reports a value that could not be found in the searched window.
type MissingDataError struct {
	Kind     string // "rate", "price", "tax"...
	Key      string // e.g. "EURHUF" or a ticker
	From, To date.Date
}

func (e *MissingDataError) Error() string {
	if e.From.IsZero() || e.From == e.To {
		return fmt.Sprintf("missing %s for %s on %s", e.Kind, e.Key, e.To)
	}
	return fmt.Sprintf("missing %s for %s between %s and %s", e.Kind, e.Key, e.From, e.To)
}

func (e *MissingDataError) Is(target error) bool { return target == ErrMissingData }

// InvalidDataError reports a reference to an unknown currency, security, account...
type InvalidDataError struct {
	Kind string
	Key  string
}

func (e *InvalidDataError) Error() string { return fmt.Sprintf("unknown %s %q", e.Kind, e.Key) }

func (e *InvalidDataError) Is(target error) bool { return target == ErrInvalidData }

// InsufficientPositionError reports an attempt to consume more than is held.
type InsufficientPositionError struct {
	Account   string
	Asset     Asset
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("account %q holds %s of %s, cannot take %s", e.Account, e.Available, e.Asset, e.Requested)
}

func (e *InsufficientPositionError) Is(target error) bool { return target == ErrInsufficientPosition }

// CurrencyMismatchError reports arithmetic between two different currencies.
type CurrencyMismatchError struct {
	Left, Right Money
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch %s != %s", e.Left.Currency(), e.Right.Currency())
}

func (e *CurrencyMismatchError) Is(target error) bool { return target == ErrCurrencyMismatch }

// recoverFault turns a currency mismatch panic raised by Money arithmetic into
// an error returned by the enclosing function. Other panics are left untouched.
func recoverFault(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if mismatch, ok := r.(*CurrencyMismatchError); ok {
		*err = mismatch
		return
	}
	panic(r)
}
