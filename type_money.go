package holdings

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents an exact monetary amount in a given currency.
//
// The zero Money has no currency and adopts the currency of the other operand in
// additions and subtractions. Any other mix of currencies is an invariant fault.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M is a convenient factory for Money.
func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money { return Money{value: decimal.Zero, cur: currency} }

// currency returns the go-money metadata for the money's currency.
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Amount() decimal.Decimal            { return m.value }
func (m Money) Currency() string                   { return m.cur }
func (m Money) Equal(n Money) bool                 { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                       { return m.value.IsZero() }
func (m Money) IsPositive() bool                   { return m.value.IsPositive() }
func (m Money) IsNegative() bool                   { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool              { return m.value.LessThan(amountOf(m, n)) }
func (m Money) GreaterThan(n Money) bool           { return m.value.GreaterThan(amountOf(m, n)) }
func (m Money) Neg() Money                         { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Mul(n Quantity) Money               { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) Div(n Quantity) Money               { return Money{value: m.value.Div(n.value), cur: m.cur} }
func (m Money) Scale(f decimal.Decimal) Money      { return Money{value: m.value.Mul(f), cur: m.cur} }
func (m Money) PositivePart() Money                { return Money{value: decimal.Max(m.value, decimal.Zero), cur: m.cur} }
func (m Money) NegativePart() Money                { return Money{value: decimal.Min(m.value, decimal.Zero), cur: m.cur} }
func (m Money) WithCurrency(currency string) Money { return Money{value: m.value, cur: currency} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// Min returns the smallest of m and n.
func (m Money) Min(n Money) Money {
	if n.LessThan(m) {
		return Money{value: n.value, cur: cur(m, n)}
	}
	return Money{value: m.value, cur: cur(m, n)}
}

// Exchange converts m into currency 'to' using rate, the price of one unit of m's currency in 'to'.
func (m Money) Exchange(rate decimal.Decimal, to string) Money {
	return Money{value: m.value.Mul(rate), cur: to}
}

// Round rounds the amount to the number of fraction digits of its currency.
func (m Money) Round() Money {
	return Money{value: m.value.Round(int32(m.currency().Fraction)), cur: m.cur}
}

// makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic(&CurrencyMismatchError{Left: a, Right: b})
	}
	return a.cur
}

// amountOf returns n's amount after checking it can be compared with m.
func amountOf(m, n Money) decimal.Decimal {
	cur(m, n)
	return n.value
}

// ValidateCurrency checks that code is a known ISO 4217 currency code, in upper case.
func ValidateCurrency(code string) error {
	// GetCurrency ignores the case of code.
	if c := money.GetCurrency(code); c == nil || c.Code != code {
		return fmt.Errorf("invalid currency code %q", code)
	}
	return nil
}

// MarshalJSON writes the money as an object with full precision amount.
func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("currency", m.cur)
	w.Append("amount", m.value)
	return w.MarshalJSON()
}

// UnmarshalJSON reads the object written by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	var a amountCmd
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = a.Money()
	return nil
}

// amountCmd is a specialized struct to read an amount stored in two fields.
type amountCmd struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (a amountCmd) Money() Money {
	return M(a.Amount, a.Currency)
}
