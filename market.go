package holdings

import (
	"context"
	"fmt"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is how many days back MarketData searches for a rate or a price.
const DefaultTolerance = 7

// MarketData is an in-memory DataProvider.
//
// Rates and prices are stored as date series. A lookup returns the last value
// known on or before the requested day, as long as it is at most Tolerance
// days old.
type MarketData struct {
	Tolerance int

	currencies  map[string]*CurrencyDetails // by code
	currencyIDs map[string]string           // id -> code
	securities  map[string]*SecurityDetails // by ticker
	securityIDs map[string]string           // id -> ticker
	rates       map[string]*date.History[decimal.Decimal]
	prices      map[string]*date.History[decimal.Decimal] // in the security currency
	taxes       map[string][]TaxDetails
}

// NewMarketData returns an empty MarketData.
func NewMarketData() *MarketData {
	return &MarketData{
		Tolerance:   DefaultTolerance,
		currencies:  make(map[string]*CurrencyDetails),
		currencyIDs: make(map[string]string),
		securities:  make(map[string]*SecurityDetails),
		securityIDs: make(map[string]string),
		rates:       make(map[string]*date.History[decimal.Decimal]),
		prices:      make(map[string]*date.History[decimal.Decimal]),
		taxes:       make(map[string][]TaxDetails),
	}
}

func pair(from, to string) string { return from + to }

// AddCurrency registers a currency. Its code must be a valid ISO 4217 code.
func (m *MarketData) AddCurrency(c CurrencyDetails) error {
	if err := ValidateCurrency(c.Code); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = c.Code
	}
	m.currencies[c.Code] = &c
	m.currencyIDs[c.ID] = c.Code
	return nil
}

// AddSecurity registers a security. Its currency must already be known.
func (m *MarketData) AddSecurity(s SecurityDetails) error {
	if s.Ticker == "" {
		return fmt.Errorf("security %q has no ticker", s.ID)
	}
	if _, ok := m.currencies[s.Currency]; !ok {
		return &InvalidDataError{Kind: "currency", Key: s.Currency}
	}
	if s.ID == "" {
		s.ID = s.Ticker
	}
	m.securities[s.Ticker] = &s
	m.securityIDs[s.ID] = s.Ticker
	return nil
}

// AddRate records the price of one unit of 'from' in 'to' on day 'on'.
func (m *MarketData) AddRate(from, to string, on date.Date, rate decimal.Decimal) {
	h, ok := m.rates[pair(from, to)]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.rates[pair(from, to)] = h
	}
	h.Append(on, rate)
}

// AddPrice records the price of one unit of ticker, in its currency, on day 'on'.
func (m *MarketData) AddPrice(ticker string, on date.Date, price decimal.Decimal) {
	h, ok := m.prices[ticker]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.prices[ticker] = h
	}
	h.Append(on, price)
}

// AddTax registers the tax rules of a residence for their validity range.
func (m *MarketData) AddTax(t TaxDetails) error {
	if err := ValidateCurrency(t.Currency); err != nil {
		return err
	}
	if t.CutoffMonth < 1 || t.CutoffMonth > 12 || t.CutoffDay < 1 || t.CutoffDay > 31 {
		return fmt.Errorf("tax rules of %q have an invalid loss offset cutoff %d/%d", t.Residence, t.CutoffMonth, t.CutoffDay)
	}
	if t.LossOffsetYears < 0 {
		return fmt.Errorf("tax rules of %q have a negative loss offset period", t.Residence)
	}
	m.taxes[t.Residence] = append(m.taxes[t.Residence], t)
	return nil
}

// lookup searches h backward from day, within the tolerance.
func (m *MarketData) lookup(h *date.History[decimal.Decimal], day date.Date) (decimal.Decimal, bool) {
	if h == nil {
		return decimal.Decimal{}, false
	}
	on, v, ok := h.ValueAsOf(day)
	if !ok || on.Days(day) > m.Tolerance {
		return decimal.Decimal{}, false
	}
	return v, true
}

func (m *MarketData) ExchangeRate(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := m.lookup(m.rates[pair(from, to)], on); ok {
		return rate, nil
	}
	if rate, ok := m.lookup(m.rates[pair(to, from)], on); ok && !rate.IsZero() {
		return decimal.NewFromInt(1).Div(rate), nil
	}
	return decimal.Decimal{}, &MissingDataError{Kind: "rate", Key: pair(from, to), From: on.Add(-m.Tolerance), To: on}
}

func (m *MarketData) SharePrice(ctx context.Context, ticker string, on date.Date) (Money, error) {
	sec, ok := m.securities[ticker]
	if !ok {
		return Money{}, &InvalidDataError{Kind: "security", Key: ticker}
	}
	price, ok := m.lookup(m.prices[ticker], on)
	if !ok {
		return Money{}, &MissingDataError{Kind: "price", Key: ticker, From: on.Add(-m.Tolerance), To: on}
	}
	return M(price, sec.Currency), nil
}

func (m *MarketData) Currency(ctx context.Context, code string) (CurrencyDetails, error) {
	c, ok := m.currencies[code]
	if !ok {
		return CurrencyDetails{}, &InvalidDataError{Kind: "currency", Key: code}
	}
	return *c, nil
}

func (m *MarketData) CurrencyByID(ctx context.Context, id string) (CurrencyDetails, error) {
	code, ok := m.currencyIDs[id]
	if !ok {
		return CurrencyDetails{}, &InvalidDataError{Kind: "currency", Key: id}
	}
	return m.Currency(ctx, code)
}

func (m *MarketData) Security(ctx context.Context, ticker string) (SecurityDetails, error) {
	s, ok := m.securities[ticker]
	if !ok {
		return SecurityDetails{}, &InvalidDataError{Kind: "security", Key: ticker}
	}
	return *s, nil
}

func (m *MarketData) SecurityByID(ctx context.Context, id string) (SecurityDetails, error) {
	ticker, ok := m.securityIDs[id]
	if !ok {
		return SecurityDetails{}, &InvalidDataError{Kind: "security", Key: id}
	}
	return m.Security(ctx, ticker)
}

func (m *MarketData) TaxDetails(ctx context.Context, residence string, on date.Date) (TaxDetails, error) {
	rules, ok := m.taxes[residence]
	if !ok {
		return TaxDetails{}, &InvalidDataError{Kind: "residence", Key: residence}
	}
	for _, t := range rules {
		if t.Valid.Contains(on) {
			return t, nil
		}
	}
	return TaxDetails{}, &MissingDataError{Kind: "tax", Key: residence, To: on}
}

var _ DataProvider = (*MarketData)(nil)
