package holdings

import (
	"testing"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// d is a helper for test to create a date from a string.
func d(s string) date.Date { return date.MustParse(s) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestMarket returns market data with a few currencies, securities and tax residences:
//
//   - FR: 30% in EUR, losses carried 10 years from the end of the year.
//   - JP: 15% in JPY, to test rounding to whole yens.
func newTestMarket(t *testing.T) *MarketData {
	t.Helper()
	m := NewMarketData()
	for _, c := range []string{"EUR", "USD", "HUF", "GBP", "JPY"} {
		if err := m.AddCurrency(CurrencyDetails{Code: c}); err != nil {
			t.Fatalf("AddCurrency(%s) unexpected error: %v", c, err)
		}
	}
	for _, s := range []SecurityDetails{
		{Ticker: "AAPL", Currency: "USD", Market: "XNAS"},
		{Ticker: "ABC", Currency: "EUR", Market: "XPAR"},
		{Ticker: "SONY", Currency: "JPY", Market: "XTKS"},
	} {
		if err := m.AddSecurity(s); err != nil {
			t.Fatalf("AddSecurity(%s) unexpected error: %v", s.Ticker, err)
		}
	}
	for _, tax := range []TaxDetails{
		{Residence: "FR", FlatRate: dec("30"), Currency: "EUR", LossOffsetYears: 10, CutoffMonth: 12, CutoffDay: 31},
		{Residence: "JP", FlatRate: dec("15"), Currency: "JPY", LossOffsetYears: 3, CutoffMonth: 12, CutoffDay: 31},
	} {
		if err := m.AddTax(tax); err != nil {
			t.Fatalf("AddTax(%s) unexpected error: %v", tax.Residence, err)
		}
	}
	return m
}

// newTestAccounts returns an account directory with a regular "broker" account
// and a "tbsz" account opened on 2015-03-10.
func newTestAccounts(t *testing.T) *Accounts {
	t.Helper()
	a := NewAccounts()
	for _, acc := range []AccountDetails{
		{ID: "broker", Type: Regular, Broker: "B"},
		{ID: "savings", Type: Regular, Broker: "B"},
		{ID: "tbsz", Type: TBSZ, Opened: d("2015-03-10"), Broker: "B"},
	} {
		if err := a.AddAccount(acc); err != nil {
			t.Fatalf("AddAccount(%s) unexpected error: %v", acc.ID, err)
		}
	}
	return a
}

// must returns a helper failing the test when a transaction is invalid:
//
//	tx := must(t)
//	tx(NewMoneyIn(...))
func must(t *testing.T) func(Transaction, error) Transaction {
	return func(tx Transaction, err error) Transaction {
		t.Helper()
		if err != nil {
			t.Fatalf("invalid test transaction: %v", err)
		}
		return tx
	}
}
