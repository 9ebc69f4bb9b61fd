package holdings

import (
	"testing"

	"github.com/etnz/holdings/date"
	"github.com/google/go-cmp/cmp"
)

func TestTransactionValidation(t *testing.T) {
	on := d("2024-03-01")
	tests := []struct {
		name    string
		new     func() (Transaction, error)
		wantErr bool
	}{
		{"money-in", func() (Transaction, error) { return NewMoneyIn(on, "", "broker", EUR(10)) }, false},
		{"money-in without date", func() (Transaction, error) { return NewMoneyIn(date.Date{}, "", "broker", EUR(10)) }, true},
		{"money-in without account", func() (Transaction, error) { return NewMoneyIn(on, "", "", EUR(10)) }, true},
		{"money-in of nothing", func() (Transaction, error) { return NewMoneyIn(on, "", "broker", EUR(0)) }, true},
		{"money-in of unknown currency", func() (Transaction, error) { return NewMoneyIn(on, "", "broker", M(1, "XYZ")) }, true},
		{"money-in of lower case currency", func() (Transaction, error) { return NewMoneyIn(on, "", "broker", M(1, "eur")) }, true},
		{"money-out negative", func() (Transaction, error) { return NewMoneyOut(on, "", "broker", EUR(-1)) }, true},
		{"enter", func() (Transaction, error) { return NewEnterInvestment(on, "", "broker", "ABC", Q(3), EUR(30)) }, false},
		{"enter without security", func() (Transaction, error) { return NewEnterInvestment(on, "", "broker", "", Q(3), EUR(30)) }, true},
		{"enter zero units", func() (Transaction, error) { return NewEnterInvestment(on, "", "broker", "ABC", Q(0), EUR(30)) }, true},
		{"exit", func() (Transaction, error) { return NewExitInvestment(on, "", "broker", "ABC", Q(3), EUR(40), FIFO) }, false},
		{"exit without strategy", func() (Transaction, error) {
			return NewExitInvestment(on, "", "broker", "ABC", Q(3), EUR(40), Unspecified)
		}, true},
		{"exit specific without selection", func() (Transaction, error) {
			return NewExitInvestment(on, "", "broker", "ABC", Q(3), EUR(40), Specific)
		}, true},
		{"exit specific", func() (Transaction, error) {
			return NewExitInvestment(on, "", "broker", "ABC", Q(3), EUR(40), Specific, d("2024-01-01"))
		}, false},
		{"transfer cash", func() (Transaction, error) { return NewTransferCash(on, "", "broker", "savings", EUR(5)) }, false},
		{"transfer cash to itself", func() (Transaction, error) { return NewTransferCash(on, "", "broker", "broker", EUR(5)) }, true},
		{"transfer security", func() (Transaction, error) {
			return NewTransferSecurity(on, "", "broker", "savings", "ABC", Q(1), LIFO)
		}, false},
		{"transfer security without destination", func() (Transaction, error) {
			return NewTransferSecurity(on, "", "broker", "", "ABC", Q(1), LIFO)
		}, true},
		{"fee", func() (Transaction, error) { return NewPayFee(on, "custody", "broker", EUR(2)) }, false},
		{"fee without account", func() (Transaction, error) { return NewPayFee(on, "", "", EUR(2)) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := tt.new()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if err := tx.Validate(); err != nil {
					t.Errorf("Validate() on a constructed transaction: %v", err)
				}
			}
		})
	}
}

func TestTransactionLegs(t *testing.T) {
	tx := must(t)
	on := d("2024-03-01")
	tests := []struct {
		tx   Transaction
		want []Leg
	}{
		{tx(NewMoneyIn(on, "", "a", EUR(10))), []Leg{
			{Add, dec("10"), Cash("EUR"), "a"},
		}},
		{tx(NewMoneyOut(on, "", "a", EUR(10))), []Leg{
			{Take, dec("10"), Cash("EUR"), "a"},
		}},
		{tx(NewEnterInvestment(on, "", "a", "ABC", Q(2), EUR(30))), []Leg{
			{Add, dec("2"), Security("ABC"), "a"},
			{Take, dec("30"), Cash("EUR"), "a"},
		}},
		{tx(NewExitInvestment(on, "", "a", "ABC", Q(2), EUR(35), FIFO)), []Leg{
			{Take, dec("2"), Security("ABC"), "a"},
			{Add, dec("35"), Cash("EUR"), "a"},
		}},
		{tx(NewTransferCash(on, "", "a", "b", USD(4))), []Leg{
			{Take, dec("4"), Cash("USD"), "a"},
			{Add, dec("4"), Cash("USD"), "b"},
		}},
		{tx(NewTransferSecurity(on, "", "a", "b", "ABC", Q(1), FIFO)), []Leg{
			{Take, dec("1"), Security("ABC"), "a"},
			{Add, dec("1"), Security("ABC"), "b"},
		}},
		{tx(NewPayFee(on, "", "a", EUR(1))), []Leg{
			{Take, dec("1"), Cash("EUR"), "a"},
		}},
	}
	decimalEqual := cmp.Comparer(func(x, y Leg) bool {
		return x.Direction == y.Direction && x.Amount.Equal(y.Amount) && x.Asset == y.Asset && x.Account == y.Account
	})
	for _, tt := range tests {
		t.Run(string(tt.tx.What()), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.tx.Legs(), decimalEqual); diff != "" {
				t.Errorf("Legs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
