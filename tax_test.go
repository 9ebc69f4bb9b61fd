package holdings

import (
	"context"
	"errors"
	"testing"
)

func TestTaxEffect(t *testing.T) {
	on := d("2024-06-01")
	tests := []struct {
		name      string
		residence string
		setup     func(tr *PositionTracker)
		closed    []Lot
		proceeds  Money
		// in the tax currency
		wantGain, wantTaxable, wantTax, wantFee, wantLoss float64
		wantUsed, wantExpired                             int
	}{
		{
			name:      "plain gain",
			residence: "FR",
			closed:    []Lot{{Security: "ABC", Count: Q(10), Cost: EUR(1000), Entry: d("2020-01-01")}},
			proceeds:  EUR(1500),
			wantGain:  500, wantTaxable: 500, wantTax: 150,
		},
		{
			name:      "fee and loss pools",
			residence: "FR",
			setup: func(tr *PositionTracker) {
				tr.ProcessFee(d("2023-02-01"), "broker", EUR(20), EUR(20))
				tr.RecordTax(d("2023-05-01"), TaxEffect{LossAdded: EUR(100)})
			},
			closed:   []Lot{{Security: "ABC", Count: Q(10), Cost: EUR(1000), Entry: d("2020-01-01")}},
			proceeds: EUR(1500),
			wantGain: 500, wantTaxable: 380, wantTax: 114, wantFee: 20,
			wantUsed: 1,
		},
		{
			name:      "expired loss",
			residence: "FR",
			setup: func(tr *PositionTracker) {
				tr.RecordTax(d("2012-01-01"), TaxEffect{LossAdded: EUR(100)})
			},
			closed:   []Lot{{Security: "ABC", Count: Q(10), Cost: EUR(1000), Entry: d("2020-01-01")}},
			proceeds: EUR(1500),
			wantGain: 500, wantTaxable: 500, wantTax: 150,
			wantExpired: 1,
		},
		{
			name:      "loss leaves pools untouched",
			residence: "FR",
			setup: func(tr *PositionTracker) {
				tr.ProcessFee(d("2023-02-01"), "broker", EUR(20), EUR(20))
			},
			closed:   []Lot{{Security: "ABC", Count: Q(10), Cost: EUR(1000), Entry: d("2020-01-01")}},
			proceeds: EUR(800),
			wantGain: -200, wantLoss: 200,
		},
		{
			name:      "several lots",
			residence: "FR",
			closed: []Lot{
				{Security: "ABC", Count: Q(10), Cost: EUR(1000), Entry: d("2020-01-01")},
				{Security: "ABC", Count: Q(2), Cost: EUR(300), Entry: d("2021-01-01")},
			},
			proceeds: EUR(1500),
			wantGain: 200, wantTaxable: 200, wantTax: 60,
		},
		{
			name:      "rounded to whole yens",
			residence: "JP",
			closed:    []Lot{{Security: "SONY", Count: Q(3), Cost: M(1000, "JPY"), Entry: d("2020-01-01")}},
			proceeds:  M(1333, "JPY"),
			wantGain:  333, wantTaxable: 333, wantTax: 50,
		},
		{
			name:      "foreign proceeds",
			residence: "FR",
			closed:    []Lot{{Security: "AAPL", Count: Q(10), Cost: USD(1000), Entry: d("2020-01-01")}},
			proceeds:  USD(1500),
			wantGain:  250, wantTaxable: 250, wantTax: 75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := newTestMarket(t)
			market.AddRate("EUR", "USD", on, dec("2"))
			tr := NewPositionTracker()
			if tt.setup != nil {
				tt.setup(tr)
			}
			calc := NewTaxCalculator(market, nil)

			effect, err := calc.TaxEffect(context.Background(), tr, tt.closed, on, "broker", tt.proceeds, tt.residence)
			if err != nil {
				t.Fatalf("TaxEffect() unexpected error: %v", err)
			}
			cur := "EUR"
			if tt.residence == "JP" {
				cur = "JPY"
			}
			for _, c := range []struct {
				field string
				got   Money
				want  float64
			}{
				{"Gain", effect.Gain, tt.wantGain},
				{"TaxableGain", effect.TaxableGain, tt.wantTaxable},
				{"TaxPaid", effect.TaxPaid, tt.wantTax},
				{"FeeUsed", effect.FeeUsed, tt.wantFee},
				{"LossAdded", effect.LossAdded, tt.wantLoss},
			} {
				if !c.got.Equal(M(c.want, cur)) {
					t.Errorf("%s = %v %s, want %v %s", c.field, c.got.Amount(), c.got.Currency(), c.want, cur)
				}
			}
			if len(effect.LossesUsed) != tt.wantUsed {
				t.Errorf("LossesUsed = %v, want %d entries", effect.LossesUsed, tt.wantUsed)
			}
			if len(effect.LossesExpired) != tt.wantExpired {
				t.Errorf("LossesExpired = %v, want %d entries", effect.LossesExpired, tt.wantExpired)
			}
			if effect.Date != on || effect.Account != "broker" {
				t.Errorf("TaxEffect() = %v for %q, want %v for broker", effect.Date, effect.Account, on)
			}
		})
	}
}

func TestTaxEffectErrors(t *testing.T) {
	on := d("2024-06-01")
	lot := []Lot{{Security: "AAPL", Count: Q(1), Cost: USD(10), Entry: d("2020-01-01")}}
	tests := []struct {
		name      string
		residence string
		setup     func(tr *PositionTracker)
		want      error
	}{
		{"unknown residence", "XX", nil, ErrInvalidData},
		{"missing rate", "FR", nil, ErrMissingData},
		{"pool in another currency", "JP", func(tr *PositionTracker) {
			tr.ProcessFee(on, "broker", EUR(1), EUR(1))
		}, ErrCurrencyMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := newTestMarket(t)
			market.AddRate("USD", "JPY", on, dec("150"))
			tr := NewPositionTracker()
			if tt.setup != nil {
				tt.setup(tr)
			}
			_, err := NewTaxCalculator(market, nil).TaxEffect(context.Background(), tr, lot, on, "broker", USD(20), tt.residence)
			if !errors.Is(err, tt.want) {
				t.Errorf("TaxEffect() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCashInTaxCurrency(t *testing.T) {
	on := d("2024-06-01")
	market := newTestMarket(t)
	market.AddRate("EUR", "USD", on.Add(-3), dec("2"))
	calc := NewTaxCalculator(market, nil)

	got, err := calc.CashInTaxCurrency(context.Background(), USD(10), on, "FR")
	if err != nil {
		t.Fatalf("CashInTaxCurrency() unexpected error: %v", err)
	}
	if !got.Equal(EUR(5)) {
		t.Errorf("CashInTaxCurrency() = %v %s, want 5 EUR", got.Amount(), got.Currency())
	}
}
