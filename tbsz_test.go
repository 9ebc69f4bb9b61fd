package holdings

import (
	"context"
	"slices"
	"testing"
)

func TestTbszBreaking(t *testing.T) {
	opened := d("2015-03-10")
	tests := []struct {
		on   string
		want bool
	}{
		{"2019-06-01", true},
		{"2020-01-01", true},  // still in the first cycle
		{"2021-01-01", false}, // first day after the first cycle
		{"2021-01-02", true},
		{"2022-01-01", true},
		{"2026-01-01", false}, // first day after the second cycle
	}
	for _, tt := range tests {
		if got := breaking(opened, d(tt.on)); got != tt.want {
			t.Errorf("breaking(%v, %s) = %v, want %v", opened, tt.on, got, tt.want)
		}
	}
}

func TestTbszIsEligible(t *testing.T) {
	tests := []struct {
		name     string
		account  string
		outflows []string
		on       string
		want     bool
	}{
		{"regular account", "broker", nil, "2023-06-01", false},
		{"commitment not over", "tbsz", nil, "2020-12-31", false},
		{"commitment over", "tbsz", nil, "2021-06-01", true},
		{"broken during the commitment", "tbsz", []string{"2019-05-01"}, "2023-06-01", false},
		{"withdrawal on the anniversary day", "tbsz", []string{"2021-01-01"}, "2023-06-01", true},
		{"withdrawal after the commitment", "tbsz", []string{"2022-03-01"}, "2023-06-01", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := &TbszCalculator{Data: newTestMarket(t), Accounts: newTestAccounts(t)}
			tr := NewPositionTracker()
			for _, on := range tt.outflows {
				tr.ProcessMoneyOut(d(on), tt.account, EUR(1))
			}
			got, err := calc.IsEligible(context.Background(), tr, tt.account, d(tt.on))
			if err != nil {
				t.Fatalf("IsEligible() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTbszReferenceDate(t *testing.T) {
	tests := []struct {
		name     string
		outflows []string
		on       string
		want     string // empty for an error
	}{
		{"end of the first cycle", nil, "2023-06-01", "2020-12-31"},
		{"second cycle not over", nil, "2025-06-01", "2020-12-31"},
		{"end of the second cycle", nil, "2026-02-01", "2025-12-31"},
		{"broken after the commitment", []string{"2022-03-01"}, "2023-06-01", "2022-03-01"},
		{"broken the same day", []string{"2022-03-01"}, "2022-03-01", "2022-03-01"},
		{"broken later", []string{"2022-03-01"}, "2022-02-28", "2020-12-31"},
		{"anniversary withdrawal", []string{"2021-01-01"}, "2023-06-01", "2020-12-31"},
		{"no cycle completed", nil, "2019-06-01", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := &TbszCalculator{Data: newTestMarket(t), Accounts: newTestAccounts(t)}
			tr := NewPositionTracker()
			for _, on := range tt.outflows {
				tr.ProcessMoneyOut(d(on), "tbsz", EUR(1))
			}
			got, err := calc.ReferenceDate(context.Background(), tr, "tbsz", d(tt.on))
			if tt.want == "" {
				if err == nil {
					t.Errorf("ReferenceDate() = %v, want an error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReferenceDate() unexpected error: %v", err)
			}
			if got != d(tt.want) {
				t.Errorf("ReferenceDate() = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestTbszReferenceDateRegularAccount(t *testing.T) {
	calc := &TbszCalculator{Data: newTestMarket(t), Accounts: newTestAccounts(t)}
	if _, err := calc.ReferenceDate(context.Background(), NewPositionTracker(), "broker", d("2023-06-01")); err == nil {
		t.Error("ReferenceDate() on a regular account, want an error")
	}
}

func TestTbszSteppedUpCost(t *testing.T) {
	ref := d("2020-12-31")
	market := newTestMarket(t)
	market.AddPrice("ABC", ref, dec("150"))
	market.AddPrice("AAPL", ref, dec("100"))
	market.AddRate("EUR", "USD", ref, dec("2"))
	calc := &TbszCalculator{Data: market, Accounts: newTestAccounts(t)}

	tests := []struct {
		name string
		lot  Lot
		want Money
	}{
		{"market value above cost", Lot{Security: "ABC", Count: Q(10), Cost: EUR(1000)}, EUR(1500)},
		{"market value below cost", Lot{Security: "ABC", Count: Q(10), Cost: EUR(2000)}, EUR(2000)},
		{"bought in another currency", Lot{Security: "AAPL", Count: Q(10), Cost: EUR(400)}, EUR(500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.SteppedUpCost(context.Background(), tt.lot, ref)
			if err != nil {
				t.Fatalf("SteppedUpCost() unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("SteppedUpCost() = %v %s, want %v", got.Amount(), got.Currency(), tt.want.Amount())
			}
		})
	}
}

// A withdrawal after the commitment period freezes the reference date: the
// gain made until then is tax free.
func TestTbszReplay(t *testing.T) {
	tx := must(t)
	market := newTestMarket(t)
	market.AddPrice("ABC", d("2022-03-01"), dec("150"))
	market.AddPrice("ABC", d("2020-12-31"), dec("120"))

	log := func(account string) []Transaction {
		return []Transaction{
			tx(NewMoneyIn(d("2016-01-05"), "", account, EUR(2000))),
			tx(NewEnterInvestment(d("2016-01-10"), "", account, "ABC", Q(10), EUR(1000))),
			tx(NewMoneyOut(d("2022-03-01"), "", account, EUR(100))),
			tx(NewExitInvestment(d("2023-06-01"), "", account, "ABC", Q(10), EUR(1500), FIFO)),
		}
	}
	tests := []struct {
		account  string
		wantTax  float64
		wantCash float64
	}{
		{"tbsz", 0, 2400},
		{"broker", 150, 2250},
	}
	for _, tt := range tests {
		t.Run(tt.account, func(t *testing.T) {
			tr := NewPositionTracker()
			r := NewReplayer(market, newTestAccounts(t))
			if err := r.Replay(context.Background(), tr, log(tt.account), "FR"); err != nil {
				t.Fatalf("Replay() unexpected error: %v", err)
			}
			history := tr.TaxHistory()
			if len(history) != 1 {
				t.Fatalf("TaxHistory() = %v, want a single effect", history)
			}
			if got := history[0].TaxPaid; !got.Equal(EUR(tt.wantTax)) {
				t.Errorf("TaxPaid = %v, want %v", got.Amount(), tt.wantTax)
			}
			if got := tr.Cash(tt.account, "EUR"); !got.Equal(EUR(tt.wantCash)) {
				t.Errorf("Cash() = %v, want %v", got.Amount(), tt.wantCash)
			}
		})
	}
}

// The exit that breaks the account is taxed from the end of the cycle, the
// exits that follow, even on the same day, from the day of the break.
func TestTbszReplayBrokenByExit(t *testing.T) {
	tx := must(t)
	market := newTestMarket(t)
	market.AddPrice("ABC", d("2020-12-31"), dec("120"))
	market.AddPrice("ABC", d("2022-03-01"), dec("150"))
	market.AddPrice("ABC", d("2022-06-01"), dec("180"))

	opening := []Transaction{
		tx(NewMoneyIn(d("2016-01-05"), "", "tbsz", EUR(2000))),
		tx(NewEnterInvestment(d("2016-01-10"), "", "tbsz", "ABC", Q(10), EUR(1000))),
	}
	tests := []struct {
		name    string
		exits   []Transaction
		wantTax []float64
	}{
		{
			name: "same day",
			exits: []Transaction{
				tx(NewExitInvestment(d("2022-03-01"), "", "tbsz", "ABC", Q(5), EUR(750), FIFO)),
				tx(NewExitInvestment(d("2022-03-01"), "", "tbsz", "ABC", Q(5), EUR(750), FIFO)),
			},
			wantTax: []float64{45, 0},
		},
		{
			name: "later",
			exits: []Transaction{
				tx(NewExitInvestment(d("2022-03-01"), "", "tbsz", "ABC", Q(5), EUR(750), FIFO)),
				tx(NewExitInvestment(d("2022-06-01"), "", "tbsz", "ABC", Q(5), EUR(900), FIFO)),
			},
			wantTax: []float64{45, 45},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewPositionTracker()
			r := NewReplayer(market, newTestAccounts(t))
			if err := r.Replay(context.Background(), tr, append(slices.Clone(opening), tt.exits...), "FR"); err != nil {
				t.Fatalf("Replay() unexpected error: %v", err)
			}
			history := tr.TaxHistory()
			if len(history) != len(tt.wantTax) {
				t.Fatalf("TaxHistory() = %v, want %d effects", history, len(tt.wantTax))
			}
			for i, want := range tt.wantTax {
				if got := history[i].TaxPaid; !got.Equal(EUR(want)) {
					t.Errorf("exit #%d TaxPaid = %v, want %v", i, got.Amount(), want)
				}
			}
		})
	}
}
