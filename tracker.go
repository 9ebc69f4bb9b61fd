package holdings

import (
	"errors"
	"maps"
	"slices"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// LossEntry is a capital loss that can offset future gains until it expires.
type LossEntry struct {
	Amount Money     `json:"amount"` // positive, in the tax currency
	Origin date.Date `json:"origin"`
}

// PositionTracker is the in-memory ledger of a replay: cash balances and open
// lots per account, plus the tax pools shared by all accounts.
//
// A tracker is owned by a single caller for the duration of a computation and
// has no internal synchronization. Use NewPositionTracker to create one.
type PositionTracker struct {
	cash     map[string]map[string]decimal.Decimal // account -> currency -> balance
	lots     map[string]map[string][]Lot           // account -> ticker -> open lots, insertion ordered
	outflows map[string][]date.Date                 // account -> dates money or securities left it

	feePool  Money
	lossPool []LossEntry
	taxes    []TaxEffect
}

// NewPositionTracker returns a blank tracker.
func NewPositionTracker() *PositionTracker {
	return &PositionTracker{
		cash:     make(map[string]map[string]decimal.Decimal),
		lots:     make(map[string]map[string][]Lot),
		outflows: make(map[string][]date.Date),
	}
}

// --- queries ---

// Accounts returns every account touched so far, sorted.
func (t *PositionTracker) Accounts() []string {
	accounts := make(map[string]struct{})
	for a := range t.cash {
		accounts[a] = struct{}{}
	}
	for a := range t.lots {
		accounts[a] = struct{}{}
	}
	return slices.Sorted(maps.Keys(accounts))
}

// Cash returns the balance of account in currency.
func (t *PositionTracker) Cash(account, currency string) Money {
	return M(t.cash[account][currency], currency)
}

// Balances returns a copy of all cash balances of account, per currency.
func (t *PositionTracker) Balances(account string) map[string]decimal.Decimal {
	return maps.Clone(t.cash[account])
}

// Currencies returns the currencies account has a balance in, sorted.
func (t *PositionTracker) Currencies(account string) []string {
	return slices.Sorted(maps.Keys(t.cash[account]))
}

// Tickers returns the securities account holds open lots of, sorted.
func (t *PositionTracker) Tickers(account string) []string {
	return slices.Sorted(maps.Keys(t.lots[account]))
}

// Lots returns a copy of the open lots of ticker in account, in insertion order.
func (t *PositionTracker) Lots(account, ticker string) []Lot {
	return slices.Clone(t.lots[account][ticker])
}

// Position returns the number of units of ticker held in account.
func (t *PositionTracker) Position(account, ticker string) Quantity {
	return Lots(t.lots[account][ticker]).Count()
}

func (t *PositionTracker) FeePool() Money                { return t.feePool }
func (t *PositionTracker) LossPool() []LossEntry         { return slices.Clone(t.lossPool) }
func (t *PositionTracker) Outflows(a string) []date.Date { return slices.Clone(t.outflows[a]) }
func (t *PositionTracker) TaxHistory() []TaxEffect       { return slices.Clone(t.taxes) }

// --- mutations ---

func (t *PositionTracker) credit(account string, amount Money) {
	balances, ok := t.cash[account]
	if !ok {
		balances = make(map[string]decimal.Decimal)
		t.cash[account] = balances
	}
	balances[amount.Currency()] = balances[amount.Currency()].Add(amount.Amount())
}

func (t *PositionTracker) debit(account string, amount Money) { t.credit(account, amount.Neg()) }

func (t *PositionTracker) setLots(account, ticker string, lots []Lot) {
	if len(lots) == 0 {
		delete(t.lots[account], ticker)
		if len(t.lots[account]) == 0 {
			delete(t.lots, account)
		}
		return
	}
	tickers, ok := t.lots[account]
	if !ok {
		tickers = make(map[string][]Lot)
		t.lots[account] = tickers
	}
	tickers[ticker] = lots
}

func (t *PositionTracker) outflow(account string, on date.Date) {
	t.outflows[account] = append(t.outflows[account], on)
}

// ProcessMoneyIn credits amount to account.
func (t *PositionTracker) ProcessMoneyIn(on date.Date, account string, amount Money) {
	t.credit(account, amount)
}

// ProcessMoneyOut debits amount from account. The balance may become negative.
func (t *PositionTracker) ProcessMoneyOut(on date.Date, account string, amount Money) {
	t.debit(account, amount)
	t.outflow(account, on)
}

// ProcessEnterInvestment opens a new lot and pays its cost from the account's cash.
func (t *PositionTracker) ProcessEnterInvestment(on date.Date, account, ticker string, count Quantity, cost Money) {
	lots := append(t.lots[account][ticker], Lot{Security: ticker, Count: count, Cost: cost, Entry: on})
	t.setLots(account, ticker, lots)
	t.debit(account, cost)
}

// MatchLots returns the lots that taking count units of ticker out of account
// would consume, without changing the tracker.
func (t *PositionTracker) MatchLots(account, ticker string, count Quantity, strategy MatchingStrategy, selection []date.Date) ([]Lot, error) {
	consumed, _, err := t.match(account, ticker, count, strategy, selection)
	return consumed, err
}

func (t *PositionTracker) match(account, ticker string, count Quantity, strategy MatchingStrategy, selection []date.Date) (consumed, residual []Lot, err error) {
	consumed, residual, err = Match(t.lots[account][ticker], count, strategy, selection)
	var perr *InsufficientPositionError
	if errors.As(err, &perr) {
		perr.Account = account
		perr.Asset = Security(ticker)
	}
	return consumed, residual, err
}

// ProcessExitInvestment sells count units of ticker out of account for proceeds.
// The exit counts as an outflow of the account.
func (t *PositionTracker) ProcessExitInvestment(on date.Date, account, ticker string, count Quantity, proceeds Money, strategy MatchingStrategy, selection []date.Date) error {
	_, residual, err := t.match(account, ticker, count, strategy, selection)
	if err != nil {
		return err
	}
	t.setLots(account, ticker, residual)
	t.credit(account, proceeds)
	t.outflow(account, on)
	return nil
}

// ProcessTransferSecurity moves lots of ticker from one account to another.
// Lots keep their cost and entry date.
func (t *PositionTracker) ProcessTransferSecurity(on date.Date, from, to, ticker string, count Quantity, strategy MatchingStrategy, selection []date.Date) error {
	moved, residual, err := t.match(from, ticker, count, strategy, selection)
	if err != nil {
		return err
	}
	t.setLots(from, ticker, residual)
	t.setLots(to, ticker, append(t.lots[to][ticker], moved...))
	t.outflow(from, on)
	return nil
}

// ProcessTransferCash moves amount from one account to another.
// The source must hold at least amount.
func (t *PositionTracker) ProcessTransferCash(on date.Date, from, to string, amount Money) error {
	if available := t.Cash(from, amount.Currency()); available.LessThan(amount) {
		return &InsufficientPositionError{
			Account:   from,
			Asset:     Cash(amount.Currency()),
			Requested: amount.Amount(),
			Available: available.Amount(),
		}
	}
	t.debit(from, amount)
	t.credit(to, amount)
	t.outflow(from, on)
	return nil
}

// ProcessFee debits a fee from account and adds its tax deductible value to the fee pool.
func (t *PositionTracker) ProcessFee(on date.Date, account string, amount, deductible Money) {
	t.debit(account, amount)
	t.feePool = t.feePool.Add(deductible)
}

// ProcessTax pays the tax of effect from account, then records the effect.
func (t *PositionTracker) ProcessTax(on date.Date, account string, effect TaxEffect) {
	if !effect.TaxPaid.IsZero() {
		t.debit(account, effect.TaxPaid)
	}
	t.RecordTax(on, effect)
}

// RecordTax updates the fee and loss pools with effect, without moving any cash.
func (t *PositionTracker) RecordTax(on date.Date, effect TaxEffect) {
	t.feePool = t.feePool.Sub(effect.FeeUsed)
	for _, e := range effect.LossesExpired {
		if i := t.findLoss(e); i >= 0 {
			t.lossPool = slices.Delete(t.lossPool, i, i+1)
		}
	}
	for _, use := range effect.LossesUsed {
		i := t.findLoss(use.Entry)
		if i < 0 {
			continue
		}
		left := t.lossPool[i].Amount.Sub(use.Used)
		if left.IsPositive() {
			t.lossPool[i].Amount = left
		} else {
			t.lossPool = slices.Delete(t.lossPool, i, i+1)
		}
	}
	if effect.LossAdded.IsPositive() {
		t.lossPool = append(t.lossPool, LossEntry{Amount: effect.LossAdded, Origin: on})
	}
	t.taxes = append(t.taxes, effect)
}

func (t *PositionTracker) findLoss(e LossEntry) int {
	return slices.IndexFunc(t.lossPool, func(x LossEntry) bool {
		return x.Origin == e.Origin && x.Amount.Equal(e.Amount)
	})
}

// MergeLots moves every open lot of account 'from' into account 'to'.
func (t *PositionTracker) MergeLots(from, to string) {
	if from == to {
		return
	}
	for _, ticker := range t.Tickers(from) {
		t.setLots(to, ticker, append(t.lots[to][ticker], t.lots[from][ticker]...))
		t.setLots(from, ticker, nil)
	}
}

// MergeCash moves every balance of account 'from' into account 'to', whatever its sign.
func (t *PositionTracker) MergeCash(from, to string) {
	if from == to {
		return
	}
	for _, cur := range t.Currencies(from) {
		t.credit(to, t.Cash(from, cur))
	}
	delete(t.cash, from)
}
