package holdings

import (
	"context"
	"fmt"

	"github.com/etnz/holdings/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TaxEffect is the tax consequence of closing lots.
//
// All amounts are in the tax currency of the residence. Gain is the raw
// capital gain, TaxableGain what is left of it after the fee and loss pools.
type TaxEffect struct {
	Date          date.Date   `json:"date"`
	Account       string      `json:"account"`
	Gain          Money       `json:"gain"`
	TaxableGain   Money       `json:"taxableGain"`
	TaxPaid       Money       `json:"taxPaid"`
	FeeUsed       Money       `json:"feeUsed"`
	LossAdded     Money       `json:"lossAdded"`
	LossesUsed    []LossUse   `json:"lossesUsed,omitempty"`
	LossesExpired []LossEntry `json:"lossesExpired,omitempty"`
}

// TaxCalculator computes capital gains tax under the rules of a residence.
type TaxCalculator struct {
	Data DataProvider
	// Tbsz steps up the cost of lots closed in eligible TBSZ accounts. Nil disables it.
	Tbsz *TbszCalculator
	Log  zerolog.Logger
}

// NewTaxCalculator returns a TaxCalculator with TBSZ support when accounts is not nil.
func NewTaxCalculator(data DataProvider, accounts AccountProvider) *TaxCalculator {
	c := &TaxCalculator{Data: data, Log: zerolog.Nop()}
	if accounts != nil {
		c.Tbsz = &TbszCalculator{Data: data, Accounts: accounts}
	}
	return c
}

// CashInTaxCurrency converts value into the tax currency of residence at the rate of day 'on'.
func (c *TaxCalculator) CashInTaxCurrency(ctx context.Context, value Money, on date.Date, residence string) (Money, error) {
	tax, err := c.Data.TaxDetails(ctx, residence, on)
	if err != nil {
		return Money{}, err
	}
	return exchange(ctx, c.Data, value, tax.Currency, on)
}

// TaxEffect computes the tax due when the lots 'closed' of account are sold for proceeds on day 'on'.
//
// The tracker is only read: the fee and loss pools are those available before the sale.
func (c *TaxCalculator) TaxEffect(ctx context.Context, tracker *PositionTracker, closed []Lot, on date.Date, account string, proceeds Money, residence string) (effect TaxEffect, err error) {
	defer recoverFault(&err)

	tax, err := c.Data.TaxDetails(ctx, residence, on)
	if err != nil {
		return TaxEffect{}, err
	}
	cur := tax.Currency

	gain, err := exchange(ctx, c.Data, proceeds, cur, on)
	if err != nil {
		return TaxEffect{}, fmt.Errorf("converting proceeds: %w", err)
	}
	costs, err := c.costs(ctx, tracker, account, closed, on)
	if err != nil {
		return TaxEffect{}, err
	}
	for _, cost := range costs {
		cost, err = exchange(ctx, c.Data, cost, cur, on)
		if err != nil {
			return TaxEffect{}, fmt.Errorf("converting lot cost: %w", err)
		}
		gain = gain.Sub(cost)
	}

	effect = TaxEffect{
		Date:      on,
		Account:   account,
		Gain:      gain,
		TaxPaid:   Zero(cur),
		FeeUsed:   Zero(cur),
		LossAdded: Zero(cur),
	}
	if gain.IsNegative() {
		effect.LossAdded = gain.Neg()
		effect.TaxableGain = Zero(cur)
		c.Log.Debug().Str("account", account).Stringer("loss", effect.LossAdded).Msg("loss realized")
		return effect, nil
	}

	if pool := tracker.FeePool(); pool.IsPositive() {
		effect.FeeUsed = pool.Min(gain)
		gain = gain.Sub(effect.FeeUsed)
	}
	gain, effect.LossesUsed, effect.LossesExpired = offsetLosses(tracker.LossPool(), gain, on, tax)
	effect.TaxableGain = gain
	effect.TaxPaid = gain.Scale(tax.FlatRate.Div(decimal.NewFromInt(100))).Round()

	c.Log.Debug().
		Str("account", account).
		Stringer("gain", effect.Gain).
		Stringer("taxable", effect.TaxableGain).
		Stringer("tax", effect.TaxPaid).
		Msg("gain realized")
	return effect, nil
}

// costs returns the cost basis of each closed lot, stepped up when the account is an eligible TBSZ.
func (c *TaxCalculator) costs(ctx context.Context, tracker *PositionTracker, account string, closed []Lot, on date.Date) ([]Money, error) {
	if c.Tbsz != nil {
		eligible, err := c.Tbsz.IsEligible(ctx, tracker, account, on)
		if err != nil {
			return nil, err
		}
		if eligible {
			return c.Tbsz.CalculateGains(ctx, tracker, account, closed, on)
		}
	}
	costs := make([]Money, len(closed))
	for i, lot := range closed {
		costs[i] = lot.Cost
	}
	return costs, nil
}
