package holdings

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/holdings/date"
)

// tbszCycle is the commitment period of a TBSZ account, in years.
const tbszCycle = 5

// TbszCalculator implements the TBSZ rules: after the commitment period the
// cost basis of lots is stepped up to their market value at a reference date.
//
// Any outflow of the account breaks the commitment, unless it happens on the
// first day following the end of a cycle.
type TbszCalculator struct {
	Data     DataProvider
	Accounts AccountProvider
}

// boundary returns the last day of the k-th cycle of an account opened on 'opened'.
func boundary(opened date.Date, k int) date.Date {
	return date.New(opened.Year()+tbszCycle*k, time.December, 31)
}

// breaking reports whether an outflow on day d breaks the commitment of an account opened on 'opened'.
func breaking(opened, d date.Date) bool {
	if d.Month() != time.January || d.Day() != 1 {
		return true
	}
	years := d.Year() - 1 - opened.Year()
	return years < tbszCycle || years%tbszCycle != 0
}

func (c *TbszCalculator) account(ctx context.Context, account string) (AccountDetails, bool, error) {
	details, err := c.Accounts.Account(ctx, account)
	if err != nil {
		return AccountDetails{}, false, err
	}
	return details, details.Type == TBSZ, nil
}

// IsEligible reports whether lots closed in account on day 'on' get their cost stepped up.
func (c *TbszCalculator) IsEligible(ctx context.Context, tracker *PositionTracker, account string, on date.Date) (bool, error) {
	details, ok, err := c.account(ctx, account)
	if err != nil || !ok {
		return false, err
	}
	threshold := boundary(details.Opened, 1)
	if !threshold.Before(on) {
		return false, nil
	}
	for _, d := range tracker.Outflows(account) {
		if !d.After(threshold) && breaking(details.Opened, d) {
			return false, nil
		}
	}
	return true, nil
}

// ReferenceDate returns the day market prices are taken from to step up the cost of lots closed on 'on'.
//
// It is the first breaking outflow after the commitment period recorded on
// or before 'on', or when the account was never broken, the end of the last
// completed cycle. An exit is recorded only once its tax effect is known, so
// the exit that breaks the account is still taxed from the cycle end.
func (c *TbszCalculator) ReferenceDate(ctx context.Context, tracker *PositionTracker, account string, on date.Date) (date.Date, error) {
	details, ok, err := c.account(ctx, account)
	if err != nil {
		return date.Date{}, err
	}
	if !ok {
		return date.Date{}, fmt.Errorf("account %q is not a TBSZ account", account)
	}
	threshold := boundary(details.Opened, 1)
	for _, d := range tracker.Outflows(account) {
		if d.After(threshold) && !d.After(on) && breaking(details.Opened, d) {
			return d, nil
		}
	}
	k := (on.Year() - details.Opened.Year()) / tbszCycle
	if boundary(details.Opened, k).After(on) {
		k--
	}
	if k < 1 {
		return date.Date{}, fmt.Errorf("account %q has not completed a cycle on %s", account, on)
	}
	return boundary(details.Opened, k), nil
}

// SteppedUpCost returns the larger of the lot's cost and its market value on the reference day.
//
// The market value is converted into the currency the lot was bought in, at
// the rate of the reference day.
func (c *TbszCalculator) SteppedUpCost(ctx context.Context, lot Lot, reference date.Date) (Money, error) {
	price, err := c.Data.SharePrice(ctx, lot.Security, reference)
	if err != nil {
		return Money{}, err
	}
	value, err := exchange(ctx, c.Data, price.Mul(lot.Count), lot.Cost.Currency(), reference)
	if err != nil {
		return Money{}, err
	}
	if value.GreaterThan(lot.Cost) {
		return value, nil
	}
	return lot.Cost, nil
}

// CalculateGains returns the stepped up cost of each closed lot of account sold on 'on'.
func (c *TbszCalculator) CalculateGains(ctx context.Context, tracker *PositionTracker, account string, closed []Lot, on date.Date) ([]Money, error) {
	reference, err := c.ReferenceDate(ctx, tracker, account, on)
	if err != nil {
		return nil, err
	}
	costs := make([]Money, len(closed))
	for i, lot := range closed {
		if costs[i], err = c.SteppedUpCost(ctx, lot, reference); err != nil {
			return nil, fmt.Errorf("stepping up %s lot of %s: %w", lot.Security, lot.Entry, err)
		}
	}
	return costs, nil
}
