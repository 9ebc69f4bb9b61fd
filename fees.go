package holdings

import (
	"context"
	"fmt"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// FeeKind tells which operation a FeeRule applies to.
type FeeKind string

const (
	CommissionFee FeeKind = "commission"
	TransferFee   FeeKind = "transfer"
)

// FeeRule is the fee a broker product charges for an operation: a percentage
// of the value, bounded by Min and Max expressed in Currency.
type FeeRule struct {
	Broker   string          `json:"broker"`
	Product  string          `json:"product"`
	Kind     FeeKind         `json:"fee"`
	Market   string          `json:"market,omitempty"` // commissions only, empty matches any market
	Percent  decimal.Decimal `json:"percent"`
	Min      decimal.Decimal `json:"min"`
	Max      decimal.Decimal `json:"max"` // zero means unbounded
	Currency string          `json:"currency"`
}

// FeeSchedule is a FeeProvider computing fees from per product rules.
//
// An operation no rule applies to is free.
type FeeSchedule struct {
	Accounts AccountProvider
	Data     DataProvider
	rules    []FeeRule
}

// NewFeeSchedule returns an empty schedule.
func NewFeeSchedule(accounts AccountProvider, data DataProvider) *FeeSchedule {
	return &FeeSchedule{Accounts: accounts, Data: data}
}

// Add appends a rule to the schedule.
func (s *FeeSchedule) Add(r FeeRule) error {
	if r.Kind != CommissionFee && r.Kind != TransferFee {
		return fmt.Errorf("unknown fee kind %q", r.Kind)
	}
	if r.Percent.IsNegative() || r.Min.IsNegative() || r.Max.IsNegative() {
		return fmt.Errorf("fee rule for %s/%s has negative values", r.Broker, r.Product)
	}
	if !r.Max.IsZero() && r.Max.LessThan(r.Min) {
		return fmt.Errorf("fee rule for %s/%s has max lower than min", r.Broker, r.Product)
	}
	if err := ValidateCurrency(r.Currency); err != nil {
		return err
	}
	s.rules = append(s.rules, r)
	return nil
}

// rule returns the rule of kind for the product of account, preferring a market specific one.
func (s *FeeSchedule) rule(ctx context.Context, kind FeeKind, account string, on date.Date, market string) (FeeRule, bool, error) {
	p, err := s.Accounts.ProductAssociation(ctx, account, on)
	if err != nil {
		return FeeRule{}, false, err
	}
	var found FeeRule
	var ok bool
	for _, r := range s.rules {
		if r.Kind != kind || r.Broker != p.Broker || r.Product != p.Product {
			continue
		}
		if r.Market == market && market != "" {
			return r, true, nil
		}
		if r.Market == "" && !ok {
			found, ok = r, true
		}
	}
	return found, ok, nil
}

// fee applies r to value and returns the fee as a negative amount in value's currency.
func (s *FeeSchedule) fee(ctx context.Context, r FeeRule, on date.Date, value Money) (Money, error) {
	fee := value.Scale(r.Percent.Div(decimal.NewFromInt(100)))
	if r.Currency != value.Currency() {
		rate, err := s.Data.ExchangeRate(ctx, r.Currency, value.Currency(), on)
		if err != nil {
			return Money{}, err
		}
		r.Min, r.Max = r.Min.Mul(rate), r.Max.Mul(rate)
	}
	amount := decimal.Max(fee.Amount(), r.Min)
	if !r.Max.IsZero() {
		amount = decimal.Min(amount, r.Max)
	}
	return M(amount, value.Currency()).Round().Neg(), nil
}

func (s *FeeSchedule) TransferFee(ctx context.Context, account string, on date.Date, amount Money) (Money, error) {
	r, ok, err := s.rule(ctx, TransferFee, account, on, "")
	if err != nil || !ok {
		return Zero(amount.Currency()), err
	}
	return s.fee(ctx, r, on, amount)
}

func (s *FeeSchedule) Commission(ctx context.Context, account string, on date.Date, market string, value Money) (Money, error) {
	r, ok, err := s.rule(ctx, CommissionFee, account, on, market)
	if err != nil || !ok {
		return Zero(value.Currency()), err
	}
	return s.fee(ctx, r, on, value)
}

var _ FeeProvider = (*FeeSchedule)(nil)
