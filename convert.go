package holdings

import (
	"context"
	"maps"
	"slices"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultExchangeFee is the share of a converted amount kept by the bank.
var DefaultExchangeFee = decimal.RequireFromString("0.005")

// exchange converts m into currency 'to' at the rate of day 'on'.
func exchange(ctx context.Context, data DataProvider, m Money, to string, on date.Date) (Money, error) {
	if m.Currency() == to || (m.Currency() == "" && m.IsZero()) {
		return m.WithCurrency(to), nil
	}
	if m.Currency() == "" {
		return Money{}, &InvalidDataError{Kind: "currency", Key: ""}
	}
	rate, err := data.ExchangeRate(ctx, m.Currency(), to, on)
	if err != nil {
		return Money{}, err
	}
	return m.Exchange(rate, to), nil
}

// ExchangeFee is the fee charged to convert a foreign balance.
type ExchangeFee struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"` // converted balance, in Currency
	Rate     decimal.Decimal `json:"rate"`
	Fee      Money           `json:"fee"` // in the target currency, positive
}

// Conversion is the result of converting a multi currency basket.
type Conversion struct {
	Target string        `json:"target"`
	Date   date.Date     `json:"date"`
	Total  Money         `json:"total"`
	Fees   []ExchangeFee `json:"fees,omitempty"`
}

// FeeTotal returns the sum of the exchange fees.
func (c *Conversion) FeeTotal() Money {
	total := Zero(c.Target)
	for _, f := range c.Fees {
		total = total.Add(f.Fee)
	}
	return total
}

// Converter converts baskets of balances into a single currency, the way a
// bank would: positive foreign balances are charged FeeRate, negative ones
// are converted at the plain rate.
type Converter struct {
	Data    DataProvider
	FeeRate decimal.Decimal
}

// NewConverter returns a Converter charging DefaultExchangeFee.
func NewConverter(data DataProvider) *Converter {
	return &Converter{Data: data, FeeRate: DefaultExchangeFee}
}

// Convert converts balances, per currency, into target at the rates of day 'on'.
func (c *Converter) Convert(ctx context.Context, balances map[string]decimal.Decimal, target string, on date.Date) (*Conversion, error) {
	currencies := slices.Sorted(maps.Keys(balances))
	rates := make([]decimal.Decimal, len(currencies))

	g, gctx := errgroup.WithContext(ctx)
	for i, cur := range currencies {
		if cur == target {
			rates[i] = decimal.NewFromInt(1)
			continue
		}
		g.Go(func() error {
			rate, err := c.Data.ExchangeRate(gctx, cur, target, on)
			rates[i] = rate
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	conv := &Conversion{Target: target, Date: on, Total: Zero(target)}
	keep := decimal.NewFromInt(1).Sub(c.FeeRate)
	for i, cur := range currencies {
		amount := balances[cur]
		converted := M(amount, cur).Exchange(rates[i], target)
		if cur != target && amount.IsPositive() {
			fee := converted.Scale(c.FeeRate)
			conv.Fees = append(conv.Fees, ExchangeFee{Currency: cur, Amount: amount, Rate: rates[i], Fee: fee})
			converted = converted.Scale(keep)
		}
		conv.Total = conv.Total.Add(converted)
	}
	return conv, nil
}

// ConvertAll is like Convert but only returns the total.
func (c *Converter) ConvertAll(ctx context.Context, balances map[string]decimal.Decimal, target string, on date.Date) (Money, error) {
	conv, err := c.Convert(ctx, balances, target, on)
	if err != nil {
		return Money{}, err
	}
	return conv.Total, nil
}
