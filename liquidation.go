package holdings

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/holdings/date"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// BankAccount is the account all cash is swept into at the end of a liquidation.
const BankAccount = "bank"

// LiquidatedPosition is a position closed during a liquidation.
type LiquidatedPosition struct {
	Account    string    `json:"account"`
	Ticker     string    `json:"ticker"`
	Count      Quantity  `json:"count"`
	Price      Money     `json:"price"`
	Proceeds   Money     `json:"proceeds"`
	Commission Money     `json:"commission"` // positive, charged on proceeds
	Tax        TaxEffect `json:"tax"`
}

// LiquidationFee is a fee charged to move a balance out of an account.
type LiquidationFee struct {
	Account    string `json:"account"`
	Balance    Money  `json:"balance"`
	Fee        Money  `json:"fee"` // positive
	Deductible Money  `json:"deductible"`
}

// LiquidationReport is the itemized result of a liquidation.
type LiquidationReport struct {
	ID        uuid.UUID `json:"id"`
	Date      date.Date `json:"date"`
	Residence string    `json:"residence"`
	Target    string    `json:"target"`

	MainAccounts map[string]string          `json:"mainAccounts"`
	Positions    []LiquidatedPosition       `json:"positions"`
	TransferFees []LiquidationFee           `json:"transferFees,omitempty"`
	Basket       map[string]decimal.Decimal `json:"basket"`
	Conversion   *Conversion                `json:"conversion"`

	TaxDue          Money `json:"taxDue"`          // in the tax currency
	TaxDueConverted Money `json:"taxDueConverted"` // in the target currency
	// Value is the converted basket net of the tax due.
	Value Money `json:"value"`
}

// Commissions returns the total commission charged per currency.
func (r *LiquidationReport) Commissions() map[string]Money {
	total := make(map[string]Money)
	for _, p := range r.Positions {
		cur := p.Commission.Currency()
		total[cur] = total[cur].Add(p.Commission)
	}
	return total
}

// Liquidator computes what a set of accounts is worth if everything is sold
// and all cash is brought back to a single bank account in one currency.
type Liquidator struct {
	Data      DataProvider
	Fees      FeeProvider
	Accounts  AccountProvider
	Tax       *TaxCalculator
	Converter *Converter
	Log       zerolog.Logger
}

// NewLiquidator returns a Liquidator using the default tax calculator and converter.
func NewLiquidator(data DataProvider, fees FeeProvider, accounts AccountProvider) *Liquidator {
	return &Liquidator{
		Data:      data,
		Fees:      fees,
		Accounts:  accounts,
		Tax:       NewTaxCalculator(data, accounts),
		Converter: NewConverter(data),
		Log:       zerolog.Nop(),
	}
}

// Liquidate closes every position of tracker on day 'on' and returns the net
// value in currency target. The tracker is left in its liquidated state: all
// cash in BankAccount.
//
// Tax computed during the liquidation is recorded but not paid, it is
// subtracted from the converted value instead.
func (l *Liquidator) Liquidate(ctx context.Context, tracker *PositionTracker, on date.Date, residence, target string) (report *LiquidationReport, err error) {
	defer recoverFault(&err)

	report = &LiquidationReport{
		ID:           uuid.New(),
		Date:         on,
		Residence:    residence,
		Target:       target,
		MainAccounts: make(map[string]string),
	}
	log := l.Log.With().Str("liquidation", report.ID.String()).Logger()

	// Consolidate lots into main accounts.
	accounts := tracker.Accounts()
	for _, account := range accounts {
		main, err := l.Accounts.MainAccount(ctx, account, on)
		if err != nil {
			return nil, fmt.Errorf("main account of %q: %w", account, err)
		}
		report.MainAccounts[account] = main
	}
	mains := uniqueValues(report.MainAccounts)
	for _, account := range accounts {
		tracker.MergeLots(account, report.MainAccounts[account])
	}

	// Close positions.
	type group struct{ account, ticker string }
	var groups []group
	var tickers []string
	for _, account := range mains {
		for _, ticker := range tracker.Tickers(account) {
			groups = append(groups, group{account, ticker})
			if !slices.Contains(tickers, ticker) {
				tickers = append(tickers, ticker)
			}
		}
	}
	prices, err := l.prices(ctx, tickers, on)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if tracker.Position(g.account, g.ticker).IsZero() {
			continue
		}
		pos, err := l.closePosition(ctx, tracker, on, residence, g.account, g.ticker, prices[g.ticker])
		if err != nil {
			return nil, fmt.Errorf("closing %s in %q: %w", g.ticker, g.account, err)
		}
		log.Debug().Str("account", g.account).Str("ticker", g.ticker).Stringer("proceeds", pos.Proceeds).Msg("position closed")
		report.Positions = append(report.Positions, pos)
	}

	// Consolidate cash and bring it to the bank.
	for _, account := range accounts {
		tracker.MergeCash(account, report.MainAccounts[account])
	}
	for _, account := range mains {
		for _, cur := range tracker.Currencies(account) {
			balance := tracker.Cash(account, cur)
			if !balance.IsPositive() {
				continue
			}
			fee, err := l.transferFee(ctx, tracker, on, residence, account, balance)
			if err != nil {
				return nil, fmt.Errorf("transfer fee of %q: %w", account, err)
			}
			report.TransferFees = append(report.TransferFees, fee)
		}
	}
	for _, account := range mains {
		tracker.MergeCash(account, BankAccount)
	}
	report.Basket = tracker.Balances(BankAccount)

	// Tax and conversion.
	tax, err := l.Data.TaxDetails(ctx, residence, on)
	if err != nil {
		return nil, err
	}
	report.TaxDue = Zero(tax.Currency)
	for _, p := range report.Positions {
		report.TaxDue = report.TaxDue.Add(p.Tax.TaxPaid)
	}
	if report.Conversion, err = l.Converter.Convert(ctx, report.Basket, target, on); err != nil {
		return nil, fmt.Errorf("converting basket: %w", err)
	}
	if report.TaxDueConverted, err = exchange(ctx, l.Data, report.TaxDue, target, on); err != nil {
		return nil, fmt.Errorf("converting tax due: %w", err)
	}
	report.Value = report.Conversion.Total.Sub(report.TaxDueConverted)

	log.Info().Stringer("value", report.Value).Stringer("tax", report.TaxDue).Int("positions", len(report.Positions)).Msg("liquidated")
	return report, nil
}

// prices fetches the share price of every ticker in parallel.
func (l *Liquidator) prices(ctx context.Context, tickers []string, on date.Date) (map[string]Money, error) {
	var mu sync.Mutex
	prices := make(map[string]Money, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	for _, ticker := range tickers {
		g.Go(func() error {
			price, err := l.Data.SharePrice(gctx, ticker, on)
			if err != nil {
				return fmt.Errorf("price of %s: %w", ticker, err)
			}
			mu.Lock()
			defer mu.Unlock()
			prices[ticker] = price
			return nil
		})
	}
	return prices, g.Wait()
}

// closePosition sells every unit of ticker held in account at price.
func (l *Liquidator) closePosition(ctx context.Context, tracker *PositionTracker, on date.Date, residence, account, ticker string, price Money) (LiquidatedPosition, error) {
	count := tracker.Position(account, ticker)
	if count.IsZero() {
		return LiquidatedPosition{}, ErrEmptyPosition
	}
	sec, err := l.Data.Security(ctx, ticker)
	if err != nil {
		return LiquidatedPosition{}, err
	}
	proceeds := price.Mul(count)
	commission, err := l.Fees.Commission(ctx, account, on, sec.Market, proceeds)
	if err != nil {
		return LiquidatedPosition{}, fmt.Errorf("commission: %w", err)
	}
	fee := commission.Neg()
	deductible, err := l.Tax.CashInTaxCurrency(ctx, fee, on, residence)
	if err != nil {
		return LiquidatedPosition{}, err
	}
	tracker.ProcessFee(on, account, fee, deductible)

	closed, err := tracker.MatchLots(account, ticker, count, FIFO, nil)
	if err != nil {
		return LiquidatedPosition{}, err
	}
	effect, err := l.Tax.TaxEffect(ctx, tracker, closed, on, account, proceeds, residence)
	if err != nil {
		return LiquidatedPosition{}, err
	}
	if err := tracker.ProcessExitInvestment(on, account, ticker, count, proceeds, FIFO, nil); err != nil {
		return LiquidatedPosition{}, err
	}
	tracker.RecordTax(on, effect)

	return LiquidatedPosition{
		Account:    account,
		Ticker:     ticker,
		Count:      count,
		Price:      price,
		Proceeds:   proceeds,
		Commission: fee,
		Tax:        effect,
	}, nil
}

// transferFee charges the fee to move balance out of account.
func (l *Liquidator) transferFee(ctx context.Context, tracker *PositionTracker, on date.Date, residence, account string, balance Money) (LiquidationFee, error) {
	charged, err := l.Fees.TransferFee(ctx, account, on, balance)
	if err != nil {
		return LiquidationFee{}, err
	}
	fee := charged.Neg()
	deductible, err := l.Tax.CashInTaxCurrency(ctx, fee, on, residence)
	if err != nil {
		return LiquidationFee{}, err
	}
	tracker.ProcessFee(on, account, fee, deductible)
	return LiquidationFee{Account: account, Balance: balance, Fee: fee, Deductible: deductible}, nil
}

// uniqueValues returns the distinct values of m, sorted.
func uniqueValues(m map[string]string) []string {
	var values []string
	for _, v := range m {
		if !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return values
}
