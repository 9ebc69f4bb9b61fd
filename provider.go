package holdings

import (
	"context"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// DataProvider gives access to market and reference data.
//
// Lookups by date search backward: the value returned is the last one known on
// or before the requested day, within the provider's tolerance. A value that
// cannot be found is a *MissingDataError, an unknown reference an *InvalidDataError.
type DataProvider interface {
	// ExchangeRate returns the price of one unit of 'from' expressed in 'to'.
	ExchangeRate(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, error)
	// SharePrice returns the price of one unit of the security, in its currency.
	SharePrice(ctx context.Context, ticker string, on date.Date) (Money, error)
	Currency(ctx context.Context, code string) (CurrencyDetails, error)
	CurrencyByID(ctx context.Context, id string) (CurrencyDetails, error)
	Security(ctx context.Context, ticker string) (SecurityDetails, error)
	SecurityByID(ctx context.Context, id string) (SecurityDetails, error)
	// TaxDetails returns the tax rules of a residence valid on a given day.
	TaxDetails(ctx context.Context, residence string, on date.Date) (TaxDetails, error)
}

// FeeProvider computes the fees charged by brokers. Fees are returned as negative amounts.
type FeeProvider interface {
	// TransferFee is the fee to transfer amount out of account.
	TransferFee(ctx context.Context, account string, on date.Date, amount Money) (Money, error)
	// Commission is the fee to trade value on market from account.
	Commission(ctx context.Context, account string, on date.Date, market string, value Money) (Money, error)
}

// AccountProvider gives access to account administration data.
type AccountProvider interface {
	// MainAccount returns the account into which account is consolidated (possibly itself).
	MainAccount(ctx context.Context, account string, on date.Date) (string, error)
	// ProductAssociation returns the broker product an account is subscribed to.
	ProductAssociation(ctx context.Context, account string, on date.Date) (ProductAssociation, error)
	Account(ctx context.Context, account string) (AccountDetails, error)
}

// TaxDetails holds the capital gains tax rules of a jurisdiction.
type TaxDetails struct {
	Residence       string          `json:"residence"`
	FlatRate        decimal.Decimal `json:"flatRate"` // percent
	Currency        string          `json:"currency"`
	LossOffsetYears int             `json:"lossOffsetYears"`
	CutoffMonth     int             `json:"cutoffMonth"`
	CutoffDay       int             `json:"cutoffDay"`
	Valid           date.Range      `json:"-"`
}

// AccountType distinguishes regular accounts from tax wrapped ones.
type AccountType string

const (
	Regular AccountType = "regular"
	// TBSZ is the 5-year long term investment account.
	TBSZ AccountType = "tbsz"
)

// AccountDetails is the administration data of a custodial account.
type AccountDetails struct {
	ID     string      `json:"id"`
	Type   AccountType `json:"type"`
	Opened date.Date   `json:"opened"`
	Broker string      `json:"broker,omitempty"`
}

// ProductAssociation links an account to the broker product defining its fees.
type ProductAssociation struct {
	Account string    `json:"account"`
	Broker  string    `json:"broker"`
	Product string    `json:"product"`
	Since   date.Date `json:"since"`
}
