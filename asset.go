package holdings

import (
	"context"
	"fmt"
)

// AssetKind tells what an Asset is.
type AssetKind int

const (
	CashAsset AssetKind = iota + 1
	SecurityAsset
)

// Asset identifies what is held: either cash in a currency or units of a security.
type Asset struct {
	Kind AssetKind
	Code string // currency code or security ticker
}

// Cash returns the asset for cash held in currency.
func Cash(currency string) Asset { return Asset{Kind: CashAsset, Code: currency} }

// Security returns the asset for units of a security.
func Security(ticker string) Asset { return Asset{Kind: SecurityAsset, Code: ticker} }

func (a Asset) IsCash() bool     { return a.Kind == CashAsset }
func (a Asset) IsSecurity() bool { return a.Kind == SecurityAsset }

func (a Asset) String() string {
	switch a.Kind {
	case CashAsset:
		return "cash:" + a.Code
	case SecurityAsset:
		return a.Code
	default:
		return "?" + a.Code
	}
}

// CurrencyDetails is the reference data of a currency.
type CurrencyDetails struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// SecurityDetails is the reference data of a security.
type SecurityDetails struct {
	ID       string `json:"id"`
	Ticker   string `json:"ticker"`
	Currency string `json:"currency"`
	Market   string `json:"market,omitempty"` // used to look up commissions
	Name     string `json:"name,omitempty"`
}

// resolver resolves assets through the DataProvider once per distinct code.
//
// Resolved details are shared by pointer, a code is never resolved twice.
type resolver struct {
	data       DataProvider
	currencies map[string]*CurrencyDetails
	securities map[string]*SecurityDetails
}

func newResolver(data DataProvider) *resolver {
	return &resolver{
		data:       data,
		currencies: make(map[string]*CurrencyDetails),
		securities: make(map[string]*SecurityDetails),
	}
}

func (r *resolver) currency(ctx context.Context, code string) (*CurrencyDetails, error) {
	if c, ok := r.currencies[code]; ok {
		return c, nil
	}
	c, err := r.data.Currency(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolving currency %q: %w", code, err)
	}
	r.currencies[code] = &c
	return &c, nil
}

func (r *resolver) security(ctx context.Context, ticker string) (*SecurityDetails, error) {
	if s, ok := r.securities[ticker]; ok {
		return s, nil
	}
	s, err := r.data.Security(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("resolving security %q: %w", ticker, err)
	}
	r.securities[ticker] = &s
	return &s, nil
}

// resolve checks that every asset of the legs is known to the DataProvider.
// A security leg also resolves its trading currency.
func (r *resolver) resolve(ctx context.Context, legs []Leg) error {
	for _, leg := range legs {
		switch leg.Asset.Kind {
		case CashAsset:
			if _, err := r.currency(ctx, leg.Asset.Code); err != nil {
				return err
			}
		case SecurityAsset:
			sec, err := r.security(ctx, leg.Asset.Code)
			if err != nil {
				return err
			}
			if _, err := r.currency(ctx, sec.Currency); err != nil {
				return err
			}
		default:
			return &InvalidDataError{Kind: "asset", Key: leg.Asset.String()}
		}
	}
	return nil
}
