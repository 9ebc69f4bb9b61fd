package holdings

import (
	"context"
	"fmt"

	"github.com/etnz/holdings/date"
)

// Accounts is an in-memory AccountProvider.
//
// An account without a main account is its own main account.
type Accounts struct {
	details  map[string]AccountDetails
	mains    map[string]*date.History[string]
	products map[string]*date.History[ProductAssociation]
}

// NewAccounts returns an empty account directory.
func NewAccounts() *Accounts {
	return &Accounts{
		details:  make(map[string]AccountDetails),
		mains:    make(map[string]*date.History[string]),
		products: make(map[string]*date.History[ProductAssociation]),
	}
}

// AddAccount registers an account.
func (a *Accounts) AddAccount(d AccountDetails) error {
	if d.ID == "" {
		return fmt.Errorf("account has no id")
	}
	switch d.Type {
	case "":
		d.Type = Regular
	case Regular:
	case TBSZ:
		if d.Opened.IsZero() {
			return fmt.Errorf("tbsz account %q has no opening date", d.ID)
		}
	default:
		return fmt.Errorf("account %q has an unknown type %q", d.ID, d.Type)
	}
	a.details[d.ID] = d
	return nil
}

// SetMainAccount consolidates account into main from day 'since'.
func (a *Accounts) SetMainAccount(account, main string, since date.Date) {
	h, ok := a.mains[account]
	if !ok {
		h = new(date.History[string])
		a.mains[account] = h
	}
	h.Append(since, main)
}

// Associate subscribes an account to a broker product.
func (a *Accounts) Associate(p ProductAssociation) {
	h, ok := a.products[p.Account]
	if !ok {
		h = new(date.History[ProductAssociation])
		a.products[p.Account] = h
	}
	h.Append(p.Since, p)
}

func (a *Accounts) MainAccount(ctx context.Context, account string, on date.Date) (string, error) {
	if h, ok := a.mains[account]; ok {
		if _, main, found := h.ValueAsOf(on); found {
			return main, nil
		}
	}
	return account, nil
}

func (a *Accounts) ProductAssociation(ctx context.Context, account string, on date.Date) (ProductAssociation, error) {
	if h, ok := a.products[account]; ok {
		if _, p, found := h.ValueAsOf(on); found {
			return p, nil
		}
	}
	return ProductAssociation{}, &MissingDataError{Kind: "product", Key: account, To: on}
}

func (a *Accounts) Account(ctx context.Context, account string) (AccountDetails, error) {
	d, ok := a.details[account]
	if !ok {
		return AccountDetails{}, &InvalidDataError{Kind: "account", Key: account}
	}
	return d, nil
}

var _ AccountProvider = (*Accounts)(nil)
