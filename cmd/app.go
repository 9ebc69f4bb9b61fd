// Package cmd implements the hld CLI: replay a transaction log and report
// holdings, taxes and the liquidation value of a set of accounts.
package cmd

import (
	"fmt"
	"os"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/date"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander, cfg *Config) {
	c.Register(&holdingsCmd{cfg: cfg}, "reports")
	c.Register(&taxCmd{cfg: cfg}, "reports")
	c.Register(&liquidateCmd{cfg: cfg}, "reports")

	c.Register(&fmtCmd{cfg: cfg}, "ledger")
	c.Register(&importRatesCmd{cfg: cfg}, "reference")
}

// loadReference reads the reference data file.
func (c *Config) loadReference() (*holdings.Reference, error) {
	f, err := os.Open(c.Reference)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ref, err := holdings.DecodeReference(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.Reference, err)
	}
	ref.Market.Tolerance = c.ToleranceDays
	return ref, nil
}

// loadLedger reads the transactions of the ledger file, sorted by date.
func (c *Config) loadLedger() ([]holdings.Transaction, error) {
	f, err := os.Open(c.Ledger)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	txs, err := holdings.DecodeTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.Ledger, err)
	}
	return txs, nil
}

// until returns the transactions that happened on or before day 'on'.
func until(txs []holdings.Transaction, on date.Date) []holdings.Transaction {
	for i, tx := range txs {
		if tx.When().After(on) {
			return txs[:i]
		}
	}
	return txs
}
