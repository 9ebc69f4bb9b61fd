package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/date"
	"github.com/etnz/holdings/renderer"
	"github.com/google/subcommands"
)

type liquidateCmd struct {
	cfg    *Config
	date   string
	asJSON bool
}

func (*liquidateCmd) Name() string { return "liquidate" }
func (*liquidateCmd) Synopsis() string {
	return "compute what the accounts are worth once everything is sold and brought home"
}
func (*liquidateCmd) Usage() string {
	return `hld liquidate [-d <date>] [-json]

  Replays the ledger up to the given date, then simulates the sale of every
  open position and the transfer of all cash to a single bank account.
  Commissions, transfer fees, exchange fees and the capital gains tax are
  subtracted. The result is expressed in the reporting currency (-currency).

Usage Examples:
# Liquidation value in USD for a resident of Hungary.
$ hld -currency USD -residence HU liquidate -d 2024-12-31

`
}

func (c *liquidateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the liquidation (YYYY-MM-DD)")
	f.BoolVar(&c.asJSON, "json", false, "Print the report as JSON instead of markdown")
}

func (c *liquidateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	tracker, ref, err := c.cfg.replay(ctx, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error replaying ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	l := holdings.NewLiquidator(ref.Market, ref.Fees, ref.Accounts)
	l.Log = NewLogger("liquidation", c.cfg.LogLevel)
	l.Tax.Log = l.Log
	l.Converter.FeeRate = c.cfg.ExchangeFee
	report, err := l.Liquidate(ctx, tracker, on, c.cfg.Residence, c.cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error liquidating: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.LiquidationMarkdown(report))
	return subcommands.ExitSuccess
}
