package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/date"
	"github.com/etnz/holdings/renderer"
	"github.com/google/subcommands"
)

type taxCmd struct {
	cfg  *Config
	date string
	year int
}

func (*taxCmd) Name() string     { return "tax" }
func (*taxCmd) Synopsis() string { return "display the tax effect of every sale and the state of the tax pools" }
func (*taxCmd) Usage() string {
	return `hld tax [-d <date>] [-y <year>]

  Replays the ledger up to the given date and displays the capital gains tax
  of each exit, the deductible fees not yet used and the losses that can still
  offset future gains.

  With -y only the exits of that year are listed, the pools are always those
  of the given date.
`
}

func (c *taxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the report (YYYY-MM-DD)")
	f.IntVar(&c.year, "y", 0, "Only list the exits of this year")
}

func (c *taxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	tracker, _, err := c.cfg.replay(ctx, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error replaying ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	effects := tracker.TaxHistory()
	if c.year != 0 {
		var filtered []holdings.TaxEffect
		for _, e := range effects {
			if e.Date.Year() == c.year {
				filtered = append(filtered, e)
			}
		}
		effects = filtered
	}
	printMarkdown(renderer.TaxMarkdown(effects, tracker.FeePool(), tracker.LossPool()))
	return subcommands.ExitSuccess
}
