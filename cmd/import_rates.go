package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/holdings"
	"github.com/google/subcommands"
)

type importRatesCmd struct {
	cfg    *Config
	spec   holdings.RateImport
	append bool
}

func (*importRatesCmd) Name() string     { return "import-rates" }
func (*importRatesCmd) Synopsis() string { return "extract exchange rates from a JSON document" }
func (*importRatesCmd) Usage() string {
	return `hld import-rates -from <currency> -to <currency> -dates <jsonpath> -rates <jsonpath> [-a] [<file>]

  Reads a JSON document (from <file> or the standard input), extracts a series
  of exchange rates with two JSONPath expressions, and prints them as
  reference lines. With -a the lines are appended to the reference file.

Usage Examples:
$ curl -s https://example.org/eur-huf.json | hld import-rates -from EUR -to HUF \
    -dates '$.rates[*].date' -rates '$.rates[*].value' -a

`
}

func (c *importRatesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.spec.From, "from", "", "Currency the rates are the price of")
	f.StringVar(&c.spec.To, "to", "", "Currency the rates are expressed in")
	f.StringVar(&c.spec.Dates, "dates", "", "JSONPath expression returning the list of dates")
	f.StringVar(&c.spec.Rates, "rates", "", "JSONPath expression returning the list of rates")
	f.BoolVar(&c.append, "a", false, "Append to the reference file instead of printing")
}

func (c *importRatesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	for _, check := range []error{holdings.ValidateCurrency(c.spec.From), holdings.ValidateCurrency(c.spec.To)} {
		if check != nil {
			fmt.Fprintln(os.Stderr, check)
			return subcommands.ExitUsageError
		}
	}
	if c.spec.Dates == "" || c.spec.Rates == "" {
		fmt.Fprintln(os.Stderr, "-dates and -rates are required")
		return subcommands.ExitUsageError
	}

	var in io.Reader = os.Stdin
	if f.NArg() > 0 {
		file, err := os.Open(f.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		in = file
	}
	rates, err := holdings.ImportRates(in, c.spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing rates: %v\n", err)
		return subcommands.ExitFailure
	}

	var out io.Writer = os.Stdout
	if c.append {
		// Open the file in append mode, creating it if it doesn't exist.
		file, err := os.OpenFile(c.cfg.Reference, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening reference file %q: %v\n", c.cfg.Reference, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		out = file
	}
	for _, r := range rates {
		if err := holdings.EncodeRate(out, c.spec.From, c.spec.To, r.On, r.Rate); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing rate: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if c.append {
		fmt.Fprintf(os.Stderr, "Appended %d rates to %s\n", len(rates), c.cfg.Reference)
	}
	return subcommands.ExitSuccess
}
