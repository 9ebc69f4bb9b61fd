package renderer

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/etnz/holdings"
)

// LiquidationMarkdown renders a liquidation report.
func LiquidationMarkdown(r *holdings.LiquidationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Liquidation on %s\n\n", r.Date)
	fmt.Fprintf(&b, "Liquidation value: **%s**\n\n", r.Value)
	fmt.Fprintf(&b, "Residence: %s, report %s\n\n", r.Residence, r.ID)

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Positions\n\n")
		fmt.Fprintln(w, "| Account | Security | Count | Price | Proceeds | Commission | Gain | Tax |")
		fmt.Fprintln(w, "|:---|:---|---:|---:|---:|---:|---:|---:|")
		for _, p := range r.Positions {
			row(w, p.Account, p.Ticker, p.Count, p.Price, p.Proceeds, money(p.Commission), p.Tax.Gain.SignedString(), money(p.Tax.TaxPaid))
		}
		fmt.Fprintln(w)
		return len(r.Positions) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Transfer Fees\n\n")
		fmt.Fprintln(w, "| Account | Balance | Fee |")
		fmt.Fprintln(w, "|:---|---:|---:|")
		for _, f := range r.TransferFees {
			row(w, f.Account, f.Balance, money(f.Fee))
		}
		fmt.Fprintln(w)
		return len(r.TransferFees) > 0
	})

	fmt.Fprint(&b, "## Conversion\n\n")
	fmt.Fprintln(&b, "| Currency | Balance | Rate | Exchange Fee |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	fees := make(map[string]holdings.ExchangeFee)
	if r.Conversion != nil {
		for _, f := range r.Conversion.Fees {
			fees[f.Currency] = f
		}
	}
	currencies := make([]string, 0, len(r.Basket))
	for cur := range r.Basket {
		currencies = append(currencies, cur)
	}
	slices.Sort(currencies)
	for _, cur := range currencies {
		rate, fee := "1", "-"
		if f, ok := fees[cur]; ok {
			rate, fee = f.Rate.String(), f.Fee.String()
		}
		row(&b, cur, holdings.M(r.Basket[cur], cur).SignedString(), rate, fee)
	}
	fmt.Fprintln(&b)

	fmt.Fprint(&b, "## Value\n\n")
	fmt.Fprintln(&b, "| | Amount |")
	fmt.Fprintln(&b, "|:---|---:|")
	if r.Conversion != nil {
		row(&b, "Converted cash", r.Conversion.Total)
	}
	row(&b, "Tax due", r.TaxDueConverted.Neg().SignedString())
	row(&b, "**Liquidation value**", fmt.Sprintf("**%s**", r.Value))
	return b.String()
}

