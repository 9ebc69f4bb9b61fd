package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/holdings"
)

// TaxMarkdown renders the tax effects of a replay and the losses left to offset future gains.
func TaxMarkdown(effects []holdings.TaxEffect, fees holdings.Money, losses []holdings.LossEntry) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Capital Gains Tax\n\n")

	if len(effects) == 0 {
		fmt.Fprint(&b, "No position was closed.\n\n")
	} else {
		fmt.Fprintln(&b, "| Date | Account | Gain | Fees Used | Losses Used | Taxable | Tax |")
		fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|")
		var total holdings.Money
		for _, e := range effects {
			var used holdings.Money
			for _, u := range e.LossesUsed {
				used = used.Add(u.Used)
			}
			row(&b, e.Date, e.Account, e.Gain.SignedString(), money(e.FeeUsed), money(used), money(e.TaxableGain), money(e.TaxPaid))
			total = total.Add(e.TaxPaid)
		}
		row(&b, "**Total**", "", "", "", "", "", fmt.Sprintf("**%s**", money(total)))
		fmt.Fprintln(&b)
	}

	fmt.Fprintf(&b, "Fee write-off pool: %s\n\n", money(fees))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Loss Offset Pool\n\n")
		fmt.Fprintln(w, "| Origin | Amount |")
		fmt.Fprintln(w, "|:---|---:|")
		for _, l := range losses {
			row(w, l.Origin, l.Amount)
		}
		fmt.Fprintln(w)
		return len(losses) > 0
	})
	return b.String()
}
