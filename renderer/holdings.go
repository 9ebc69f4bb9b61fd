package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/date"
)

// HoldingsMarkdown renders the cash balances and open lots of every account of the tracker.
func HoldingsMarkdown(t *holdings.PositionTracker, on date.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings on %s\n\n", on)

	for _, account := range t.Accounts() {
		fmt.Fprintf(&b, "## %s\n\n", account)

		ConditionalBlock(&b, func(w io.Writer) bool {
			fmt.Fprintln(w, "| Currency | Balance |")
			fmt.Fprintln(w, "|:---|---:|")
			n := 0
			for _, cur := range t.Currencies(account) {
				row(w, cur, t.Cash(account, cur).SignedString())
				n++
			}
			fmt.Fprintln(w)
			return n > 0
		})

		ConditionalBlock(&b, func(w io.Writer) bool {
			fmt.Fprintln(w, "| Security | Entry | Count | Cost | Unit Cost |")
			fmt.Fprintln(w, "|:---|:---|---:|---:|---:|")
			n := 0
			for _, ticker := range t.Tickers(account) {
				for _, lot := range t.Lots(account, ticker) {
					row(w, ticker, lot.Entry, lot.Count, lot.Cost, lot.UnitCost())
					n++
				}
			}
			fmt.Fprintln(w)
			return n > 0
		})
	}
	return b.String()
}
