package renderer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/etnz/holdings"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// money formats m for a table cell, zero amounts are rendered as a dash.
func money(m holdings.Money) string {
	if m.IsZero() {
		return "-"
	}
	return m.String()
}

// row prints a markdown table row.
func row(w io.Writer, cells ...any) {
	fmt.Fprint(w, "|")
	for _, c := range cells {
		fmt.Fprintf(w, " %v |", c)
	}
	fmt.Fprintln(w)
}
