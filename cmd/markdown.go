package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// printMarkdown renders md for the terminal. When rendering fails, md is printed as is.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(os.Stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(os.Stdout, md)
		return
	}
	fmt.Fprint(os.Stdout, out)
}
