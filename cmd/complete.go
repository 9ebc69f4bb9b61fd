package cmd

import (
	"flag"
	"strings"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the commands and flags of commander for shell completion.
// global holds the flags accepted before the subcommand name.
func Completion(commander *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(global),
	}
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		sub := &complete.Command{Flags: predictFlags(f)}
		if c.Name() == "import-rates" {
			sub.Args = predict.Files("*.json")
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

func predictFlags(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		switch {
		case strings.HasSuffix(fl.Name, "-file") || fl.Name == "o":
			flags[fl.Name] = predict.Files("*.jsonl")
		case fl.Name == "residence":
			flags[fl.Name] = predict.Nothing
		default:
			if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				flags[fl.Name] = predict.Nothing
				return
			}
			flags[fl.Name] = predict.Something
		}
	})
	return flags
}

// Known reports whether commander has a command called name.
func Known(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		if c.Name() == name {
			found = true
		}
	})
	return found
}
