package cmd

import (
	"flag"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
)

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("hld", flag.ContinueOnError)
	commander := subcommands.NewCommander(global, "hld")
	cfg := &Config{}
	Register(commander, cfg)
	cfg.RegisterFlags(global)

	c := Completion(commander, global)

	var subs []string
	for name := range c.Sub {
		subs = append(subs, name)
	}
	slices.Sort(subs)
	if diff := cmp.Diff([]string{"fmt", "holdings", "import-rates", "liquidate", "tax"}, subs); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}
	if _, ok := c.Flags["ledger-file"]; !ok {
		t.Errorf("global flags = %v, want ledger-file", c.Flags)
	}
	if got := c.Sub["liquidate"].Flags["json"].Predict(""); len(got) != 0 {
		t.Errorf("liquidate -json predicts %q, want nothing", got)
	}
	if c.Sub["import-rates"].Args == nil {
		t.Error("import-rates has no argument predictor")
	}

	if !Known(commander, "tax") || Known(commander, "hello") {
		t.Error("Known() does not match the registered commands")
	}
}
