package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// outline is the structure of a rendered markdown document.
type outline struct {
	Headings []string
	Rows     []int // number of body rows of each table
}

func parseOutline(t *testing.T, md string) outline {
	t.Helper()
	src := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(src))

	var o outline
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			var b strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				b.Write(line.Value(src))
			}
			o.Headings = append(o.Headings, b.String())
		case *east.Table:
			rows := 0
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*east.TableRow); ok {
					rows++
				}
			}
			o.Rows = append(o.Rows, rows)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("ast.Walk() unexpected error: %v", err)
	}
	return o
}

func TestHoldingsMarkdown(t *testing.T) {
	tracker := holdings.NewPositionTracker()
	on := date.New(2024, 3, 1)
	tracker.ProcessMoneyIn(on, "broker", holdings.M(1000, "USD"))
	tracker.ProcessMoneyIn(on, "broker", holdings.M(50, "HUF"))
	tracker.ProcessEnterInvestment(on, "broker", "AAPL", holdings.Q(2), holdings.M(300, "USD"))
	tracker.ProcessEnterInvestment(on.Add(1), "broker", "AAPL", holdings.Q(1), holdings.M(160, "USD"))
	tracker.ProcessMoneyIn(on, "savings", holdings.M(10, "USD"))

	got := parseOutline(t, HoldingsMarkdown(tracker, on))
	want := outline{
		Headings: []string{"Holdings on 2024-03-01", "broker", "savings"},
		Rows:     []int{2, 2, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HoldingsMarkdown() outline mismatch (-want +got):\n%s", diff)
	}
}

func TestTaxMarkdown(t *testing.T) {
	on := date.New(2024, 5, 2)
	effects := []holdings.TaxEffect{
		{Date: on, Account: "broker", Gain: holdings.M(100, "USD"), TaxableGain: holdings.M(100, "USD"), TaxPaid: holdings.M(15, "USD")},
		{Date: on.Add(3), Account: "broker", Gain: holdings.M(-40, "USD"), LossAdded: holdings.M(40, "USD")},
	}
	losses := []holdings.LossEntry{{Amount: holdings.M(40, "USD"), Origin: on.Add(3)}}

	md := TaxMarkdown(effects, holdings.Zero("USD"), losses)
	got := parseOutline(t, md)
	want := outline{
		Headings: []string{"Capital Gains Tax", "Loss Offset Pool"},
		Rows:     []int{3, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TaxMarkdown() outline mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(md, "$15.00") {
		t.Errorf("TaxMarkdown() does not show the total tax:\n%s", md)
	}
}

func TestTaxMarkdownEmpty(t *testing.T) {
	got := parseOutline(t, TaxMarkdown(nil, holdings.Money{}, nil))
	want := outline{Headings: []string{"Capital Gains Tax"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TaxMarkdown() outline mismatch (-want +got):\n%s", diff)
	}
}

func TestLiquidationMarkdown(t *testing.T) {
	on := date.New(2024, 6, 28)
	r := &holdings.LiquidationReport{
		ID:        uuid.New(),
		Date:      on,
		Residence: "HU",
		Target:    "USD",
		Positions: []holdings.LiquidatedPosition{{
			Account:    "broker",
			Ticker:     "AAPL",
			Count:      holdings.Q(10),
			Price:      holdings.M(150, "USD"),
			Proceeds:   holdings.M(1500, "USD"),
			Commission: holdings.M(15, "USD"),
			Tax:        holdings.TaxEffect{Gain: holdings.M(500, "USD"), TaxPaid: holdings.M(75, "USD")},
		}},
		Basket: map[string]decimal.Decimal{"USD": decimal.NewFromInt(1485), "EUR": decimal.NewFromInt(-10)},
		Conversion: &holdings.Conversion{
			Target: "USD",
			Total:  holdings.M(1474, "USD"),
		},
		TaxDue:          holdings.M(75, "USD"),
		TaxDueConverted: holdings.M(75, "USD"),
		Value:           holdings.M(1399, "USD"),
	}

	md := LiquidationMarkdown(r)
	got := parseOutline(t, md)
	want := outline{
		Headings: []string{"Liquidation on 2024-06-28", "Positions", "Conversion", "Value"},
		Rows:     []int{1, 2, 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LiquidationMarkdown() outline mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(md, "**$1,399.00**") {
		t.Errorf("LiquidationMarkdown() does not show the value:\n%s", md)
	}
}
