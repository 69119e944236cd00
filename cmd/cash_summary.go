package cmd

import (
	"context"
	"flag"
	"os"

	"github.com/binsu996/stock-tax-calculator/longport"
	"github.com/binsu996/stock-tax-calculator/renderer"
	"github.com/google/subcommands"
)

// cashSummaryCmd implements the "cash-summary" command.
type cashSummaryCmd struct {
	cash string
}

func (*cashSummaryCmd) Name() string { return "cash-summary" }
func (*cashSummaryCmd) Synopsis() string {
	return "prints the yearly cash flow totals per currency and flow"
}
func (*cashSummaryCmd) Usage() string {
	return `cash-summary -cash file:

	Totals the Longport cash flow per year, currency and transaction flow.
	`
}
func (c *cashSummaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cash, "cash", "", "Longport cash-flow CSV (see fetch-longport)")
}

func (c *cashSummaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.cash == "" {
		return fail("missing -cash")
	}
	cf, err := os.Open(c.cash)
	if err != nil {
		return fail("%v", err)
	}
	rows, err := longport.ReadCashFlow(cf)
	cf.Close()
	if err != nil {
		return fail("cannot read cash flow %q: %v", c.cash, err)
	}

	printMarkdown(renderer.CashSummaryMarkdown(longport.CashSummary(rows)))
	return subcommands.ExitSuccess
}
