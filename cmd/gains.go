package cmd

import (
	"context"
	"flag"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/binsu996/stock-tax-calculator/renderer"
	"github.com/google/subcommands"
)

// gainsCmd implements the "gains" command.
type gainsCmd struct {
	sources sourceFlags
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "prints yearly realized gains per security and currency" }
func (*gainsCmd) Usage() string {
	return `gains [-futu-trades file] [-futu-cash file] [-longport-trades file] [-longport-cash file] [-as-of date] [-no-expiry]:

	Replays the given trade histories and prints one realized-gain report per
	platform, plus a combined report when several platforms are given.
	`
}
func (c *gainsCmd) SetFlags(f *flag.FlagSet) { c.sources.register(f) }

func (c *gainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	platforms, err := c.sources.load()
	if err != nil {
		return fail("%v", err)
	}

	for _, p := range platforms {
		printMarkdown(renderer.GainsMarkdown(p.Name+" Realized Gains", stocktax.YearlyGains(p.Ledger)))
	}

	if len(platforms) > 1 {
		ledgers := make([]*stocktax.Ledger, 0, len(platforms))
		for _, p := range platforms {
			ledgers = append(ledgers, p.Ledger)
		}
		printMarkdown(renderer.GainsMarkdown("Combined Realized Gains", stocktax.YearlyGains(ledgers...)))
	}
	return subcommands.ExitSuccess
}
