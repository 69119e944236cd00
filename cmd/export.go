package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/google/subcommands"
)

// exportCmd implements the "export" command.
type exportCmd struct {
	sources sourceFlags
	out     string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "writes the realized-gain table as CSV" }
func (*exportCmd) Usage() string {
	return `export -o file [-futu-trades file] [-longport-trades file] ...:

	Replays the given trade histories and writes the combined yearly
	realized-gain table as CSV, one row per currency, symbol and year.
	`
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.sources.register(f)
	f.StringVar(&c.out, "o", "", "output CSV file, - or empty for stdout")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	platforms, err := c.sources.load()
	if err != nil {
		return fail("%v", err)
	}
	ledgers := make([]*stocktax.Ledger, 0, len(platforms))
	for _, p := range platforms {
		ledgers = append(ledgers, p.Ledger)
	}
	report := stocktax.YearlyGains(ledgers...)

	if c.out == "" || c.out == "-" {
		if err := stocktax.ExportGainsCSV(os.Stdout, report); err != nil {
			return fail("%v", err)
		}
		return subcommands.ExitSuccess
	}

	if err := writeFile(c.out, func(w *os.File) error { return stocktax.ExportGainsCSV(w, report) }); err != nil {
		return fail("%v", err)
	}
	fmt.Printf("Wrote realized gains to %s\n", c.out)
	return subcommands.ExitSuccess
}
