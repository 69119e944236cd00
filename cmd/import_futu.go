package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/binsu996/stock-tax-calculator/futu"
	"github.com/google/subcommands"
)

// importFutuCmd implements the "import-futu" command.
type importFutuCmd struct {
	trades string
	cash   string
	out    string
}

func (*importFutuCmd) Name() string     { return "import-futu" }
func (*importFutuCmd) Synopsis() string { return "validates and imports Futu OpenD CSV exports" }
func (*importFutuCmd) Usage() string {
	return `import-futu -trades file [-cash file] [-o dir]:

	Parses the raw OpenD exports, reports what they contain, and copies the
	valid files into the cache directory under their canonical names.
	`
}
func (c *importFutuCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.trades, "trades", "", "Futu OpenD trade-flow CSV export")
	f.StringVar(&c.cash, "cash", "", "Futu OpenD cash-flow CSV export")
	f.StringVar(&c.out, "o", ".cache_data", "output directory")
}

func (c *importFutuCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.trades == "" {
		return fail("missing -trades")
	}
	if err := os.MkdirAll(c.out, 0755); err != nil {
		return fail("cannot create %q: %v", c.out, err)
	}

	tf, err := os.Open(c.trades)
	if err != nil {
		return fail("%v", err)
	}
	events, err := futu.ReadTradeFlow(tf)
	tf.Close()
	if err != nil {
		return fail("invalid trade flow %q: %v", c.trades, err)
	}
	if err := copyFile(c.trades, filepath.Join(c.out, "futu_trade.csv")); err != nil {
		return fail("%v", err)
	}
	fmt.Printf("Imported %d trades from %s\n", len(events), c.trades)

	if c.cash != "" {
		cf, err := os.Open(c.cash)
		if err != nil {
			return fail("%v", err)
		}
		rows, err := futu.ReadCashFlow(cf)
		cf.Close()
		if err != nil {
			return fail("invalid cash flow %q: %v", c.cash, err)
		}
		if err := copyFile(c.cash, filepath.Join(c.out, "futu_cash.csv")); err != nil {
			return fail("%v", err)
		}
		fmt.Printf("Imported %d cash flow lines (%d fees) from %s\n", len(rows), len(futu.FeeEvents(rows)), c.cash)
	}
	return subcommands.ExitSuccess
}

func copyFile(src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0644)
}
