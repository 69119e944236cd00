// Package cmd implements the CLI application to compute realized gains for
// tax reporting from broker trade histories.
package cmd

import (
	"flag"
	"fmt"
	"os"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/binsu996/stock-tax-calculator/date"
	"github.com/binsu996/stock-tax-calculator/futu"
	"github.com/binsu996/stock-tax-calculator/longport"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&fetchLongportCmd{}, "data")
	c.Register(&importFutuCmd{}, "data")

	c.Register(&gainsCmd{}, "reports")
	c.Register(&cashSummaryCmd{}, "reports")
	c.Register(&exportCmd{}, "reports")
	c.Register(&serveCmd{}, "reports")
}

// printMarkdown renders markdown for the terminal. When the terminal cannot
// be styled the raw markdown is printed instead, it is readable as is.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fail prints a command error the standard way.
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// sourceFlags are the trade and cash flow inputs shared by the reporting
// commands. Each platform is optional, each platform given builds its own
// ledger.
type sourceFlags struct {
	futuTrades     string
	futuCash       string
	longportTrades string
	longportCash   string
	asOf           string
	noExpiry       bool
}

func (s *sourceFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.futuTrades, "futu-trades", "", "Futu OpenD trade-flow CSV export")
	f.StringVar(&s.futuCash, "futu-cash", "", "Futu OpenD cash-flow CSV export")
	f.StringVar(&s.longportTrades, "longport-trades", "", "Longport trade history CSV (see fetch-longport)")
	f.StringVar(&s.longportCash, "longport-cash", "", "Longport cash-flow CSV (see fetch-longport)")
	f.StringVar(&s.asOf, "as-of", "", "write off options expired on or before this date, default today (YYYY-MM-DD)")
	f.BoolVar(&s.noExpiry, "no-expiry", false, "do not write off expired options")
}

// platformLedger is one broker's replayed ledger.
type platformLedger struct {
	Name   string
	Ledger *stocktax.Ledger
}

// load replays every configured platform into its own ledger.
func (s *sourceFlags) load() ([]platformLedger, error) {
	asOf := date.Today()
	if s.asOf != "" {
		var err error
		asOf, err = date.Parse(s.asOf)
		if err != nil {
			return nil, fmt.Errorf("invalid -as-of: %w", err)
		}
	}

	var platforms []platformLedger

	if s.futuTrades != "" {
		ledger, err := loadFutu(s.futuTrades, s.futuCash)
		if err != nil {
			return nil, err
		}
		if !s.noExpiry {
			ledger.ExpireOptions(asOf)
		}
		platforms = append(platforms, platformLedger{Name: "Futu", Ledger: ledger})
	}

	if s.longportTrades != "" {
		ledger, err := loadLongport(s.longportTrades, s.longportCash)
		if err != nil {
			return nil, err
		}
		if !s.noExpiry {
			ledger.ExpireOptions(asOf)
		}
		platforms = append(platforms, platformLedger{Name: "Longport", Ledger: ledger})
	}

	if len(platforms) == 0 {
		return nil, fmt.Errorf("no input: give at least -futu-trades or -longport-trades")
	}
	return platforms, nil
}

func loadFutu(tradesPath, cashPath string) (*stocktax.Ledger, error) {
	ledger := stocktax.NewLedger()

	f, err := os.Open(tradesPath)
	if err != nil {
		return nil, err
	}
	events, err := futu.ReadTradeFlow(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("cannot read Futu trades %q: %w", tradesPath, err)
	}
	if err := ledger.ApplyAll(events); err != nil {
		return nil, fmt.Errorf("cannot replay Futu trades: %w", err)
	}

	if cashPath != "" {
		f, err := os.Open(cashPath)
		if err != nil {
			return nil, err
		}
		rows, err := futu.ReadCashFlow(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read Futu cash flow %q: %w", cashPath, err)
		}
		ledger.ApplyFees(futu.FeeEvents(rows))
	}
	return ledger, nil
}

func loadLongport(tradesPath, cashPath string) (*stocktax.Ledger, error) {
	ledger := stocktax.NewLedger()

	f, err := os.Open(tradesPath)
	if err != nil {
		return nil, err
	}
	trades, err := longport.ReadTrades(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("cannot read Longport trades %q: %w", tradesPath, err)
	}
	events, err := longport.Events(trades)
	if err != nil {
		return nil, err
	}
	if err := ledger.ApplyAll(events); err != nil {
		return nil, fmt.Errorf("cannot replay Longport trades: %w", err)
	}

	if cashPath != "" {
		f, err := os.Open(cashPath)
		if err != nil {
			return nil, err
		}
		rows, err := longport.ReadCashFlow(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read Longport cash flow %q: %w", cashPath, err)
		}
		ledger.ApplyFees(longport.ADRFees(rows))
	}
	return ledger, nil
}
