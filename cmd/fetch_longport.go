package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/binsu996/stock-tax-calculator/date"
	"github.com/binsu996/stock-tax-calculator/longport"
	"github.com/google/subcommands"
)

// fetchLongportCmd implements the "fetch-longport" command.
type fetchLongportCmd struct {
	appKey      string
	appSecret   string
	accessToken string
	from        string
	to          string
	out         string
}

func (*fetchLongportCmd) Name() string { return "fetch-longport" }
func (*fetchLongportCmd) Synopsis() string {
	return "downloads the Longport trade and cash flow histories"
}
func (*fetchLongportCmd) Usage() string {
	return `fetch-longport [-s date] [-d date] [-o dir]:

	Downloads the filled-order history and the cash-flow history into
	<dir>/longport_trade.csv and <dir>/longport_cash.csv.

	Requires the ` + longport.EnvAppKey + `, ` + longport.EnvAppSecret + ` and ` +
		longport.EnvAccessToken + ` environment variables to be set or passed as flags.
	`
}
func (c *fetchLongportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.appKey, "app-key", "", "Longport app key. This flag takes precedence over the "+longport.EnvAppKey+" environment variable.")
	f.StringVar(&c.appSecret, "app-secret", "", "Longport app secret. This flag takes precedence over the "+longport.EnvAppSecret+" environment variable.")
	f.StringVar(&c.accessToken, "access-token", "", "Longport access token. This flag takes precedence over the "+longport.EnvAccessToken+" environment variable.")
	f.StringVar(&c.from, "s", "2022-01-01", "start of the history (YYYY-MM-DD)")
	f.StringVar(&c.to, "d", "", "end of the history, default today (YYYY-MM-DD)")
	f.StringVar(&c.out, "o", ".cache_data", "output directory")
}

// config retrieves the Longport credentials from the command-line flags or
// the environment variables. It prioritizes the flags.
func (c *fetchLongportCmd) config() longport.Config {
	config := longport.ConfigFromEnv()
	if c.appKey != "" {
		config.AppKey = c.appKey
	}
	if c.appSecret != "" {
		config.AppSecret = c.appSecret
	}
	if c.accessToken != "" {
		config.AccessToken = c.accessToken
	}
	return config
}

func (c *fetchLongportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, err := date.Parse(c.from)
	if err != nil {
		return fail("invalid -s: %v", err)
	}
	to := date.Today()
	if c.to != "" {
		to, err = date.Parse(c.to)
		if err != nil {
			return fail("invalid -d: %v", err)
		}
	}

	client, err := longport.NewClient(c.config())
	if err != nil {
		return fail("%v", err)
	}

	if err := os.MkdirAll(c.out, 0755); err != nil {
		return fail("cannot create %q: %v", c.out, err)
	}

	trades, err := client.FetchTrades(ctx, from.Time(), to.Time().Add(24*time.Hour))
	if err != nil {
		return fail("%v", err)
	}
	tradesPath := filepath.Join(c.out, "longport_trade.csv")
	if err := writeFile(tradesPath, func(w *os.File) error { return longport.WriteTradesCSV(w, trades) }); err != nil {
		return fail("%v", err)
	}
	fmt.Printf("Wrote %d trades to %s\n", len(trades), tradesPath)

	rows, err := client.FetchCashFlow(ctx, from.Time(), to.Time().Add(24*time.Hour))
	if err != nil {
		return fail("%v", err)
	}
	cashPath := filepath.Join(c.out, "longport_cash.csv")
	if err := writeFile(cashPath, func(w *os.File) error { return longport.WriteCashFlowCSV(w, rows) }); err != nil {
		return fail("%v", err)
	}
	fmt.Printf("Wrote %d cash flow lines to %s\n", len(rows), cashPath)

	return subcommands.ExitSuccess
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	return f.Close()
}
