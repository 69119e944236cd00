package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/binsu996/stock-tax-calculator/renderer"
	"github.com/google/subcommands"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// serveCmd implements the "serve" command.
type serveCmd struct {
	sources sourceFlags
	addr    string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serves the realized-gain report over HTTP" }
func (*serveCmd) Usage() string {
	return `serve [-http addr] [-futu-trades file] [-longport-trades file] ...:

	Serves the per-platform and combined realized-gain reports as an HTML
	page. Input files are re-read on every request, so a refreshed download
	shows up on a page reload.
	`
}
func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	c.sources.register(f)
	f.StringVar(&c.addr, "http", "localhost:8488", "listen address")
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Realized Gains</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.8em; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
%s
</body>
</html>
`

func (c *serveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// Validate the inputs once up front so a typo fails at startup.
	if _, err := c.sources.load(); err != nil {
		return fail("%v", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		platforms, err := c.sources.load()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		var report bytes.Buffer
		for _, p := range platforms {
			report.WriteString(renderer.GainsMarkdown(p.Name+" Realized Gains", stocktax.YearlyGains(p.Ledger)))
		}
		if len(platforms) > 1 {
			ledgers := make([]*stocktax.Ledger, 0, len(platforms))
			for _, p := range platforms {
				ledgers = append(ledgers, p.Ledger)
			}
			report.WriteString(renderer.GainsMarkdown("Combined Realized Gains", stocktax.YearlyGains(ledgers...)))
		}

		var body bytes.Buffer
		if err := md.Convert(report.Bytes(), &body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, pageTemplate, body.String())
	})

	log.Printf("serving realized gains on http://%s/", c.addr)
	if err := http.ListenAndServe(c.addr, nil); err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}
