// Package renderer turns reports into markdown.
package renderer

import (
	"fmt"
	"strings"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/binsu996/stock-tax-calculator/longport"
)

// GainsMarkdown renders the yearly realized gains as one pivot table per
// currency: a symbol per row, a column per calendar year, a total column,
// and a bold footer row with the currency totals.
func GainsMarkdown(title string, report *stocktax.GainsReport) string {
	var b strings.Builder

	for _, group := range report.Groups {
		fmt.Fprintf(&b, "## %s (%s)\n\n", title, group.Currency)

		fmt.Fprint(&b, "| Symbol |")
		for _, year := range group.Years {
			fmt.Fprintf(&b, " %d |", year)
		}
		fmt.Fprint(&b, " Total |\n")
		fmt.Fprint(&b, "|:---|")
		for range group.Years {
			fmt.Fprint(&b, "---:|")
		}
		fmt.Fprint(&b, "---:|\n")

		for _, row := range group.Rows {
			fmt.Fprintf(&b, "| %s |", row.Symbol)
			for _, year := range group.Years {
				fmt.Fprintf(&b, " %s |", row.RealizedIn(year).SignedString())
			}
			fmt.Fprintf(&b, " %s |\n", row.Total.SignedString())
		}

		fmt.Fprintf(&b, "| **%s Total** |", group.Currency)
		for _, year := range group.Years {
			fmt.Fprintf(&b, " **%s** |", group.TotalByYear[year].SignedString())
		}
		fmt.Fprintf(&b, " **%s** |\n\n", group.Total.SignedString())
	}

	if len(report.Groups) == 0 {
		fmt.Fprintf(&b, "## %s\n\nNo realized gains.\n", title)
	}
	return b.String()
}

// CashSummaryMarkdown renders the yearly cash-flow summary as a table.
func CashSummaryMarkdown(summary []longport.CashSummaryRow) string {
	var b strings.Builder

	fmt.Fprint(&b, "## Cash Flow Summary\n\n")
	fmt.Fprintln(&b, "| Year | Currency | Flow | Total |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|")
	for _, row := range summary {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", row.Year, row.Currency, row.Name, row.Total.String())
	}
	return b.String()
}
