package renderer

import (
	"strings"
	"testing"
	"time"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/binsu996/stock-tax-calculator/longport"
	"github.com/shopspring/decimal"
)

func TestGainsMarkdown(t *testing.T) {
	ledger := stocktax.NewLedger()
	at := func(year int, month time.Month) time.Time {
		return time.Date(year, month, 15, 10, 0, 0, 0, time.UTC)
	}
	events := []stocktax.TradeEvent{
		{Symbol: "AAPL", Side: stocktax.SideBuy, Price: stocktax.M(10, "USD"), Quantity: stocktax.Q(100), Fee: stocktax.M(0, "USD"), Time: at(2022, time.January)},
		{Symbol: "AAPL", Side: stocktax.SideSell, Price: stocktax.M(12, "USD"), Quantity: stocktax.Q(50), Fee: stocktax.M(0, "USD"), Time: at(2022, time.June)},
		{Symbol: "AAPL", Side: stocktax.SideSell, Price: stocktax.M(15, "USD"), Quantity: stocktax.Q(50), Fee: stocktax.M(0, "USD"), Time: at(2023, time.June)},
	}
	if err := ledger.ApplyAll(events); err != nil {
		t.Fatal(err)
	}

	md := GainsMarkdown("Realized Gains", stocktax.YearlyGains(ledger))

	for _, want := range []string{
		"## Realized Gains (USD)",
		"| Symbol | 2022 | 2023 | Total |",
		"| AAPL |",
		"| **USD Total** |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestGainsMarkdown_Empty(t *testing.T) {
	md := GainsMarkdown("Realized Gains", stocktax.YearlyGains(stocktax.NewLedger()))
	if !strings.Contains(md, "No realized gains") {
		t.Errorf("empty report should say so:\n%s", md)
	}
}

func TestCashSummaryMarkdown(t *testing.T) {
	md := CashSummaryMarkdown([]longport.CashSummaryRow{
		{Year: 2023, Currency: "USD", Name: "存入现金", Total: decimal.NewFromInt(1500)},
	})
	if !strings.Contains(md, "| 2023 | USD | 存入现金 | 1500 |") {
		t.Errorf("missing summary row:\n%s", md)
	}
}
