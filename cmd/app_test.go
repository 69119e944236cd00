package cmd

import (
	"os"
	"path/filepath"
	"testing"

	stocktax "github.com/binsu996/stock-tax-calculator"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSourceFlags_Load(t *testing.T) {
	futuTrades := writeTemp(t, "futu_trade.csv",
		"code,order_id,qty,price,trd_side,deal_market,create_time,fee_amount\n"+
			"AAPL,O-1,100,10,BUY,US,2023-02-01 09:30:00,0\n"+
			"AAPL,O-2,100,12,SELL,US,2023-06-01 09:30:00,0\n")
	longportTrades := writeTemp(t, "longport_trade.csv",
		"symbol,side,price,quantity,fee,currency,updated_at\n"+
			"700.HK,Buy,300,100,30,HKD,2023-03-01 10:00:00\n")

	sources := sourceFlags{futuTrades: futuTrades, longportTrades: longportTrades}
	platforms, err := sources.load()
	if err != nil {
		t.Fatal(err)
	}
	if len(platforms) != 2 {
		t.Fatalf("platforms = %d, want 2", len(platforms))
	}
	if platforms[0].Name != "Futu" || platforms[1].Name != "Longport" {
		t.Errorf("platform names = %q, %q", platforms[0].Name, platforms[1].Name)
	}

	aapl := platforms[0].Ledger.Position("AAPL")
	if aapl == nil {
		t.Fatal("Futu ledger has no AAPL position")
	}
	if got := aapl.RealizedTotal(); !got.Equal(stocktax.M(200, "USD")) {
		t.Errorf("AAPL realized = %v, want 200 USD", got)
	}

	tencent := platforms[1].Ledger.Position("700.HK")
	if tencent == nil {
		t.Fatal("Longport ledger has no 700.HK position")
	}
	if got := tencent.Quantity(); !got.Equal(stocktax.Q(100)) {
		t.Errorf("700.HK quantity = %v, want 100", got)
	}
}

func TestSourceFlags_Load_NoInput(t *testing.T) {
	var sources sourceFlags
	if _, err := sources.load(); err == nil {
		t.Fatal("expected error when no platform is configured")
	}
}

func TestSourceFlags_Load_BadAsOf(t *testing.T) {
	sources := sourceFlags{futuTrades: "x.csv", asOf: "not-a-date"}
	if _, err := sources.load(); err == nil {
		t.Fatal("expected error for invalid -as-of")
	}
}
