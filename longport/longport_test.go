package longport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvents(t *testing.T) {
	trades := []Trade{
		{Symbol: "BABA.US", Side: "Sell", Price: dec("85"), Quantity: dec("10"), Fee: dec("1.2"), Currency: "USD", Time: time.Date(2023, 3, 2, 10, 0, 0, 0, time.UTC)},
		{Symbol: "700.HK", Side: "Buy", Price: dec("300"), Quantity: dec("100"), Fee: dec("30"), Currency: "HKD", Time: time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)},
		{Symbol: "TSLA240119C250000.US", Side: "Buy", Price: dec("3.5"), Quantity: dec("2"), Fee: dec("0.6"), Currency: "USD", Time: time.Date(2023, 3, 3, 10, 0, 0, 0, time.UTC)},
	}

	events, err := Events(trades)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Symbol != "700.HK" {
		t.Errorf("events not sorted by time, first = %q", events[0].Symbol)
	}
	if events[0].Side != stocktax.SideBuy || events[1].Side != stocktax.SideSell {
		t.Errorf("sides = %q, %q", events[0].Side, events[1].Side)
	}
	if events[1].Multiplier != 1 {
		t.Errorf("stock multiplier = %d, want 1", events[1].Multiplier)
	}
	if events[2].Multiplier != 100 {
		t.Errorf("USD option multiplier = %d, want 100", events[2].Multiplier)
	}
}

func TestEvents_UnknownOptionCurrency(t *testing.T) {
	trades := []Trade{
		{Symbol: "TSLA240119C250000.US", Side: "Buy", Price: dec("3.5"), Quantity: dec("2"), Currency: "EUR", Time: time.Now()},
	}
	if _, err := Events(trades); err == nil {
		t.Fatal("expected error for option in unmapped currency")
	}
}

func TestTradesCSVRoundTrip(t *testing.T) {
	trades := []Trade{
		{Symbol: "BABA.US", Side: "Sell", Price: dec("85.5"), Quantity: dec("10"), Fee: dec("1.2"), Currency: "USD", Time: time.Date(2023, 3, 2, 10, 30, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	if err := WriteTradesCSV(&buf, trades); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTrades(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("trades = %d, want 1", len(got))
	}
	if got[0].Symbol != "BABA.US" || !got[0].Price.Equal(dec("85.5")) || !got[0].Time.Equal(trades[0].Time) {
		t.Errorf("round trip lost data: %+v", got[0])
	}
}

func TestADRFees(t *testing.T) {
	rows := []CashRow{
		{FlowName: "ADR Fee", Balance: dec("-1.5"), Currency: "USD", Symbol: "BABA.US", Time: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{FlowName: "ADR Fee", Balance: dec("-2"), Currency: "USD", Description: "TCEHY.US ADR FEE(3 shares)", Time: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{FlowName: "ADR Fee", Balance: dec("-3"), Currency: "USD", Description: "no symbol here"},
		{FlowName: "Cash Dividend", Balance: dec("10"), Currency: "USD", Symbol: "BABA.US"},
	}
	fees := ADRFees(rows)
	if len(fees) != 2 {
		t.Fatalf("fees = %d, want 2", len(fees))
	}
	if fees[0].Symbol != "BABA.US" || !fees[0].Amount.Equal(stocktax.M(1.5, "USD")) {
		t.Errorf("first fee = %q %v", fees[0].Symbol, fees[0].Amount)
	}
	if fees[1].Symbol != "TCEHY.US" {
		t.Errorf("symbol from description = %q, want TCEHY.US", fees[1].Symbol)
	}
}

func TestCashSummary(t *testing.T) {
	rows := []CashRow{
		{FlowName: "Deposit Cash", Balance: dec("1000"), Currency: "USD", Time: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)},
		{FlowName: "Deposit Cash", Balance: dec("500"), Currency: "USD", Time: time.Date(2023, 7, 5, 0, 0, 0, 0, time.UTC)},
		{FlowName: "ADR Fee", Balance: dec("-1.5"), Currency: "USD", Time: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{FlowName: "Deposit Cash", Balance: dec("2000"), Currency: "HKD", Time: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)},
		{FlowName: "Some New Flow", Balance: dec("7"), Currency: "USD", Time: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	summary := CashSummary(rows)
	if len(summary) != 4 {
		t.Fatalf("summary rows = %d, want 4", len(summary))
	}
	if summary[0].Year != 2022 || summary[0].Currency != "HKD" || summary[0].Name != "存入现金" {
		t.Errorf("first row = %+v", summary[0])
	}
	var deposits CashSummaryRow
	for _, row := range summary {
		if row.Year == 2023 && row.Name == "存入现金" {
			deposits = row
		}
	}
	if !deposits.Total.Equal(dec("1500")) {
		t.Errorf("2023 USD deposits = %v, want 1500", deposits.Total)
	}
	// Untranslated names pass through.
	var found bool
	for _, row := range summary {
		if row.Name == "Some New Flow" {
			found = true
		}
	}
	if !found {
		t.Error("unknown flow name should pass through untranslated")
	}
}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{AppKey: "k", AppSecret: "s", AccessToken: "t", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	// Bypass the on-disk response cache in tests.
	client.client = server.Client()
	return client
}

func TestFetchTrades(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k" || r.Header.Get("X-Api-Signature") == "" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		fmt.Fprint(w, `{"code":0,"data":{"has_more":false,"orders":[
			{"symbol":"BABA.US","side":"Sell","executed_price":"85","executed_quantity":"10",
			 "currency":"USD","updated_at":"1677751200",
			 "charge_detail":{"total_amount":"1.2","currency":"USD"}},
			{"symbol":"700.HK","side":"Buy","executed_price":"300","executed_quantity":"100",
			 "currency":"HKD","updated_at":"1677664800"}
		]}}`)
	}))

	trades, err := client.FetchTrades(context.Background(), time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(trades))
	}
	if trades[0].Symbol != "700.HK" {
		t.Errorf("trades not sorted oldest first, got %q", trades[0].Symbol)
	}
	if !trades[1].Fee.Equal(dec("1.2")) {
		t.Errorf("charge detail fee = %v, want 1.2", trades[1].Fee)
	}
	if trades[0].Fee.Sign() != 0 {
		t.Errorf("missing charge detail should mean zero fee, got %v", trades[0].Fee)
	}
}

func TestFetchTrades_RetriesRateLimit(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"code":429002,"message":"rate limited"}`)
			return
		}
		fmt.Fprint(w, `{"code":0,"data":{"has_more":false,"orders":[]}}`)
	}))

	_, err := client.FetchTrades(context.Background(), time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry after rate limit)", calls)
	}
}

func TestFetchCashFlow(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"list":[
			{"transaction_flow_name":"ADR Fee","balance":"-1.5","currency":"USD",
			 "symbol":"BABA.US","description":"BABA.US ADR FEE","business_time":"1683072000"}
		]}}`)
	}))

	rows, err := client.FetchCashFlow(context.Background(), time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].FlowName != "ADR Fee" || !rows[0].Balance.Equal(dec("-1.5")) {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestClient_APIError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":403201,"message":"token expired"}`)
	}))
	_, err := client.FetchCashFlow(context.Background(), time.Unix(0, 0), time.Now())
	if err == nil || !strings.Contains(err.Error(), "403201") {
		t.Fatalf("expected api error with code, got %v", err)
	}
}

func TestNewClient_MissingCredentials(t *testing.T) {
	if _, err := NewClient(Config{AppKey: "k"}); err == nil {
		t.Fatal("expected error for incomplete credentials")
	}
}
