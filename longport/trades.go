package longport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/shopspring/decimal"
)

// contractMultiplier maps a settlement currency to the shares-per-contract
// multiplier of the options traded in it.
var contractMultiplier = map[string]int{
	"HKD": 500, // HK options: 500 shares per contract
	"USD": 100, // US options: 100 shares per contract
}

// Trade is one filled order of the Longport trade history, reduced to the
// fields the accounting replay needs.
type Trade struct {
	Symbol   string
	Side     string // "Buy" or "Sell"
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Fee      decimal.Decimal // total charges of the order
	Currency string          // charge settlement currency
	Time     time.Time
}

// FetchTrades downloads the filled-order history between from and to,
// oldest first.
func (c *Client) FetchTrades(ctx context.Context, from, to time.Time) ([]Trade, error) {
	var trades []Trade
	end := to
	for {
		query := url.Values{}
		query.Set("status", "FilledStatus")
		query.Set("start_at", strconv.FormatInt(from.Unix(), 10))
		query.Set("end_at", strconv.FormatInt(end.Unix(), 10))

		data, err := c.get(ctx, "/v1/trade/order/history", query)
		if err != nil {
			return nil, fmt.Errorf("cannot fetch trade history: %w", err)
		}

		jorders, err := dig(data, "$.orders")
		if err != nil {
			return nil, err
		}
		orders, ok := jorders.([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected trade history shape: orders is %T", jorders)
		}

		var oldest time.Time
		for _, jorder := range orders {
			trade, err := parseOrder(jorder)
			if err != nil {
				return nil, err
			}
			trades = append(trades, trade)
			if oldest.IsZero() || trade.Time.Before(oldest) {
				oldest = trade.Time
			}
		}

		more, _ := dig(data, "$.has_more")
		if hasMore, ok := more.(bool); !ok || !hasMore || oldest.IsZero() {
			break
		}
		// The API pages backwards in time.
		end = oldest.Add(-time.Second)
	}

	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Time.Before(trades[j].Time) })
	return trades, nil
}

// parseOrder maps one order object of the history response to a Trade. The
// API serializes decimals as strings and timestamps as epoch seconds.
func parseOrder(jorder any) (Trade, error) {
	symbol := jstring(jorder, "symbol")

	price, err := decimal.NewFromString(jstring(jorder, "executed_price"))
	if err != nil {
		return Trade{}, fmt.Errorf("order %s: invalid executed_price: %w", symbol, err)
	}
	quantity, err := decimal.NewFromString(jstring(jorder, "executed_quantity"))
	if err != nil {
		return Trade{}, fmt.Errorf("order %s: invalid executed_quantity: %w", symbol, err)
	}

	fee := decimal.Zero
	currency := jstring(jorder, "currency")
	if jcharge, err := dig(jorder, "$.charge_detail"); err == nil {
		if s := jstring(jcharge, "total_amount"); s != "" {
			fee, err = decimal.NewFromString(s)
			if err != nil {
				return Trade{}, fmt.Errorf("order %s: invalid charge total_amount: %w", symbol, err)
			}
		}
		if cur := jstring(jcharge, "currency"); cur != "" {
			currency = cur
		}
	}

	seconds, err := strconv.ParseInt(jstring(jorder, "updated_at"), 10, 64)
	if err != nil {
		return Trade{}, fmt.Errorf("order %s: invalid updated_at: %w", symbol, err)
	}

	return Trade{
		Symbol:   symbol,
		Side:     jstring(jorder, "side"),
		Price:    price,
		Quantity: quantity,
		Fee:      fee,
		Currency: currency,
		Time:     time.Unix(seconds, 0).UTC(),
	}, nil
}

var tradeColumns = []string{"symbol", "side", "price", "quantity", "fee", "currency", "updated_at"}

// WriteTradesCSV writes the trade history as CSV, the local exchange format
// shared with the reporting commands.
func WriteTradesCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeColumns); err != nil {
		return err
	}
	for _, t := range trades {
		record := []string{
			t.Symbol, t.Side,
			t.Price.String(), t.Quantity.String(), t.Fee.String(),
			t.Currency,
			t.Time.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTrades parses a CSV written by WriteTradesCSV.
func ReadTrades(r io.Reader) ([]Trade, error) {
	cr := csv.NewReader(r)
	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read trades header: %w", err)
	}
	index := make(map[string]int, len(first))
	for i, name := range first {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range tradeColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("trades: missing column %q", name)
		}
	}

	var trades []Trade
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trades line %d: %w", line, err)
		}
		get := func(name string) string { return strings.TrimSpace(record[index[name]]) }

		price, err := decimal.NewFromString(get("price"))
		if err != nil {
			return nil, fmt.Errorf("trades line %d: invalid price: %w", line, err)
		}
		quantity, err := decimal.NewFromString(get("quantity"))
		if err != nil {
			return nil, fmt.Errorf("trades line %d: invalid quantity: %w", line, err)
		}
		fee, err := decimal.NewFromString(get("fee"))
		if err != nil {
			return nil, fmt.Errorf("trades line %d: invalid fee: %w", line, err)
		}
		at, err := stocktax.ParseEventTime(get("updated_at"))
		if err != nil {
			return nil, fmt.Errorf("trades line %d: %w", line, err)
		}

		trades = append(trades, Trade{
			Symbol:   get("symbol"),
			Side:     get("side"),
			Price:    price,
			Quantity: quantity,
			Fee:      fee,
			Currency: get("currency"),
			Time:     at,
		})
	}
	return trades, nil
}

// Events normalizes the trade history into replayable events sorted by time.
// Options carry the contract multiplier of their settlement currency, an
// unknown currency on an option is a loud configuration error.
func Events(trades []Trade) ([]stocktax.TradeEvent, error) {
	sorted := make([]Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	events := make([]stocktax.TradeEvent, 0, len(sorted))
	for _, t := range sorted {
		multiplier := 1
		if _, isOption := stocktax.ParseOptionExpiry(t.Symbol); isOption {
			m, ok := contractMultiplier[t.Currency]
			if !ok {
				return nil, fmt.Errorf("no option contract multiplier for currency %q (%s)", t.Currency, t.Symbol)
			}
			multiplier = m
		}

		side := stocktax.SideBuy
		if strings.Contains(strings.ToUpper(t.Side), "SELL") {
			side = stocktax.SideSell
		}

		events = append(events, stocktax.TradeEvent{
			Symbol:     t.Symbol,
			Side:       side,
			Price:      stocktax.M(t.Price, t.Currency),
			Quantity:   stocktax.Q(t.Quantity),
			Fee:        stocktax.M(t.Fee, t.Currency),
			Time:       t.Time,
			Multiplier: multiplier,
		})
	}
	return events, nil
}
