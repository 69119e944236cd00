// Package futu normalizes Futu OpenD exports into replayable events.
//
// Futu trade and cash flow histories are exported through a local OpenD
// gateway to CSV; this package turns those raw exports into the uniform event
// shape the accounting ledger replays, taking care of the Futu-specific
// quirks: duplicated combo-order fees, market-coded settlement currencies and
// per-market option contract multipliers.
package futu

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/binsu996/stock-tax-calculator/date"
	"github.com/shopspring/decimal"
)

// marketCurrency maps a Futu deal market to its settlement currency. An
// unmapped market is a configuration error and fails loudly.
var marketCurrency = map[string]string{
	"HK": "HKD",
	"US": "USD",
}

// optionMultiplier maps a deal market to the shares-per-contract multiplier
// of its listed options.
var optionMultiplier = map[string]int{
	"HK": 500, // HK options: 500 shares per contract
	"US": 100, // US options: 100 shares per contract
}

// feeKeywords select the cash flow remarks that are standalone fees.
var feeKeywords = []string{
	"FEE", "ADR", "INTEREST", "LOAN", "STAMP", "WITHHOLDING TAX", "TAX",
	"IRO", "REGISTRATION", "DIVIDENDS",
}

// header indexes the columns of a CSV export by name.
type header map[string]int

func readHeader(record []string, required ...string) (header, error) {
	h := make(header, len(record))
	for i, name := range record {
		h[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return h, nil
}

func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ReadTradeFlow parses a Futu trade-flow CSV export into normalized trade
// events sorted by event time.
//
// Rows with a non-positive quantity are dropped before replay. Combo-strategy
// orders repeat the same order id on every leg with the aggregate fee
// duplicated on each; only the earliest row of an order keeps its fee, the
// rest are zeroed.
func ReadTradeFlow(r io.Reader) ([]stocktax.TradeEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read trade flow header: %w", err)
	}
	h, err := readHeader(first, "code", "qty", "price", "trd_side", "deal_market", "create_time", "fee_amount")
	if err != nil {
		return nil, fmt.Errorf("trade flow: %w", err)
	}

	type row struct {
		event   stocktax.TradeEvent
		orderID string
	}
	var rows []row

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trade flow line %d: %w", line, err)
		}

		qty, err := decimal.NewFromString(h.get(record, "qty"))
		if err != nil {
			return nil, fmt.Errorf("trade flow line %d: invalid qty %q: %w", line, h.get(record, "qty"), err)
		}
		if !qty.IsPositive() {
			continue
		}

		price, err := decimal.NewFromString(h.get(record, "price"))
		if err != nil {
			return nil, fmt.Errorf("trade flow line %d: invalid price %q: %w", line, h.get(record, "price"), err)
		}

		fee := decimal.Zero
		if s := h.get(record, "fee_amount"); s != "" {
			fee, err = decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("trade flow line %d: invalid fee %q: %w", line, s, err)
			}
		}

		at, err := stocktax.ParseEventTime(h.get(record, "create_time"))
		if err != nil {
			return nil, fmt.Errorf("trade flow line %d: %w", line, err)
		}

		symbol := h.get(record, "code")
		market := h.get(record, "deal_market")
		currency, ok := marketCurrency[market]
		if !ok {
			return nil, fmt.Errorf("trade flow line %d: no settlement currency for market %q", line, market)
		}

		multiplier := 1
		if _, isOption := stocktax.ParseOptionExpiry(symbol); isOption {
			multiplier, ok = optionMultiplier[market]
			if !ok {
				return nil, fmt.Errorf("trade flow line %d: no option contract multiplier for market %q", line, market)
			}
		}

		side := stocktax.SideBuy
		if strings.Contains(strings.ToUpper(h.get(record, "trd_side")), "SELL") {
			side = stocktax.SideSell
		}

		rows = append(rows, row{
			event: stocktax.TradeEvent{
				Symbol:     symbol,
				Side:       side,
				Price:      stocktax.M(price, currency),
				Quantity:   stocktax.Q(qty),
				Fee:        stocktax.M(fee, currency),
				Time:       at,
				Multiplier: multiplier,
			},
			orderID: h.get(record, "order_id"),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].event.Time.Before(rows[j].event.Time) })

	// Keep the aggregate fee on the first fill of each order only.
	seen := make(map[string]bool)
	events := make([]stocktax.TradeEvent, 0, len(rows))
	for _, r := range rows {
		if r.orderID != "" {
			if seen[r.orderID] {
				r.event.Fee = stocktax.M(0, r.event.Currency())
			}
			seen[r.orderID] = true
		}
		events = append(events, r.event)
	}
	return events, nil
}

// CashRow is one line of the Futu cash-flow export.
type CashRow struct {
	Remark   string
	Amount   decimal.Decimal // negative for charges, positive for refunds
	Currency string
	Time     time.Time
}

// ReadCashFlow parses a Futu cash-flow CSV export, sorted by clearing date.
func ReadCashFlow(r io.Reader) ([]CashRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read cash flow header: %w", err)
	}
	h, err := readHeader(first, "cashflow_remark", "cashflow_amount", "currency", "clearing_date")
	if err != nil {
		return nil, fmt.Errorf("cash flow: %w", err)
	}

	var rows []CashRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cash flow line %d: %w", line, err)
		}

		amount, err := decimal.NewFromString(h.get(record, "cashflow_amount"))
		if err != nil {
			return nil, fmt.Errorf("cash flow line %d: invalid amount %q: %w", line, h.get(record, "cashflow_amount"), err)
		}

		// Clearing dates come as a plain day, sometimes as a full timestamp.
		raw := h.get(record, "clearing_date")
		at, err := stocktax.ParseEventTime(raw)
		if err != nil {
			d, derr := date.Parse(raw)
			if derr != nil {
				return nil, fmt.Errorf("cash flow line %d: invalid clearing date %q", line, raw)
			}
			at = d.Time()
		}

		rows = append(rows, CashRow{
			Remark:   strings.ToUpper(h.get(record, "cashflow_remark")),
			Amount:   amount,
			Currency: strings.ToUpper(h.get(record, "currency")),
			Time:     at,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

// FeeEvents filters the cash flow down to standalone fee lines and turns them
// into currency-scoped fee events. Futu reports charges as negative amounts,
// so the sign is flipped; refunds come out non-positive and are ignored by
// the ledger's fee rule.
func FeeEvents(rows []CashRow) []stocktax.FeeEvent {
	var events []stocktax.FeeEvent
	for _, row := range rows {
		if row.Currency == "" || !isFee(row.Remark) {
			continue
		}
		events = append(events, stocktax.FeeEvent{
			Currency: row.Currency,
			Amount:   stocktax.M(row.Amount.Neg(), row.Currency),
			Time:     row.Time,
		})
	}
	return events
}

func isFee(remark string) bool {
	for _, keyword := range feeKeywords {
		if strings.Contains(remark, keyword) {
			return true
		}
	}
	return false
}
