package longport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	stocktax "github.com/binsu996/stock-tax-calculator"
	"github.com/shopspring/decimal"
)

// CashRow is one line of the Longport cash-flow history.
type CashRow struct {
	FlowName    string // transaction flow name, e.g. "ADR Fee"
	Balance     decimal.Decimal
	Currency    string
	Symbol      string
	Description string
	Time        time.Time
}

// FetchCashFlow downloads the cash-flow history between from and to, oldest
// first.
func (c *Client) FetchCashFlow(ctx context.Context, from, to time.Time) ([]CashRow, error) {
	query := url.Values{}
	query.Set("start_time", strconv.FormatInt(from.Unix(), 10))
	query.Set("end_time", strconv.FormatInt(to.Unix(), 10))

	data, err := c.get(ctx, "/v1/asset/cashflow", query)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch cash flow: %w", err)
	}

	jlist, err := dig(data, "$.list")
	if err != nil {
		return nil, err
	}
	list, ok := jlist.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected cash flow shape: list is %T", jlist)
	}

	rows := make([]CashRow, 0, len(list))
	for _, jrow := range list {
		balance, err := decimal.NewFromString(jstring(jrow, "balance"))
		if err != nil {
			return nil, fmt.Errorf("cash flow: invalid balance: %w", err)
		}
		seconds, err := strconv.ParseInt(jstring(jrow, "business_time"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cash flow: invalid business_time: %w", err)
		}
		rows = append(rows, CashRow{
			FlowName:    jstring(jrow, "transaction_flow_name"),
			Balance:     balance,
			Currency:    jstring(jrow, "currency"),
			Symbol:      jstring(jrow, "symbol"),
			Description: jstring(jrow, "description"),
			Time:        time.Unix(seconds, 0).UTC(),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

var cashColumns = []string{"transaction_flow_name", "balance", "currency", "symbol", "description", "business_time"}

// WriteCashFlowCSV writes the cash-flow history as CSV.
func WriteCashFlowCSV(w io.Writer, rows []CashRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cashColumns); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.FlowName,
			row.Balance.String(),
			row.Currency,
			row.Symbol,
			row.Description,
			row.Time.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCashFlow parses a CSV written by WriteCashFlowCSV.
func ReadCashFlow(r io.Reader) ([]CashRow, error) {
	cr := csv.NewReader(r)
	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read cash flow header: %w", err)
	}
	index := make(map[string]int, len(first))
	for i, name := range first {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range cashColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("cash flow: missing column %q", name)
		}
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
		get := func(name string) string { return strings.TrimSpace(record[index[name]]) }

		balance, err := decimal.NewFromString(get("balance"))
		if err != nil {
			return nil, fmt.Errorf("cash flow line %d: invalid balance: %w", line, err)
		}
		at, err := stocktax.ParseEventTime(get("business_time"))
		if err != nil {
			return nil, fmt.Errorf("cash flow line %d: %w", line, err)
		}

		rows = append(rows, CashRow{
			FlowName:    get("transaction_flow_name"),
			Balance:     balance,
			Currency:    get("currency"),
			Symbol:      get("symbol"),
			Description: get("description"),
			Time:        at,
		})
	}
	return rows, nil
}

// adrSymbolRe extracts the security symbol from an ADR fee description such
// as "BABA.US ADR FEE 2023".
var adrSymbolRe = regexp.MustCompile(`([A-Z0-9]+\.[A-Z]+)\s+ADR`)

// ADRFees extracts the ADR custodian fee lines of the cash flow as
// symbol-scoped fee events. The fee amount is the absolute balance, the
// symbol comes from the symbol column when present and is otherwise extracted
// from the description. Rows whose security cannot be identified are dropped.
func ADRFees(rows []CashRow) []stocktax.FeeEvent {
	var events []stocktax.FeeEvent
	for _, row := range rows {
		if row.FlowName != "ADR Fee" {
			continue
		}
		symbol := row.Symbol
		if symbol == "" {
			m := adrSymbolRe.FindStringSubmatch(row.Description)
			if m == nil {
				continue
			}
			symbol = m[1]
		}
		events = append(events, stocktax.FeeEvent{
			Symbol:   symbol,
			Currency: row.Currency,
			Amount:   stocktax.M(row.Balance.Abs(), row.Currency),
			Time:     row.Time,
		})
	}
	return events
}

// flowNameTranslation localizes the transaction flow names of the yearly
// cash summary.
var flowNameTranslation = map[string]string{
	"Deposit Cash":                        "存入现金",
	"Buy Contract-Stocks":                 "买入合约股票",
	"Currency Conversion (Credit)":        "货币兑换（贷记）",
	"Currency Conversion (Debit)":         "货币兑换（借记）",
	"Stock Trade Fee":                     "股票交易费",
	"Promotion Adjustment Credit":         "促销调整贷记",
	"Sell Contract-Stocks":                "卖出合约股票",
	"Stock Sell Commission":               "股票卖出佣金",
	"Option Purchase Transaction":         "期权购买交易",
	"Option Purchase Fee":                 "期权购买费用",
	"Option Sell Transaction":             "期权卖出交易",
	"Option Sell Fee":                     "期权卖出费用",
	"Debit Interest":                      "借方利息",
	"ADR Fee":                             "美国存托凭证费用",
	"Cash Dividend":                       "现金股息",
	"CO Other FEE":                        "结算其他费用",
	"Exercise Stock Option (Sell Stock)":  "行使股票期权（卖出股票）",
	"Others":                              "其他",
	"Stock Short Sale":                    "股票卖空",
	"Short Selling Interest":              "卖空利息",
	"Placement":                           "配售",
	"Redemption":                          "赎回",
	"Credit Corporate Action Funds":       "公司行为资金贷记",
	"Debit Corporate Action Funds":        "公司行为资金借记",
}

// CashSummaryRow is the total cash moved by one flow name in one year and
// currency.
type CashSummaryRow struct {
	Year     int
	Currency string
	Name     string // translated flow name
	Total    decimal.Decimal
}

// CashSummary totals the cash flow per year, currency and flow name, with
// flow names translated. Rows come out ordered by year, currency, name.
func CashSummary(rows []CashRow) []CashSummaryRow {
	type key struct {
		year     int
		currency string
		name     string
	}
	totals := make(map[key]decimal.Decimal)
	for _, row := range rows {
		name := row.FlowName
		if translated, ok := flowNameTranslation[name]; ok {
			name = translated
		}
		k := key{year: row.Time.Year(), currency: row.Currency, name: name}
		totals[k] = totals[k].Add(row.Balance)
	}

	summary := make([]CashSummaryRow, 0, len(totals))
	for k, total := range totals {
		summary = append(summary, CashSummaryRow{Year: k.year, Currency: k.currency, Name: k.name, Total: total})
	}
	sort.Slice(summary, func(i, j int) bool {
		a, b := summary[i], summary[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.Name < b.Name
	})
	return summary
}
