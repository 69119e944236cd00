package stocktax

import (
	"maps"
	"slices"
)

// GainsReport is the yearly realized-gain table: one group per settlement
// currency, one row per symbol, one column per calendar year.
type GainsReport struct {
	Groups []CurrencyGains
}

// CurrencyGains holds all symbols settled in one currency.
type CurrencyGains struct {
	Currency    string
	Years       []int // sorted union of years with realized amounts in this group
	Rows        []SymbolGains
	TotalByYear map[int]Money
	Total       Money
}

// SymbolGains is one report row.
type SymbolGains struct {
	Symbol string
	ByYear map[int]Money
	Total  Money
}

// RealizedIn returns the row's realized amount for a year, zero when none.
func (s SymbolGains) RealizedIn(year int) Money { return s.ByYear[year] }

// YearlyGains assembles the realized-gain report from one or more ledgers.
// Passing several ledgers (one per platform) produces the combined view:
// amounts for the same symbol and currency are merged. Symbols that realized
// nothing are left out.
func YearlyGains(ledgers ...*Ledger) *GainsReport {
	// currency -> symbol -> merged year buckets
	groups := make(map[string]map[string]map[int]Money)
	for _, ledger := range ledgers {
		for pos := range ledger.Positions() {
			byYear := pos.RealizedByYear()
			if len(byYear) == 0 {
				continue
			}
			symbols, ok := groups[pos.Currency()]
			if !ok {
				symbols = make(map[string]map[int]Money)
				groups[pos.Currency()] = symbols
			}
			merged, ok := symbols[pos.Symbol()]
			if !ok {
				merged = make(map[int]Money)
				symbols[pos.Symbol()] = merged
			}
			for year, amount := range byYear {
				merged[year] = merged[year].Add(amount)
			}
		}
	}

	report := &GainsReport{}
	for _, currency := range sortedKeys(groups) {
		symbols := groups[currency]
		group := CurrencyGains{
			Currency:    currency,
			TotalByYear: make(map[int]Money),
			Total:       M(0, currency),
		}

		yearSet := make(map[int]struct{})
		for _, symbol := range sortedKeys(symbols) {
			byYear := symbols[symbol]
			row := SymbolGains{
				Symbol: symbol,
				ByYear: byYear,
				Total:  M(0, currency),
			}
			for year, amount := range byYear {
				yearSet[year] = struct{}{}
				row.Total = row.Total.Add(amount)
				group.TotalByYear[year] = group.TotalByYear[year].Add(amount)
			}
			group.Total = group.Total.Add(row.Total)
			group.Rows = append(group.Rows, row)
		}

		group.Years = slices.Collect(maps.Keys(yearSet))
		slices.Sort(group.Years)
		report.Groups = append(report.Groups, group)
	}
	return report
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}
