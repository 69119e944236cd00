package stocktax

import (
	"regexp"
	"strconv"
	"time"

	"github.com/binsu996/stock-tax-calculator/date"
)

// Option symbols embed a 6-digit YYMMDD expiry followed by a C/P flag and the
// strike, e.g. "AAPL240119C190000" or "TSLA240119C250000.US". Some brokers
// append a region suffix after the strike.
var optionSymbolRe = regexp.MustCompile(`(\d{6})[CP]\d+(\.\d+)?(\.[A-Z]+)?$`)

// ParseOptionExpiry extracts the expiry date embedded in an option symbol.
// Two-digit years of 50 and above map to the 1900s, the rest to the 2000s.
// A symbol that does not match is an ordinary instrument: no expiry, contract
// multiplier 1, never expiry-processed.
func ParseOptionExpiry(symbol string) (date.Date, bool) {
	m := optionSymbolRe.FindStringSubmatch(symbol)
	if m == nil {
		return date.Date{}, false
	}
	yy, _ := strconv.Atoi(m[1][0:2])
	mm, _ := strconv.Atoi(m[1][2:4])
	dd, _ := strconv.Atoi(m[1][4:6])

	year := 2000 + yy
	if yy >= 50 {
		year = 1900 + yy
	}

	// date.New normalizes overflowing components; a changed round-trip means
	// the six digits were not a real calendar date.
	d := date.New(year, time.Month(mm), dd)
	if d.Year() != year || int(d.Month()) != mm || d.Day() != dd {
		return date.Date{}, false
	}
	return d, true
}
