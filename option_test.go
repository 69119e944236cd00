package stocktax

import (
	"testing"
	"time"

	"github.com/binsu996/stock-tax-calculator/date"
)

func TestParseOptionExpiry(t *testing.T) {
	testCases := []struct {
		symbol   string
		want     date.Date
		isOption bool
	}{
		{symbol: "AAPL240119C190000", want: date.New(2024, time.January, 19), isOption: true},
		{symbol: "TCH231228P300000", want: date.New(2023, time.December, 28), isOption: true},
		{symbol: "US.NVDA250620C120000", want: date.New(2025, time.June, 20), isOption: true},
		// Region suffix after the strike.
		{symbol: "TSLA240119C250000.US", want: date.New(2024, time.January, 19), isOption: true},
		// Fractional strike.
		{symbol: "XYZ240315C12.5", want: date.New(2024, time.March, 15), isOption: true},
		// Two-digit years of 50 and above map to the 1900s.
		{symbol: "OLD991231C100", want: date.New(1999, time.December, 31), isOption: true},
		{symbol: "OLD500101P100", want: date.New(1950, time.January, 1), isOption: true},
		{symbol: "NEW490101P100", want: date.New(2049, time.January, 1), isOption: true},
		// Plain instruments.
		{symbol: "AAPL"},
		{symbol: "0700.HK"},
		{symbol: "FEE-USD"},
		// Six digits that are not a calendar date.
		{symbol: "XYZ241350C100"},
		{symbol: "XYZ240132P100"},
		// C/P flag missing.
		{symbol: "XYZ240119X190000"},
	}

	for _, tc := range testCases {
		t.Run(tc.symbol, func(t *testing.T) {
			got, isOption := ParseOptionExpiry(tc.symbol)
			if isOption != tc.isOption {
				t.Fatalf("ParseOptionExpiry(%q) isOption = %v, want %v", tc.symbol, isOption, tc.isOption)
			}
			if tc.isOption && got != tc.want {
				t.Errorf("ParseOptionExpiry(%q) = %v, want %v", tc.symbol, got, tc.want)
			}
		})
	}
}
