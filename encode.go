package stocktax

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// this file contains the flat tabular export of the realized-gain table.
// It should remain a plain CSV that spreadsheets and scripts can consume.

// ExportGainsCSV writes the report as tidy CSV: one line per
// (currency, symbol, year) with the realized amount as a plain decimal.
func ExportGainsCSV(w io.Writer, report *GainsReport) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"currency", "symbol", "year", "realized"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, group := range report.Groups {
		for _, row := range group.Rows {
			for _, year := range group.Years {
				amount, ok := row.ByYear[year]
				if !ok {
					continue
				}
				record := []string{
					group.Currency,
					row.Symbol,
					strconv.Itoa(year),
					amount.Decimal().String(),
				}
				if err := cw.Write(record); err != nil {
					return fmt.Errorf("write row for %s %d: %w", row.Symbol, year, err)
				}
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
