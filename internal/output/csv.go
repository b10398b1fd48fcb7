// Package output renders projections and comparisons as CSV, JSON, or
// plain console text.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
)

// WriteCSV renders a projection as one row per year. Account balance
// columns appear in id order so the layout is stable across runs.
func WriteCSV(w io.Writer, p *domain.Projection) error {
	ids := accountIDs(p)

	cw := csv.NewWriter(w)
	header := []string{"year", "primary_age", "conversion", "gross_income", "taxable_ss",
		"agi", "magi", "regular_tax", "conversion_tax", "total_federal_tax", "state_tax",
		"medicare_part_b", "medicare_part_d", "irmaa_surcharge", "irmaa_bracket", "net_income"}
	for _, id := range ids {
		header = append(header, fmt.Sprintf("balance_%s", id), fmt.Sprintf("rmd_%s", id))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range p.Records {
		row := []string{
			fmt.Sprintf("%d", rec.Year),
			fmt.Sprintf("%d", rec.PrimaryAge),
			money(rec.ConversionAmount),
			money(rec.GrossIncome),
			money(rec.TaxableSS),
			money(rec.AGI),
			money(rec.MAGI),
			money(rec.RegularTax),
			money(rec.ConversionTax),
			money(rec.TotalFederalTax),
			money(rec.StateTax),
			money(rec.MedicarePartB),
			money(rec.MedicarePartD),
			money(rec.IRMAASurcharge),
			fmt.Sprintf("%d", rec.IRMAABracket),
			money(rec.NetIncome),
		}
		for _, id := range ids {
			row = append(row, money(rec.EndingBalances[id]), money(rec.RMDs[id]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %d: %w", rec.Year, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func accountIDs(p *domain.Projection) []domain.AccountID {
	seen := make(map[domain.AccountID]bool)
	var ids []domain.AccountID
	for _, rec := range p.Records {
		for id := range rec.EndingBalances {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
