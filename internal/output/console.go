package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/rothcast/rothcast/internal/domain"
)

// WriteConsole renders a readable year-by-year summary of a projection.
func WriteConsole(w io.Writer, p *domain.Projection) error {
	fmt.Fprintf(w, "%s plan\n", strings.ToUpper(string(p.Plan)[:1])+string(p.Plan)[1:])
	fmt.Fprintf(w, "%-6s %-5s %14s %14s %14s %14s %14s %8s\n",
		"Year", "Age", "Conversion", "MAGI", "Federal Tax", "Medicare", "Net Income", "IRMAA")

	for _, rec := range p.Records {
		fmt.Fprintf(w, "%-6d %-5d %14s %14s %14s %14s %14s %8d\n",
			rec.Year,
			rec.PrimaryAge,
			money(rec.ConversionAmount),
			money(rec.MAGI),
			money(rec.TotalFederalTax),
			money(rec.TotalMedicare()),
			money(rec.NetIncome),
			rec.IRMAABracket,
		)
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range p.Warnings {
			if warn.AccountID != "" {
				fmt.Fprintf(w, "  %d [%s]: %s\n", warn.Year, warn.AccountID, warn.Message)
			} else {
				fmt.Fprintf(w, "  %d: %s\n", warn.Year, warn.Message)
			}
		}
	}
	return nil
}

// WriteComparisonConsole renders the side-by-side lifetime metrics.
func WriteComparisonConsole(w io.Writer, result *domain.ComparisonResult) error {
	fmt.Fprintln(w, "Baseline vs conversion")
	fmt.Fprintf(w, "%-24s %16s %16s %16s %10s\n", "Metric", "Baseline", "Conversion", "Difference", "Change")

	for _, d := range result.Deltas {
		fmt.Fprintf(w, "%-24s %16s %16s %16s %9s%%\n",
			d.Name,
			money(d.Baseline),
			money(d.Conversion),
			money(d.Difference),
			d.PercentChange.StringFixed(1),
		)
	}

	fmt.Fprintln(w)
	if err := WriteConsole(w, result.Baseline); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return WriteConsole(w, result.Conversion)
}
