package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/rules"
)

var (
	half         = decimal.RequireFromString("0.5")
	eightyFivePc = decimal.RequireFromString("0.85")
)

// SSTaxCalculator determines the taxable portion of Social Security
// benefits using the provisional-income method.
type SSTaxCalculator struct {
	rules *rules.RuleSet
}

// NewSSTaxCalculator returns a calculator backed by the given tables.
func NewSSTaxCalculator(rs *rules.RuleSet) *SSTaxCalculator {
	return &SSTaxCalculator{rules: rs}
}

// TaxablePortion computes the taxable share of the year's benefits.
// otherIncome is all non-SS ordinary income including the Roth
// conversion; provisional income is otherIncome plus half the benefit.
func (c *SSTaxCalculator) TaxablePortion(benefit, otherIncome decimal.Decimal, status domain.FilingStatus) (decimal.Decimal, error) {
	if !benefit.IsPositive() {
		return decimal.Zero, nil
	}

	thresholds, err := c.rules.SocialSecurityThresholds(status)
	if err != nil {
		return decimal.Zero, err
	}

	provisional := otherIncome.Add(benefit.Mul(half))

	switch {
	case provisional.LessThanOrEqual(thresholds.Lower):
		return decimal.Zero, nil

	case provisional.LessThanOrEqual(thresholds.Upper):
		// Up to 50% of the benefit, limited by the excess over the
		// lower threshold.
		taxable := decimal.Min(
			provisional.Sub(thresholds.Lower).Mul(half),
			benefit.Mul(half),
		)
		return taxable, nil

	default:
		// Up to 85%: the 50%-tier amount plus 85% of the excess over
		// the upper threshold, capped at 85% of the benefit.
		tier1 := decimal.Min(
			thresholds.Upper.Sub(thresholds.Lower).Mul(half),
			benefit.Mul(half),
		)
		tier2 := provisional.Sub(thresholds.Upper).Mul(eightyFivePc)
		return decimal.Min(tier1.Add(tier2), benefit.Mul(eightyFivePc)), nil
	}
}
