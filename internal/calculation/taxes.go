package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/rules"
)

// TaxResult is one year's complete federal and state tax picture.
// ConversionTax is the incremental federal tax attributable to the
// year's Roth conversion: the full-income tax minus the tax the same
// year would owe without the conversion, never negative.
type TaxResult struct {
	AGI               decimal.Decimal
	MAGI              decimal.Decimal
	StandardDeduction decimal.Decimal
	TaxableIncome     decimal.Decimal
	RegularTax        decimal.Decimal
	TotalTax          decimal.Decimal
	ConversionTax     decimal.Decimal
	StateTax          decimal.Decimal
	MarginalRate      decimal.Decimal
	EffectiveRate     decimal.Decimal
}

// TaxCalculator computes progressive federal tax and flat state tax
// from the loaded rule tables.
type TaxCalculator struct {
	rules *rules.RuleSet
}

// NewTaxCalculator returns a calculator backed by the given tables.
func NewTaxCalculator(rs *rules.RuleSet) *TaxCalculator {
	return &TaxCalculator{rules: rs}
}

// Compute produces the year's tax result. grossOrdinary is all
// ordinary income except Social Security and the conversion (RMDs,
// pensions, salary); taxableSS is the taxable portion of benefits;
// seniors counts filers aged 65+ for the additional deduction.
func (c *TaxCalculator) Compute(grossOrdinary, taxableSS, conversion decimal.Decimal, status domain.FilingStatus, state string, seniors int) (TaxResult, error) {
	ded, err := c.rules.Deduction(status)
	if err != nil {
		return TaxResult{}, err
	}
	deduction := ded.Base.Add(ded.SeniorAdditional.Mul(decimal.NewFromInt(int64(seniors))))

	agi := grossOrdinary.Add(taxableSS).Add(conversion)
	taxable := agi.Sub(deduction)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	totalTax, marginal, err := c.bracketTax(taxable, status)
	if err != nil {
		return TaxResult{}, err
	}

	regularTaxable := agi.Sub(conversion).Sub(deduction)
	if regularTaxable.IsNegative() {
		regularTaxable = decimal.Zero
	}
	regularTax, _, err := c.bracketTax(regularTaxable, status)
	if err != nil {
		return TaxResult{}, err
	}

	conversionTax := totalTax.Sub(regularTax)
	if conversionTax.IsNegative() {
		conversionTax = decimal.Zero
	}

	// Effective rate is tax against gross income, not AGI: in a
	// conversion year the AGI denominator would understate the rate.
	effective := decimal.Zero
	if grossOrdinary.IsPositive() {
		effective = totalTax.Div(grossOrdinary)
	}

	stateTax, err := c.stateTax(agi, taxableSS, state)
	if err != nil {
		return TaxResult{}, err
	}

	return TaxResult{
		AGI:               agi,
		MAGI:              agi,
		StandardDeduction: deduction,
		TaxableIncome:     taxable,
		RegularTax:        regularTax,
		TotalTax:          totalTax,
		ConversionTax:     conversionTax,
		StateTax:          stateTax,
		MarginalRate:      marginal,
		EffectiveRate:     effective,
	}, nil
}

// bracketTax walks the progressive brackets and returns the tax owed
// plus the marginal rate of the bracket the income tops out in.
func (c *TaxCalculator) bracketTax(taxable decimal.Decimal, status domain.FilingStatus) (decimal.Decimal, decimal.Decimal, error) {
	brackets, err := c.rules.Brackets(status)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if len(brackets) == 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("no tax brackets for filing status %q", status)
	}

	tax := decimal.Zero
	marginal := brackets[0].Rate
	for _, b := range brackets {
		if taxable.LessThanOrEqual(b.Min) {
			break
		}
		upper := taxable
		if b.Max != nil && upper.GreaterThan(*b.Max) {
			upper = *b.Max
		}
		tax = tax.Add(upper.Sub(b.Min).Mul(b.Rate))
		marginal = b.Rate
	}
	return tax, marginal, nil
}

// stateTax applies the flat-rate rules: retirement-exempt states owe
// nothing on retirement-phase income, and states that do not tax
// Social Security exclude the taxable SS portion from the base.
func (c *TaxCalculator) stateTax(agi, taxableSS decimal.Decimal, state string) (decimal.Decimal, error) {
	if state == "" {
		return decimal.Zero, nil
	}
	rule, err := c.rules.StateRule(state)
	if err != nil {
		return decimal.Zero, err
	}
	if rule.RetirementIncomeExempt || !rule.Rate.IsPositive() {
		return decimal.Zero, nil
	}
	base := agi
	if !rule.SSTaxed {
		base = base.Sub(taxableSS)
	}
	if base.IsNegative() {
		base = decimal.Zero
	}
	return base.Mul(rule.Rate), nil
}
