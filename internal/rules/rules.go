// Package rules provides the versioned reference tables the engine
// computes against: federal brackets, standard deductions, state tax
// rules, RMD divisors, IRMAA thresholds, Medicare base rates, Social
// Security taxation thresholds, and inflation rates. Tables are loaded
// once and immutable afterwards; a lookup that has no entry returns
// MissingEntryError rather than a silent default.
package rules

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
)

// MissingEntryError reports a lookup the loaded tables cannot answer.
// It is a configuration problem, never worked around with defaults.
type MissingEntryError struct {
	Table string
	Key   string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("rules: %s has no entry for %q", e.Table, e.Key)
}

// TaxBracket is one progressive federal bracket. Max is nil for the
// open-ended top bracket.
type TaxBracket struct {
	Min  decimal.Decimal
	Max  *decimal.Decimal
	Rate decimal.Decimal
}

// StandardDeduction is the base deduction plus the additional amount
// per filer aged 65 or older.
type StandardDeduction struct {
	Base             decimal.Decimal
	SeniorAdditional decimal.Decimal
}

// StateTaxRule is a flat-rate state income tax treatment.
type StateTaxRule struct {
	Rate                   decimal.Decimal
	RetirementIncomeExempt bool
	SSTaxed                bool
}

// IRMAABracket is one income-related surcharge tier. Surcharges are
// monthly per-person amounts; thresholds are already scaled per filing
// status in the table.
type IRMAABracket struct {
	MAGIThreshold  decimal.Decimal
	PartBSurcharge decimal.Decimal
	PartDSurcharge decimal.Decimal
}

// MedicareBaseRates are the standard monthly per-person premiums.
type MedicareBaseRates struct {
	PartBMonthly decimal.Decimal
	PartDMonthly decimal.Decimal
}

// SSThresholds are the provisional-income breakpoints for Social
// Security benefit taxation.
type SSThresholds struct {
	Lower decimal.Decimal
	Upper decimal.Decimal
}

// InflationRates are annual compounding rates for cost projections.
type InflationRates struct {
	Medical        decimal.Decimal
	IRMAAThreshold decimal.Decimal
}

// RuleSet is one tax year's complete table set.
type RuleSet struct {
	Year int

	brackets    map[domain.FilingStatus][]TaxBracket
	deductions  map[domain.FilingStatus]StandardDeduction
	states      map[string]StateTaxRule
	rmdDivisors map[int]decimal.Decimal
	irmaa       map[domain.FilingStatus][]IRMAABracket
	medicare    MedicareBaseRates
	ssThresh    map[domain.FilingStatus]SSThresholds
	inflation   InflationRates
}

// Brackets returns the progressive brackets for a filing status,
// ordered by ascending Min.
func (r *RuleSet) Brackets(status domain.FilingStatus) ([]TaxBracket, error) {
	b, ok := r.brackets[status]
	if !ok {
		return nil, &MissingEntryError{Table: "federal_tax_brackets", Key: string(status)}
	}
	return b, nil
}

// Deduction returns the standard deduction rule for a filing status.
func (r *RuleSet) Deduction(status domain.FilingStatus) (StandardDeduction, error) {
	d, ok := r.deductions[status]
	if !ok {
		return StandardDeduction{}, &MissingEntryError{Table: "standard_deductions", Key: string(status)}
	}
	return d, nil
}

// StateRule returns the flat-tax treatment for a state code.
func (r *RuleSet) StateRule(state string) (StateTaxRule, error) {
	s, ok := r.states[state]
	if !ok {
		return StateTaxRule{}, &MissingEntryError{Table: "state_tax_rates", Key: state}
	}
	return s, nil
}

// RMDDivisor returns the Uniform Lifetime Table divisor for an age.
// Ages past the table's top entry reuse the final divisor.
func (r *RuleSet) RMDDivisor(age int) (decimal.Decimal, error) {
	if d, ok := r.rmdDivisors[age]; ok {
		return d, nil
	}
	maxAge := 0
	for a := range r.rmdDivisors {
		if a > maxAge {
			maxAge = a
		}
	}
	if maxAge > 0 && age > maxAge {
		return r.rmdDivisors[maxAge], nil
	}
	return decimal.Zero, &MissingEntryError{Table: "rmd_divisors", Key: fmt.Sprintf("%d", age)}
}

// MinRMDAge returns the youngest age with a divisor entry.
func (r *RuleSet) MinRMDAge() int {
	min := 0
	for a := range r.rmdDivisors {
		if min == 0 || a < min {
			min = a
		}
	}
	return min
}

// IRMAABrackets returns the surcharge tiers for a filing status,
// ordered by ascending threshold.
func (r *RuleSet) IRMAABrackets(status domain.FilingStatus) ([]IRMAABracket, error) {
	b, ok := r.irmaa[status]
	if !ok {
		return nil, &MissingEntryError{Table: "irmaa_thresholds", Key: string(status)}
	}
	return b, nil
}

// Medicare returns the standard monthly premiums.
func (r *RuleSet) Medicare() MedicareBaseRates {
	return r.medicare
}

// SocialSecurityThresholds returns the provisional-income breakpoints.
func (r *RuleSet) SocialSecurityThresholds(status domain.FilingStatus) (SSThresholds, error) {
	t, ok := r.ssThresh[status]
	if !ok {
		return SSThresholds{}, &MissingEntryError{Table: "social_security_thresholds", Key: string(status)}
	}
	return t, nil
}

// Inflation returns the configured cost inflation rates.
func (r *RuleSet) Inflation() InflationRates {
	return r.inflation
}

// earliestRMDStartAge is the youngest start age any birth-year regime
// can assign; the divisor table must reach down to it.
const earliestRMDStartAge = 72

// validateRMDTable rejects divisor tables that would leave an in-range
// age unanswerable: the table must cover the earliest start age and
// have no gaps up to its top entry.
func (r *RuleSet) validateRMDTable() error {
	min := r.MinRMDAge()
	if min == 0 {
		return &MissingEntryError{Table: "rmd_divisors", Key: "any age"}
	}
	if min > earliestRMDStartAge {
		return fmt.Errorf("rules: rmd_divisors starts at age %d, must cover age %d", min, earliestRMDStartAge)
	}
	max := min
	for a := range r.rmdDivisors {
		if a > max {
			max = a
		}
	}
	for a := min; a <= max; a++ {
		if _, ok := r.rmdDivisors[a]; !ok {
			return fmt.Errorf("rules: rmd_divisors has a gap at age %d", a)
		}
	}
	return nil
}

func (r *RuleSet) sortTables() {
	for status := range r.brackets {
		b := r.brackets[status]
		sort.Slice(b, func(i, j int) bool { return b[i].Min.LessThan(b[j].Min) })
		r.brackets[status] = b
	}
	for status := range r.irmaa {
		b := r.irmaa[status]
		sort.Slice(b, func(i, j int) bool {
			return b[i].MAGIThreshold.LessThan(b[j].MAGIThreshold)
		})
		r.irmaa[status] = b
	}
}
