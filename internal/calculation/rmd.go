// Package calculation implements the projection engine: RMD rules,
// conversion scheduling, the balance stepper, federal/state tax,
// Social Security taxation, Medicare/IRMAA, and the year-by-year
// driver that ties them together.
package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/rules"
)

// RMDCalculator computes required minimum distributions from the
// Uniform Lifetime Table carried in the rule set.
type RMDCalculator struct {
	rules *rules.RuleSet
}

// NewRMDCalculator returns a calculator backed by the given tables.
func NewRMDCalculator(rs *rules.RuleSet) *RMDCalculator {
	return &RMDCalculator{rules: rs}
}

// StartAge returns the age RMDs begin for an owner, per the SECURE 2.0
// birth-year schedule.
func (c *RMDCalculator) StartAge(birthYear int) int {
	switch {
	case birthYear <= 1950:
		return 72
	case birthYear <= 1959:
		return 73
	default:
		return 75
	}
}

// Calculate returns the required distribution for an account in a
// year. Non-eligible kinds, zero balances, and owners under their
// start age all produce zero. The result never exceeds the balance.
func (c *RMDCalculator) Calculate(account *domain.Account, balance decimal.Decimal, age, birthYear int) (decimal.Decimal, error) {
	if !account.RMDEligible() || !balance.IsPositive() {
		return decimal.Zero, nil
	}
	if age < c.StartAge(birthYear) {
		return decimal.Zero, nil
	}

	divisor, err := c.rules.RMDDivisor(age)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rmd for account %q at age %d: %w", account.ID, age, err)
	}

	rmd := balance.Div(divisor)
	if rmd.GreaterThan(balance) {
		rmd = balance
	}
	return rmd, nil
}
