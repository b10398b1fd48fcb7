package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
)

// StepResult is one account's year transition.
type StepResult struct {
	EndingBalance decimal.Decimal
	Conversion    decimal.Decimal
	RMD           decimal.Decimal
	Withdrawal    decimal.Decimal
	Clamped       bool
}

// Stepper advances an account balance through one year. Every balance
// update in the engine flows through Step so the ordering is applied
// exactly once, in one place:
//
//	subtract conversion -> grow the remainder -> RMD on the grown
//	balance -> subtract RMD and fixed withdrawal -> clamp at zero
type Stepper struct {
	rmd *RMDCalculator
}

// NewStepper returns a stepper using the given RMD calculator.
func NewStepper(rmd *RMDCalculator) *Stepper {
	return &Stepper{rmd: rmd}
}

// Step transitions an account from its prior end-of-year balance.
// conversion must already be capped at the prior balance by the
// scheduler; withdrawal is the account's fixed annual draw (zero when
// the owner is outside the withdrawal age window).
func (s *Stepper) Step(account *domain.Account, prior, conversion, withdrawal decimal.Decimal, age, birthYear int) (StepResult, error) {
	if conversion.GreaterThan(prior) {
		return StepResult{}, fmt.Errorf("step account %q: conversion %s exceeds balance %s", account.ID, conversion, prior)
	}

	remaining := prior.Sub(conversion)
	grown := remaining.Mul(decimal.NewFromInt(1).Add(account.GrowthRate))

	rmd, err := s.rmd.Calculate(account, grown, age, birthYear)
	if err != nil {
		return StepResult{}, err
	}

	afterRMD := grown.Sub(rmd)
	if withdrawal.GreaterThan(afterRMD) {
		// Fixed draws stop at the money that exists.
		withdrawal = afterRMD
		if withdrawal.IsNegative() {
			withdrawal = decimal.Zero
		}
	}

	ending := afterRMD.Sub(withdrawal)
	clamped := false
	if ending.IsNegative() {
		ending = decimal.Zero
		clamped = true
	}

	return StepResult{
		EndingBalance: ending,
		Conversion:    conversion,
		RMD:           rmd,
		Withdrawal:    withdrawal,
		Clamped:       clamped,
	}, nil
}
