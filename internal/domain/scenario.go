package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FilingStatus mirrors federal filing categories the tax tables key on.
type FilingStatus string

const (
	FilingSingle               FilingStatus = "single"
	FilingMarriedFilingJointly FilingStatus = "married_filing_jointly"
)

// Valid reports whether the status is a recognized filing category.
func (s FilingStatus) Valid() bool {
	return s == FilingSingle || s == FilingMarriedFilingJointly
}

// Participant is one owner in the scenario (primary or spouse).
type Participant struct {
	Name      string `yaml:"name"`
	BirthYear int    `yaml:"birth_year"`
}

// AgeIn returns the participant's age attained during the given year.
func (p *Participant) AgeIn(year int) int {
	return year - p.BirthYear
}

// SocialSecurityInput is a participant-level benefit definition.
type SocialSecurityInput struct {
	AnnualBenefit decimal.Decimal `yaml:"annual_benefit"`
	StartAge      int             `yaml:"start_age"`
}

// RothWithdrawalInput is a fixed annual draw against the conversion
// destination account. The start year is deferred past the conversion
// window when it would overlap it.
type RothWithdrawalInput struct {
	AnnualAmount decimal.Decimal `yaml:"annual_amount"`
	StartYear    int             `yaml:"start_year"`
}

// InflationInput holds the compounding rates applied to Medicare costs
// and IRMAA thresholds. Zero values mean no inflation.
type InflationInput struct {
	MedicalRate        decimal.Decimal `yaml:"medical_rate"`
	IRMAAThresholdRate decimal.Decimal `yaml:"irmaa_threshold_rate"`
}

// Scenario is the full projection input, minus the accounts and plan
// which travel separately so plan runs can clone their own account sets.
type Scenario struct {
	Name         string       `yaml:"name"`
	FilingStatus FilingStatus `yaml:"filing_status"`
	State        string       `yaml:"state"`

	Primary *Participant `yaml:"primary"`
	Spouse  *Participant `yaml:"spouse,omitempty"`

	StartYear      int `yaml:"start_year"`
	EndYear        int `yaml:"end_year"`
	RetirementYear int `yaml:"retirement_year"`

	// PreRetirementIncome is annual salary income counted in years
	// before RetirementYear.
	PreRetirementIncome decimal.Decimal `yaml:"pre_retirement_income"`

	SocialSecurity SocialSecurityInput  `yaml:"social_security"`
	RothWithdrawal *RothWithdrawalInput `yaml:"roth_withdrawal,omitempty"`
	Inflation      InflationInput       `yaml:"inflation"`
}

// Years returns the number of simulated years, inclusive of both ends.
func (s *Scenario) Years() int {
	return s.EndYear - s.StartYear + 1
}

// IsRetired reports whether the given year is at or past retirement.
func (s *Scenario) IsRetired(year int) bool {
	return year >= s.RetirementYear
}

// ConversionPlan describes a multi-year Roth conversion: a total amount
// drawn from the source accounts in equal installments over the
// duration, deposited into the destination account.
type ConversionPlan struct {
	SourceAccountIDs     []AccountID     `yaml:"source_account_ids"`
	DestinationAccountID AccountID       `yaml:"destination_account_id"`
	TotalAmount          decimal.Decimal `yaml:"total_amount"`
	StartYear            int             `yaml:"start_year"`
	DurationYears        int             `yaml:"duration_years"`

	// AnnualCap limits the per-year installment when positive. The
	// schedule stretches so the remaining total still converts.
	AnnualCap decimal.Decimal `yaml:"annual_cap,omitempty"`
}

// EndYear returns the last year of the nominal duration. A binding
// AnnualCap stretches the actual schedule past it; the scheduler owns
// the stretched window.
func (p *ConversionPlan) EndYear() int {
	return p.StartYear + p.DurationYears - 1
}

// Covers reports whether the year falls inside the nominal window.
func (p *ConversionPlan) Covers(year int) bool {
	return year >= p.StartYear && year <= p.EndYear()
}

// Validate checks internal consistency; account-reference checks happen
// in the config parser where the account set is known.
func (p *ConversionPlan) Validate() error {
	if len(p.SourceAccountIDs) == 0 {
		return fmt.Errorf("conversion plan: at least one source account is required")
	}
	if p.TotalAmount.IsNegative() {
		return fmt.Errorf("conversion plan: total amount cannot be negative")
	}
	if p.DurationYears < 1 {
		return fmt.Errorf("conversion plan: duration must be at least 1 year, got %d", p.DurationYears)
	}
	if p.AnnualCap.IsNegative() {
		return fmt.Errorf("conversion plan: annual cap cannot be negative")
	}
	return nil
}
