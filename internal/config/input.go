// Package config loads and validates scenario input files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rothcast/rothcast/internal/domain"
)

// Input is the on-disk scenario document: the scenario itself, the
// account set, and the optional conversion plan.
type Input struct {
	Scenario *domain.Scenario       `yaml:"scenario"`
	Accounts []*domain.Account      `yaml:"accounts"`
	Plan     *domain.ConversionPlan `yaml:"conversion_plan,omitempty"`
}

// InputParser reads scenario YAML and validates it before anything
// reaches the engine.
type InputParser struct{}

// NewInputParser creates a parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile reads, parses, and validates a scenario file.
func (p *InputParser) LoadFromFile(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return p.Parse(data)
}

// Parse decodes and validates scenario YAML.
func (p *InputParser) Parse(data []byte) (*Input, error) {
	var input Input
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := p.Validate(&input); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}
	return &input, nil
}

// Validate checks the full document for internal consistency.
func (p *InputParser) Validate(input *Input) error {
	if err := p.validateScenario(input.Scenario); err != nil {
		return err
	}
	if err := p.validateAccounts(input); err != nil {
		return err
	}
	if input.Plan != nil {
		if err := p.validatePlan(input); err != nil {
			return err
		}
	}
	return nil
}

func (p *InputParser) validateScenario(s *domain.Scenario) error {
	if s == nil {
		return fmt.Errorf("scenario is required")
	}
	if !s.FilingStatus.Valid() {
		return fmt.Errorf("scenario %q: unknown filing status %q", s.Name, s.FilingStatus)
	}
	if s.FilingStatus == domain.FilingMarriedFilingJointly && s.Spouse == nil {
		return fmt.Errorf("scenario %q: married filing jointly requires a spouse", s.Name)
	}
	if s.Primary == nil {
		return fmt.Errorf("scenario %q: primary participant is required", s.Name)
	}
	if s.Primary.BirthYear < 1900 || s.Primary.BirthYear > s.StartYear {
		return fmt.Errorf("scenario %q: implausible primary birth year %d", s.Name, s.Primary.BirthYear)
	}
	if s.Spouse != nil && (s.Spouse.BirthYear < 1900 || s.Spouse.BirthYear > s.StartYear) {
		return fmt.Errorf("scenario %q: implausible spouse birth year %d", s.Name, s.Spouse.BirthYear)
	}
	if s.StartYear <= 0 || s.EndYear <= 0 {
		return fmt.Errorf("scenario %q: start and end years are required", s.Name)
	}
	if s.EndYear < s.StartYear {
		return fmt.Errorf("scenario %q: end year %d precedes start year %d", s.Name, s.EndYear, s.StartYear)
	}
	if s.PreRetirementIncome.IsNegative() {
		return fmt.Errorf("scenario %q: pre-retirement income cannot be negative", s.Name)
	}
	if s.SocialSecurity.AnnualBenefit.IsNegative() {
		return fmt.Errorf("scenario %q: social security benefit cannot be negative", s.Name)
	}
	if s.RothWithdrawal != nil && s.RothWithdrawal.AnnualAmount.IsNegative() {
		return fmt.Errorf("scenario %q: roth withdrawal cannot be negative", s.Name)
	}
	return nil
}

func (p *InputParser) validateAccounts(input *Input) error {
	if len(input.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	seen := make(map[domain.AccountID]bool)
	for i, a := range input.Accounts {
		if a.ID == "" {
			return fmt.Errorf("account %d: id is required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("account %q: duplicate id", a.ID)
		}
		seen[a.ID] = true
		if !a.Kind.Valid() {
			return fmt.Errorf("account %q: unknown kind %q", a.ID, a.Kind)
		}
		if a.OwnedBy == "" {
			a.OwnedBy = domain.OwnerPrimary
		}
		if a.OwnedBy != domain.OwnerPrimary && a.OwnedBy != domain.OwnerSpouse {
			return fmt.Errorf("account %q: unknown owner %q", a.ID, a.OwnedBy)
		}
		if a.OwnedBy == domain.OwnerSpouse && input.Scenario.Spouse == nil {
			return fmt.Errorf("account %q: owned by a spouse the scenario does not have", a.ID)
		}
		if a.StartingBalance.IsNegative() {
			return fmt.Errorf("account %q: starting balance cannot be negative", a.ID)
		}
		if a.WithdrawalAmount.IsNegative() || a.MonthlyIncome.IsNegative() {
			return fmt.Errorf("account %q: withdrawals and income cannot be negative", a.ID)
		}
		if a.WithdrawalEndAge != 0 && a.WithdrawalEndAge < a.WithdrawalStartAge {
			return fmt.Errorf("account %q: withdrawal end age precedes start age", a.ID)
		}
		// A stream with no window would silently never pay.
		if (a.MonthlyIncome.IsPositive() || a.WithdrawalAmount.IsPositive()) && a.WithdrawalStartAge == 0 {
			return fmt.Errorf("account %q: monthly income or withdrawals require a withdrawal start age", a.ID)
		}
	}
	return nil
}

func (p *InputParser) validatePlan(input *Input) error {
	plan := input.Plan
	if err := plan.Validate(); err != nil {
		return err
	}

	byID := make(map[domain.AccountID]*domain.Account)
	for _, a := range input.Accounts {
		byID[a.ID] = a
	}
	for _, src := range plan.SourceAccountIDs {
		a, ok := byID[src]
		if !ok {
			return fmt.Errorf("conversion plan: unknown source account %q", src)
		}
		if a.Kind != domain.KindPreTax {
			return fmt.Errorf("conversion plan: source account %q is not pre-tax", src)
		}
	}
	if plan.DestinationAccountID != "" {
		a, ok := byID[plan.DestinationAccountID]
		if !ok {
			return fmt.Errorf("conversion plan: unknown destination account %q", plan.DestinationAccountID)
		}
		if a.Kind != domain.KindRoth {
			return fmt.Errorf("conversion plan: destination account %q is not a Roth account", plan.DestinationAccountID)
		}
	}
	if plan.StartYear < input.Scenario.StartYear || plan.StartYear > input.Scenario.EndYear {
		return fmt.Errorf("conversion plan: start year %d outside the simulated range", plan.StartYear)
	}
	return nil
}
