package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rothcast/rothcast/internal/domain"
)

const validYAML = `
scenario:
  name: sample
  filing_status: married_filing_jointly
  state: PA
  primary:
    name: Alex
    birth_year: 1958
  spouse:
    name: Sam
    birth_year: 1960
  start_year: 2025
  end_year: 2045
  retirement_year: 2025
  social_security:
    annual_benefit: 36000
    start_age: 67
accounts:
  - id: ira-alex
    name: Alex Traditional IRA
    kind: pretax
    owned_by: primary
    starting_balance: 1200000
    growth_rate: 0.06
  - id: roth-alex
    name: Alex Roth IRA
    kind: roth
    owned_by: primary
    starting_balance: 50000
    growth_rate: 0.06
conversion_plan:
  source_account_ids: [ira-alex]
  destination_account_id: roth-alex
  total_amount: 400000
  start_year: 2026
  duration_years: 4
`

func TestParseValidInput(t *testing.T) {
	p := NewInputParser()
	input, err := p.Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "sample", input.Scenario.Name)
	assert.Equal(t, domain.FilingMarriedFilingJointly, input.Scenario.FilingStatus)
	require.Len(t, input.Accounts, 2)
	assert.True(t, input.Accounts[0].StartingBalance.Equal(decimal.NewFromInt(1200000)))
	assert.Equal(t, domain.KindPreTax, input.Accounts[0].Kind)
	require.NotNil(t, input.Plan)
	assert.Equal(t, 4, input.Plan.DurationYears)
	assert.Equal(t, domain.AccountID("roth-alex"), input.Plan.DestinationAccountID)
}

func TestValidationFailures(t *testing.T) {
	base := func() *Input {
		p := NewInputParser()
		input, err := p.Parse([]byte(validYAML))
		if err != nil {
			t.Fatal(err)
		}
		return input
	}

	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr string
	}{
		{
			"mfj without spouse",
			func(in *Input) { in.Scenario.Spouse = nil },
			"requires a spouse",
		},
		{
			"unknown filing status",
			func(in *Input) { in.Scenario.FilingStatus = "head_of_household" },
			"unknown filing status",
		},
		{
			"end before start",
			func(in *Input) { in.Scenario.EndYear = 2020 },
			"precedes start year",
		},
		{
			"no accounts",
			func(in *Input) { in.Accounts = nil },
			"at least one account",
		},
		{
			"duplicate account id",
			func(in *Input) { in.Accounts[1].ID = in.Accounts[0].ID },
			"duplicate id",
		},
		{
			"bad account kind",
			func(in *Input) { in.Accounts[0].Kind = "hsa" },
			"unknown kind",
		},
		{
			"negative balance",
			func(in *Input) { in.Accounts[0].StartingBalance = decimal.NewFromInt(-1) },
			"cannot be negative",
		},
		{
			"income stream without an age window",
			func(in *Input) { in.Accounts[0].MonthlyIncome = decimal.NewFromInt(2000) },
			"require a withdrawal start age",
		},
		{
			"fixed withdrawal without an age window",
			func(in *Input) { in.Accounts[0].WithdrawalAmount = decimal.NewFromInt(10000) },
			"require a withdrawal start age",
		},
		{
			"plan source missing",
			func(in *Input) { in.Plan.SourceAccountIDs = []domain.AccountID{"nope"} },
			"unknown source account",
		},
		{
			"plan source not pretax",
			func(in *Input) { in.Plan.SourceAccountIDs = []domain.AccountID{"roth-alex"} },
			"not pre-tax",
		},
		{
			"plan destination not roth",
			func(in *Input) { in.Plan.DestinationAccountID = "ira-alex" },
			"not a Roth account",
		},
		{
			"plan outside simulated range",
			func(in *Input) { in.Plan.StartYear = 2050 },
			"outside the simulated range",
		},
		{
			"zero duration",
			func(in *Input) { in.Plan.DurationYears = 0 },
			"duration",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := base()
			tc.mutate(input)
			err := NewInputParser().Validate(input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := NewInputParser().Parse([]byte("scenario: [not a mapping"))
	assert.Error(t, err)
}

func TestOwnerDefaultsToPrimary(t *testing.T) {
	p := NewInputParser()
	input, err := p.Parse([]byte(validYAML))
	require.NoError(t, err)

	input.Accounts[0].OwnedBy = ""
	require.NoError(t, p.Validate(input))
	assert.Equal(t, domain.OwnerPrimary, input.Accounts[0].OwnedBy)
}
