package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountID identifies an account for the life of a projection. Ids are
// unique across real and synthetic accounts; a synthetic destination
// account minted by the engine can never collide with a configured id.
type AccountID string

// AccountKind categorizes an account for tax and RMD purposes.
type AccountKind string

const (
	// KindPreTax covers traditional IRA / 401(k) style accounts:
	// withdrawals are taxable and RMDs apply.
	KindPreTax AccountKind = "pretax"
	// KindRoth covers Roth style accounts: no RMDs, withdrawals tax-free.
	KindRoth AccountKind = "roth"
	// KindTaxable covers ordinary brokerage/savings accounts.
	KindTaxable AccountKind = "taxable"
)

// Valid reports whether the kind is one of the recognized categories.
func (k AccountKind) Valid() bool {
	switch k {
	case KindPreTax, KindRoth, KindTaxable:
		return true
	}
	return false
}

// Owner designates which scenario participant owns an account.
type Owner string

const (
	OwnerPrimary Owner = "primary"
	OwnerSpouse  Owner = "spouse"
)

// Account is a single retirement or investment account. Identity and
// starting state come from scenario input and are read-only thereafter;
// per-year balances live in the ledger, never here.
type Account struct {
	ID              AccountID       `yaml:"id"`
	Name            string          `yaml:"name"`
	Kind            AccountKind     `yaml:"kind"`
	OwnedBy         Owner           `yaml:"owned_by"`
	StartingBalance decimal.Decimal `yaml:"starting_balance"`
	GrowthRate      decimal.Decimal `yaml:"growth_rate"`

	// MonthlyIncome is a fixed income stream (pension-like) paid while
	// the owner's age is within [WithdrawalStartAge, WithdrawalEndAge].
	MonthlyIncome      decimal.Decimal `yaml:"monthly_income"`
	WithdrawalStartAge int             `yaml:"withdrawal_start_age"`
	WithdrawalEndAge   int             `yaml:"withdrawal_end_age"`

	// WithdrawalAmount is a fixed annual balance withdrawal, active in
	// the same age window as MonthlyIncome.
	WithdrawalAmount decimal.Decimal `yaml:"withdrawal_amount"`

	// Synthetic marks engine-minted accounts (the Roth conversion
	// destination). Synthetic accounts never appear in scenario input.
	Synthetic bool `yaml:"-"`
}

// RMDEligible reports whether the account is subject to required
// minimum distributions.
func (a *Account) RMDEligible() bool {
	return a.Kind == KindPreTax
}

// Clone returns an independent copy. Each plan run gets its own copy so
// baseline and conversion projections can never share mutable state.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// CloneAccounts deep-copies a slice of accounts.
func CloneAccounts(accounts []*Account) []*Account {
	out := make([]*Account, len(accounts))
	for i, a := range accounts {
		out[i] = a.Clone()
	}
	return out
}

// NewSyntheticRothAccount mints the destination account for a
// conversion plan. The id is a name-based uuid derived from the plan's
// source account ids: it lives in its own namespace so it cannot
// collide with configured ids, and identical inputs always mint the
// identical id, keeping projection output reproducible.
func NewSyntheticRothAccount(growthRate decimal.Decimal, sources []AccountID) *Account {
	parts := make([]string, len(sources))
	for i, id := range sources {
		parts[i] = string(id)
	}
	sort.Strings(parts)
	seed := "rothcast://conversion-destination/" + strings.Join(parts, ",")
	return &Account{
		ID:         AccountID(fmt.Sprintf("roth-%s", uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)))),
		Name:       "Converted Roth IRA",
		Kind:       KindRoth,
		OwnedBy:    OwnerPrimary,
		GrowthRate: growthRate,
		Synthetic:  true,
	}
}
