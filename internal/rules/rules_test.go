package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rothcast/rothcast/internal/domain"
)

func TestDefaultLoadsAllTables(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 2025, rs.Year)

	brackets, err := rs.Brackets(domain.FilingSingle)
	require.NoError(t, err)
	require.Len(t, brackets, 7)
	assert.True(t, brackets[0].Rate.Equal(decimal.RequireFromString("0.10")))
	assert.Nil(t, brackets[6].Max, "top bracket is open-ended")

	// Brackets arrive sorted by ascending min.
	for i := 1; i < len(brackets); i++ {
		assert.True(t, brackets[i-1].Min.LessThan(brackets[i].Min))
	}

	ded, err := rs.Deduction(domain.FilingSingle)
	require.NoError(t, err)
	assert.True(t, ded.Base.Equal(decimal.NewFromInt(15000)))

	mfjDed, err := rs.Deduction(domain.FilingMarriedFilingJointly)
	require.NoError(t, err)
	assert.True(t, mfjDed.Base.Equal(decimal.NewFromInt(30000)))

	medicare := rs.Medicare()
	assert.True(t, medicare.PartBMonthly.Equal(decimal.RequireFromString("185.00")))
	assert.True(t, medicare.PartDMonthly.Equal(decimal.RequireFromString("71.00")))
}

func TestRMDDivisors(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	tests := []struct {
		age  int
		want string
	}{
		{72, "27.4"},
		{73, "26.5"},
		{85, "16.0"},
		{100, "6.4"},
		{110, "6.0"}, // past the table top reuses the final divisor
	}
	for _, tc := range tests {
		d, err := rs.RMDDivisor(tc.age)
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString(tc.want)), "age %d: got %s want %s", tc.age, d, tc.want)
	}

	assert.Equal(t, 72, rs.MinRMDAge())

	_, err = rs.RMDDivisor(60)
	require.Error(t, err)
	var missing *MissingEntryError
	assert.True(t, errors.As(err, &missing))
}

func TestStateRules(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	pa, err := rs.StateRule("PA")
	require.NoError(t, err)
	assert.True(t, pa.RetirementIncomeExempt)

	ca, err := rs.StateRule("CA")
	require.NoError(t, err)
	assert.False(t, ca.RetirementIncomeExempt)
	assert.True(t, ca.Rate.Equal(decimal.RequireFromString("0.093")))

	_, err = rs.StateRule("ZZ")
	require.Error(t, err)
	var missing *MissingEntryError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "state_tax_rates", missing.Table)
}

func TestIRMAABracketsSorted(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	brackets, err := rs.IRMAABrackets(domain.FilingSingle)
	require.NoError(t, err)
	require.Len(t, brackets, 5)
	assert.True(t, brackets[0].MAGIThreshold.Equal(decimal.NewFromInt(106000)))
	for i := 1; i < len(brackets); i++ {
		assert.True(t, brackets[i-1].MAGIThreshold.LessThan(brackets[i].MAGIThreshold))
	}
}

func TestSSThresholds(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	mfj, err := rs.SocialSecurityThresholds(domain.FilingMarriedFilingJointly)
	require.NoError(t, err)
	assert.True(t, mfj.Lower.Equal(decimal.NewFromInt(32000)))
	assert.True(t, mfj.Upper.Equal(decimal.NewFromInt(44000)))
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(t.TempDir(), 2025)
	require.Error(t, err)
}

func TestLoadRejectsIncompleteDivisorTable(t *testing.T) {
	t.Run("table starts too late", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, Export(dir))
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, "rmd_divisors.csv"),
			[]byte("age,divisor\n80,20.2\n81,19.4\n"),
			0o644,
		))

		_, err := Load(dir, 2025)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must cover age 72")
	})

	t.Run("table has a gap", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, Export(dir))
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, "rmd_divisors.csv"),
			[]byte("age,divisor\n72,27.4\n73,26.5\n75,24.6\n"),
			0o644,
		))

		_, err := Load(dir, 2025)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gap at age 74")
	})
}

func TestExportThenLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Export(dir))

	rs, err := Load(dir, 2025)
	require.NoError(t, err)

	ded, err := rs.Deduction(domain.FilingSingle)
	require.NoError(t, err)
	assert.True(t, ded.Base.Equal(decimal.NewFromInt(15000)))
}
