package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/rules"
)

func testRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Default()
	require.NoError(t, err)
	return rs
}

func TestRMDStartAge(t *testing.T) {
	c := NewRMDCalculator(testRules(t))

	tests := []struct {
		birthYear int
		want      int
	}{
		{1945, 72},
		{1950, 72},
		{1951, 73},
		{1955, 73},
		{1959, 73},
		{1960, 75},
		{1975, 75},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, c.StartAge(tc.birthYear), "birth year %d", tc.birthYear)
	}
}

func TestRMDCalculate(t *testing.T) {
	c := NewRMDCalculator(testRules(t))
	pretax := &domain.Account{ID: "ira", Kind: domain.KindPreTax}
	roth := &domain.Account{ID: "roth", Kind: domain.KindRoth}

	t.Run("divisor applied at start age", func(t *testing.T) {
		// 50,000 / 26.5
		rmd, err := c.Calculate(pretax, decimal.NewFromInt(50000), 73, 1952)
		require.NoError(t, err)
		assert.True(t, rmd.Round(2).Equal(decimal.RequireFromString("1886.79")), "got %s", rmd)
	})

	t.Run("under start age", func(t *testing.T) {
		rmd, err := c.Calculate(pretax, decimal.NewFromInt(50000), 72, 1952)
		require.NoError(t, err)
		assert.True(t, rmd.IsZero())
	})

	t.Run("roth never has RMDs", func(t *testing.T) {
		rmd, err := c.Calculate(roth, decimal.NewFromInt(50000), 80, 1945)
		require.NoError(t, err)
		assert.True(t, rmd.IsZero())
	})

	t.Run("zero balance", func(t *testing.T) {
		rmd, err := c.Calculate(pretax, decimal.Zero, 80, 1945)
		require.NoError(t, err)
		assert.True(t, rmd.IsZero())
	})

	t.Run("very old ages reuse the top divisor", func(t *testing.T) {
		rmd, err := c.Calculate(pretax, decimal.NewFromInt(60000), 107, 1920)
		require.NoError(t, err)
		// 60,000 / 6.0
		assert.True(t, rmd.Equal(decimal.NewFromInt(10000)), "got %s", rmd)
	})

	t.Run("never exceeds balance", func(t *testing.T) {
		rmd, err := c.Calculate(pretax, decimal.RequireFromString("0.01"), 95, 1930)
		require.NoError(t, err)
		assert.True(t, rmd.LessThanOrEqual(decimal.RequireFromString("0.01")))
	})
}
