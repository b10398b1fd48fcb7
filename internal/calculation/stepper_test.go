package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rothcast/rothcast/internal/domain"
)

func testStepper(t *testing.T) *Stepper {
	t.Helper()
	return NewStepper(NewRMDCalculator(testRules(t)))
}

func TestStepOrdering(t *testing.T) {
	s := testStepper(t)
	account := &domain.Account{
		ID:         "ira",
		Kind:       domain.KindPreTax,
		GrowthRate: decimal.RequireFromString("0.06"),
	}

	t.Run("conversion before growth", func(t *testing.T) {
		// (2,000,000 - 500,000) * 1.06 = 1,590,000
		res, err := s.Step(account, decimal.NewFromInt(2000000), decimal.NewFromInt(500000), decimal.Zero, 55, 1970)
		require.NoError(t, err)
		assert.True(t, res.EndingBalance.Equal(decimal.NewFromInt(1590000)), "got %s", res.EndingBalance)
		assert.True(t, res.RMD.IsZero())
	})

	t.Run("RMD on the grown balance", func(t *testing.T) {
		// 100,000 * 1.06 = 106,000; RMD = 106,000 / 26.5 = 4,000
		res, err := s.Step(account, decimal.NewFromInt(100000), decimal.Zero, decimal.Zero, 73, 1952)
		require.NoError(t, err)
		assert.True(t, res.RMD.Equal(decimal.NewFromInt(4000)), "got %s", res.RMD)
		assert.True(t, res.EndingBalance.Equal(decimal.NewFromInt(102000)), "got %s", res.EndingBalance)
	})

	t.Run("zero stays zero", func(t *testing.T) {
		res, err := s.Step(account, decimal.Zero, decimal.Zero, decimal.Zero, 80, 1945)
		require.NoError(t, err)
		assert.True(t, res.EndingBalance.IsZero())
		assert.True(t, res.RMD.IsZero())
	})

	t.Run("conversion above balance rejected", func(t *testing.T) {
		_, err := s.Step(account, decimal.NewFromInt(1000), decimal.NewFromInt(2000), decimal.Zero, 55, 1970)
		assert.Error(t, err)
	})

	t.Run("withdrawal capped at funds", func(t *testing.T) {
		res, err := s.Step(account, decimal.NewFromInt(1000), decimal.Zero, decimal.NewFromInt(5000), 55, 1970)
		require.NoError(t, err)
		assert.True(t, res.EndingBalance.IsZero())
		assert.True(t, res.Withdrawal.Equal(decimal.NewFromInt(1060)), "got %s", res.Withdrawal)
	})
}
