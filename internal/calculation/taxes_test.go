package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rothcast/rothcast/internal/domain"
)

func TestComputeSingleNoConversion(t *testing.T) {
	c := NewTaxCalculator(testRules(t))

	// 50,000 gross, standard deduction 15,000 -> 35,000 taxable.
	// 11,925 * 0.10 + 23,075 * 0.12 = 3,961.50
	res, err := c.Compute(decimal.NewFromInt(50000), decimal.Zero, decimal.Zero, domain.FilingSingle, "", 0)
	require.NoError(t, err)

	assert.True(t, res.StandardDeduction.Equal(decimal.NewFromInt(15000)))
	assert.True(t, res.TaxableIncome.Equal(decimal.NewFromInt(35000)))
	assert.True(t, res.TotalTax.Equal(decimal.RequireFromString("3961.50")), "got %s", res.TotalTax)
	assert.True(t, res.ConversionTax.IsZero())
	assert.True(t, res.RegularTax.Equal(res.TotalTax))
	assert.True(t, res.MarginalRate.Equal(decimal.RequireFromString("0.12")))
	assert.True(t, res.MAGI.Equal(res.AGI))
	// 3,961.50 / 50,000
	assert.True(t, res.EffectiveRate.Equal(decimal.RequireFromString("0.07923")), "got %s", res.EffectiveRate)
}

func TestEffectiveRateUsesGrossIncome(t *testing.T) {
	c := NewTaxCalculator(testRules(t))

	// The denominator is gross income, so a conversion year reports
	// the full bite against what the filer actually lives on:
	// 13,614 / 40,000, not 13,614 / 100,000.
	res, err := c.Compute(decimal.NewFromInt(40000), decimal.Zero, decimal.NewFromInt(60000), domain.FilingSingle, "", 0)
	require.NoError(t, err)
	assert.True(t, res.EffectiveRate.Equal(decimal.RequireFromString("0.34035")), "got %s", res.EffectiveRate)

	// Conversion-only income has a zero gross base and a guarded rate.
	res, err = c.Compute(decimal.Zero, decimal.Zero, decimal.NewFromInt(60000), domain.FilingSingle, "", 0)
	require.NoError(t, err)
	assert.True(t, res.TotalTax.IsPositive())
	assert.True(t, res.EffectiveRate.IsZero())
}

func TestComputeConversionAttribution(t *testing.T) {
	c := NewTaxCalculator(testRules(t))

	// Gross 40,000 plus a 60,000 conversion, single filer.
	res, err := c.Compute(decimal.NewFromInt(40000), decimal.Zero, decimal.NewFromInt(60000), domain.FilingSingle, "", 0)
	require.NoError(t, err)

	// Full income: 85,000 taxable -> 1,192.50 + 4,386 + 8,035.50 = 13,614
	assert.True(t, res.TotalTax.Equal(decimal.NewFromInt(13614)), "got %s", res.TotalTax)
	// Without conversion: 25,000 taxable -> 2,761.50
	assert.True(t, res.RegularTax.Equal(decimal.RequireFromString("2761.50")), "got %s", res.RegularTax)
	assert.True(t, res.ConversionTax.Equal(decimal.RequireFromString("10852.50")), "got %s", res.ConversionTax)
	assert.True(t, res.AGI.Equal(decimal.NewFromInt(100000)))
}

func TestComputeZeroIncome(t *testing.T) {
	c := NewTaxCalculator(testRules(t))

	res, err := c.Compute(decimal.Zero, decimal.Zero, decimal.Zero, domain.FilingSingle, "", 0)
	require.NoError(t, err)
	assert.True(t, res.TotalTax.IsZero())
	assert.True(t, res.EffectiveRate.IsZero(), "no division by zero on empty income")
}

func TestComputeSeniorDeduction(t *testing.T) {
	c := NewTaxCalculator(testRules(t))

	res, err := c.Compute(decimal.NewFromInt(50000), decimal.Zero, decimal.Zero, domain.FilingMarriedFilingJointly, "", 2)
	require.NoError(t, err)
	// 30,000 base + 2 * 1,600
	assert.True(t, res.StandardDeduction.Equal(decimal.NewFromInt(33200)))
	assert.True(t, res.TaxableIncome.Equal(decimal.NewFromInt(16800)))
}

func TestConversionTaxMonotonic(t *testing.T) {
	c := NewTaxCalculator(testRules(t))

	prev := decimal.Zero
	for _, conv := range []int64{0, 10000, 50000, 100000, 250000, 500000} {
		res, err := c.Compute(decimal.NewFromInt(40000), decimal.Zero, decimal.NewFromInt(conv), domain.FilingSingle, "", 0)
		require.NoError(t, err)
		assert.True(t, res.TotalTax.GreaterThanOrEqual(prev), "conversion %d lowered total tax", conv)
		assert.True(t, res.ConversionTax.GreaterThanOrEqual(decimal.Zero))
		prev = res.TotalTax
	}
}

func TestStateTax(t *testing.T) {
	c := NewTaxCalculator(testRules(t))

	tests := []struct {
		name      string
		state     string
		taxableSS string
		want      string
	}{
		// CA: 100,000 * 0.093, SS excluded from the base
		{"flat rate state", "CA", "0", "9300"},
		{"ss excluded where untaxed", "CA", "10000", "8370"},
		// PA exempts retirement income entirely
		{"retirement exempt state", "PA", "0", "0"},
		// FL has no income tax
		{"no income tax state", "FL", "0", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gross := decimal.NewFromInt(100000).Sub(decimal.RequireFromString(tc.taxableSS))
			res, err := c.Compute(gross, decimal.RequireFromString(tc.taxableSS), decimal.Zero, domain.FilingSingle, tc.state, 0)
			require.NoError(t, err)
			assert.True(t, res.StateTax.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", res.StateTax, tc.want)
		})
	}

	t.Run("unknown state is a configuration error", func(t *testing.T) {
		_, err := c.Compute(decimal.NewFromInt(100000), decimal.Zero, decimal.Zero, domain.FilingSingle, "ZZ", 0)
		assert.Error(t, err)
	})
}
