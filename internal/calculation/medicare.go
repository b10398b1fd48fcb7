package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/rules"
)

// MedicareEligibilityAge is the age Part B/D coverage begins.
const MedicareEligibilityAge = 65

var (
	decimalOne    = decimal.NewFromInt(1)
	decimalTwelve = decimal.NewFromInt(12)
)

// MedicareCost is one year's premium picture, carried per part.
// Bracket is the IRMAA tier ordinal, 0 meaning no surcharge applied.
type MedicareCost struct {
	PartBAnnual          decimal.Decimal
	PartDAnnual          decimal.Decimal
	PartBSurchargeAnnual decimal.Decimal
	PartDSurchargeAnnual decimal.Decimal
	Bracket              int
}

// BaseAnnual returns the standard Part B plus Part D premiums.
func (c MedicareCost) BaseAnnual() decimal.Decimal {
	return c.PartBAnnual.Add(c.PartDAnnual)
}

// SurchargeAnnual returns the combined IRMAA surcharge.
func (c MedicareCost) SurchargeAnnual() decimal.Decimal {
	return c.PartBSurchargeAnnual.Add(c.PartDSurchargeAnnual)
}

// Total returns base premiums plus surcharges.
func (c MedicareCost) Total() decimal.Decimal {
	return c.BaseAnnual().Add(c.SurchargeAnnual())
}

// MedicareCalculator prices Part B/D premiums with IRMAA surcharges.
// Premiums and surcharges compound at the medical inflation rate;
// IRMAA thresholds compound at their own, slower rate. For a married
// couple both base premiums and surcharges cover two enrollees.
type MedicareCalculator struct {
	rules     *rules.RuleSet
	inflation rules.InflationRates
}

// NewMedicareCalculator returns a calculator using the tables'
// configured inflation rates.
func NewMedicareCalculator(rs *rules.RuleSet) *MedicareCalculator {
	return &MedicareCalculator{rules: rs, inflation: rs.Inflation()}
}

// NewMedicareCalculatorWithInflation overrides the inflation rates,
// for scenarios that set their own.
func NewMedicareCalculatorWithInflation(rs *rules.RuleSet, inflation rules.InflationRates) *MedicareCalculator {
	return &MedicareCalculator{rules: rs, inflation: inflation}
}

// Cost prices a year's Medicare. lookbackMAGI is the MAGI from two
// years prior; yearIndex is years elapsed since the simulation start
// (drives inflation compounding); age is the primary filer's age. An
// under-65 filer pays nothing.
func (c *MedicareCalculator) Cost(lookbackMAGI decimal.Decimal, status domain.FilingStatus, yearIndex, age int) (MedicareCost, error) {
	if age < MedicareEligibilityAge {
		return MedicareCost{}, nil
	}

	medicalFactor := compound(c.inflation.Medical, yearIndex)
	thresholdFactor := compound(c.inflation.IRMAAThreshold, yearIndex)

	persons := decimalOne
	if status == domain.FilingMarriedFilingJointly {
		persons = decimal.NewFromInt(2)
	}

	annualize := decimalTwelve.Mul(persons).Mul(medicalFactor)

	base := c.rules.Medicare()
	partB := base.PartBMonthly.Mul(annualize)
	partD := base.PartDMonthly.Mul(annualize)

	brackets, err := c.rules.IRMAABrackets(status)
	if err != nil {
		return MedicareCost{}, err
	}

	surchargeB := decimal.Zero
	surchargeD := decimal.Zero
	tier := 0
	for i, b := range brackets {
		threshold := b.MAGIThreshold.Mul(thresholdFactor)
		if lookbackMAGI.LessThan(threshold) {
			break
		}
		surchargeB = b.PartBSurcharge.Mul(annualize)
		surchargeD = b.PartDSurcharge.Mul(annualize)
		tier = i + 1
	}

	return MedicareCost{
		PartBAnnual:          partB,
		PartDAnnual:          partD,
		PartBSurchargeAnnual: surchargeB,
		PartDSurchargeAnnual: surchargeD,
		Bracket:              tier,
	}, nil
}

// compound returns (1+rate)^years.
func compound(rate decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 || rate.IsZero() {
		return decimalOne
	}
	return decimalOne.Add(rate).Pow(decimal.NewFromInt(int64(years)))
}
