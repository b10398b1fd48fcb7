package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/ledger"
)

// accountOutcome is what the driver's balance pass produced for one
// account in one year.
type accountOutcome struct {
	EndingBalance decimal.Decimal
	RMD           decimal.Decimal
	Income        decimal.Decimal
}

// assembler builds complete YearRecords. Every field is computed fresh
// from this year's balance pass, the scenario constants, and the MAGI
// history owned by the same run; nothing is ever copied from another
// plan's records.
type assembler struct {
	scenario *domain.Scenario
	tax      *TaxCalculator
	ss       *SSTaxCalculator
	medicare *MedicareCalculator
}

func (a *assembler) assemble(
	year, yearIndex int,
	outcomes map[domain.AccountID]accountOutcome,
	conversion, rothWithdrawal decimal.Decimal,
	history *ledger.History,
) (*domain.YearRecord, error) {
	rec := domain.NewYearRecord(year)
	rec.PrimaryAge = a.scenario.Primary.AgeIn(year)
	if a.scenario.Spouse != nil {
		rec.SpouseAge = a.scenario.Spouse.AgeIn(year)
	}
	rec.ConversionAmount = conversion
	rec.RothWithdrawal = rothWithdrawal

	gross := decimal.Zero
	for id, out := range outcomes {
		rec.EndingBalances[id] = out.EndingBalance
		rec.RMDs[id] = out.RMD
		rec.IncomeContributions[id] = out.Income
		gross = gross.Add(out.Income)
	}
	if !a.scenario.IsRetired(year) {
		gross = gross.Add(a.scenario.PreRetirementIncome)
	}
	rec.GrossIncome = gross

	if rec.PrimaryAge >= a.scenario.SocialSecurity.StartAge {
		rec.SSBenefit = a.scenario.SocialSecurity.AnnualBenefit
	}

	taxableSS, err := a.ss.TaxablePortion(rec.SSBenefit, gross.Add(conversion), a.scenario.FilingStatus)
	if err != nil {
		return nil, fmt.Errorf("year %d: social security: %w", year, err)
	}
	rec.TaxableSS = taxableSS

	seniors := 0
	if rec.PrimaryAge >= 65 {
		seniors++
	}
	if a.scenario.Spouse != nil && rec.SpouseAge >= 65 {
		seniors++
	}

	taxes, err := a.tax.Compute(gross, taxableSS, conversion, a.scenario.FilingStatus, a.scenario.State, seniors)
	if err != nil {
		return nil, fmt.Errorf("year %d: taxes: %w", year, err)
	}
	rec.AGI = taxes.AGI
	rec.MAGI = taxes.MAGI
	rec.StandardDeduction = taxes.StandardDeduction
	rec.TaxableIncome = taxes.TaxableIncome
	rec.RegularTax = taxes.RegularTax
	rec.ConversionTax = taxes.ConversionTax
	rec.TotalFederalTax = taxes.TotalTax
	rec.StateTax = taxes.StateTax
	rec.MarginalRate = taxes.MarginalRate
	rec.EffectiveRate = taxes.EffectiveRate

	// IRMAA looks back two years. The first two simulated years have
	// no recorded history, so the current year's MAGI stands in.
	lookback, ok := history.Lookback(year)
	if !ok {
		lookback = taxes.MAGI
	}
	rec.LookbackMAGI = lookback

	cost, err := a.medicare.Cost(lookback, a.scenario.FilingStatus, yearIndex, rec.PrimaryAge)
	if err != nil {
		return nil, fmt.Errorf("year %d: medicare: %w", year, err)
	}
	rec.MedicareBase = cost.BaseAnnual()
	rec.MedicarePartB = cost.PartBAnnual
	rec.MedicarePartD = cost.PartDAnnual
	rec.IRMAASurcharge = cost.SurchargeAnnual()
	rec.IRMAAPartB = cost.PartBSurchargeAnnual
	rec.IRMAAPartD = cost.PartDSurchargeAnnual
	rec.IRMAABracket = cost.Bracket

	rec.NetIncome = gross.Add(rec.SSBenefit).Add(rothWithdrawal).
		Sub(rec.TotalFederalTax).Sub(rec.StateTax).Sub(cost.Total())

	return rec, nil
}
