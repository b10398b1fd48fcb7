package domain

import (
	"github.com/shopspring/decimal"
)

// PlanKind distinguishes the two projection runs of a comparison.
type PlanKind string

const (
	PlanBaseline   PlanKind = "baseline"
	PlanConversion PlanKind = "conversion"
)

// YearRecord is the complete financial picture of one simulated year.
// Per-account maps are keyed by AccountID and nothing else. Every field
// is computed fresh for the plan run that owns the record.
type YearRecord struct {
	Year       int `json:"year"`
	PrimaryAge int `json:"primaryAge"`
	SpouseAge  int `json:"spouseAge,omitempty"`

	EndingBalances      map[AccountID]decimal.Decimal `json:"endingBalances"`
	RMDs                map[AccountID]decimal.Decimal `json:"rmds"`
	IncomeContributions map[AccountID]decimal.Decimal `json:"incomeContributions"`

	ConversionAmount decimal.Decimal `json:"conversionAmount"`
	RothWithdrawal   decimal.Decimal `json:"rothWithdrawal"`

	GrossIncome decimal.Decimal `json:"grossIncome"`
	SSBenefit   decimal.Decimal `json:"ssBenefit"`
	TaxableSS   decimal.Decimal `json:"taxableSS"`
	AGI         decimal.Decimal `json:"agi"`
	MAGI        decimal.Decimal `json:"magi"`

	StandardDeduction decimal.Decimal `json:"standardDeduction"`
	TaxableIncome     decimal.Decimal `json:"taxableIncome"`
	RegularTax        decimal.Decimal `json:"regularTax"`
	ConversionTax     decimal.Decimal `json:"conversionTax"`
	TotalFederalTax   decimal.Decimal `json:"totalFederalTax"`
	StateTax          decimal.Decimal `json:"stateTax"`
	MarginalRate      decimal.Decimal `json:"marginalRate"`
	EffectiveRate     decimal.Decimal `json:"effectiveRate"`

	MedicareBase   decimal.Decimal `json:"medicareBase"`
	MedicarePartB  decimal.Decimal `json:"medicarePartB"`
	MedicarePartD  decimal.Decimal `json:"medicarePartD"`
	IRMAASurcharge decimal.Decimal `json:"irmaaSurcharge"`
	IRMAAPartB     decimal.Decimal `json:"irmaaPartB"`
	IRMAAPartD     decimal.Decimal `json:"irmaaPartD"`
	IRMAABracket   int             `json:"irmaaBracket"`
	LookbackMAGI   decimal.Decimal `json:"lookbackMAGI"`

	NetIncome decimal.Decimal `json:"netIncome"`
}

// NewYearRecord builds an empty record with its maps initialized.
func NewYearRecord(year int) *YearRecord {
	return &YearRecord{
		Year:                year,
		EndingBalances:      make(map[AccountID]decimal.Decimal),
		RMDs:                make(map[AccountID]decimal.Decimal),
		IncomeContributions: make(map[AccountID]decimal.Decimal),
	}
}

// TotalRMDs sums the year's required distributions across accounts.
func (r *YearRecord) TotalRMDs() decimal.Decimal {
	total := decimal.Zero
	for _, amt := range r.RMDs {
		total = total.Add(amt)
	}
	return total
}

// TotalBalance sums ending balances across accounts.
func (r *YearRecord) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, amt := range r.EndingBalances {
		total = total.Add(amt)
	}
	return total
}

// TotalMedicare is the year's full Medicare cost including surcharges.
func (r *YearRecord) TotalMedicare() decimal.Decimal {
	return r.MedicareBase.Add(r.IRMAASurcharge)
}

// TotalTaxes is federal plus state tax for the year.
func (r *YearRecord) TotalTaxes() decimal.Decimal {
	return r.TotalFederalTax.Add(r.StateTax)
}

// Warning is a non-fatal condition observed during a run, such as a
// conversion installment clamped by an insufficient balance.
type Warning struct {
	Year      int       `json:"year"`
	AccountID AccountID `json:"accountId,omitempty"`
	Message   string    `json:"message"`
}

// Projection is one plan's full run output, ordered by year.
type Projection struct {
	Plan     PlanKind      `json:"plan"`
	Records  []*YearRecord `json:"records"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// Record returns the record for a calendar year, or nil.
func (p *Projection) Record(year int) *YearRecord {
	for _, r := range p.Records {
		if r.Year == year {
			return r
		}
	}
	return nil
}

// FinalRecord returns the last simulated year's record, or nil.
func (p *Projection) FinalRecord() *YearRecord {
	if len(p.Records) == 0 {
		return nil
	}
	return p.Records[len(p.Records)-1]
}

// LifetimeMetrics aggregates a projection for plan comparison.
type LifetimeMetrics struct {
	LifetimeFederalTax  decimal.Decimal `json:"lifetimeFederalTax"`
	LifetimeStateTax    decimal.Decimal `json:"lifetimeStateTax"`
	LifetimeMedicare    decimal.Decimal `json:"lifetimeMedicare"`
	TotalIRMAA          decimal.Decimal `json:"totalIRMAA"`
	TotalRMDs           decimal.Decimal `json:"totalRMDs"`
	CumulativeNetIncome decimal.Decimal `json:"cumulativeNetIncome"`
	FinalRothBalance    decimal.Decimal `json:"finalRothBalance"`
	FinalTotalBalance   decimal.Decimal `json:"finalTotalBalance"`
	TotalCost           decimal.Decimal `json:"totalCost"`
}

// MetricDelta is one compared metric with absolute and percent change
// from baseline to conversion.
type MetricDelta struct {
	Name          string          `json:"name"`
	Baseline      decimal.Decimal `json:"baseline"`
	Conversion    decimal.Decimal `json:"conversion"`
	Difference    decimal.Decimal `json:"difference"`
	PercentChange decimal.Decimal `json:"percentChange"`
}

// ComparisonResult pairs the two projections with their aggregate
// metrics and per-metric deltas.
type ComparisonResult struct {
	Baseline          *Projection     `json:"baseline"`
	Conversion        *Projection     `json:"conversion"`
	BaselineMetrics   LifetimeMetrics `json:"baselineMetrics"`
	ConversionMetrics LifetimeMetrics `json:"conversionMetrics"`
	Deltas            []MetricDelta   `json:"deltas"`
}
