package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
)

// ConversionScheduler turns a conversion plan into per-year
// installments. The nominal installment is total/duration; when the
// annual cap binds, the schedule stretches across extra years so the
// whole total still converts. The final scheduled year absorbs the
// rounding remainder so installments sum exactly to the plan total.
// The available balance always caps the result, never the other way
// around.
type ConversionScheduler struct {
	plan        *domain.ConversionPlan
	installment decimal.Decimal
	duration    int
}

// NewConversionScheduler wraps a plan; a nil plan schedules nothing.
func NewConversionScheduler(plan *domain.ConversionPlan) *ConversionScheduler {
	s := &ConversionScheduler{plan: plan}
	if plan == nil || plan.DurationYears < 1 || !plan.TotalAmount.IsPositive() {
		return s
	}

	installment := plan.TotalAmount.Div(decimal.NewFromInt(int64(plan.DurationYears))).RoundBank(2)
	duration := plan.DurationYears
	if plan.AnnualCap.IsPositive() && installment.GreaterThan(plan.AnnualCap) {
		installment = plan.AnnualCap
		stretched := plan.TotalAmount.Div(installment).Ceil().IntPart()
		duration = int(stretched)
	}
	s.installment = installment
	s.duration = duration
	return s
}

// EndYear returns the last year with a scheduled installment,
// including any stretch the annual cap forced.
func (s *ConversionScheduler) EndYear() int {
	if s.plan == nil {
		return 0
	}
	return s.plan.StartYear + s.duration - 1
}

// AmountForYear returns the installment for a calendar year given the
// balance available across the plan's source accounts, plus clamped
// reporting whether the balance cut the installment short.
func (s *ConversionScheduler) AmountForYear(year int, available decimal.Decimal) (amount decimal.Decimal, clamped bool) {
	scheduled := s.ScheduledForYear(year)
	if !scheduled.IsPositive() {
		return decimal.Zero, false
	}
	if scheduled.GreaterThan(available) {
		if available.IsNegative() {
			available = decimal.Zero
		}
		return available, true
	}
	return scheduled, false
}

// ScheduledForYear returns the nominal installment for a year,
// ignoring balance availability.
func (s *ConversionScheduler) ScheduledForYear(year int) decimal.Decimal {
	if s.plan == nil || !s.installment.IsPositive() {
		return decimal.Zero
	}
	if year < s.plan.StartYear || year > s.EndYear() {
		return decimal.Zero
	}

	if year == s.EndYear() {
		// Remainder after the earlier equal installments. The
		// stretched duration keeps this within the annual cap.
		prior := s.installment.Mul(decimal.NewFromInt(int64(s.duration - 1)))
		remainder := s.plan.TotalAmount.Sub(prior)
		if remainder.IsNegative() {
			return decimal.Zero
		}
		return remainder
	}
	return s.installment
}
