package calculation

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/ledger"
	"github.com/rothcast/rothcast/internal/rules"
)

// Driver runs one plan's projection year by year. Each Run owns a
// fresh Ledger and MAGI History; nothing carries over between runs, so
// concurrent Runs from independent account sets cannot interfere.
type Driver struct {
	rules *rules.RuleSet
	log   zerolog.Logger
}

// NewDriver returns a driver that logs nowhere.
func NewDriver(rs *rules.RuleSet) *Driver {
	return &Driver{rules: rs, log: zerolog.Nop()}
}

// NewDriverWithLogger returns a driver that logs run milestones and
// clamp warnings.
func NewDriverWithLogger(rs *rules.RuleSet, log zerolog.Logger) *Driver {
	return &Driver{rules: rs, log: log}
}

// Run projects the accounts across the scenario's years under the
// given conversion plan. A nil plan is the baseline: no conversions,
// no destination account. The account slice must already include the
// plan's destination account when a plan is given.
func (d *Driver) Run(ctx context.Context, scenario *domain.Scenario, accounts []*domain.Account, plan *domain.ConversionPlan, kind domain.PlanKind) (*domain.Projection, error) {
	sorted := make([]*domain.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[domain.AccountID]*domain.Account, len(sorted))
	for _, a := range sorted {
		if _, dup := byID[a.ID]; dup {
			return nil, fmt.Errorf("run %s: duplicate account id %q", kind, a.ID)
		}
		byID[a.ID] = a
	}
	if plan != nil {
		if _, ok := byID[plan.DestinationAccountID]; !ok {
			return nil, fmt.Errorf("run %s: destination account %q not in account set", kind, plan.DestinationAccountID)
		}
		for _, src := range plan.SourceAccountIDs {
			if _, ok := byID[src]; !ok {
				return nil, fmt.Errorf("run %s: source account %q not in account set", kind, src)
			}
		}
	}

	rmd := NewRMDCalculator(d.rules)
	stepper := NewStepper(rmd)
	scheduler := NewConversionScheduler(plan)
	asm := &assembler{
		scenario: scenario,
		tax:      NewTaxCalculator(d.rules),
		ss:       NewSSTaxCalculator(d.rules),
		medicare: d.medicareCalculator(scenario),
	}

	bal := ledger.NewLedger()
	history := ledger.NewHistory()
	proj := &domain.Projection{Plan: kind}

	rothStart := rothWithdrawalStart(scenario, plan, scheduler)

	for year := scenario.StartYear; year <= scenario.EndYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s: %w", kind, err)
		}
		yearIndex := year - scenario.StartYear

		// Scheduler sees the money actually available across the
		// plan's sources at the start of the year.
		available := decimal.Zero
		if plan != nil {
			for _, src := range plan.SourceAccountIDs {
				prior, err := d.priorBalance(bal, byID[src], year, scenario.StartYear)
				if err != nil {
					return nil, err
				}
				available = available.Add(prior)
			}
		}
		conversion, clamped := scheduler.AmountForYear(year, available)
		if clamped {
			w := domain.Warning{
				Year:    year,
				Message: fmt.Sprintf("conversion installment reduced to %s by available balance", conversion.StringFixed(2)),
			}
			proj.Warnings = append(proj.Warnings, w)
			d.log.Warn().Int("year", year).Str("amount", conversion.StringFixed(2)).Msg("conversion clamped")
		}

		// Draw the installment from the sources in id order.
		draws := make(map[domain.AccountID]decimal.Decimal)
		if plan != nil && conversion.IsPositive() {
			remaining := conversion
			srcs := append([]domain.AccountID(nil), plan.SourceAccountIDs...)
			sort.Slice(srcs, func(i, j int) bool { return srcs[i] < srcs[j] })
			for _, src := range srcs {
				if !remaining.IsPositive() {
					break
				}
				prior, err := d.priorBalance(bal, byID[src], year, scenario.StartYear)
				if err != nil {
					return nil, err
				}
				draw := decimal.Min(remaining, prior)
				if draw.IsPositive() {
					draws[src] = draw
					remaining = remaining.Sub(draw)
				}
			}
		}

		rothWithdrawal := decimal.Zero
		outcomes := make(map[domain.AccountID]accountOutcome, len(sorted))
		for _, account := range sorted {
			prior, err := d.priorBalance(bal, account, year, scenario.StartYear)
			if err != nil {
				return nil, err
			}

			owner := d.owner(scenario, account)
			age := owner.AgeIn(year)

			withdrawal := decimal.Zero
			if account.WithdrawalAmount.IsPositive() && inWindow(age, account.WithdrawalStartAge, account.WithdrawalEndAge) {
				withdrawal = account.WithdrawalAmount
			}
			if plan != nil && account.ID == plan.DestinationAccountID &&
				scenario.RothWithdrawal != nil && year >= rothStart {
				withdrawal = withdrawal.Add(scenario.RothWithdrawal.AnnualAmount)
			}

			step, err := stepper.Step(account, prior, draws[account.ID], withdrawal, age, owner.BirthYear)
			if err != nil {
				return nil, fmt.Errorf("run %s year %d: %w", kind, year, err)
			}

			ending := step.EndingBalance
			if plan != nil && account.ID == plan.DestinationAccountID {
				// The year's conversion lands in the destination
				// without same-year growth.
				ending = ending.Add(conversion)
			}
			if step.Clamped {
				proj.Warnings = append(proj.Warnings, domain.Warning{
					Year:      year,
					AccountID: account.ID,
					Message:   "balance clamped to zero",
				})
			}

			if err := bal.SetBalance(account.ID, year, ending); err != nil {
				return nil, fmt.Errorf("run %s year %d: %w", kind, year, err)
			}

			income := step.RMD
			if account.MonthlyIncome.IsPositive() && inWindow(age, account.WithdrawalStartAge, account.WithdrawalEndAge) {
				income = income.Add(account.MonthlyIncome.Mul(decimalTwelve))
			}
			if account.Kind == domain.KindPreTax {
				income = income.Add(step.Withdrawal)
			}
			if account.Kind == domain.KindRoth {
				rothWithdrawal = rothWithdrawal.Add(step.Withdrawal)
			}

			outcomes[account.ID] = accountOutcome{
				EndingBalance: ending,
				RMD:           step.RMD,
				Income:        income,
			}
		}

		rec, err := asm.assemble(year, yearIndex, outcomes, conversion, rothWithdrawal, history)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", kind, err)
		}
		if err := history.Record(year, rec.MAGI); err != nil {
			return nil, fmt.Errorf("run %s: %w", kind, err)
		}
		proj.Records = append(proj.Records, rec)

		d.log.Debug().
			Str("plan", string(kind)).
			Int("year", year).
			Str("conversion", conversion.StringFixed(2)).
			Str("magi", rec.MAGI.StringFixed(2)).
			Str("federal_tax", rec.TotalFederalTax.StringFixed(2)).
			Msg("year projected")
	}

	return proj, nil
}

// priorBalance is last year's ledger entry, or the account's starting
// balance in the first simulated year. An unset ledger cell past the
// first year is a sequencing bug and surfaces as StateNotReadyError.
func (d *Driver) priorBalance(bal *ledger.Ledger, account *domain.Account, year, startYear int) (decimal.Decimal, error) {
	if year == startYear {
		return account.StartingBalance, nil
	}
	return bal.Balance(account.ID, year-1)
}

func (d *Driver) owner(scenario *domain.Scenario, account *domain.Account) *domain.Participant {
	if account.OwnedBy == domain.OwnerSpouse && scenario.Spouse != nil {
		return scenario.Spouse
	}
	return scenario.Primary
}

func (d *Driver) medicareCalculator(scenario *domain.Scenario) *MedicareCalculator {
	inf := scenario.Inflation
	if inf.MedicalRate.IsZero() && inf.IRMAAThresholdRate.IsZero() {
		return NewMedicareCalculator(d.rules)
	}
	return NewMedicareCalculatorWithInflation(d.rules, rules.InflationRates{
		Medical:        inf.MedicalRate,
		IRMAAThreshold: inf.IRMAAThresholdRate,
	})
}

// rothWithdrawalStart defers a configured Roth draw until after the
// conversion window, including any stretch the annual cap forced, has
// finished filling the destination.
func rothWithdrawalStart(scenario *domain.Scenario, plan *domain.ConversionPlan, scheduler *ConversionScheduler) int {
	if scenario.RothWithdrawal == nil {
		return 0
	}
	start := scenario.RothWithdrawal.StartYear
	if plan != nil && start <= scheduler.EndYear() {
		start = scheduler.EndYear() + 1
	}
	return start
}

func inWindow(age, start, end int) bool {
	if start == 0 && end == 0 {
		return false
	}
	if end == 0 {
		return age >= start
	}
	return age >= start && age <= end
}
