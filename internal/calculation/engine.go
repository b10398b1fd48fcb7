package calculation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rothcast/rothcast/internal/domain"
	"github.com/rothcast/rothcast/internal/rules"
)

var decimalHundred = decimal.NewFromInt(100)

// Engine runs the baseline and conversion projections and compares
// them. The two runs execute concurrently on independently cloned
// account sets; neither can observe the other's state.
type Engine struct {
	rules *rules.RuleSet
	log   zerolog.Logger
}

// NewEngine returns an engine that logs nowhere.
func NewEngine(rs *rules.RuleSet) *Engine {
	return &Engine{rules: rs, log: zerolog.Nop()}
}

// NewEngineWithLogger returns an engine with run logging enabled.
func NewEngineWithLogger(rs *rules.RuleSet, log zerolog.Logger) *Engine {
	return &Engine{rules: rs, log: log}
}

// Project runs a single plan. A nil plan is the baseline. When a plan
// names no destination in the account set, a synthetic Roth account is
// minted and the plan copy rewired to it.
func (e *Engine) Project(ctx context.Context, scenario *domain.Scenario, accounts []*domain.Account, plan *domain.ConversionPlan) (*domain.Projection, error) {
	kind := domain.PlanBaseline
	owned := domain.CloneAccounts(accounts)
	if plan != nil {
		kind = domain.PlanConversion
		plan, owned = e.ensureDestination(plan, owned)
	}
	driver := NewDriverWithLogger(e.rules, e.log)
	return driver.Run(ctx, scenario, owned, plan, kind)
}

// Compare runs both plans concurrently and assembles the comparison.
func (e *Engine) Compare(ctx context.Context, scenario *domain.Scenario, accounts []*domain.Account, plan *domain.ConversionPlan) (*domain.ComparisonResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("compare: a conversion plan is required")
	}

	var baseline, conversion *domain.Projection
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.Project(gctx, scenario, accounts, nil)
		if err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
		baseline = p
		return nil
	})
	g.Go(func() error {
		p, err := e.Project(gctx, scenario, accounts, plan)
		if err != nil {
			return fmt.Errorf("conversion: %w", err)
		}
		conversion = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.ComparisonResult{
		Baseline:          baseline,
		Conversion:        conversion,
		BaselineMetrics:   Aggregate(baseline, accounts),
		ConversionMetrics: Aggregate(conversion, accounts),
	}
	result.Deltas = deltas(result.BaselineMetrics, result.ConversionMetrics)

	e.log.Info().
		Str("scenario", scenario.Name).
		Str("lifetime_tax_baseline", result.BaselineMetrics.LifetimeFederalTax.StringFixed(2)).
		Str("lifetime_tax_conversion", result.ConversionMetrics.LifetimeFederalTax.StringFixed(2)).
		Msg("comparison complete")

	return result, nil
}

// ensureDestination clones the plan and, when its destination id is
// absent from the account set, mints a synthetic Roth destination.
// Growth follows the first source account.
func (e *Engine) ensureDestination(plan *domain.ConversionPlan, accounts []*domain.Account) (*domain.ConversionPlan, []*domain.Account) {
	p := *plan
	for _, a := range accounts {
		if a.ID == p.DestinationAccountID && p.DestinationAccountID != "" {
			return &p, accounts
		}
	}
	growth := decimal.Zero
	for _, a := range accounts {
		for _, src := range p.SourceAccountIDs {
			if a.ID == src {
				growth = a.GrowthRate
				break
			}
		}
		if growth.IsPositive() {
			break
		}
	}
	dest := domain.NewSyntheticRothAccount(growth, p.SourceAccountIDs)
	p.DestinationAccountID = dest.ID
	return &p, append(accounts, dest)
}

// Aggregate folds a projection into its lifetime metrics. The account
// set identifies which balances are Roth for the final-balance metric;
// the synthetic destination is recognized by its record balances
// instead since it never appears in the input set.
func Aggregate(p *domain.Projection, inputAccounts []*domain.Account) domain.LifetimeMetrics {
	var m domain.LifetimeMetrics
	rothIDs := make(map[domain.AccountID]bool)
	for _, a := range inputAccounts {
		if a.Kind == domain.KindRoth {
			rothIDs[a.ID] = true
		}
	}

	for _, rec := range p.Records {
		m.LifetimeFederalTax = m.LifetimeFederalTax.Add(rec.TotalFederalTax)
		m.LifetimeStateTax = m.LifetimeStateTax.Add(rec.StateTax)
		m.LifetimeMedicare = m.LifetimeMedicare.Add(rec.TotalMedicare())
		m.TotalIRMAA = m.TotalIRMAA.Add(rec.IRMAASurcharge)
		m.TotalRMDs = m.TotalRMDs.Add(rec.TotalRMDs())
		m.CumulativeNetIncome = m.CumulativeNetIncome.Add(rec.NetIncome)
	}

	if final := p.FinalRecord(); final != nil {
		m.FinalTotalBalance = final.TotalBalance()
		for id, balance := range final.EndingBalances {
			if rothIDs[id] || isSyntheticRoth(id, inputAccounts) {
				m.FinalRothBalance = m.FinalRothBalance.Add(balance)
			}
		}
	}

	m.TotalCost = m.LifetimeFederalTax.Add(m.LifetimeStateTax).Add(m.LifetimeMedicare)
	return m
}

// isSyntheticRoth reports whether an id in the records has no input
// account: only the engine-minted Roth destination can do that.
func isSyntheticRoth(id domain.AccountID, inputAccounts []*domain.Account) bool {
	for _, a := range inputAccounts {
		if a.ID == id {
			return false
		}
	}
	return true
}

func deltas(baseline, conversion domain.LifetimeMetrics) []domain.MetricDelta {
	rows := []struct {
		name string
		b, c decimal.Decimal
	}{
		{"lifetime_federal_tax", baseline.LifetimeFederalTax, conversion.LifetimeFederalTax},
		{"lifetime_state_tax", baseline.LifetimeStateTax, conversion.LifetimeStateTax},
		{"lifetime_medicare", baseline.LifetimeMedicare, conversion.LifetimeMedicare},
		{"total_irmaa", baseline.TotalIRMAA, conversion.TotalIRMAA},
		{"total_rmds", baseline.TotalRMDs, conversion.TotalRMDs},
		{"cumulative_net_income", baseline.CumulativeNetIncome, conversion.CumulativeNetIncome},
		{"final_roth_balance", baseline.FinalRothBalance, conversion.FinalRothBalance},
		{"final_total_balance", baseline.FinalTotalBalance, conversion.FinalTotalBalance},
		{"total_cost", baseline.TotalCost, conversion.TotalCost},
	}

	out := make([]domain.MetricDelta, 0, len(rows))
	for _, r := range rows {
		diff := r.c.Sub(r.b)
		pct := decimal.Zero
		if !r.b.IsZero() {
			pct = diff.Div(r.b).Mul(decimalHundred)
		}
		out = append(out, domain.MetricDelta{
			Name:          r.name,
			Baseline:      r.b,
			Conversion:    r.c,
			Difference:    diff,
			PercentChange: pct,
		})
	}
	return out
}
