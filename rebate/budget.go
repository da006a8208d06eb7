/*
Package rebate implements the two quarterly payout calculations: the
cumulative budget rebate and the brand tier rebate. Both are invoked per
quarter, independently of the monthly commission flow, and persist their
own RebateRecord rows.

BUDGET REBATE:
  Accumulates quarter-to-date adjusted-base sales (the same normalization
  the commission calculator uses) against quarter-to-date budget. The
  budget prefers month-specific rows inside the elapsed window; articles
  with only annual rows contribute one quarter's worth (/4) regardless of
  how many months have elapsed - a deliberate simplification inherited from
  the historical figures, not a bug. The rebate triggers on strict
  cum_sales > cum_budget and applies the configured rate to the ENTIRE
  cumulative sales figure, not the excess.

BRAND TIER REBATE:
  Compares an agent's quarterly sales of one brand against the agent's
  quarterly target, maps the completion percentage into the brand's tier
  table (first matching band wins, absent or non-positive max is
  open-ended), and pays the band's rate on the excess over target only.
*/
package rebate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

var hundred = decimal.NewFromInt(100)

// BudgetResult is the outcome of a quarter-to-date budget rebate computation.
type BudgetResult struct {
	CumSales  decimal.Decimal
	CumBudget decimal.Decimal
	Rate      decimal.Decimal
	Rebate    decimal.Decimal
	Warnings  []string
}

// BudgetCalculator computes the cumulative budget rebate.
type BudgetCalculator struct {
	normalizer *engine.Normalizer
	resolver   *engine.Resolver
	configs    engine.ConfigStore
}

func NewBudgetCalculator(normalizer *engine.Normalizer, resolver *engine.Resolver, configs engine.ConfigStore) *BudgetCalculator {
	return &BudgetCalculator{normalizer: normalizer, resolver: resolver, configs: configs}
}

// Compute accumulates sales and budget from the start of month's quarter
// through month inclusive and applies the rebate rule.
func (b *BudgetCalculator) Compute(ctx context.Context, agent engine.AgentID, p engine.Period) (*BudgetResult, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: month %d, year %d", engine.ErrInvalidPeriod, p.Month, p.Year)
	}

	res := &BudgetResult{
		CumSales:  decimal.Zero,
		CumBudget: decimal.Zero,
		Rate:      decimal.Zero,
		Rebate:    decimal.Zero,
	}

	for _, m := range p.ElapsedQuarterMonths() {
		lines, warnings, err := b.normalizer.LinesForPeriod(ctx, agent, engine.Period{Month: m, Year: p.Year})
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warnings...)
		for _, nl := range lines {
			res.CumSales = res.CumSales.Add(nl.Adjusted)
		}
	}

	budgets, err := b.configs.BudgetsFor(ctx, agent, p.Year)
	if err != nil {
		return nil, err
	}
	res.CumBudget = engine.BudgetForMonths(budgets, p.ElapsedQuarterMonths(), 4)

	// Strict comparison: sales exactly on budget pay nothing.
	if !res.CumSales.GreaterThan(res.CumBudget) {
		return res, nil
	}

	rate, err := b.resolver.Rate(ctx, engine.KindBudgetRebate, "", "", p.Year)
	if err != nil {
		if errors.Is(err, engine.ErrNotConfigured) {
			w := fmt.Sprintf("no budget-rebate rate for year %d; 0%% applied", p.Year)
			log.Printf("rebate: %s", w)
			res.Warnings = append(res.Warnings, w)
			return res, nil
		}
		return nil, err
	}

	res.Rate = rate.Percent
	// Over budget: the rate applies to the whole cumulative figure, not the
	// excess.
	res.Rebate = res.CumSales.Mul(rate.Percent).Div(hundred)
	return res, nil
}
