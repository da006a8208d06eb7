/*
stipend.go - Monthly fixed-stipend resolution

PURPOSE:
  Sums an agent's active fixed monthly amounts across all brands. The
  historical eligibility gate (pay only when monthly sales reach a minimum
  percentage of monthly budget, for years after a threshold year) remains
  representable through FixedPayRule, but the current business decision is
  to pay from the first unit of sales, so enforcement is off by default.
*/
package commission

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

// StipendResolver totals fixed monthly amounts for an agent.
type StipendResolver struct {
	configs engine.ConfigStore

	// EnforceRule re-enables the historical eligibility gate. Off by
	// default ("pay from the first unit").
	EnforceRule bool
}

func NewStipendResolver(configs engine.ConfigStore) *StipendResolver {
	return &StipendResolver{configs: configs}
}

// Fixed returns the agent's stipend total for the period. salesPct is the
// month's sales attainment as a percentage of budget; it is only consulted
// when rule enforcement is on.
func (s *StipendResolver) Fixed(ctx context.Context, agent engine.AgentID, p engine.Period, salesPct decimal.Decimal) (decimal.Decimal, error) {
	if s.EnforceRule {
		rule, err := s.configs.FixedPayRule(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		if !Eligible(rule, p.Year, salesPct) {
			return decimal.Zero, nil
		}
	}

	amounts, err := s.configs.FixedAmountsFor(ctx, agent)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Amount)
	}
	return total, nil
}

// Eligible applies the FixedPayRule gate. A nil or inactive rule is
// permissive; so is any year at or before the threshold year.
func Eligible(rule *engine.FixedPayRule, year int, salesPct decimal.Decimal) bool {
	if rule == nil || !rule.Active {
		return true
	}
	if year <= rule.ThresholdYear {
		return true
	}
	return salesPct.GreaterThanOrEqual(rule.MinSalesPct)
}
