package rebate

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

// BrandResult is the outcome of a quarterly brand tier rebate computation.
type BrandResult struct {
	Sales         decimal.Decimal
	Target        decimal.Decimal
	CompletionPct decimal.Decimal
	Rate          decimal.Decimal
	Rebate        decimal.Decimal
	Warnings      []string
}

// BrandCalculator computes the brand tier rebate for one agent and quarter.
type BrandCalculator struct {
	normalizer *engine.Normalizer
	configs    engine.ConfigStore
}

func NewBrandCalculator(normalizer *engine.Normalizer, configs engine.ConfigStore) *BrandCalculator {
	return &BrandCalculator{normalizer: normalizer, configs: configs}
}

// Compute maps the agent's quarterly completion percentage for the brand
// into the tier table and pays the band's rate on the excess over target.
// A missing or non-positive target yields an all-zero result.
func (b *BrandCalculator) Compute(ctx context.Context, agent engine.AgentID, brand string, quarter, year int) (*BrandResult, error) {
	if !engine.ValidQuarter(quarter) || year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: quarter %d, year %d", engine.ErrInvalidPeriod, quarter, year)
	}

	res := &BrandResult{
		Sales:         decimal.Zero,
		Target:        decimal.Zero,
		CompletionPct: decimal.Zero,
		Rate:          decimal.Zero,
		Rebate:        decimal.Zero,
	}

	target, err := b.configs.BrandTarget(ctx, agent, brand, quarter, year)
	if err != nil {
		return nil, err
	}
	if target == nil || target.Amount.Sign() <= 0 {
		return res, nil
	}
	res.Target = target.Amount

	norm := engine.NormalizeBrand(brand)
	for _, m := range engine.QuarterMonths(quarter) {
		lines, warnings, err := b.normalizer.LinesForPeriod(ctx, agent, engine.Period{Month: m, Year: year})
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warnings...)
		for _, nl := range lines {
			if engine.NormalizeBrand(nl.Line.Brand) == norm {
				res.Sales = res.Sales.Add(nl.Adjusted)
			}
		}
	}

	res.CompletionPct = res.Sales.Div(res.Target).Mul(hundred)

	tiers, err := b.configs.RebateTiersFor(ctx, brand)
	if err != nil {
		return nil, err
	}
	for _, tier := range tiers {
		if tier.Contains(res.CompletionPct) {
			res.Rate = tier.Percent
			break
		}
	}

	excess := res.Sales.Sub(res.Target)
	if excess.Sign() > 0 && res.Rate.Sign() > 0 {
		res.Rebate = excess.Mul(res.Rate).Div(hundred)
	}
	return res, nil
}
