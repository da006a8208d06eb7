/*
coordinator.go - Quarterly computation orchestration and persistence

Quarterly rebates persist independently of the monthly commission record:
one RebateRecord per (agent, brand, quarter, year), with an empty brand for
the budget rebate. Upserts are idempotent per key; workers must own
disjoint keys.
*/
package rebate

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldpay/commission-engine/engine"
)

// Coordinator drives the quarterly flows against one store.
type Coordinator struct {
	store  engine.Store
	budget *BudgetCalculator
	brand  *BrandCalculator
}

func NewCoordinator(store engine.Store, budget *BudgetCalculator, brand *BrandCalculator) *Coordinator {
	return &Coordinator{store: store, budget: budget, brand: brand}
}

// ComputeBrandRebate computes and persists the brand tier rebate.
func (c *Coordinator) ComputeBrandRebate(ctx context.Context, agent engine.AgentID, brand string, quarter, year int) (*engine.RebateRecord, error) {
	if err := c.checkAgent(ctx, agent); err != nil {
		return nil, err
	}

	res, err := c.brand.Compute(ctx, agent, brand, quarter, year)
	if err != nil {
		return nil, err
	}

	rec := engine.RebateRecord{
		AgentID:       agent,
		Brand:         engine.NormalizeBrand(brand),
		Quarter:       quarter,
		Year:          year,
		Sales:         res.Sales,
		Target:        res.Target,
		CompletionPct: res.CompletionPct,
		Rate:          res.Rate,
		Rebate:        res.Rebate,
		ComputedAt:    time.Now().UTC(),
	}
	if err := c.store.SaveRebate(ctx, rec); err != nil {
		return nil, &engine.PersistenceError{Agent: agent, Month: 0, Year: year, Err: err}
	}
	return &rec, nil
}

// ComputeBudgetRebate computes and persists the quarter-to-date budget
// rebate for the quarter containing month.
func (c *Coordinator) ComputeBudgetRebate(ctx context.Context, agent engine.AgentID, p engine.Period) (*engine.RebateRecord, error) {
	if err := c.checkAgent(ctx, agent); err != nil {
		return nil, err
	}

	res, err := c.budget.Compute(ctx, agent, p)
	if err != nil {
		return nil, err
	}

	rec := engine.RebateRecord{
		AgentID:    agent,
		Brand:      "", // budget rebate is not brand-scoped
		Quarter:    p.Quarter(),
		Year:       p.Year,
		Sales:      res.CumSales,
		Target:     res.CumBudget,
		Rate:       res.Rate,
		Rebate:     res.Rebate,
		ComputedAt: time.Now().UTC(),
	}
	if res.CumBudget.Sign() > 0 {
		rec.CompletionPct = res.CumSales.Div(res.CumBudget).Mul(hundred)
	}
	if err := c.store.SaveRebate(ctx, rec); err != nil {
		return nil, &engine.PersistenceError{Agent: agent, Month: 0, Year: p.Year, Err: err}
	}
	return &rec, nil
}

// Record returns a stored rebate record.
func (c *Coordinator) Record(ctx context.Context, agent engine.AgentID, brand string, quarter, year int) (*engine.RebateRecord, error) {
	return c.store.Rebate(ctx, agent, brand, quarter, year)
}

func (c *Coordinator) checkAgent(ctx context.Context, agent engine.AgentID) error {
	exists, err := c.store.AgentExists(ctx, agent)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", engine.ErrAgentNotFound, agent)
	}
	return nil
}
