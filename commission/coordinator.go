/*
coordinator.go - Monthly computation orchestration and persistence

PURPOSE:
  ComputeMonthly is the single entry point for a period computation: it
  validates input, runs the sales-commission calculator and the stipend
  resolver, combines totals into a CommissionRecord and persists it.

IDEMPOTENCY:
  The store's SaveCommission upserts the record keyed by (agent, month,
  year) and replaces ALL detail rows in one transaction. Re-running a
  period with unchanged inputs yields identical totals and an identical
  detail set, never accreting duplicates. The sequence is not safe against
  a concurrent writer on the same key; workers must own disjoint keys.

ERROR SEMANTICS:
  Missing configuration, skipped orders and missing targets are recovered
  inside the calculators (warnings on the result). Only invalid input and
  persistence failures surface as errors here; a persistence failure leaves
  the previous period data intact.
*/
package commission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

// Coordinator drives the monthly flow against one store.
type Coordinator struct {
	store      engine.Store
	calculator *Calculator
	stipends   *StipendResolver
}

func NewCoordinator(store engine.Store, calculator *Calculator, stipends *StipendResolver) *Coordinator {
	return &Coordinator{store: store, calculator: calculator, stipends: stipends}
}

// ComputeMonthly computes and persists the commission record for
// (agent, month, year). Safe to re-run for the same period.
func (c *Coordinator) ComputeMonthly(ctx context.Context, agent engine.AgentID, p engine.Period, computedBy string) (*engine.CommissionRecord, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: month %d, year %d", engine.ErrInvalidPeriod, p.Month, p.Year)
	}
	exists, err := c.store.AgentExists(ctx, agent)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", engine.ErrAgentNotFound, agent)
	}

	sales, err := c.calculator.SalesCommission(ctx, agent, p)
	if err != nil {
		return nil, err
	}

	// The stipend gate is permissive by default, so attainment is only
	// derived when enforcement is on.
	salesPct := decimal.Zero
	if c.stipends.EnforceRule {
		salesPct, err = c.attainment(ctx, agent, p, sales.SalesTotal)
		if err != nil {
			return nil, err
		}
	}
	fixed, err := c.stipends.Fixed(ctx, agent, p, salesPct)
	if err != nil {
		return nil, err
	}

	rec := engine.CommissionRecord{
		AgentID:         agent,
		Month:           p.Month,
		Year:            p.Year,
		FixedTotal:      fixed,
		SalesCommission: sales.CommissionTotal,
		BudgetRebate:    decimal.Zero, // quarterly rebates persist separately
		SalesTotal:      sales.SalesTotal,
		GrandTotal:      fixed.Add(sales.CommissionTotal),
		Status:          engine.StatusPending,
		ComputedBy:      computedBy,
		Notes:           strings.Join(sales.Warnings, "; "),
		ComputedAt:      time.Now().UTC(),
	}

	if err := c.store.SaveCommission(ctx, rec, sales.Details); err != nil {
		return nil, &engine.PersistenceError{Agent: agent, Month: p.Month, Year: p.Year, Err: err}
	}
	return &rec, nil
}

// attainment returns the month's sales as a percentage of the month's
// budget (annual rows apportioned by /12). Zero budget yields zero.
func (c *Coordinator) attainment(ctx context.Context, agent engine.AgentID, p engine.Period, salesTotal decimal.Decimal) (decimal.Decimal, error) {
	budgets, err := c.store.BudgetsFor(ctx, agent, p.Year)
	if err != nil {
		return decimal.Zero, err
	}
	budget := engine.BudgetForMonths(budgets, []int{p.Month}, 12)
	if budget.Sign() <= 0 {
		return decimal.Zero, nil
	}
	return salesTotal.Div(budget).Mul(hundred), nil
}

// Record returns the stored record for a period.
func (c *Coordinator) Record(ctx context.Context, agent engine.AgentID, p engine.Period) (*engine.CommissionRecord, error) {
	return c.store.Commission(ctx, agent, p)
}

// Details returns the stored detail breakdown for a period.
func (c *Coordinator) Details(ctx context.Context, agent engine.AgentID, p engine.Period) ([]engine.CommissionDetail, error) {
	return c.store.CommissionDetails(ctx, agent, p)
}

// Advance moves a stored record to the next status in the
// pending -> approved -> paid progression.
func (c *Coordinator) Advance(ctx context.Context, agent engine.AgentID, p engine.Period) (engine.CommissionStatus, error) {
	rec, err := c.store.Commission(ctx, agent, p)
	if err != nil {
		return "", err
	}
	var next engine.CommissionStatus
	switch rec.Status {
	case engine.StatusPending:
		next = engine.StatusApproved
	case engine.StatusApproved:
		next = engine.StatusPaid
	default:
		return rec.Status, nil // paid is terminal
	}
	if err := c.store.UpdateCommissionStatus(ctx, agent, p, next); err != nil {
		return "", err
	}
	return next, nil
}
