// Package store provides an in-memory engine.Store implementation for
// tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fieldpay/commission-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	Agents     map[engine.AgentID]engine.Agent
	Orders     []engine.SalesOrder
	Lines      map[engine.OrderID][]engine.SalesOrderLine
	Rates      []engine.RateConfig
	Conditions []engine.SpecialCondition
	Budgets    []engine.Budget
	Targets    []engine.BrandTarget
	Tiers      []engine.RebateTier
	Fixed      []engine.FixedAmount
	PayRule    *engine.FixedPayRule

	commissions map[comKey]commissionState
	rebates     map[rebKey]engine.RebateRecord

	// SaveErr, when set, makes every write fail. Used to test that
	// persistence failures propagate without corrupting stored data.
	SaveErr error
}

type comKey struct {
	Agent engine.AgentID
	Month int
	Year  int
}

type rebKey struct {
	Agent   engine.AgentID
	Brand   string
	Quarter int
	Year    int
}

type commissionState struct {
	record  engine.CommissionRecord
	details []engine.CommissionDetail
}

func NewMemory() *Memory {
	return &Memory{
		Agents:      make(map[engine.AgentID]engine.Agent),
		Lines:       make(map[engine.OrderID][]engine.SalesOrderLine),
		commissions: make(map[comKey]commissionState),
		rebates:     make(map[rebKey]engine.RebateRecord),
	}
}

// =============================================================================
// ORDER STORE
// =============================================================================

func (m *Memory) AgentExists(_ context.Context, agent engine.AgentID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Agents[agent]
	return ok, nil
}

func (m *Memory) OrdersForPeriod(_ context.Context, agent engine.AgentID, p engine.Period) ([]engine.SalesOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start, end := p.Bounds()
	var out []engine.SalesOrder
	for _, o := range m.Orders {
		if o.AgentID != agent {
			continue
		}
		if o.Date.Before(start) || !o.Date.Before(end) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) LinesForOrder(_ context.Context, order engine.OrderID) ([]engine.SalesOrderLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lines := make([]engine.SalesOrderLine, len(m.Lines[order]))
	copy(lines, m.Lines[order])
	return lines, nil
}

// =============================================================================
// CONFIG STORE
// =============================================================================

func (m *Memory) ActiveRateConfigs(_ context.Context, kind engine.RateKind, year int) ([]engine.RateConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.RateConfig
	for _, r := range m.Rates {
		if r.Kind == kind && r.Year == year && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) SpecialConditionsFor(_ context.Context, agent engine.AgentID) ([]engine.SpecialCondition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.SpecialCondition
	for _, c := range m.Conditions {
		if !c.Active {
			continue
		}
		if c.Agent == nil || *c.Agent == agent {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) BudgetsFor(_ context.Context, agent engine.AgentID, year int) ([]engine.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Budget
	for _, b := range m.Budgets {
		if b.AgentID == agent && b.Year == year && b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) BrandTarget(_ context.Context, agent engine.AgentID, brand string, quarter, year int) (*engine.BrandTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	norm := engine.NormalizeBrand(brand)
	for _, t := range m.Targets {
		if t.Active && t.AgentID == agent && engine.NormalizeBrand(t.Brand) == norm &&
			t.Quarter == quarter && t.Year == year {
			target := t
			return &target, nil
		}
	}
	return nil, nil
}

func (m *Memory) RebateTiersFor(_ context.Context, brand string) ([]engine.RebateTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	norm := engine.NormalizeBrand(brand)
	var out []engine.RebateTier
	for _, t := range m.Tiers {
		if t.Active && engine.NormalizeBrand(t.Brand) == norm {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) FixedAmountsFor(_ context.Context, agent engine.AgentID) ([]engine.FixedAmount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.FixedAmount
	for _, f := range m.Fixed {
		if f.Active && f.AgentID == agent {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Memory) FixedPayRule(_ context.Context) (*engine.FixedPayRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.PayRule == nil {
		return nil, nil
	}
	rule := *m.PayRule
	return &rule, nil
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (m *Memory) SaveCommission(_ context.Context, rec engine.CommissionRecord, details []engine.CommissionDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	copied := make([]engine.CommissionDetail, len(details))
	copy(copied, details)
	m.commissions[comKey{rec.AgentID, rec.Month, rec.Year}] = commissionState{record: rec, details: copied}
	return nil
}

func (m *Memory) Commission(_ context.Context, agent engine.AgentID, p engine.Period) (*engine.CommissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.commissions[comKey{agent, p.Month, p.Year}]
	if !ok {
		return nil, engine.ErrRecordNotFound
	}
	rec := state.record
	return &rec, nil
}

func (m *Memory) CommissionDetails(_ context.Context, agent engine.AgentID, p engine.Period) ([]engine.CommissionDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.commissions[comKey{agent, p.Month, p.Year}]
	if !ok {
		return nil, engine.ErrRecordNotFound
	}
	out := make([]engine.CommissionDetail, len(state.details))
	copy(out, state.details)
	return out, nil
}

func (m *Memory) UpdateCommissionStatus(_ context.Context, agent engine.AgentID, p engine.Period, status engine.CommissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	k := comKey{agent, p.Month, p.Year}
	state, ok := m.commissions[k]
	if !ok {
		return engine.ErrRecordNotFound
	}
	state.record.Status = status
	m.commissions[k] = state
	return nil
}

func (m *Memory) SaveRebate(_ context.Context, rec engine.RebateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.rebates[rebKey{rec.AgentID, engine.NormalizeBrand(rec.Brand), rec.Quarter, rec.Year}] = rec
	return nil
}

func (m *Memory) Rebate(_ context.Context, agent engine.AgentID, brand string, quarter, year int) (*engine.RebateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.rebates[rebKey{agent, engine.NormalizeBrand(brand), quarter, year}]
	if !ok {
		return nil, engine.ErrRecordNotFound
	}
	return &rec, nil
}
