/*
seed.go - Reference-data setters and the dev seed

The engine itself never writes orders or configuration; these setters exist
for the import path that feeds the database, for tests, and for the -seed
dev bootstrap.
*/
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

// =============================================================================
// REFERENCE-DATA SETTERS
// =============================================================================

func (s *Store) SaveAgent(ctx context.Context, a engine.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		string(a.ID), a.Name,
	)
	return err
}

func (s *Store) SaveArticle(ctx context.Context, a engine.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, name, brand) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, brand = excluded.brand`,
		string(a.ID), a.Name, a.Brand,
	)
	return err
}

// SaveOrder stores the order and replaces its lines.
func (s *Store) SaveOrder(ctx context.Context, o engine.SalesOrder, lines []engine.SalesOrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales_orders (id, agent_id, order_date, order_type, total, taxable_base, tax, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			order_date = excluded.order_date,
			order_type = excluded.order_type,
			total = excluded.total,
			taxable_base = excluded.taxable_base,
			tax = excluded.tax,
			status = excluded.status`,
		string(o.ID), string(o.AgentID), o.Date.Format(dateFormat), o.OrderType,
		o.Total.String(), o.TaxableBase.String(), o.Tax.String(), string(o.Status),
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_lines WHERE order_id = ?", string(o.ID)); err != nil {
		return err
	}
	for _, l := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, article_id, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(o.ID), l.Position, string(l.ArticleID),
			l.Quantity.String(), l.UnitPrice.String(), l.Subtotal.String(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) SaveRateConfig(ctx context.Context, c engine.RateConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_configs (kind, brand, order_type, year, percent, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(c.Kind), nullable(c.Brand), nullable(c.OrderType), c.Year,
		c.Percent.String(), boolInt(c.Active),
	)
	return err
}

func (s *Store) SaveSpecialCondition(ctx context.Context, c engine.SpecialCondition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var agent, article, from, to any
	if c.Agent != nil {
		agent = string(*c.Agent)
	}
	if c.Article != nil {
		article = string(*c.Article)
	}
	if c.From != nil {
		from = c.From.Format(dateFormat)
	}
	if c.To != nil {
		to = c.To.Format(dateFormat)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO special_conditions (id, agent_id, article_id, percent, active, date_from, date_to)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			article_id = excluded.article_id,
			percent = excluded.percent,
			active = excluded.active,
			date_from = excluded.date_from,
			date_to = excluded.date_to`,
		c.ID, agent, article, c.Percent.String(), boolInt(c.Active), from, to,
	)
	return err
}

func (s *Store) SaveBudget(ctx context.Context, b engine.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var month any
	if b.Month != nil {
		month = *b.Month
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (agent_id, article_id, year, month, amount, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(b.AgentID), string(b.ArticleID), b.Year, month, b.Amount.String(), boolInt(b.Active),
	)
	return err
}

func (s *Store) SaveBrandTarget(ctx context.Context, t engine.BrandTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO brand_targets (agent_id, brand, quarter, year, amount, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, brand, quarter, year) DO UPDATE SET
			amount = excluded.amount,
			active = excluded.active`,
		string(t.AgentID), engine.NormalizeBrand(t.Brand), t.Quarter, t.Year,
		t.Amount.String(), boolInt(t.Active),
	)
	return err
}

// SaveRebateTiers replaces the brand's tier table. Band order is the
// evaluation order.
func (s *Store) SaveRebateTiers(ctx context.Context, brand string, tiers []engine.RebateTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	norm := engine.NormalizeBrand(brand)
	if _, err := tx.ExecContext(ctx, "DELETE FROM rebate_tiers WHERE brand = ?", norm); err != nil {
		return err
	}
	for i, t := range tiers {
		var max any
		if t.Max != nil {
			max = t.Max.String()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rebate_tiers (brand, position, tier_min, tier_max, percent, active)
			VALUES (?, ?, ?, ?, ?, ?)`,
			norm, i, t.Min.String(), max, t.Percent.String(), boolInt(t.Active),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) SaveFixedAmount(ctx context.Context, f engine.FixedAmount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixed_amounts (agent_id, brand, amount, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(agent_id, brand) DO UPDATE SET
			amount = excluded.amount,
			active = excluded.active`,
		string(f.AgentID), engine.NormalizeBrand(f.Brand), f.Amount.String(), boolInt(f.Active),
	)
	return err
}

func (s *Store) SaveFixedPayRule(ctx context.Context, r engine.FixedPayRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixed_pay_rules (threshold_year, min_sales_pct, active)
		VALUES (?, ?, ?)`,
		r.ThresholdYear, r.MinSalesPct.String(), boolInt(r.Active),
	)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// DEV SEED
// =============================================================================

// Seed loads a small demo dataset: one agent, two branded articles, one
// November order with shipping, configuration for both rate kinds, a tier
// table and a quarterly target.
func (s *Store) Seed(ctx context.Context) error {
	dec := engine.MustDecimal

	if err := s.SaveAgent(ctx, engine.Agent{ID: "4", Name: "Demo Agent"}); err != nil {
		return fmt.Errorf("seed agent: %w", err)
	}
	if err := s.SaveArticle(ctx, engine.Article{ID: "A-100", Name: "Syrup 500ml", Brand: "ACME"}); err != nil {
		return fmt.Errorf("seed article: %w", err)
	}
	if err := s.SaveArticle(ctx, engine.Article{ID: "A-200", Name: "Lotion 250ml", Brand: "ACME"}); err != nil {
		return fmt.Errorf("seed article: %w", err)
	}

	order := engine.SalesOrder{
		ID:          "ORD-1",
		AgentID:     "4",
		Date:        time.Date(2025, time.November, 12, 0, 0, 0, 0, time.UTC),
		OrderType:   "Transfer",
		Total:       dec("1260"),
		TaxableBase: dec("1000"),
		Tax:         dec("210"),
		Status:      engine.OrderActive,
	}
	lines := []engine.SalesOrderLine{
		{OrderID: "ORD-1", Position: 1, ArticleID: "A-100", Quantity: dec("10"), UnitPrice: dec("100"), Subtotal: dec("1000")},
	}
	if err := s.SaveOrder(ctx, order, lines); err != nil {
		return fmt.Errorf("seed order: %w", err)
	}

	configs := []engine.RateConfig{
		{Kind: engine.KindCommission, Brand: "ACME", OrderType: "Transfer", Year: 2025, Percent: dec("5"), Active: true},
		{Kind: engine.KindCommission, Brand: "", OrderType: "Directo", Year: 2025, Percent: dec("10"), Active: true},
		{Kind: engine.KindTransportDiscount, Brand: "ACME", Year: 2025, Percent: dec("10"), Active: true},
		{Kind: engine.KindBudgetRebate, Brand: "", Year: 2025, Percent: dec("2"), Active: true},
	}
	for _, c := range configs {
		if err := s.SaveRateConfig(ctx, c); err != nil {
			return fmt.Errorf("seed rate config: %w", err)
		}
	}

	tiers := []engine.RebateTier{
		{Brand: "ACME", Min: dec("80"), Max: decPtr("100"), Percent: dec("2"), Active: true},
		{Brand: "ACME", Min: dec("100"), Max: decPtr("120"), Percent: dec("3"), Active: true},
		{Brand: "ACME", Min: dec("120"), Percent: dec("5"), Active: true},
	}
	if err := s.SaveRebateTiers(ctx, "ACME", tiers); err != nil {
		return fmt.Errorf("seed tiers: %w", err)
	}

	if err := s.SaveBrandTarget(ctx, engine.BrandTarget{
		AgentID: "4", Brand: "ACME", Quarter: 4, Year: 2025, Amount: dec("800"), Active: true,
	}); err != nil {
		return fmt.Errorf("seed target: %w", err)
	}

	if err := s.SaveFixedAmount(ctx, engine.FixedAmount{
		AgentID: "4", Brand: "ACME", Amount: dec("150"), Active: true,
	}); err != nil {
		return fmt.Errorf("seed fixed amount: %w", err)
	}

	// Historical gate, inactive: pay unconditionally.
	if err := s.SaveFixedPayRule(ctx, engine.FixedPayRule{
		ThresholdYear: 2024, MinSalesPct: dec("50"), Active: false,
	}); err != nil {
		return fmt.Errorf("seed pay rule: %w", err)
	}
	return nil
}

func decPtr(s string) *decimal.Decimal {
	d := engine.MustDecimal(s)
	return &d
}
