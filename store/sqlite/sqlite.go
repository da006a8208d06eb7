/*
Package sqlite provides the SQLite-backed implementation of the engine
storage interfaces.

PURPOSE:
  Implements engine.Store (orders, configuration, computed records) over
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLES:
  agents, articles, sales_orders, order_lines:   order history (read side)
  rate_configs, special_conditions, budgets,
  brand_targets, rebate_tiers, fixed_amounts,
  fixed_pay_rules:                               configuration tables
  commissions, commission_details, rebates:      computed records (write side)

IDEMPOTENT WRITES:
  SaveCommission upserts the commissions row and replaces ALL of its
  commission_details rows inside one SQL transaction. A failure rolls the
  whole transaction back, leaving the previous period data intact. Rebates
  are plain upserts on their composite key.

DECIMALS:
  Monetary values and percentages are stored as TEXT and parsed with
  shopspring/decimal, so no precision is lost round-tripping.

CAPABILITY PROBE:
  Whether the articles table carries a brand column is probed ONCE when the
  store is opened and exposed via Capabilities(). The engine receives the
  probe result at construction; nothing re-checks the schema at runtime.

WAL MODE:
  SQLite is opened with WAL for better read concurrency. A mutex serializes
  writers; with PostgreSQL the database's own concurrency control would
  replace it.

USAGE:
  store, err := sqlite.New("./data/commissions.db")
  if err != nil { ... }
  defer store.Close()
  resolver := engine.NewResolver(store, store.Capabilities())

SEE ALSO:
  - engine/store.go: interface definitions
  - engine/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

const dateFormat = "2006-01-02"

// Store implements engine.Store using SQLite.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	caps engine.Capabilities
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A ":memory:" database exists per connection; a second pooled
	// connection would see an empty schema.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.probeCapabilities(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to probe schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Capabilities returns the schema probe result computed at open time.
func (s *Store) Capabilities() engine.Capabilities {
	return s.caps
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT
	);

	CREATE TABLE IF NOT EXISTS sales_orders (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		order_date TEXT NOT NULL,
		order_type TEXT NOT NULL,
		total TEXT NOT NULL,
		taxable_base TEXT NOT NULL,
		tax TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_agent_date
		ON sales_orders(agent_id, order_date);

	CREATE TABLE IF NOT EXISTS order_lines (
		order_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		article_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		PRIMARY KEY (order_id, position)
	);

	CREATE TABLE IF NOT EXISTS rate_configs (
		kind TEXT NOT NULL,
		brand TEXT,
		order_type TEXT,
		year INTEGER NOT NULL,
		percent TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_rate_configs_kind_year
		ON rate_configs(kind, year);

	CREATE TABLE IF NOT EXISTS special_conditions (
		id TEXT PRIMARY KEY,
		agent_id TEXT,
		article_id TEXT,
		percent TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		date_from TEXT,
		date_to TEXT
	);

	CREATE TABLE IF NOT EXISTS budgets (
		agent_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER,
		amount TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_agent_year
		ON budgets(agent_id, year);

	CREATE TABLE IF NOT EXISTS brand_targets (
		agent_id TEXT NOT NULL,
		brand TEXT NOT NULL,
		quarter INTEGER NOT NULL,
		year INTEGER NOT NULL,
		amount TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (agent_id, brand, quarter, year)
	);

	CREATE TABLE IF NOT EXISTS rebate_tiers (
		brand TEXT NOT NULL,
		position INTEGER NOT NULL,
		tier_min TEXT NOT NULL,
		tier_max TEXT,
		percent TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (brand, position)
	);

	CREATE TABLE IF NOT EXISTS fixed_amounts (
		agent_id TEXT NOT NULL,
		brand TEXT NOT NULL,
		amount TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (agent_id, brand)
	);

	CREATE TABLE IF NOT EXISTS fixed_pay_rules (
		threshold_year INTEGER NOT NULL,
		min_sales_pct TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS commissions (
		agent_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		fixed_total TEXT NOT NULL,
		sales_commission TEXT NOT NULL,
		budget_rebate TEXT NOT NULL,
		sales_total TEXT NOT NULL,
		grand_total TEXT NOT NULL,
		status TEXT NOT NULL,
		computed_by TEXT,
		notes TEXT,
		computed_at TEXT NOT NULL,
		PRIMARY KEY (agent_id, month, year)
	);

	CREATE TABLE IF NOT EXISTS commission_details (
		agent_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		order_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		base TEXT NOT NULL,
		rate TEXT NOT NULL,
		amount TEXT NOT NULL,
		rationale TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_details_parent
		ON commission_details(agent_id, month, year);

	CREATE TABLE IF NOT EXISTS rebates (
		agent_id TEXT NOT NULL,
		brand TEXT NOT NULL,
		quarter INTEGER NOT NULL,
		year INTEGER NOT NULL,
		sales TEXT NOT NULL,
		target TEXT NOT NULL,
		completion_pct TEXT NOT NULL,
		rate TEXT NOT NULL,
		rebate TEXT NOT NULL,
		computed_at TEXT NOT NULL,
		PRIMARY KEY (agent_id, brand, quarter, year)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// probeCapabilities checks once whether articles carry a brand column.
func (s *Store) probeCapabilities() error {
	rows, err := s.db.Query("PRAGMA table_info(articles)")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, "brand") {
			s.caps.ArticleBrand = true
		}
	}
	return rows.Err()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ORDER STORE (read side)
// =============================================================================

func (s *Store) AgentExists(ctx context.Context, agent engine.AgentID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM agents WHERE id = ?", string(agent),
	).Scan(&count)
	return count > 0, err
}

func (s *Store) OrdersForPeriod(ctx context.Context, agent engine.AgentID, p engine.Period) ([]engine.SalesOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := p.Bounds()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, order_date, order_type, total, taxable_base, tax, status
		FROM sales_orders
		WHERE agent_id = ? AND order_date >= ? AND order_date < ?
		ORDER BY order_date, id`,
		string(agent), start.Format(dateFormat), end.Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []engine.SalesOrder
	for rows.Next() {
		var (
			o                       engine.SalesOrder
			id, agentID, date       string
			total, taxableBase, tax string
			status                  string
		)
		if err := rows.Scan(&id, &agentID, &date, &o.OrderType, &total, &taxableBase, &tax, &status); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.ID = engine.OrderID(id)
		o.AgentID = engine.AgentID(agentID)
		o.Date, _ = time.Parse(dateFormat, date)
		o.Total = parseDecimal(total)
		o.TaxableBase = parseDecimal(taxableBase)
		o.Tax = parseDecimal(tax)
		o.Status = engine.OrderStatus(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// LinesForOrder returns the order's lines with the article brand resolved
// and normalized at this boundary, so business logic never sees schema
// casing quirks.
func (s *Store) LinesForOrder(ctx context.Context, order engine.OrderID) ([]engine.SalesOrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT l.order_id, l.position, l.article_id, l.quantity, l.unit_price, l.subtotal,
		       COALESCE(a.brand, '')
		FROM order_lines l
		LEFT JOIN articles a ON a.id = l.article_id
		WHERE l.order_id = ?
		ORDER BY l.position`

	rows, err := s.db.QueryContext(ctx, query, string(order))
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []engine.SalesOrderLine
	for rows.Next() {
		var (
			l                             engine.SalesOrderLine
			orderID, articleID            string
			quantity, unitPrice, subtotal string
			brand                         string
		)
		if err := rows.Scan(&orderID, &l.Position, &articleID, &quantity, &unitPrice, &subtotal, &brand); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		l.OrderID = engine.OrderID(orderID)
		l.ArticleID = engine.ArticleID(articleID)
		l.Quantity = parseDecimal(quantity)
		l.UnitPrice = parseDecimal(unitPrice)
		l.Subtotal = parseDecimal(subtotal)
		if s.caps.ArticleBrand {
			l.Brand = engine.NormalizeBrand(brand)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// =============================================================================
// CONFIG STORE (read side)
// =============================================================================

func (s *Store) ActiveRateConfigs(ctx context.Context, kind engine.RateKind, year int) ([]engine.RateConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COALESCE(brand, ''), COALESCE(order_type, ''), year, percent
		FROM rate_configs
		WHERE kind = ? AND year = ? AND active = 1`,
		string(kind), year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate configs: %w", err)
	}
	defer rows.Close()

	var configs []engine.RateConfig
	for rows.Next() {
		var (
			c       engine.RateConfig
			k       string
			percent string
		)
		if err := rows.Scan(&k, &c.Brand, &c.OrderType, &c.Year, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan rate config: %w", err)
		}
		c.Kind = engine.RateKind(k)
		c.Percent = parseDecimal(percent)
		c.Active = true
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func (s *Store) SpecialConditionsFor(ctx context.Context, agent engine.AgentID) ([]engine.SpecialCondition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, article_id, percent, date_from, date_to
		FROM special_conditions
		WHERE active = 1 AND (agent_id IS NULL OR agent_id = ?)`,
		string(agent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query special conditions: %w", err)
	}
	defer rows.Close()

	var conditions []engine.SpecialCondition
	for rows.Next() {
		var (
			c                  engine.SpecialCondition
			agentID, articleID sql.NullString
			percent            string
			from, to           sql.NullString
		)
		if err := rows.Scan(&c.ID, &agentID, &articleID, &percent, &from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan special condition: %w", err)
		}
		if agentID.Valid {
			a := engine.AgentID(agentID.String)
			c.Agent = &a
		}
		if articleID.Valid {
			a := engine.ArticleID(articleID.String)
			c.Article = &a
		}
		c.Percent = parseDecimal(percent)
		c.Active = true
		if from.Valid {
			if t, err := time.Parse(dateFormat, from.String); err == nil {
				c.From = &t
			}
		}
		if to.Valid {
			if t, err := time.Parse(dateFormat, to.String); err == nil {
				c.To = &t
			}
		}
		conditions = append(conditions, c)
	}
	return conditions, rows.Err()
}

func (s *Store) BudgetsFor(ctx context.Context, agent engine.AgentID, year int) ([]engine.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, article_id, year, month, amount
		FROM budgets
		WHERE agent_id = ? AND year = ? AND active = 1`,
		string(agent), year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []engine.Budget
	for rows.Next() {
		var (
			b                  engine.Budget
			agentID, articleID string
			month              sql.NullInt64
			amount             string
		)
		if err := rows.Scan(&agentID, &articleID, &b.Year, &month, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.AgentID = engine.AgentID(agentID)
		b.ArticleID = engine.ArticleID(articleID)
		if month.Valid {
			m := int(month.Int64)
			b.Month = &m
		}
		b.Amount = parseDecimal(amount)
		b.Active = true
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Store) BrandTarget(ctx context.Context, agent engine.AgentID, brand string, quarter, year int) (*engine.BrandTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		t       engine.BrandTarget
		agentID string
		amount  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT agent_id, brand, quarter, year, amount
		FROM brand_targets
		WHERE agent_id = ? AND UPPER(brand) = ? AND quarter = ? AND year = ? AND active = 1`,
		string(agent), engine.NormalizeBrand(brand), quarter, year,
	).Scan(&agentID, &t.Brand, &t.Quarter, &t.Year, &amount)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query brand target: %w", err)
	}
	t.AgentID = engine.AgentID(agentID)
	t.Amount = parseDecimal(amount)
	t.Active = true
	return &t, nil
}

func (s *Store) RebateTiersFor(ctx context.Context, brand string) ([]engine.RebateTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT brand, tier_min, tier_max, percent
		FROM rebate_tiers
		WHERE UPPER(brand) = ? AND active = 1
		ORDER BY position`,
		engine.NormalizeBrand(brand),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rebate tiers: %w", err)
	}
	defer rows.Close()

	var tiers []engine.RebateTier
	for rows.Next() {
		var (
			t       engine.RebateTier
			min     string
			max     sql.NullString
			percent string
		)
		if err := rows.Scan(&t.Brand, &min, &max, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan rebate tier: %w", err)
		}
		t.Min = parseDecimal(min)
		if max.Valid {
			m := parseDecimal(max.String)
			t.Max = &m
		}
		t.Percent = parseDecimal(percent)
		t.Active = true
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (s *Store) FixedAmountsFor(ctx context.Context, agent engine.AgentID) ([]engine.FixedAmount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, brand, amount
		FROM fixed_amounts
		WHERE agent_id = ? AND active = 1`,
		string(agent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixed amounts: %w", err)
	}
	defer rows.Close()

	var amounts []engine.FixedAmount
	for rows.Next() {
		var (
			f       engine.FixedAmount
			agentID string
			amount  string
		)
		if err := rows.Scan(&agentID, &f.Brand, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan fixed amount: %w", err)
		}
		f.AgentID = engine.AgentID(agentID)
		f.Amount = parseDecimal(amount)
		f.Active = true
		amounts = append(amounts, f)
	}
	return amounts, rows.Err()
}

// FixedPayRule returns the latest active rule by threshold year, or nil.
func (s *Store) FixedPayRule(ctx context.Context) (*engine.FixedPayRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r   engine.FixedPayRule
		pct string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT threshold_year, min_sales_pct
		FROM fixed_pay_rules
		WHERE active = 1
		ORDER BY threshold_year DESC
		LIMIT 1`,
	).Scan(&r.ThresholdYear, &pct)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fixed pay rule: %w", err)
	}
	r.MinSalesPct = parseDecimal(pct)
	r.Active = true
	return &r, nil
}

// =============================================================================
// RECORD STORE (write side)
// =============================================================================

// SaveCommission upserts the record and replaces its detail rows in a
// single transaction. Either the whole new set lands or nothing changes.
func (s *Store) SaveCommission(ctx context.Context, rec engine.CommissionRecord, details []engine.CommissionDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commissions
			(agent_id, month, year, fixed_total, sales_commission, budget_rebate,
			 sales_total, grand_total, status, computed_by, notes, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, month, year) DO UPDATE SET
			fixed_total = excluded.fixed_total,
			sales_commission = excluded.sales_commission,
			budget_rebate = excluded.budget_rebate,
			sales_total = excluded.sales_total,
			grand_total = excluded.grand_total,
			status = excluded.status,
			computed_by = excluded.computed_by,
			notes = excluded.notes,
			computed_at = excluded.computed_at`,
		string(rec.AgentID), rec.Month, rec.Year,
		rec.FixedTotal.String(), rec.SalesCommission.String(), rec.BudgetRebate.String(),
		rec.SalesTotal.String(), rec.GrandTotal.String(),
		string(rec.Status), rec.ComputedBy, rec.Notes,
		rec.ComputedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert commission: %w", err)
	}

	// Full replace: delete-then-reinsert keeps recomputation idempotent.
	_, err = tx.ExecContext(ctx,
		"DELETE FROM commission_details WHERE agent_id = ? AND month = ? AND year = ?",
		string(rec.AgentID), rec.Month, rec.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to delete details: %w", err)
	}

	for _, d := range details {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO commission_details
				(agent_id, month, year, order_id, article_id, quantity, base, rate, amount, rationale)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(d.AgentID), d.Month, d.Year, string(d.OrderID), string(d.ArticleID),
			d.Quantity.String(), d.Base.String(), d.Rate.String(), d.Amount.String(), d.Rationale,
		)
		if err != nil {
			return fmt.Errorf("failed to insert detail: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) Commission(ctx context.Context, agent engine.AgentID, p engine.Period) (*engine.CommissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec                                                engine.CommissionRecord
		agentID, status, computedAt                        string
		fixed, salesCom, budgetReb, salesTotal, grandTotal string
		computedBy, notes                                  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT agent_id, month, year, fixed_total, sales_commission, budget_rebate,
		       sales_total, grand_total, status, computed_by, notes, computed_at
		FROM commissions
		WHERE agent_id = ? AND month = ? AND year = ?`,
		string(agent), p.Month, p.Year,
	).Scan(&agentID, &rec.Month, &rec.Year, &fixed, &salesCom, &budgetReb,
		&salesTotal, &grandTotal, &status, &computedBy, &notes, &computedAt)

	if err == sql.ErrNoRows {
		return nil, engine.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query commission: %w", err)
	}

	rec.AgentID = engine.AgentID(agentID)
	rec.FixedTotal = parseDecimal(fixed)
	rec.SalesCommission = parseDecimal(salesCom)
	rec.BudgetRebate = parseDecimal(budgetReb)
	rec.SalesTotal = parseDecimal(salesTotal)
	rec.GrandTotal = parseDecimal(grandTotal)
	rec.Status = engine.CommissionStatus(status)
	rec.ComputedBy = computedBy.String
	rec.Notes = notes.String
	rec.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
	return &rec, nil
}

func (s *Store) CommissionDetails(ctx context.Context, agent engine.AgentID, p engine.Period) ([]engine.CommissionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, month, year, order_id, article_id, quantity, base, rate, amount, rationale
		FROM commission_details
		WHERE agent_id = ? AND month = ? AND year = ?
		ORDER BY order_id, article_id`,
		string(agent), p.Month, p.Year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query details: %w", err)
	}
	defer rows.Close()

	var details []engine.CommissionDetail
	for rows.Next() {
		var (
			d                            engine.CommissionDetail
			agentID, orderID, articleID  string
			quantity, base, rate, amount string
			rationale                    sql.NullString
		)
		if err := rows.Scan(&agentID, &d.Month, &d.Year, &orderID, &articleID,
			&quantity, &base, &rate, &amount, &rationale); err != nil {
			return nil, fmt.Errorf("failed to scan detail: %w", err)
		}
		d.AgentID = engine.AgentID(agentID)
		d.OrderID = engine.OrderID(orderID)
		d.ArticleID = engine.ArticleID(articleID)
		d.Quantity = parseDecimal(quantity)
		d.Base = parseDecimal(base)
		d.Rate = parseDecimal(rate)
		d.Amount = parseDecimal(amount)
		d.Rationale = rationale.String
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *Store) UpdateCommissionStatus(ctx context.Context, agent engine.AgentID, p engine.Period, status engine.CommissionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE commissions SET status = ? WHERE agent_id = ? AND month = ? AND year = ?",
		string(status), string(agent), p.Month, p.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrRecordNotFound
	}
	return nil
}

func (s *Store) SaveRebate(ctx context.Context, rec engine.RebateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rebates
			(agent_id, brand, quarter, year, sales, target, completion_pct, rate, rebate, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, brand, quarter, year) DO UPDATE SET
			sales = excluded.sales,
			target = excluded.target,
			completion_pct = excluded.completion_pct,
			rate = excluded.rate,
			rebate = excluded.rebate,
			computed_at = excluded.computed_at`,
		string(rec.AgentID), engine.NormalizeBrand(rec.Brand), rec.Quarter, rec.Year,
		rec.Sales.String(), rec.Target.String(), rec.CompletionPct.String(),
		rec.Rate.String(), rec.Rebate.String(),
		rec.ComputedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rebate: %w", err)
	}
	return nil
}

func (s *Store) Rebate(ctx context.Context, agent engine.AgentID, brand string, quarter, year int) (*engine.RebateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec                                  engine.RebateRecord
		agentID, computedAt                  string
		sales, target, completion, rate, reb string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT agent_id, brand, quarter, year, sales, target, completion_pct, rate, rebate, computed_at
		FROM rebates
		WHERE agent_id = ? AND brand = ? AND quarter = ? AND year = ?`,
		string(agent), engine.NormalizeBrand(brand), quarter, year,
	).Scan(&agentID, &rec.Brand, &rec.Quarter, &rec.Year,
		&sales, &target, &completion, &rate, &reb, &computedAt)

	if err == sql.ErrNoRows {
		return nil, engine.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rebate: %w", err)
	}

	rec.AgentID = engine.AgentID(agentID)
	rec.Sales = parseDecimal(sales)
	rec.Target = parseDecimal(target)
	rec.CompletionPct = parseDecimal(completion)
	rec.Rate = parseDecimal(rate)
	rec.Rebate = parseDecimal(reb)
	rec.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
	return &rec, nil
}
