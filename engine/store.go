/*
store.go - Persistence interfaces between the engine and the database

PURPOSE:
  Defines the read queries the engine consumes and the write operations it
  produces. The engine never owns connection management or schema; it only
  depends on these interfaces. Implementations exist for SQLite
  (store/sqlite) and in-memory (engine/store, for tests).

READ SIDE:
  Everything the calculators need: period orders with lines, configuration
  rows, budgets, targets, tiers, fixed amounts. Implementations must return
  canonical structs - any casing or aliasing quirks of the external schema
  are resolved before rows cross this boundary.

WRITE SIDE:
  SaveCommission is the idempotency mechanism: it upserts the record keyed
  by (agent, month, year) and replaces ALL of its detail rows in a single
  transaction. There is no partial detail update. Either the whole new set
  lands or the previous set survives untouched.

SEE ALSO:
  - store/sqlite/sqlite.go: production implementation
  - engine/store/memory.go: in-memory implementation for tests
*/
package engine

import "context"

// =============================================================================
// READ SIDE
// =============================================================================

// OrderStore provides read access to orders and their lines.
type OrderStore interface {
	// AgentExists reports whether the agent is known.
	AgentExists(ctx context.Context, agent AgentID) (bool, error)

	// OrdersForPeriod returns every order for the agent dated within the
	// month, regardless of status. Ordered by date, then order ID.
	OrdersForPeriod(ctx context.Context, agent AgentID, p Period) ([]SalesOrder, error)

	// LinesForOrder returns the order's lines ordered by position, with the
	// article's brand already resolved and normalized.
	LinesForOrder(ctx context.Context, order OrderID) ([]SalesOrderLine, error)
}

// ConfigStore provides read access to the configuration and target tables.
type ConfigStore interface {
	// ActiveRateConfigs returns active rows of one kind for one year, both
	// brand-specific and brand-agnostic.
	ActiveRateConfigs(ctx context.Context, kind RateKind, year int) ([]RateConfig, error)

	// SpecialConditionsFor returns active conditions whose agent dimension
	// is either the given agent or the all-agents wildcard.
	SpecialConditionsFor(ctx context.Context, agent AgentID) ([]SpecialCondition, error)

	// BudgetsFor returns active budget rows for the agent and year, both
	// monthly and annual.
	BudgetsFor(ctx context.Context, agent AgentID, year int) ([]Budget, error)

	// BrandTarget returns the active quarterly target, or nil when none.
	BrandTarget(ctx context.Context, agent AgentID, brand string, quarter, year int) (*BrandTarget, error)

	// RebateTiersFor returns active tier bands for the brand, in table order.
	RebateTiersFor(ctx context.Context, brand string) ([]RebateTier, error)

	// FixedAmountsFor returns active fixed monthly amounts for the agent.
	FixedAmountsFor(ctx context.Context, agent AgentID) ([]FixedAmount, error)

	// FixedPayRule returns the latest active rule, or nil when none.
	FixedPayRule(ctx context.Context) (*FixedPayRule, error)
}

// =============================================================================
// WRITE SIDE
// =============================================================================

// RecordStore persists computed commission and rebate records.
type RecordStore interface {
	// SaveCommission upserts the record and atomically replaces all of its
	// detail rows. Not safe against a concurrent writer on the same
	// (agent, month, year) key; callers own key disjointness.
	SaveCommission(ctx context.Context, rec CommissionRecord, details []CommissionDetail) error

	// Commission returns a stored record, or ErrRecordNotFound.
	Commission(ctx context.Context, agent AgentID, p Period) (*CommissionRecord, error)

	// CommissionDetails returns the stored detail rows for a record,
	// ordered by order ID then article.
	CommissionDetails(ctx context.Context, agent AgentID, p Period) ([]CommissionDetail, error)

	// UpdateCommissionStatus advances the status of a stored record.
	UpdateCommissionStatus(ctx context.Context, agent AgentID, p Period, status CommissionStatus) error

	// SaveRebate upserts a rebate record keyed by (agent, brand, quarter, year).
	SaveRebate(ctx context.Context, rec RebateRecord) error

	// Rebate returns a stored rebate record, or ErrRecordNotFound.
	Rebate(ctx context.Context, agent AgentID, brand string, quarter, year int) (*RebateRecord, error)
}

// Store bundles everything the coordinators need.
type Store interface {
	OrderStore
	ConfigStore
	RecordStore
}
