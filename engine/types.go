/*
Package engine provides the core commission and rebate calculation engine.

PURPOSE:
  This package contains the domain types and the two leaf components every
  calculation depends on: the configuration resolver (effective rate lookup
  with brand-specific over brand-agnostic precedence) and the order
  normalizer (period order loading plus proportional transport-discount
  allocation).

KEY CONCEPTS IN THIS FILE (types.go):
  - SalesOrder / SalesOrderLine: immutable order data owned by the order
    management subsystem; the engine only reads them
  - RateConfig: a time-versioned percentage row, one struct for all three
    configuration kinds (commission, transport discount, budget rebate)
  - SpecialCondition: per-agent/per-article override that beats any
    configured rate
  - CommissionRecord / CommissionDetail: the persisted output of a monthly
    computation, one detail row per (order, article) line
  - RebateRecord: the persisted output of a quarterly computation

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every monetary amount and percentage
  2. Canonical fields: the data-access layer maps whatever casing the
     external schema uses onto these structs; no aliasing past this point
  3. Determinism: recomputing a period with unchanged inputs yields
     identical records and detail rows

SEE ALSO:
  - resolver.go: configuration precedence and order-type canonicalization
  - normalize.go: period loading and transport allocation
  - store.go: persistence interfaces
*/
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AgentID string
type OrderID string
type ArticleID string

// =============================================================================
// REFERENCE DATA
// =============================================================================

type Agent struct {
	ID   AgentID
	Name string
}

// Article is reference data. Brand may be empty when the source schema does
// not carry a brand column (see Capabilities).
type Article struct {
	ID    ArticleID
	Name  string
	Brand string
}

// NormalizeBrand maps a brand name onto the canonical uppercase join key used
// by every brand-scoped configuration table.
func NormalizeBrand(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// MustDecimal parses a decimal literal, returning zero on malformed input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ORDERS
// =============================================================================

type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderCancelled OrderStatus = "cancelled"
	OrderPending   OrderStatus = "pending"
)

// SalesOrder is one order as owned by the order-management subsystem.
// Shipping component = Total - TaxableBase - Tax; may be negative or zero.
type SalesOrder struct {
	ID          OrderID
	AgentID     AgentID
	Date        time.Time
	OrderType   string
	Total       decimal.Decimal
	TaxableBase decimal.Decimal
	Tax         decimal.Decimal
	Status      OrderStatus
}

// Shipping returns the non-taxable shipping component of the order.
func (o SalesOrder) Shipping() decimal.Decimal {
	return o.Total.Sub(o.TaxableBase).Sub(o.Tax)
}

// Excluded reports whether the order must not contribute commission.
// Status matching is case-insensitive.
func (o SalesOrder) Excluded() bool {
	s := strings.ToLower(strings.TrimSpace(string(o.Status)))
	return s == string(OrderCancelled) || s == string(OrderPending)
}

// SalesOrderLine belongs to exactly one SalesOrder. Brand is resolved via the
// article at the data-access boundary and already normalized.
type SalesOrderLine struct {
	OrderID   OrderID
	Position  int
	ArticleID ArticleID
	Brand     string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// =============================================================================
// CONFIGURATION ROWS
// =============================================================================

// RateKind discriminates the three percentage configuration tables.
type RateKind string

const (
	KindCommission        RateKind = "commission"
	KindTransportDiscount RateKind = "transport_discount"
	KindBudgetRebate      RateKind = "budget_rebate"
)

// RateConfig is one time-versioned percentage row. Brand == "" means the row
// is brand-agnostic ("general") and loses to any exact brand match.
// OrderType is only meaningful for KindCommission.
type RateConfig struct {
	Kind      RateKind
	Brand     string
	OrderType string
	Year      int
	Percent   decimal.Decimal
	Active    bool
}

// SpecialCondition overrides any configured commission rate. A nil Agent or
// Article means the condition applies to all agents / all articles.
type SpecialCondition struct {
	ID      string
	Agent   *AgentID
	Article *ArticleID
	Percent decimal.Decimal
	Active  bool
	From    *time.Time
	To      *time.Time
}

// InForce reports whether the condition applies on the given date.
func (c SpecialCondition) InForce(at time.Time) bool {
	if !c.Active {
		return false
	}
	if c.From != nil && at.Before(*c.From) {
		return false
	}
	if c.To != nil && at.After(*c.To) {
		return false
	}
	return true
}

// Matches reports whether the condition covers (agent, article).
// Nil dimensions are wildcards.
func (c SpecialCondition) Matches(agent AgentID, article ArticleID) bool {
	if c.Agent != nil && *c.Agent != agent {
		return false
	}
	if c.Article != nil && *c.Article != article {
		return false
	}
	return true
}

// Specificity orders competing conditions: exact matches beat wildcards,
// agent match beats article match.
func (c SpecialCondition) Specificity() int {
	s := 0
	if c.Agent != nil {
		s += 2
	}
	if c.Article != nil {
		s++
	}
	return s
}

// Budget is a sales target row. A nil Month denotes an annual figure that is
// apportioned (/12 monthly, /4 quarterly) when no month-specific row exists
// for the same (agent, article, year).
type Budget struct {
	AgentID   AgentID
	ArticleID ArticleID
	Year      int
	Month     *int // 1-12, nil = annual
	Amount    decimal.Decimal
	Active    bool
}

// RebateTier is one completion-percentage band for a brand. A Max that is nil
// or <= 0 denotes an open-ended upper bound. Bands are half-open [Min, Max):
// a completion sitting exactly on a boundary belongs to the higher band.
type RebateTier struct {
	Brand   string
	Min     decimal.Decimal
	Max     *decimal.Decimal
	Percent decimal.Decimal
	Active  bool
}

// Contains reports whether completion falls inside the band.
func (t RebateTier) Contains(completion decimal.Decimal) bool {
	if completion.LessThan(t.Min) {
		return false
	}
	if t.Max == nil || t.Max.Sign() <= 0 {
		return true
	}
	return completion.LessThan(*t.Max)
}

// BrandTarget is an agent's quarterly sales target for one brand.
type BrandTarget struct {
	AgentID AgentID
	Brand   string
	Quarter int // 1-4
	Year    int
	Amount  decimal.Decimal
	Active  bool
}

// FixedAmount is a flat monthly stipend per agent/brand. Not time-scoped.
type FixedAmount struct {
	AgentID AgentID
	Brand   string
	Amount  decimal.Decimal
	Active  bool
}

// FixedPayRule is the (currently disabled by business decision) eligibility
// gate for fixed stipends: from ThresholdYear onward, pay only if monthly
// sales reach MinSalesPct of monthly budget. Kept as data so it can be
// re-enabled without a code change.
type FixedPayRule struct {
	ThresholdYear int
	MinSalesPct   decimal.Decimal
	Active        bool
}

// =============================================================================
// COMPUTED RECORDS
// =============================================================================

type CommissionStatus string

const (
	StatusPending  CommissionStatus = "pending"
	StatusApproved CommissionStatus = "approved"
	StatusPaid     CommissionStatus = "paid"
)

// CommissionRecord is the persisted result of one monthly computation,
// unique on (agent, month, year) and upserted on every recompute.
type CommissionRecord struct {
	AgentID         AgentID
	Month           int
	Year            int
	FixedTotal      decimal.Decimal
	SalesCommission decimal.Decimal
	BudgetRebate    decimal.Decimal // legacy column; quarterly rebates persist separately
	SalesTotal      decimal.Decimal
	GrandTotal      decimal.Decimal
	Status          CommissionStatus
	ComputedBy      string
	Notes           string
	ComputedAt      time.Time
}

// CommissionDetail is one audit row per (order, article) line. The full set
// for a record is replaced wholesale on every recompute; rows never survive
// a recalculation individually.
type CommissionDetail struct {
	AgentID   AgentID
	Month     int
	Year      int
	OrderID   OrderID
	ArticleID ArticleID
	Quantity  decimal.Decimal
	Base      decimal.Decimal // adjusted base after transport allocation
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	Rationale string
}

// RebateRecord is the persisted result of one quarterly computation, unique
// on (agent, brand, quarter, year). Brand == "" for the budget rebate, which
// is not brand-scoped.
type RebateRecord struct {
	AgentID       AgentID
	Brand         string
	Quarter       int
	Year          int
	Sales         decimal.Decimal
	Target        decimal.Decimal
	CompletionPct decimal.Decimal
	Rate          decimal.Decimal
	Rebate        decimal.Decimal
	ComputedAt    time.Time
}

// =============================================================================
// CAPABILITIES
// =============================================================================

// Capabilities is the result of probing the backing schema once at startup.
// It is injected into the resolver and normalizer instead of being memoized
// in a hidden static.
type Capabilities struct {
	// ArticleBrand reports whether articles carry a brand column. When false,
	// every line is treated as brandless and only brand-agnostic
	// configuration rows can match.
	ArticleBrand bool
}
