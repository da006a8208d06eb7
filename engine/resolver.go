/*
resolver.go - Effective-rate resolution with precedence

PURPOSE:
  Resolves the percentage that applies to a (kind, brand, order-type, year)
  key. Precedence is two-level: an active brand-specific row beats an active
  brand-agnostic ("general") row; if neither exists the lookup fails with
  ErrNotConfigured and the caller decides what that means (the commission
  path treats it as 0% plus a warning, the transport path as no discount).

ORDER-TYPE CANONICALIZATION:
  Order-type names arrive in many spellings. Names containing "transfer"
  map to "Transfer"; names containing "directo", equal to "normal", or empty
  map to "Directo"; anything else passes through unchanged.

CAPABILITY PROBE:
  Whether articles carry a brand at all is probed once at startup and
  injected here. Without the brand column, only brand-agnostic rows can
  match; the resolver never re-checks the schema.
*/
package engine

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical order-type keys.
const (
	OrderTypeTransfer = "Transfer"
	OrderTypeDirect   = "Directo"
)

// CanonicalOrderType normalizes an order-type name onto the configuration
// table's key space.
func CanonicalOrderType(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(n, "transfer"):
		return OrderTypeTransfer
	case strings.Contains(n, "directo"), n == "normal", n == "":
		return OrderTypeDirect
	default:
		return strings.TrimSpace(name)
	}
}

// Resolver answers effective-rate lookups against the configuration tables.
type Resolver struct {
	configs ConfigStore
	caps    Capabilities
}

func NewResolver(configs ConfigStore, caps Capabilities) *Resolver {
	return &Resolver{configs: configs, caps: caps}
}

// Rate resolves the active percentage for the key, brand-specific rows
// first, then brand-agnostic. extraKey is the order-type name for
// KindCommission lookups and ignored otherwise. Returns a
// *NotConfiguredError (wrapping ErrNotConfigured) when no row matches.
func (r *Resolver) Rate(ctx context.Context, kind RateKind, brand, extraKey string, year int) (Rate, error) {
	normBrand := NormalizeBrand(brand)
	if !r.caps.ArticleBrand {
		normBrand = ""
	}
	orderType := ""
	if kind == KindCommission {
		orderType = CanonicalOrderType(extraKey)
	}

	rows, err := r.configs.ActiveRateConfigs(ctx, kind, year)
	if err != nil {
		return Rate{}, err
	}

	if normBrand != "" {
		if rate, ok := pick(rows, normBrand, orderType, year); ok {
			return rate, nil
		}
	}
	if rate, ok := pick(rows, "", orderType, year); ok {
		return rate, nil
	}

	return Rate{}, &NotConfiguredError{Kind: kind, Brand: normBrand, Key: orderType, Year: year}
}

func pick(rows []RateConfig, brand, orderType string, year int) (Rate, bool) {
	for _, row := range rows {
		if !row.Active || row.Year != year {
			continue
		}
		if NormalizeBrand(row.Brand) != brand {
			continue
		}
		if orderType != "" && CanonicalOrderType(row.OrderType) != orderType {
			continue
		}
		return Rate{Percent: row.Percent, Source: sourceFor(brand)}, true
	}
	return Rate{}, false
}

func sourceFor(brand string) RateSource {
	if brand == "" {
		return SourceGeneral
	}
	return SourceBrand
}

// =============================================================================
// RATE - A resolved percentage with provenance
// =============================================================================

type RateSource string

const (
	SourceBrand    RateSource = "brand"    // brand-specific configuration row
	SourceGeneral  RateSource = "general"  // brand-agnostic configuration row
	SourceOverride RateSource = "override" // special condition
	SourceNone     RateSource = "none"     // nothing configured, 0% applied
)

// Rate is a resolved percentage plus where it came from, for audit text.
type Rate struct {
	Percent decimal.Decimal
	Source  RateSource
}
