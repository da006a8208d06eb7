package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldpay/commission-engine/engine"
	"github.com/fieldpay/commission-engine/engine/store"
)

func newResolver(rates []engine.RateConfig, caps engine.Capabilities) *engine.Resolver {
	mem := store.NewMemory()
	mem.Rates = rates
	return engine.NewResolver(mem, caps)
}

// =============================================================================
// ORDER-TYPE CANONICALIZATION
// =============================================================================

func TestCanonicalOrderType(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Transfer", "Transfer"},
		{"transferencia mayorista", "Transfer"},
		{"TRANSFER", "Transfer"},
		{"Directo", "Directo"},
		{"venta directo", "Directo"},
		{"normal", "Directo"},
		{"", "Directo"},
		{"Hospital", "Hospital"},
	}
	for _, c := range cases {
		if got := engine.CanonicalOrderType(c.in); got != c.want {
			t.Errorf("CanonicalOrderType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// =============================================================================
// PRECEDENCE
// =============================================================================

func TestResolver_BrandBeatsGeneral(t *testing.T) {
	// GIVEN: a brand-specific 5% row and a general 10% row for the same key
	// WHEN: resolving for that brand
	// THEN: the brand row wins

	r := newResolver([]engine.RateConfig{
		{Kind: engine.KindCommission, Brand: "ACME", OrderType: "Transfer", Year: 2025, Percent: engine.MustDecimal("5"), Active: true},
		{Kind: engine.KindCommission, Brand: "", OrderType: "Transfer", Year: 2025, Percent: engine.MustDecimal("10"), Active: true},
	}, engine.Capabilities{ArticleBrand: true})

	rate, err := r.Rate(context.Background(), engine.KindCommission, "acme", "Transfer", 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Percent.Equal(engine.MustDecimal("5")) {
		t.Errorf("expected 5%%, got %s", rate.Percent)
	}
	if rate.Source != engine.SourceBrand {
		t.Errorf("expected brand source, got %s", rate.Source)
	}
}

func TestResolver_FallsBackToGeneral(t *testing.T) {
	// GIVEN: only a general row for (Transfer, 2025)
	// WHEN: resolving for a brand with no specific row
	// THEN: the general row applies

	r := newResolver([]engine.RateConfig{
		{Kind: engine.KindCommission, Brand: "", OrderType: "Transfer", Year: 2025, Percent: engine.MustDecimal("7"), Active: true},
	}, engine.Capabilities{ArticleBrand: true})

	rate, err := r.Rate(context.Background(), engine.KindCommission, "OTHER", "Transfer", 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.Source != engine.SourceGeneral {
		t.Errorf("expected general source, got %s", rate.Source)
	}
}

func TestResolver_NotConfigured(t *testing.T) {
	// GIVEN: rows for 2024 only
	// WHEN: resolving for 2025
	// THEN: ErrNotConfigured, never a guessed default

	r := newResolver([]engine.RateConfig{
		{Kind: engine.KindCommission, Brand: "ACME", OrderType: "Transfer", Year: 2024, Percent: engine.MustDecimal("5"), Active: true},
	}, engine.Capabilities{ArticleBrand: true})

	_, err := r.Rate(context.Background(), engine.KindCommission, "ACME", "Transfer", 2025)
	if !errors.Is(err, engine.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	var nc *engine.NotConfiguredError
	if !errors.As(err, &nc) {
		t.Fatalf("expected *NotConfiguredError, got %T", err)
	}
	if nc.Year != 2025 {
		t.Errorf("expected year 2025 in error, got %d", nc.Year)
	}
}

func TestResolver_InactiveRowIgnored(t *testing.T) {
	r := newResolver([]engine.RateConfig{
		{Kind: engine.KindTransportDiscount, Brand: "ACME", Year: 2025, Percent: engine.MustDecimal("10"), Active: false},
	}, engine.Capabilities{ArticleBrand: true})

	_, err := r.Rate(context.Background(), engine.KindTransportDiscount, "ACME", "", 2025)
	if !errors.Is(err, engine.ErrNotConfigured) {
		t.Fatalf("inactive row must not resolve, got %v", err)
	}
}

func TestResolver_NoBrandColumn_UsesGeneralOnly(t *testing.T) {
	// GIVEN: the schema probe found no brand column
	// WHEN: resolving with a brand name
	// THEN: only the general row can match

	r := newResolver([]engine.RateConfig{
		{Kind: engine.KindCommission, Brand: "ACME", OrderType: "Transfer", Year: 2025, Percent: engine.MustDecimal("5"), Active: true},
		{Kind: engine.KindCommission, Brand: "", OrderType: "Transfer", Year: 2025, Percent: engine.MustDecimal("9"), Active: true},
	}, engine.Capabilities{ArticleBrand: false})

	rate, err := r.Rate(context.Background(), engine.KindCommission, "ACME", "Transfer", 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Percent.Equal(engine.MustDecimal("9")) {
		t.Errorf("expected general 9%%, got %s", rate.Percent)
	}
}
