package commission

import (
	"context"
	"testing"

	"github.com/fieldpay/commission-engine/engine"
	"github.com/fieldpay/commission-engine/engine/store"
)

func TestStipend_SumsActiveAmounts(t *testing.T) {
	mem := store.NewMemory()
	mem.Fixed = []engine.FixedAmount{
		{AgentID: "4", Brand: "ACME", Amount: engine.MustDecimal("150"), Active: true},
		{AgentID: "4", Brand: "BETA", Amount: engine.MustDecimal("75"), Active: true},
		{AgentID: "4", Brand: "OLD", Amount: engine.MustDecimal("999"), Active: false},
		{AgentID: "7", Brand: "ACME", Amount: engine.MustDecimal("500"), Active: true},
	}

	got, err := NewStipendResolver(mem).Fixed(context.Background(), "4", engine.Period{Month: 11, Year: 2025}, engine.MustDecimal("0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(engine.MustDecimal("225")) {
		t.Errorf("expected 225, got %s", got)
	}
}

func TestStipend_RuleIgnoredByDefault(t *testing.T) {
	// GIVEN: an active pay rule demanding 50% attainment, enforcement OFF
	// WHEN: resolving with zero attainment
	// THEN: the stipend is still paid ("pay from the first unit")

	mem := store.NewMemory()
	mem.Fixed = []engine.FixedAmount{{AgentID: "4", Brand: "ACME", Amount: engine.MustDecimal("150"), Active: true}}
	mem.PayRule = &engine.FixedPayRule{ThresholdYear: 2024, MinSalesPct: engine.MustDecimal("50"), Active: true}

	got, err := NewStipendResolver(mem).Fixed(context.Background(), "4", engine.Period{Month: 11, Year: 2025}, engine.MustDecimal("0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(engine.MustDecimal("150")) {
		t.Errorf("expected 150, got %s", got)
	}
}

func TestStipend_RuleEnforced(t *testing.T) {
	mem := store.NewMemory()
	mem.Fixed = []engine.FixedAmount{{AgentID: "4", Brand: "ACME", Amount: engine.MustDecimal("150"), Active: true}}
	mem.PayRule = &engine.FixedPayRule{ThresholdYear: 2024, MinSalesPct: engine.MustDecimal("50"), Active: true}

	r := NewStipendResolver(mem)
	r.EnforceRule = true

	// below the threshold: nothing is paid
	got, err := r.Fixed(context.Background(), "4", engine.Period{Month: 11, Year: 2025}, engine.MustDecimal("40"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected 0 below threshold, got %s", got)
	}

	// at the threshold: paid
	got, err = r.Fixed(context.Background(), "4", engine.Period{Month: 11, Year: 2025}, engine.MustDecimal("50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(engine.MustDecimal("150")) {
		t.Errorf("expected 150 at threshold, got %s", got)
	}
}

func TestEligible(t *testing.T) {
	rule := &engine.FixedPayRule{ThresholdYear: 2024, MinSalesPct: engine.MustDecimal("50"), Active: true}

	cases := []struct {
		name string
		rule *engine.FixedPayRule
		year int
		pct  string
		want bool
	}{
		{"nil rule permissive", nil, 2025, "0", true},
		{"inactive rule permissive", &engine.FixedPayRule{ThresholdYear: 2024, Active: false}, 2025, "0", true},
		{"year at threshold permissive", rule, 2024, "0", true},
		{"after threshold below pct", rule, 2025, "49.99", false},
		{"after threshold at pct", rule, 2025, "50", true},
	}
	for _, c := range cases {
		if got := Eligible(c.rule, c.year, engine.MustDecimal(c.pct)); got != c.want {
			t.Errorf("%s: Eligible = %v, want %v", c.name, got, c.want)
		}
	}
}
