package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldpay/commission-engine/engine"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// SCHEMA AND CAPABILITIES
// =============================================================================

func TestStore_CapabilitiesProbe(t *testing.T) {
	// The migrated schema carries articles.brand, so the probe must find it.
	s := openStore(t)
	if !s.Capabilities().ArticleBrand {
		t.Error("expected ArticleBrand capability after migration")
	}
}

// =============================================================================
// ORDERS
// =============================================================================

func TestStore_OrdersRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.SaveAgent(ctx, engine.Agent{ID: "4", Name: "Agent"}); err != nil {
		t.Fatalf("save agent: %v", err)
	}
	if err := s.SaveArticle(ctx, engine.Article{ID: "A-100", Name: "Widget", Brand: "acme"}); err != nil {
		t.Fatalf("save article: %v", err)
	}

	order := engine.SalesOrder{
		ID: "ORD-1", AgentID: "4", Date: date(2025, 11, 12), OrderType: "Transfer",
		Total:       engine.MustDecimal("1260"),
		TaxableBase: engine.MustDecimal("1000"),
		Tax:         engine.MustDecimal("210"),
		Status:      engine.OrderActive,
	}
	lines := []engine.SalesOrderLine{{
		OrderID: "ORD-1", Position: 1, ArticleID: "A-100",
		Quantity: engine.MustDecimal("10"), UnitPrice: engine.MustDecimal("100"),
		Subtotal: engine.MustDecimal("1000"),
	}}
	if err := s.SaveOrder(ctx, order, lines); err != nil {
		t.Fatalf("save order: %v", err)
	}

	got, err := s.OrdersForPeriod(ctx, "4", engine.Period{Month: 11, Year: 2025})
	if err != nil {
		t.Fatalf("orders for period: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 order, got %d", len(got))
	}
	if !got[0].TaxableBase.Equal(engine.MustDecimal("1000")) {
		t.Errorf("base round-trip wrong: %s", got[0].TaxableBase)
	}

	// the line's brand is resolved through the article and normalized
	gotLines, err := s.LinesForOrder(ctx, "ORD-1")
	if err != nil {
		t.Fatalf("lines for order: %v", err)
	}
	if len(gotLines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(gotLines))
	}
	if gotLines[0].Brand != "ACME" {
		t.Errorf("expected normalized brand ACME, got %q", gotLines[0].Brand)
	}
}

func TestStore_OrdersOutsidePeriodExcluded(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_ = s.SaveAgent(ctx, engine.Agent{ID: "4", Name: "Agent"})
	for _, o := range []engine.SalesOrder{
		{ID: "ORD-OCT", AgentID: "4", Date: date(2025, 10, 31), Total: engine.MustDecimal("1"),
			TaxableBase: engine.MustDecimal("1"), Tax: engine.MustDecimal("0"), Status: engine.OrderActive},
		{ID: "ORD-NOV", AgentID: "4", Date: date(2025, 11, 1), Total: engine.MustDecimal("1"),
			TaxableBase: engine.MustDecimal("1"), Tax: engine.MustDecimal("0"), Status: engine.OrderActive},
		{ID: "ORD-DEC", AgentID: "4", Date: date(2025, 12, 1), Total: engine.MustDecimal("1"),
			TaxableBase: engine.MustDecimal("1"), Tax: engine.MustDecimal("0"), Status: engine.OrderActive},
	} {
		if err := s.SaveOrder(ctx, o, nil); err != nil {
			t.Fatalf("save order %s: %v", o.ID, err)
		}
	}

	got, err := s.OrdersForPeriod(ctx, "4", engine.Period{Month: 11, Year: 2025})
	if err != nil {
		t.Fatalf("orders for period: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ORD-NOV" {
		t.Fatalf("expected only ORD-NOV, got %v", got)
	}
}

// =============================================================================
// COMMISSION PERSISTENCE
// =============================================================================

func TestStore_SaveCommissionReplacesDetails(t *testing.T) {
	// GIVEN: a saved record with two details
	// WHEN: saving the same key again with one detail
	// THEN: the upsert replaces the record and the detail set entirely

	s := openStore(t)
	ctx := context.Background()
	_ = s.SaveAgent(ctx, engine.Agent{ID: "4", Name: "Agent"})

	rec := engine.CommissionRecord{
		AgentID: "4", Month: 11, Year: 2025,
		FixedTotal:      engine.MustDecimal("150"),
		SalesCommission: engine.MustDecimal("49.75"),
		BudgetRebate:    engine.MustDecimal("0"),
		SalesTotal:      engine.MustDecimal("995"),
		GrandTotal:      engine.MustDecimal("199.75"),
		Status:          engine.StatusPending,
		ComputedBy:      "test",
		ComputedAt:      time.Now().UTC(),
	}
	detail := engine.CommissionDetail{
		AgentID: "4", Month: 11, Year: 2025, OrderID: "ORD-1", ArticleID: "A-100",
		Quantity: engine.MustDecimal("10"), Base: engine.MustDecimal("995"),
		Rate: engine.MustDecimal("5"), Amount: engine.MustDecimal("49.75"),
		Rationale: "configured brand rate at 5.00%",
	}

	if err := s.SaveCommission(ctx, rec, []engine.CommissionDetail{detail, detail}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveCommission(ctx, rec, []engine.CommissionDetail{detail}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	details, err := s.CommissionDetails(ctx, "4", engine.Period{Month: 11, Year: 2025})
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected 1 detail after replace, got %d", len(details))
	}

	got, err := s.Commission(ctx, "4", engine.Period{Month: 11, Year: 2025})
	if err != nil {
		t.Fatalf("commission: %v", err)
	}
	if !got.GrandTotal.Equal(engine.MustDecimal("199.75")) {
		t.Errorf("grand total round-trip wrong: %s", got.GrandTotal)
	}
	if got.Status != engine.StatusPending {
		t.Errorf("expected pending status, got %s", got.Status)
	}
}

func TestStore_CommissionNotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.Commission(context.Background(), "4", engine.Period{Month: 1, Year: 2025})
	if !errors.Is(err, engine.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestStore_UpdateCommissionStatus(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_ = s.SaveAgent(ctx, engine.Agent{ID: "4", Name: "Agent"})

	rec := engine.CommissionRecord{
		AgentID: "4", Month: 11, Year: 2025,
		FixedTotal: engine.MustDecimal("0"), SalesCommission: engine.MustDecimal("0"),
		BudgetRebate: engine.MustDecimal("0"), SalesTotal: engine.MustDecimal("0"),
		GrandTotal: engine.MustDecimal("0"), Status: engine.StatusPending,
		ComputedAt: time.Now().UTC(),
	}
	if err := s.SaveCommission(ctx, rec, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	p := engine.Period{Month: 11, Year: 2025}
	if err := s.UpdateCommissionStatus(ctx, "4", p, engine.StatusApproved); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Commission(ctx, "4", p)
	if err != nil {
		t.Fatalf("commission: %v", err)
	}
	if got.Status != engine.StatusApproved {
		t.Errorf("expected approved, got %s", got.Status)
	}
}

// =============================================================================
// CONFIGURATION ROWS
// =============================================================================

func TestStore_RateConfigsFilterActiveAndYear(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rows := []engine.RateConfig{
		{Kind: engine.KindCommission, Brand: "ACME", OrderType: "Transfer", Year: 2025, Percent: engine.MustDecimal("5"), Active: true},
		{Kind: engine.KindCommission, Brand: "ACME", OrderType: "Transfer", Year: 2024, Percent: engine.MustDecimal("4"), Active: true},
		{Kind: engine.KindCommission, Brand: "BETA", OrderType: "Transfer", Year: 2025, Percent: engine.MustDecimal("9"), Active: false},
		{Kind: engine.KindTransportDiscount, Brand: "ACME", Year: 2025, Percent: engine.MustDecimal("10"), Active: true},
	}
	for _, r := range rows {
		if err := s.SaveRateConfig(ctx, r); err != nil {
			t.Fatalf("save rate: %v", err)
		}
	}

	got, err := s.ActiveRateConfigs(ctx, engine.KindCommission, 2025)
	if err != nil {
		t.Fatalf("active rates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 active 2025 commission row, got %d", len(got))
	}
	if !got[0].Percent.Equal(engine.MustDecimal("5")) {
		t.Errorf("expected 5%%, got %s", got[0].Percent)
	}
}

func TestStore_RebateTiersReplacedPerBrand(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	max100 := engine.MustDecimal("100")
	first := []engine.RebateTier{
		{Brand: "ACME", Min: engine.MustDecimal("80"), Max: &max100, Percent: engine.MustDecimal("2"), Active: true},
		{Brand: "ACME", Min: engine.MustDecimal("100"), Percent: engine.MustDecimal("3"), Active: true},
	}
	if err := s.SaveRebateTiers(ctx, "ACME", first); err != nil {
		t.Fatalf("save tiers: %v", err)
	}

	second := []engine.RebateTier{
		{Brand: "ACME", Min: engine.MustDecimal("90"), Percent: engine.MustDecimal("4"), Active: true},
	}
	if err := s.SaveRebateTiers(ctx, "ACME", second); err != nil {
		t.Fatalf("replace tiers: %v", err)
	}

	got, err := s.RebateTiersFor(ctx, "acme")
	if err != nil {
		t.Fatalf("tiers for: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected tier table replaced, got %d rows", len(got))
	}
	if got[0].Max != nil {
		t.Errorf("expected open-ended max, got %s", got[0].Max)
	}
}

func TestStore_BrandTargetLookup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_ = s.SaveAgent(ctx, engine.Agent{ID: "4", Name: "Agent"})

	if err := s.SaveBrandTarget(ctx, engine.BrandTarget{
		AgentID: "4", Brand: "ACME", Quarter: 4, Year: 2025,
		Amount: engine.MustDecimal("800"), Active: true,
	}); err != nil {
		t.Fatalf("save target: %v", err)
	}

	got, err := s.BrandTarget(ctx, "4", "acme", 4, 2025)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if got == nil || !got.Amount.Equal(engine.MustDecimal("800")) {
		t.Fatalf("expected target 800, got %+v", got)
	}

	missing, err := s.BrandTarget(ctx, "4", "ACME", 1, 2025)
	if err != nil {
		t.Fatalf("missing target: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing target, got %+v", missing)
	}
}

// =============================================================================
// REBATES
// =============================================================================

func TestStore_RebateUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_ = s.SaveAgent(ctx, engine.Agent{ID: "4", Name: "Agent"})

	rec := engine.RebateRecord{
		AgentID: "4", Brand: "ACME", Quarter: 4, Year: 2025,
		Sales: engine.MustDecimal("1500"), Target: engine.MustDecimal("1000"),
		CompletionPct: engine.MustDecimal("150"), Rate: engine.MustDecimal("5"),
		Rebate: engine.MustDecimal("25"), ComputedAt: time.Now().UTC(),
	}
	if err := s.SaveRebate(ctx, rec); err != nil {
		t.Fatalf("save rebate: %v", err)
	}

	rec.Rebate = engine.MustDecimal("30")
	if err := s.SaveRebate(ctx, rec); err != nil {
		t.Fatalf("upsert rebate: %v", err)
	}

	got, err := s.Rebate(ctx, "4", "ACME", 4, 2025)
	if err != nil {
		t.Fatalf("rebate: %v", err)
	}
	if !got.Rebate.Equal(engine.MustDecimal("30")) {
		t.Errorf("expected upserted 30, got %s", got.Rebate)
	}

	_, err = s.Rebate(ctx, "4", "ACME", 1, 2025)
	if !errors.Is(err, engine.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

// =============================================================================
// SEED
// =============================================================================

func TestStore_SeedWorkedExample(t *testing.T) {
	// The demo seed reproduces the worked example end to end against the
	// real schema.
	s := openStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	exists, err := s.AgentExists(ctx, "4")
	if err != nil || !exists {
		t.Fatalf("expected seeded agent 4, err %v", err)
	}

	orders, err := s.OrdersForPeriod(ctx, "4", engine.Period{Month: 11, Year: 2025})
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) == 0 {
		t.Fatal("expected seeded November 2025 orders")
	}
}
