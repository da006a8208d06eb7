package engine_test

import (
	"testing"

	"github.com/fieldpay/commission-engine/engine"
)

func monthPtr(m int) *int { return &m }

func TestBudgetForMonths_MonthlyRowsPreferred(t *testing.T) {
	// GIVEN: an article with monthly rows and one with only an annual row
	// WHEN: accumulating over October and November
	// THEN: monthly rows in the window count as-is; the annual-only article
	//       contributes annual/4 for a quarterly window

	budgets := []engine.Budget{
		{AgentID: "4", ArticleID: "A-100", Year: 2025, Month: monthPtr(10), Amount: engine.MustDecimal("300"), Active: true},
		{AgentID: "4", ArticleID: "A-100", Year: 2025, Month: monthPtr(11), Amount: engine.MustDecimal("200"), Active: true},
		{AgentID: "4", ArticleID: "A-100", Year: 2025, Month: monthPtr(12), Amount: engine.MustDecimal("400"), Active: true},
		{AgentID: "4", ArticleID: "A-200", Year: 2025, Amount: engine.MustDecimal("1200"), Active: true},
	}

	got := engine.BudgetForMonths(budgets, []int{10, 11}, 4)
	// 300 + 200 (window) + 1200/4 (annual-only article) = 800
	if !got.Equal(engine.MustDecimal("800")) {
		t.Errorf("expected 800, got %s", got)
	}
}

func TestBudgetForMonths_AnnualIgnoredWhenMonthlyExists(t *testing.T) {
	// GIVEN: an article with both monthly and annual rows
	// WHEN: accumulating
	// THEN: the annual row never double-counts

	budgets := []engine.Budget{
		{AgentID: "4", ArticleID: "A-100", Year: 2025, Month: monthPtr(11), Amount: engine.MustDecimal("500"), Active: true},
		{AgentID: "4", ArticleID: "A-100", Year: 2025, Amount: engine.MustDecimal("6000"), Active: true},
	}

	got := engine.BudgetForMonths(budgets, []int{11}, 12)
	if !got.Equal(engine.MustDecimal("500")) {
		t.Errorf("expected 500, got %s", got)
	}
}

func TestBudgetForMonths_MonthlyDivisor(t *testing.T) {
	budgets := []engine.Budget{
		{AgentID: "4", ArticleID: "A-300", Year: 2025, Amount: engine.MustDecimal("1200"), Active: true},
	}
	got := engine.BudgetForMonths(budgets, []int{11}, 12)
	if !got.Equal(engine.MustDecimal("100")) {
		t.Errorf("expected 100, got %s", got)
	}
}

func TestBudgetForMonths_Empty(t *testing.T) {
	got := engine.BudgetForMonths(nil, []int{1, 2, 3}, 4)
	if !got.IsZero() {
		t.Errorf("expected zero, got %s", got)
	}
}

// =============================================================================
// PERIOD HELPERS
// =============================================================================

func TestPeriod_Valid(t *testing.T) {
	cases := []struct {
		p    engine.Period
		want bool
	}{
		{engine.Period{Month: 1, Year: 2025}, true},
		{engine.Period{Month: 12, Year: 2025}, true},
		{engine.Period{Month: 0, Year: 2025}, false},
		{engine.Period{Month: 13, Year: 2025}, false},
		{engine.Period{Month: 6, Year: 1999}, false},
	}
	for _, c := range cases {
		if got := c.p.Valid(); got != c.want {
			t.Errorf("Valid(%+v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPeriod_QuarterMonths(t *testing.T) {
	got := engine.QuarterMonths(4)
	want := []int{10, 11, 12}
	if len(got) != 3 {
		t.Fatalf("expected 3 months, got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("QuarterMonths(4)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPeriod_ElapsedQuarterMonths(t *testing.T) {
	// November sits in Q4, so the elapsed window is October and November.
	p := engine.Period{Month: 11, Year: 2025}
	got := p.ElapsedQuarterMonths()
	want := []int{10, 11}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("elapsed[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if q := p.Quarter(); q != 4 {
		t.Errorf("expected quarter 4, got %d", q)
	}
}

func TestPeriod_Bounds(t *testing.T) {
	p := engine.Period{Month: 11, Year: 2025}
	start, end := p.Bounds()
	if start.Month() != 11 || start.Day() != 1 || start.Year() != 2025 {
		t.Errorf("unexpected start %s", start)
	}
	if end.Month() != 12 || end.Day() != 1 {
		t.Errorf("unexpected end %s", end)
	}
}
