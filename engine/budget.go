package engine

import "github.com/shopspring/decimal"

// BudgetForMonths accumulates budget over a window of months. Articles with
// month-specific rows contribute only the rows falling inside the window;
// articles carrying only annual rows contribute their annual amount divided
// by annualDivisor (12 for a monthly window, 4 for a quarterly one),
// regardless of how many months of the window have elapsed. Budgets arrive
// pre-filtered to one agent and year.
func BudgetForMonths(budgets []Budget, months []int, annualDivisor int64) decimal.Decimal {
	window := make(map[int]bool, len(months))
	for _, m := range months {
		window[m] = true
	}

	hasMonthly := make(map[ArticleID]bool)
	for _, b := range budgets {
		if b.Month != nil {
			hasMonthly[b.ArticleID] = true
		}
	}

	divisor := decimal.NewFromInt(annualDivisor)
	total := decimal.Zero
	for _, b := range budgets {
		switch {
		case b.Month != nil && window[*b.Month]:
			total = total.Add(b.Amount)
		case b.Month == nil && !hasMonthly[b.ArticleID]:
			total = total.Add(b.Amount.Div(divisor))
		}
	}
	return total
}
