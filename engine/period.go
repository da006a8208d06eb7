package engine

import "time"

// =============================================================================
// PERIOD - Month and quarter boundaries for batch computations
// =============================================================================

// Period is one calendar month, the unit of commission computation.
type Period struct {
	Month int // 1-12
	Year  int
}

// Valid reports whether the period is well-formed. Year bounds reject
// obviously malformed input (two-digit years, far-future typos) before any
// computation begins.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000 && p.Year <= 2100
}

// Bounds returns the inclusive start and exclusive end of the month in UTC.
func (p Period) Bounds() (time.Time, time.Time) {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Quarter returns the quarter (1-4) containing the period's month.
func (p Period) Quarter() int {
	return (p.Month-1)/3 + 1
}

// QuarterStartMonth returns the first month of the quarter containing p.
func (p Period) QuarterStartMonth() int {
	return (p.Quarter()-1)*3 + 1
}

// ElapsedQuarterMonths returns every month from the quarter start through
// the period's month, inclusive. Used for quarter-to-date accumulation.
func (p Period) ElapsedQuarterMonths() []int {
	var months []int
	for m := p.QuarterStartMonth(); m <= p.Month; m++ {
		months = append(months, m)
	}
	return months
}

// QuarterMonths returns the three months of quarter q (1-4).
func QuarterMonths(q int) []int {
	start := (q-1)*3 + 1
	return []int{start, start + 1, start + 2}
}

// ValidQuarter reports whether q is a valid quarter number.
func ValidQuarter(q int) bool {
	return q >= 1 && q <= 4
}
