/*
Package commission implements the monthly commission flow: the per-line
sales-commission calculator, the fixed-stipend resolver, and the
coordinator that combines them and persists the result.

RATE PRECEDENCE (per line):
  1. Special condition matching (agent-or-all, article-or-all), active and
     inside its date range. Among competing matches the most specific wins
     (exact agent beats wildcard, then exact article).
  2. Configured commission rate for (brand, order-type, year), brand row
     over general row.
  3. Nothing configured: 0% with a warning and an audit note. No guessed
     default is ever substituted on this path.

Each computed line produces one CommissionDetail with a human-readable
rationale, so the payout can be audited row by row. The detail amounts
always sum to the commission total of the same run.
*/
package commission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

var hundred = decimal.NewFromInt(100)

// Result is the outcome of one monthly sales-commission computation.
type Result struct {
	SalesTotal      decimal.Decimal
	CommissionTotal decimal.Decimal
	Details         []engine.CommissionDetail
	Warnings        []string
}

// Calculator computes the sales commission for an agent's month.
type Calculator struct {
	normalizer *engine.Normalizer
	resolver   *engine.Resolver
	configs    engine.ConfigStore
}

func NewCalculator(normalizer *engine.Normalizer, resolver *engine.Resolver, configs engine.ConfigStore) *Calculator {
	return &Calculator{normalizer: normalizer, resolver: resolver, configs: configs}
}

// SalesCommission computes the commission for every normalized line of the
// agent's period and returns totals plus the audit detail rows.
func (c *Calculator) SalesCommission(ctx context.Context, agent engine.AgentID, p engine.Period) (*Result, error) {
	lines, warnings, err := c.normalizer.LinesForPeriod(ctx, agent, p)
	if err != nil {
		return nil, err
	}

	conditions, err := c.configs.SpecialConditionsFor(ctx, agent)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SalesTotal:      decimal.Zero,
		CommissionTotal: decimal.Zero,
		Warnings:        warnings,
	}

	for _, nl := range lines {
		rate, rationale := c.rateFor(ctx, agent, nl, conditions, res)

		amount := nl.Adjusted.Mul(rate.Percent).Div(hundred)
		if nl.Transport.Sign() > 0 {
			rationale += fmt.Sprintf(", transport adjustment -%s", nl.Transport.StringFixed(2))
		}

		res.SalesTotal = res.SalesTotal.Add(nl.Adjusted)
		res.CommissionTotal = res.CommissionTotal.Add(amount)
		res.Details = append(res.Details, engine.CommissionDetail{
			AgentID:   agent,
			Month:     p.Month,
			Year:      p.Year,
			OrderID:   nl.Order.ID,
			ArticleID: nl.Line.ArticleID,
			Quantity:  nl.Line.Quantity,
			Base:      nl.Adjusted,
			Rate:      rate.Percent,
			Amount:    amount,
			Rationale: rationale,
		})
	}
	return res, nil
}

// rateFor resolves the rate for one line per the precedence chain.
func (c *Calculator) rateFor(ctx context.Context, agent engine.AgentID, nl engine.NormalizedLine, conditions []engine.SpecialCondition, res *Result) (engine.Rate, string) {
	if cond := bestCondition(conditions, agent, nl.Line.ArticleID, nl.Order.Date); cond != nil {
		return engine.Rate{Percent: cond.Percent, Source: engine.SourceOverride},
			fmt.Sprintf("special condition at %s%%", cond.Percent.StringFixed(2))
	}

	rate, err := c.resolver.Rate(ctx, engine.KindCommission, nl.Line.Brand, nl.Order.OrderType, lineYear(nl))
	if err != nil {
		if errors.Is(err, engine.ErrNotConfigured) {
			w := fmt.Sprintf("no commission rate for brand %q, type %q, year %d on order %s; 0%% applied",
				nl.Line.Brand, engine.CanonicalOrderType(nl.Order.OrderType), lineYear(nl), nl.Order.ID)
			log.Printf("commission: %s", w)
			res.Warnings = append(res.Warnings, w)
			return engine.Rate{Percent: decimal.Zero, Source: engine.SourceNone}, "no rate configured, 0% applied"
		}
		// Store failures degrade like missing configuration but are logged
		// loudly; the batch continues for the remaining lines.
		log.Printf("commission: rate lookup failed for order %s: %v", nl.Order.ID, err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("rate lookup failed for order %s: %v", nl.Order.ID, err))
		return engine.Rate{Percent: decimal.Zero, Source: engine.SourceNone}, "rate lookup failed, 0% applied"
	}

	return rate, fmt.Sprintf("configured %s rate at %s%%", rate.Source, rate.Percent.StringFixed(2))
}

func lineYear(nl engine.NormalizedLine) int { return nl.Order.Date.Year() }

// bestCondition returns the most specific condition matching (agent,
// article) and in force on the date, or nil. Conditions arrive pre-filtered
// to the agent-or-wildcard set.
func bestCondition(conditions []engine.SpecialCondition, agent engine.AgentID, article engine.ArticleID, at time.Time) *engine.SpecialCondition {
	var matches []engine.SpecialCondition
	for _, c := range conditions {
		if c.Matches(agent, article) && c.InForce(at) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Specificity() > matches[j].Specificity()
	})
	return &matches[0]
}
