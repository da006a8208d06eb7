/*
normalize.go - Period order loading and transport-discount allocation

PURPOSE:
  Turns an agent's raw orders for a month into NormalizedLines: the
  per-line adjusted bases every downstream calculator works from. The
  adjustment subtracts each line's proportional share of the order's
  transport discount from its taxable subtotal.

ALLOCATION:
  shipping  = total - taxable base - tax        (negative clamped to 0)
  discount  = shipping * pct / 100              (pct from the resolver)
  per line  = subtotal / order subtotal * discount

  The per-line deductions sum back to the discount, so the allocation
  conserves the discounted amount across the order. Orders whose lines sum
  to zero receive no adjustment.

ORDER-LEVEL BRAND:
  The transport-discount rate is resolved using the FIRST line's brand as a
  proxy for the order's brand. For mixed-brand orders this is an
  approximation kept for parity with historical figures.

SKIPPED ORDERS:
  Cancelled and pending orders (case-insensitive) are filtered out silently.
  Orders with zero lines are skipped with a warning: an order that cannot
  contribute commission must be flagged, not silently processed as zero.
*/
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalizedLine is one order line with its transport-adjusted base.
type NormalizedLine struct {
	Order     SalesOrder
	Line      SalesOrderLine
	Transport decimal.Decimal // this line's share of the order discount
	Adjusted  decimal.Decimal // Subtotal - Transport
}

// Normalizer loads and adjusts an agent's orders for a period.
type Normalizer struct {
	orders   OrderStore
	resolver *Resolver
}

func NewNormalizer(orders OrderStore, resolver *Resolver) *Normalizer {
	return &Normalizer{orders: orders, resolver: resolver}
}

// LinesForPeriod returns the agent's normalized lines for the month in
// deterministic order (order date, order ID, line position), plus warnings
// for skipped orders. Warnings never abort the computation.
func (n *Normalizer) LinesForPeriod(ctx context.Context, agent AgentID, p Period) ([]NormalizedLine, []string, error) {
	orders, err := n.orders.OrdersForPeriod(ctx, agent, p)
	if err != nil {
		return nil, nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].Date.Equal(orders[j].Date) {
			return orders[i].Date.Before(orders[j].Date)
		}
		return orders[i].ID < orders[j].ID
	})

	var out []NormalizedLine
	var warnings []string
	for _, order := range orders {
		if order.Excluded() {
			continue
		}
		lines, err := n.orders.LinesForOrder(ctx, order.ID)
		if err != nil {
			return nil, nil, err
		}
		if len(lines) == 0 {
			w := fmt.Sprintf("order %s has no lines, skipped", order.ID)
			log.Printf("normalize: %s", w)
			warnings = append(warnings, w)
			continue
		}
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })

		out = append(out, n.allocate(ctx, order, lines)...)
	}
	return out, warnings, nil
}

// allocate spreads the order's transport discount across its lines in
// proportion to each line's share of the order subtotal.
func (n *Normalizer) allocate(ctx context.Context, order SalesOrder, lines []SalesOrderLine) []NormalizedLine {
	shipping := order.Shipping()
	if shipping.Sign() < 0 {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if shipping.Sign() > 0 {
		rate, err := n.resolver.Rate(ctx, KindTransportDiscount, lines[0].Brand, "", order.Date.Year())
		if err != nil && !errors.Is(err, ErrNotConfigured) {
			// Treat a store failure the same as no discount; the commission
			// on the unadjusted base is still computed.
			log.Printf("normalize: transport rate lookup for order %s: %v", order.ID, err)
		}
		if err == nil {
			discount = shipping.Mul(rate.Percent).Div(hundred)
		}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal)
	}

	out := make([]NormalizedLine, 0, len(lines))
	for _, l := range lines {
		share := decimal.Zero
		if discount.Sign() != 0 && subtotal.Sign() != 0 {
			share = l.Subtotal.Div(subtotal).Mul(discount)
		}
		out = append(out, NormalizedLine{
			Order:     order,
			Line:      l,
			Transport: share,
			Adjusted:  l.Subtotal.Sub(share),
		})
	}
	return out
}
