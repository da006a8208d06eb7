package api

import (
	"github.com/shopspring/decimal"

	"github.com/fieldpay/commission-engine/engine"
)

// =============================================================================
// REQUESTS
// =============================================================================

type computeCommissionRequest struct {
	AgentID    string `json:"agent_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	ComputedBy string `json:"computed_by"`
}

type computeBrandRebateRequest struct {
	AgentID string `json:"agent_id"`
	Brand   string `json:"brand"`
	Quarter int    `json:"quarter"`
	Year    int    `json:"year"`
}

type computeBudgetRebateRequest struct {
	AgentID string `json:"agent_id"`
	Month   int    `json:"month"`
	Year    int    `json:"year"`
}

// =============================================================================
// RESPONSES - decimals serialize as strings to keep precision on the wire
// =============================================================================

type commissionResponse struct {
	AgentID         string `json:"agent_id"`
	Month           int    `json:"month"`
	Year            int    `json:"year"`
	FixedTotal      string `json:"fixed_total"`
	SalesCommission string `json:"sales_commission"`
	SalesTotal      string `json:"sales_total"`
	GrandTotal      string `json:"grand_total"`
	Status          string `json:"status"`
	ComputedBy      string `json:"computed_by,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ComputedAt      string `json:"computed_at"`
}

type detailResponse struct {
	OrderID   string `json:"order_id"`
	ArticleID string `json:"article_id"`
	Quantity  string `json:"quantity"`
	Base      string `json:"base"`
	Rate      string `json:"rate"`
	Amount    string `json:"amount"`
	Rationale string `json:"rationale,omitempty"`
}

type rebateResponse struct {
	AgentID       string `json:"agent_id"`
	Brand         string `json:"brand,omitempty"`
	Quarter       int    `json:"quarter"`
	Year          int    `json:"year"`
	Sales         string `json:"sales"`
	Target        string `json:"target"`
	CompletionPct string `json:"completion_pct"`
	Rate          string `json:"rate"`
	Rebate        string `json:"rebate"`
	ComputedAt    string `json:"computed_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func toCommissionResponse(rec *engine.CommissionRecord) commissionResponse {
	return commissionResponse{
		AgentID:         string(rec.AgentID),
		Month:           rec.Month,
		Year:            rec.Year,
		FixedTotal:      money(rec.FixedTotal),
		SalesCommission: money(rec.SalesCommission),
		SalesTotal:      money(rec.SalesTotal),
		GrandTotal:      money(rec.GrandTotal),
		Status:          string(rec.Status),
		ComputedBy:      rec.ComputedBy,
		Notes:           rec.Notes,
		ComputedAt:      rec.ComputedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toDetailResponses(details []engine.CommissionDetail) []detailResponse {
	out := make([]detailResponse, 0, len(details))
	for _, d := range details {
		out = append(out, detailResponse{
			OrderID:   string(d.OrderID),
			ArticleID: string(d.ArticleID),
			Quantity:  d.Quantity.String(),
			Base:      money(d.Base),
			Rate:      d.Rate.String(),
			Amount:    money(d.Amount),
			Rationale: d.Rationale,
		})
	}
	return out
}

func toRebateResponse(rec *engine.RebateRecord) rebateResponse {
	return rebateResponse{
		AgentID:       string(rec.AgentID),
		Brand:         rec.Brand,
		Quarter:       rec.Quarter,
		Year:          rec.Year,
		Sales:         money(rec.Sales),
		Target:        money(rec.Target),
		CompletionPct: rec.CompletionPct.StringFixed(2),
		Rate:          rec.Rate.String(),
		Rebate:        money(rec.Rebate),
		ComputedAt:    rec.ComputedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
