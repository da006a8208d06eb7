/*
handlers.go - HTTP handlers for the calculation engine

PURPOSE:
  Exposes the engine's compute operations and the read accessors for
  already-computed records. This is deliberately a thin layer: request
  parsing, delegation to the coordinators, error-to-status mapping. The
  wider product surface (UI pages, auth, client/product CRUD, imports)
  lives in other services.

ENDPOINTS:
  POST /api/commissions/calculate                     Compute a month
  GET  /api/commissions/{agent}/{year}/{month}        Stored record
  GET  /api/commissions/{agent}/{year}/{month}/details  Stored breakdown
  POST /api/rebates/brand/calculate                   Compute a brand rebate
  POST /api/rebates/budget/calculate                  Compute a budget rebate
  GET  /api/rebates/{agent}/{year}/{quarter}          Stored rebate (?brand=)
  GET  /api/health

ERROR HANDLING:
  400: invalid period / malformed body
  404: unknown agent or record never computed
  500: persistence or query failure
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldpay/commission-engine/commission"
	"github.com/fieldpay/commission-engine/engine"
	"github.com/fieldpay/commission-engine/rebate"
)

// Handler holds the coordinators the HTTP layer delegates to.
type Handler struct {
	Commissions *commission.Coordinator
	Rebates     *rebate.Coordinator
}

func NewHandler(commissions *commission.Coordinator, rebates *rebate.Coordinator) *Handler {
	return &Handler{Commissions: commissions, Rebates: rebates}
}

// =============================================================================
// COMMISSION ENDPOINTS
// =============================================================================

func (h *Handler) ComputeCommission(w http.ResponseWriter, r *http.Request) {
	var req computeCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Commissions.ComputeMonthly(r.Context(),
		engine.AgentID(req.AgentID),
		engine.Period{Month: req.Month, Year: req.Year},
		req.ComputedBy,
	)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionResponse(rec))
}

func (h *Handler) GetCommission(w http.ResponseWriter, r *http.Request) {
	agent, p, ok := commissionKey(w, r)
	if !ok {
		return
	}
	rec, err := h.Commissions.Record(r.Context(), agent, p)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionResponse(rec))
}

func (h *Handler) GetCommissionDetails(w http.ResponseWriter, r *http.Request) {
	agent, p, ok := commissionKey(w, r)
	if !ok {
		return
	}
	details, err := h.Commissions.Details(r.Context(), agent, p)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponses(details))
}

func (h *Handler) AdvanceCommission(w http.ResponseWriter, r *http.Request) {
	agent, p, ok := commissionKey(w, r)
	if !ok {
		return
	}
	status, err := h.Commissions.Advance(r.Context(), agent, p)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// =============================================================================
// REBATE ENDPOINTS
// =============================================================================

func (h *Handler) ComputeBrandRebate(w http.ResponseWriter, r *http.Request) {
	var req computeBrandRebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Rebates.ComputeBrandRebate(r.Context(),
		engine.AgentID(req.AgentID), req.Brand, req.Quarter, req.Year)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRebateResponse(rec))
}

func (h *Handler) ComputeBudgetRebate(w http.ResponseWriter, r *http.Request) {
	var req computeBudgetRebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Rebates.ComputeBudgetRebate(r.Context(),
		engine.AgentID(req.AgentID),
		engine.Period{Month: req.Month, Year: req.Year})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRebateResponse(rec))
}

func (h *Handler) GetRebate(w http.ResponseWriter, r *http.Request) {
	agent := engine.AgentID(chi.URLParam(r, "agent"))
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	quarter, err2 := strconv.Atoi(chi.URLParam(r, "quarter"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "invalid year or quarter")
		return
	}
	brand := r.URL.Query().Get("brand") // empty = budget rebate

	rec, err := h.Rebates.Record(r.Context(), agent, brand, quarter, year)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRebateResponse(rec))
}

// =============================================================================
// MISC
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func commissionKey(w http.ResponseWriter, r *http.Request) (engine.AgentID, engine.Period, bool) {
	agent := engine.AgentID(chi.URLParam(r, "agent"))
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return "", engine.Period{}, false
	}
	return agent, engine.Period{Month: month, Year: year}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrAgentNotFound), errors.Is(err, engine.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
