package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/internal/valuation"
	"github.com/wonny/kfin/pkg/logger"
)

// ValuationHandler handles valuation endpoints.
type ValuationHandler struct {
	service *valuation.Service
	logger  *logger.Logger
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(service *valuation.Service, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		service: service,
		logger:  log,
	}
}

// Get returns the cached valuation row.
// GET /api/valuations/{ticker}
func (h *ValuationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	v, err := h.service.GetValuation(ctx, ticker)
	if err != nil {
		if err == contracts.ErrNotFound {
			respondError(w, http.StatusNotFound, "No valuation cached")
			return
		}
		h.logger.WithError(err).Error("Failed to load valuation")
		respondError(w, http.StatusInternalServerError, "Failed to load valuation")
		return
	}

	respondJSON(w, http.StatusOK, v)
}

// GetTTMSummary returns the combined TTM + annual summary.
// GET /api/valuations/{ticker}/ttm?as_of=202506
func (h *ValuationHandler) GetTTMSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]
	asOf := r.URL.Query().Get("as_of")

	summary, err := h.service.GetTTMSummary(ctx, ticker, asOf)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("TTM summary failed")
		respondError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}

	if summary.Status == contracts.StatusError && summary.Message == "stock not found" {
		respondError(w, http.StatusNotFound, "Stock not found")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetEPSTrend returns the per-quarter EPS trend.
// GET /api/valuations/{ticker}/eps-trend?limit=8
func (h *ValuationHandler) GetEPSTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]
	limit := queryInt(r, "limit", 8)

	trend, err := h.service.GetQuarterlyEPSTrend(ctx, ticker, limit)
	if err != nil {
		h.logger.WithError(err).Error("EPS trend failed")
		respondError(w, http.StatusInternalServerError, "Failed to build EPS trend")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"trend":  trend,
	})
}

// Refresh recomputes one ticker's cached valuation.
// POST /api/valuations/{ticker}/refresh
func (h *ValuationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	result, err := h.service.RefreshValuationCache(ctx, ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Valuation refresh failed")
		respondError(w, http.StatusInternalServerError, "Failed to refresh valuation")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RefreshAll rebuilds the valuation cache.
// POST /api/valuations/refresh-all?limit=100
func (h *ValuationHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryInt(r, "limit", 0)

	result, err := h.service.RefreshAll(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Bulk valuation refresh failed")
		respondError(w, http.StatusInternalServerError, "Failed to refresh valuations")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Screen filters the valuation cache, cheapest PER first.
// GET /api/valuations/screen?max_per=10&max_pbr=1&min_roe=5&limit=50
func (h *ValuationHandler) Screen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := contracts.ScreenFilter{
		MinPER: queryFloat(r, "min_per"),
		MaxPER: queryFloat(r, "max_per"),
		MinPBR: queryFloat(r, "min_pbr"),
		MaxPBR: queryFloat(r, "max_pbr"),
		MinROE: queryFloat(r, "min_roe"),
	}
	limit := queryInt(r, "limit", 100)

	rows, err := h.service.Screen(ctx, filter, limit)
	if err != nil {
		h.logger.WithError(err).Error("Screening failed")
		respondError(w, http.StatusInternalServerError, "Failed to screen valuations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(rows),
		"results": rows,
	})
}
