package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/kfin/internal/batch"
	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/pkg/logger"
)

// CollectHandler handles bulk collection and research endpoints.
type CollectHandler struct {
	collector *batch.Collector
	research  contracts.ResearchRepository
	logger    *logger.Logger
}

// NewCollectHandler creates a new collection handler
func NewCollectHandler(collector *batch.Collector, research contracts.ResearchRepository, log *logger.Logger) *CollectHandler {
	return &CollectHandler{
		collector: collector,
		research:  research,
		logger:    log,
	}
}

// CollectPrices pulls recent daily prices for the universe.
// POST /api/collect/prices?market=KOSPI&limit=100
func (h *CollectHandler) CollectPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	market := r.URL.Query().Get("market")
	limit := queryInt(r, "limit", 0)

	report, err := h.collector.CollectPrices(ctx, market, limit)
	if err != nil {
		h.logger.WithError(err).Error("Price collection failed")
		respondError(w, http.StatusInternalServerError, "Price collection failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// CollectFinancials ingests statements for the universe.
// POST /api/collect/financials?market=&limit=&quarterly=true&year=
func (h *CollectHandler) CollectFinancials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	market := r.URL.Query().Get("market")
	limit := queryInt(r, "limit", 0)
	withQuarterly := r.URL.Query().Get("quarterly") == "true"
	year := queryInt(r, "year", 0)

	report, err := h.collector.CollectFinancials(ctx, market, limit, withQuarterly, year)
	if err != nil {
		h.logger.WithError(err).Error("Financial collection failed")
		respondError(w, http.StatusInternalServerError, "Financial collection failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// CollectResearch crawls broker research for the universe.
// POST /api/collect/research?market=&limit=&pages=2
func (h *CollectHandler) CollectResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	market := r.URL.Query().Get("market")
	limit := queryInt(r, "limit", 0)
	pages := queryInt(r, "pages", 2)

	report, err := h.collector.CollectResearch(ctx, market, limit, pages)
	if err != nil {
		h.logger.WithError(err).Error("Research collection failed")
		respondError(w, http.StatusInternalServerError, "Research collection failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ListResearch returns stored research reports, newest first.
// GET /api/research/{ticker}?limit=20
func (h *CollectHandler) ListResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]
	limit := queryInt(r, "limit", 20)

	reports, err := h.research.ListByTicker(ctx, ticker, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list research")
		respondError(w, http.StatusInternalServerError, "Failed to list research")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"count":   len(reports),
		"reports": reports,
	})
}
