package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/internal/financial"
	"github.com/wonny/kfin/pkg/logger"
)

// FinancialHandler handles financial statement endpoints.
// 재무 API 핸들러는 이 구조체에서만
type FinancialHandler struct {
	service *financial.Service
	repo    contracts.FinancialRepository
	logger  *logger.Logger
}

// NewFinancialHandler creates a new financial handler
func NewFinancialHandler(service *financial.Service, repo contracts.FinancialRepository, log *logger.Logger) *FinancialHandler {
	return &FinancialHandler{
		service: service,
		repo:    repo,
		logger:  log,
	}
}

// Collect ingests statements for one ticker from the upstream API.
// POST /api/financials/{ticker}/collect?quarterly=true&year=2024
func (h *FinancialHandler) Collect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	withQuarterly := r.URL.Query().Get("quarterly") == "true"
	year := queryInt(r, "year", 0)

	annual, err := h.service.IngestAnnual(ctx, ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Annual collection failed")
		respondError(w, http.StatusInternalServerError, "Failed to collect annual statements")
		return
	}
	if annual.Status == contracts.StatusError && annual.Message == "stock not found" {
		respondError(w, http.StatusNotFound, "Stock not found")
		return
	}

	response := map[string]interface{}{"annual": annual}

	if withQuarterly {
		quarterly, err := h.service.IngestQuarterly(ctx, ticker, year)
		if err != nil {
			h.logger.WithError(err).WithField("ticker", ticker).Error("Quarterly collection failed")
			respondError(w, http.StatusInternalServerError, "Failed to collect quarterly statements")
			return
		}
		response["quarterly"] = quarterly
	}

	respondJSON(w, http.StatusOK, response)
}

// GetLatest returns the most recent statement of one kind.
// GET /api/financials/{ticker}/latest?kind=Y
func (h *FinancialHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	kind := contracts.PeriodKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = contracts.PeriodAnnual
	}
	if kind != contracts.PeriodAnnual && kind != contracts.PeriodQuarterly {
		respondError(w, http.StatusBadRequest, "kind must be Y or Q")
		return
	}

	fs, err := h.repo.GetLatest(ctx, ticker, kind)
	if err != nil {
		if err == contracts.ErrNotFound {
			respondError(w, http.StatusNotFound, "No statements found")
			return
		}
		h.logger.WithError(err).Error("Failed to load latest statement")
		respondError(w, http.StatusInternalServerError, "Failed to load statement")
		return
	}

	respondJSON(w, http.StatusOK, fs)
}

// List returns statements, most recent first.
// GET /api/financials/{ticker}?kind=Q&limit=8
func (h *FinancialHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	kind := contracts.PeriodKind(r.URL.Query().Get("kind"))
	if kind != "" && kind != contracts.PeriodAnnual && kind != contracts.PeriodQuarterly {
		respondError(w, http.StatusBadRequest, "kind must be Y or Q")
		return
	}
	limit := queryInt(r, "limit", 20)

	statements, err := h.repo.List(ctx, ticker, kind, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list statements")
		respondError(w, http.StatusInternalServerError, "Failed to list statements")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":     ticker,
		"count":      len(statements),
		"statements": statements,
	})
}
