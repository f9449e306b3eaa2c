package financial

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/internal/external/kis"
	"github.com/wonny/kfin/pkg/logger"
)

// FinanceAPI is the slice-fetch surface of the KIS client the service
// depends on.
type FinanceAPI interface {
	BalanceSheet(ctx context.Context, ticker, division string) ([]kis.FinanceRow, error)
	IncomeStatement(ctx context.Context, ticker, division string) ([]kis.FinanceRow, error)
	FinancialRatios(ctx context.Context, ticker, division string) ([]kis.FinanceRow, error)
	ProfitRatios(ctx context.Context, ticker, division string) ([]kis.FinanceRow, error)
	OtherMajorRatios(ctx context.Context, ticker, division string) ([]kis.FinanceRow, error)
	GrowthRatios(ctx context.Context, ticker, division string) ([]kis.FinanceRow, error)
}

// CacheRefresher lets the ingest path trigger a valuation cache refresh
// after new annual statements land. Failures are logged, never raised.
type CacheRefresher interface {
	Refresh(ctx context.Context, ticker string) error
}

// IngestResult summarizes one collection run for one ticker.
type IngestResult struct {
	Ticker       string               `json:"ticker"`
	Status       contracts.Status     `json:"status"`
	Message      string               `json:"message,omitempty"`
	PeriodKind   contracts.PeriodKind `json:"period_type,omitempty"`
	Year         string               `json:"year,omitempty"`
	TotalPeriods int                  `json:"total_periods"`
	Saved        int                  `json:"saved"`
}

// Service collects the six KIS statement slices, normalizes them into
// statement rows, and persists them.
type Service struct {
	api        FinanceAPI
	stocks     contracts.StockRepository
	financials contracts.FinancialRepository
	refresher  CacheRefresher
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates the financial statement collection service.
func NewService(api FinanceAPI, stocks contracts.StockRepository, financials contracts.FinancialRepository, log *logger.Logger) *Service {
	return &Service{
		api:        api,
		stocks:     stocks,
		financials: financials,
		logger:     log.WithField("module", "financial"),
		now:        time.Now,
	}
}

// WithCacheRefresher wires the post-save valuation refresh hook.
func (s *Service) WithCacheRefresher(r CacheRefresher) *Service {
	s.refresher = r
	return s
}

// fetchSlices calls the six statement endpoints concurrently. A failed
// slice degrades to empty: the run continues with whatever arrived.
func (s *Service) fetchSlices(ctx context.Context, ticker, division string) [][]kis.FinanceRow {
	fetchers := []struct {
		name  string
		fetch func(context.Context, string, string) ([]kis.FinanceRow, error)
	}{
		{"balance_sheet", s.api.BalanceSheet},
		{"income_statement", s.api.IncomeStatement},
		{"financial_ratio", s.api.FinancialRatios},
		{"profit_ratio", s.api.ProfitRatios},
		{"other_major_ratios", s.api.OtherMajorRatios},
		{"growth_ratio", s.api.GrowthRatios},
	}

	slices := make([][]kis.FinanceRow, len(fetchers))
	var wg sync.WaitGroup

	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, name string, fetch func(context.Context, string, string) ([]kis.FinanceRow, error)) {
			defer wg.Done()

			rows, err := fetch(ctx, ticker, division)
			if err != nil {
				s.logger.WithError(err).WithFields(map[string]interface{}{
					"ticker": ticker,
					"slice":  name,
				}).Warn("Statement slice fetch failed, continuing without it")
				return
			}
			slices[i] = rows
		}(i, f.name, f.fetch)
	}

	wg.Wait()
	return slices
}

// IngestAnnual collects and saves all annual statements for a ticker.
func (s *Service) IngestAnnual(ctx context.Context, ticker string) (*IngestResult, error) {
	result := &IngestResult{Ticker: ticker, PeriodKind: contracts.PeriodAnnual}

	if _, err := s.stocks.GetByTicker(ctx, ticker); err != nil {
		if err == contracts.ErrNotFound {
			result.Status = contracts.StatusError
			result.Message = "stock not found"
			return result, nil
		}
		return nil, fmt.Errorf("stock lookup: %w", err)
	}

	slices := s.fetchSlices(ctx, ticker, kis.DivisionAnnual)
	merged := MergePeriods(slices, Descending)
	result.TotalPeriods = len(merged)

	if len(merged) == 0 {
		result.Status = contracts.StatusNoData
		result.Message = "no annual statements returned"
		return result, nil
	}

	statements := make([]*contracts.FinancialStatement, 0, len(merged))
	for _, row := range merged {
		statements = append(statements, newStatement(ticker, contracts.PeriodAnnual, row))
	}

	saved, err := s.financials.UpsertBatch(ctx, statements)
	if err != nil {
		result.Status = contracts.StatusError
		result.Message = err.Error()
		return result, fmt.Errorf("save annual statements for %s: %w", ticker, err)
	}

	result.Status = contracts.StatusSuccess
	result.Saved = saved

	s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"saved":  saved,
	}).Info("Annual statements saved")

	// 연간 재무 갱신 후 밸류에이션 캐시 갱신
	if s.refresher != nil {
		if err := s.refresher.Refresh(ctx, ticker); err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).
				Warn("Valuation refresh after annual save failed")
		}
	}

	return result, nil
}

// maxQuarterFor bounds how many quarters can exist for a year: for the
// current calendar year only the elapsed quarters, otherwise all four.
func (s *Service) maxQuarterFor(year int) int {
	now := s.now()
	if year == now.Year() {
		return (int(now.Month()) + 2) / 3
	}
	return 4
}

// IngestQuarterly collects and saves per-quarter actuals for one fiscal
// year. year 0 means the current year.
func (s *Service) IngestQuarterly(ctx context.Context, ticker string, year int) (*IngestResult, error) {
	if year == 0 {
		year = s.now().Year()
	}

	result := &IngestResult{
		Ticker:     ticker,
		PeriodKind: contracts.PeriodQuarterly,
		Year:       strconv.Itoa(year),
	}

	if _, err := s.stocks.GetByTicker(ctx, ticker); err != nil {
		if err == contracts.ErrNotFound {
			result.Status = contracts.StatusError
			result.Message = "stock not found"
			return result, nil
		}
		return nil, fmt.Errorf("stock lookup: %w", err)
	}

	slices := s.fetchSlices(ctx, ticker, kis.DivisionQuarterly)

	// The quarterly endpoints return every year at once; keep the
	// requested year in ascending order for the cumulative subtraction.
	merged := MergePeriods(slices, Ascending)
	maxQuarter := s.maxQuarterFor(year)
	prefix := strconv.Itoa(year)

	rows := make([]kis.FinanceRow, 0, 4)
	for _, row := range merged {
		label := row.PeriodLabel()
		if !strings.HasPrefix(label, prefix) {
			continue
		}
		if q := quarterOf(label); q == 0 || q > maxQuarter {
			continue
		}
		rows = append(rows, row)
	}

	result.TotalPeriods = len(rows)
	if len(rows) == 0 {
		result.Status = contracts.StatusNoData
		result.Message = fmt.Sprintf("no quarterly statements for %d", year)
		return result, nil
	}

	statements := deriveQuarterlyActuals(ticker, rows, s.logger)

	saved, err := s.financials.UpsertBatch(ctx, statements)
	if err != nil {
		result.Status = contracts.StatusError
		result.Message = err.Error()
		return result, fmt.Errorf("save quarterly statements for %s: %w", ticker, err)
	}

	result.Status = contracts.StatusSuccess
	result.Saved = saved

	s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"year":   year,
		"saved":  saved,
	}).Info("Quarterly statements saved")

	return result, nil
}
