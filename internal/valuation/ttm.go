package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/pkg/redis"
)

// ttmWindow is the number of quarters summed for trailing metrics.
const ttmWindow = 4

// TTMResult holds trailing-twelve-month aggregates for one ticker.
type TTMResult struct {
	Ticker          string           `json:"ticker"`
	Status          contracts.Status `json:"status"`
	Message         string           `json:"message,omitempty"`
	BaseQuarter     string           `json:"base_quarter,omitempty"`
	Quarters        []string         `json:"quarters,omitempty"`
	Sales           int64            `json:"ttm_sales"`
	OperatingIncome int64            `json:"ttm_operating_income"`
	NetIncome       int64            `json:"ttm_net_income"`
	EPS             *float64         `json:"ttm_eps,omitempty"`
	PER             *float64         `json:"ttm_per,omitempty"`
	CurrentPrice    *float64         `json:"current_price,omitempty"`
	PriceDate       string           `json:"price_date,omitempty"`
}

// CalculateTTM sums the four most recent quarterly actuals at or before
// asOf (YYYYMM; empty means latest available) and derives EPS and PER.
// Fewer than four quarters is reported as an error status, not a guess
// scaled up from a shorter window.
func (s *Service) CalculateTTM(ctx context.Context, ticker, asOf string) (*TTMResult, error) {
	result := &TTMResult{Ticker: ticker}

	quarters, err := s.financials.RecentQuarters(ctx, ticker, asOf, ttmWindow)
	if err != nil {
		return nil, fmt.Errorf("load recent quarters: %w", err)
	}

	if len(quarters) == 0 {
		result.Status = contracts.StatusNoData
		result.Message = "no quarterly data"
		return result, nil
	}
	if len(quarters) < ttmWindow {
		result.Status = contracts.StatusError
		result.Message = fmt.Sprintf("insufficient data: need %d quarters, found %d", ttmWindow, len(quarters))
		return result, nil
	}

	result.BaseQuarter = quarters[0].PeriodLabel
	for _, q := range quarters {
		result.Quarters = append(result.Quarters, q.PeriodLabel)
		if q.Sales != nil {
			result.Sales += *q.Sales
		}
		if q.OperatingIncome != nil {
			result.OperatingIncome += *q.OperatingIncome
		}
		if q.NetIncome != nil {
			result.NetIncome += *q.NetIncome
		}
	}

	// 주식수는 최근 분기의 자본금으로 추정
	for _, q := range quarters {
		if q.PaidInCapital == nil || *q.PaidInCapital <= 0 {
			continue
		}
		shares := s.sharesFrom(*q.PaidInCapital)
		eps := float64(result.NetIncome) * amountUnit / shares
		result.EPS = &eps
		break
	}

	price, err := s.prices.GetLatestByTicker(ctx, ticker)
	if err != nil && err != contracts.ErrNotFound {
		return nil, fmt.Errorf("load latest price: %w", err)
	}
	if price != nil {
		result.CurrentPrice = &price.Close
		result.PriceDate = price.TradeDate.Format("2006-01-02")

		if result.EPS != nil && *result.EPS > 0 {
			per := price.Close / *result.EPS
			result.PER = &per
		}
	}

	result.Status = contracts.StatusSuccess
	return result, nil
}

// AnnualBlock is the latest-annual-statement section of a summary.
type AnnualBlock struct {
	PeriodLabel     string   `json:"period_label"`
	Sales           *int64   `json:"sales,omitempty"`
	OperatingIncome *int64   `json:"operating_income,omitempty"`
	NetIncome       *int64   `json:"net_income,omitempty"`
	EPS             *float64 `json:"eps,omitempty"`
	PER             *float64 `json:"per,omitempty"`
	BPS             *float64 `json:"bps,omitempty"`
	PBR             *float64 `json:"pbr,omitempty"`
	ROE             *float64 `json:"roe,omitempty"`
}

// Summary combines TTM and latest-annual views for one ticker.
type Summary struct {
	Ticker       string           `json:"ticker"`
	StockName    string           `json:"stock_name,omitempty"`
	Status       contracts.Status `json:"status"`
	Message      string           `json:"message,omitempty"`
	CurrentPrice *float64         `json:"current_price,omitempty"`
	PriceDate    string           `json:"price_date,omitempty"`
	TTM          *TTMResult       `json:"ttm,omitempty"`
	Annual       *AnnualBlock     `json:"annual,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// GetTTMSummary builds the combined valuation summary, served from the
// Redis cache when possible.
func (s *Service) GetTTMSummary(ctx context.Context, ticker, asOf string) (*Summary, error) {
	cacheKey := redis.TTMSummaryKey(ticker, asOf)
	if s.summaries != nil {
		var cached Summary
		if hit, err := s.summaries.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	stock, err := s.stocks.GetByTicker(ctx, ticker)
	if err != nil {
		if err == contracts.ErrNotFound {
			return &Summary{
				Ticker:      ticker,
				Status:      contracts.StatusError,
				Message:     "stock not found",
				GeneratedAt: time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("stock lookup: %w", err)
	}

	summary := &Summary{
		Ticker:      ticker,
		StockName:   stock.Name,
		GeneratedAt: time.Now(),
	}

	ttm, err := s.CalculateTTM(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}
	if ttm.Status == contracts.StatusSuccess {
		summary.TTM = ttm
		summary.CurrentPrice = ttm.CurrentPrice
		summary.PriceDate = ttm.PriceDate
	}

	annual, err := s.financials.GetLatest(ctx, ticker, contracts.PeriodAnnual)
	if err != nil && err != contracts.ErrNotFound {
		return nil, fmt.Errorf("load annual statement: %w", err)
	}
	if annual != nil {
		block := &AnnualBlock{
			PeriodLabel:     annual.PeriodLabel,
			Sales:           annual.Sales,
			OperatingIncome: annual.OperatingIncome,
			NetIncome:       annual.NetIncome,
			EPS:             annual.EPS,
			BPS:             annual.BPS,
			ROE:             annual.ROE,
		}

		if summary.CurrentPrice == nil {
			if price, err := s.prices.GetLatestByTicker(ctx, ticker); err == nil {
				summary.CurrentPrice = &price.Close
				summary.PriceDate = price.TradeDate.Format("2006-01-02")
			}
		}
		if summary.CurrentPrice != nil {
			if annual.EPS != nil && *annual.EPS > 0 {
				per := *summary.CurrentPrice / *annual.EPS
				block.PER = &per
			}
			if annual.BPS != nil && *annual.BPS > 0 {
				pbr := *summary.CurrentPrice / *annual.BPS
				block.PBR = &pbr
			}
		}

		summary.Annual = block
	}

	if summary.TTM == nil && summary.Annual == nil {
		summary.Status = contracts.StatusNoData
		summary.Message = "no financial statements"
		return summary, nil
	}

	summary.Status = contracts.StatusSuccess
	if summary.TTM == nil {
		summary.Message = ttm.Message // 분기 부족 사유 전달
	}

	if s.summaries != nil {
		if err := s.summaries.Set(ctx, cacheKey, summary, redis.TTLMedium); err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Summary cache write failed")
		}
	}

	return summary, nil
}

// EPSTrendRow is one quarter in the EPS trend, oldest first.
type EPSTrendRow struct {
	PeriodLabel string   `json:"period_label"`
	NetIncome   *int64   `json:"net_income,omitempty"`
	EPS         *float64 `json:"eps,omitempty"`
	ROE         *float64 `json:"roe,omitempty"`
}

// GetQuarterlyEPSTrend returns derived per-quarter EPS for the most
// recent quarters, in chronological order.
func (s *Service) GetQuarterlyEPSTrend(ctx context.Context, ticker string, limit int) ([]EPSTrendRow, error) {
	if limit <= 0 {
		limit = 8
	}

	quarters, err := s.financials.List(ctx, ticker, contracts.PeriodQuarterly, limit)
	if err != nil {
		return nil, fmt.Errorf("load quarterly statements: %w", err)
	}

	trend := make([]EPSTrendRow, 0, len(quarters))
	// List is newest-first; build the trend oldest-first
	for i := len(quarters) - 1; i >= 0; i-- {
		q := quarters[i]
		row := EPSTrendRow{
			PeriodLabel: q.PeriodLabel,
			NetIncome:   q.NetIncome,
			ROE:         q.ROE,
		}

		if q.NetIncome != nil && q.PaidInCapital != nil && *q.PaidInCapital > 0 {
			eps := float64(*q.NetIncome) * amountUnit / s.sharesFrom(*q.PaidInCapital)
			row.EPS = &eps
		}

		trend = append(trend, row)
	}

	return trend, nil
}
