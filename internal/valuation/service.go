package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/pkg/config"
	"github.com/wonny/kfin/pkg/logger"
	"github.com/wonny/kfin/pkg/redis"
)

// 재무제표 금액 단위: 억원
const amountUnit = 100_000_000

// Service computes TTM and annual valuation metrics from normalized
// statements and maintains the per-ticker valuation cache.
type Service struct {
	financials contracts.FinancialRepository
	prices     contracts.PriceRepository
	stocks     contracts.StockRepository
	cache      contracts.ValuationRepository
	summaries  *redis.Cache
	logger     *logger.Logger
	parValue   float64
}

// NewService creates the valuation service.
func NewService(
	financials contracts.FinancialRepository,
	prices contracts.PriceRepository,
	stocks contracts.StockRepository,
	cache contracts.ValuationRepository,
	cfg config.ValuationConfig,
	log *logger.Logger,
) *Service {
	parValue := cfg.ParValue
	if parValue <= 0 {
		parValue = 5000
	}
	return &Service{
		financials: financials,
		prices:     prices,
		stocks:     stocks,
		cache:      cache,
		logger:     log.WithField("module", "valuation"),
		parValue:   parValue,
	}
}

// WithSummaryCache wires the Redis cache backing summary and valuation
// reads. Without it every request recomputes from the database.
func (s *Service) WithSummaryCache(c *redis.Cache) *Service {
	s.summaries = c
	return s
}

// sharesFrom estimates shares outstanding from paid-in capital (억원)
// at the assumed par value. 상장주식수를 직접 주지 않는 재무 API의 한계.
func (s *Service) sharesFrom(paidInCapital int64) float64 {
	return float64(paidInCapital) * amountUnit / s.parValue
}

// RefreshResult reports one valuation cache refresh.
type RefreshResult struct {
	Ticker    string                    `json:"ticker"`
	Status    contracts.Status          `json:"status"`
	Message   string                    `json:"message,omitempty"`
	Valuation *contracts.ValuationCache `json:"valuation,omitempty"`
}

// RefreshValuationCache recomputes the cached valuation row for one
// ticker from its latest annual statement and latest price.
func (s *Service) RefreshValuationCache(ctx context.Context, ticker string) (*RefreshResult, error) {
	result := &RefreshResult{Ticker: ticker}

	annual, err := s.financials.GetLatest(ctx, ticker, contracts.PeriodAnnual)
	if err != nil {
		if err == contracts.ErrNotFound {
			result.Status = contracts.StatusNoData
			result.Message = "no annual statements"
			return result, nil
		}
		return nil, fmt.Errorf("load annual statement: %w", err)
	}

	price, err := s.prices.GetLatestByTicker(ctx, ticker)
	if err != nil {
		if err == contracts.ErrNotFound {
			result.Status = contracts.StatusNoData
			result.Message = "no price data"
			return result, nil
		}
		return nil, fmt.Errorf("load latest price: %w", err)
	}

	v := &contracts.ValuationCache{
		Ticker:           ticker,
		CurrentPrice:     price.Close,
		PriceDate:        price.TradeDate,
		EPS:              annual.EPS,
		BPS:              annual.BPS,
		ROE:              annual.ROE,
		BasisPeriodLabel: annual.PeriodLabel,
		LastCalculatedAt: time.Now(),
	}

	// 적자 기업은 PER 미표기
	if annual.EPS != nil && *annual.EPS > 0 {
		per := price.Close / *annual.EPS
		v.PER = &per
	}
	if annual.BPS != nil && *annual.BPS > 0 {
		pbr := price.Close / *annual.BPS
		v.PBR = &pbr
	}

	if err := s.cache.Upsert(ctx, v); err != nil {
		return nil, fmt.Errorf("save valuation for %s: %w", ticker, err)
	}

	if s.summaries != nil {
		for _, key := range []string{redis.TTMSummaryKey(ticker, ""), redis.ValuationKey(ticker)} {
			if err := s.summaries.Delete(ctx, key); err != nil {
				s.logger.WithError(err).WithField("ticker", ticker).Warn("Cache invalidation failed")
			}
		}
	}

	result.Status = contracts.StatusSuccess
	result.Valuation = v
	return result, nil
}

// Refresh is the fire-and-log hook used by the statement ingest path.
func (s *Service) Refresh(ctx context.Context, ticker string) error {
	_, err := s.RefreshValuationCache(ctx, ticker)
	return err
}

// RefreshAllResult reports a bulk cache refresh.
type RefreshAllResult struct {
	Status    contracts.Status `json:"status"`
	Total     int              `json:"total"`
	Refreshed int              `json:"refreshed"`
	NoData    int              `json:"no_data"`
	Errors    int              `json:"errors"`
}

// RefreshAll rebuilds the valuation cache. With a positive limit it
// walks active tickers one by one and honors cancellation between
// tickers; without one it delegates to a single database-side rebuild.
func (s *Service) RefreshAll(ctx context.Context, limit int) (*RefreshAllResult, error) {
	result := &RefreshAllResult{}

	if limit <= 0 {
		n, err := s.cache.RefreshAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("bulk valuation refresh: %w", err)
		}
		result.Status = contracts.StatusSuccess
		result.Total = n
		result.Refreshed = n
		return result, nil
	}

	stocks, err := s.stocks.ListActive(ctx, "", limit)
	if err != nil {
		return nil, fmt.Errorf("list active stocks: %w", err)
	}
	result.Total = len(stocks)

	for _, stock := range stocks {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		r, err := s.RefreshValuationCache(ctx, stock.Ticker)
		if err != nil {
			result.Errors++
			s.logger.WithError(err).WithField("ticker", stock.Ticker).Error("Valuation refresh failed")
			continue
		}
		if r.Status == contracts.StatusNoData {
			result.NoData++
			continue
		}
		result.Refreshed++
	}

	result.Status = contracts.StatusSuccess
	s.logger.WithFields(map[string]interface{}{
		"total":     result.Total,
		"refreshed": result.Refreshed,
		"no_data":   result.NoData,
		"errors":    result.Errors,
	}).Info("Valuation cache refresh finished")

	return result, nil
}

// GetValuation returns the cached valuation row for one ticker. Repeat
// reads are served from Redis for a short window since the row embeds
// the latest price.
func (s *Service) GetValuation(ctx context.Context, ticker string) (*contracts.ValuationCache, error) {
	key := redis.ValuationKey(ticker)
	if s.summaries != nil {
		var cached contracts.ValuationCache
		if hit, err := s.summaries.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	v, err := s.cache.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if s.summaries != nil {
		if err := s.summaries.Set(ctx, key, v, redis.TTLShort); err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Valuation cache write failed")
		}
	}
	return v, nil
}

// Screen filters the valuation cache. Rows without both PER and PBR are
// excluded by the repository; results come back cheapest PER first.
func (s *Service) Screen(ctx context.Context, filter contracts.ScreenFilter, limit int) ([]*contracts.ScreenRow, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.cache.Screen(ctx, filter, limit)
}
