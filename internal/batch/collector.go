package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/internal/external/kis"
	"github.com/wonny/kfin/internal/financial"
	"github.com/wonny/kfin/pkg/logger"
)

// Report summarizes one bulk collection run.
type Report struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	NoData    int           `json:"no_data"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// PriceSource is the slice of the KIS client the price collector needs.
type PriceSource interface {
	GetDailyPrices(ctx context.Context, ticker string) ([]kis.DailyPrice, error)
	GetCurrentPrice(ctx context.Context, ticker string) (*kis.CurrentPrice, error)
}

// ResearchSource is the crawler surface the research collector needs.
type ResearchSource interface {
	FetchResearchReports(ctx context.Context, ticker string, maxPages int) ([]*contracts.ResearchReport, error)
}

// Collector runs per-ticker collection loops over the active universe.
// Each loop checks cancellation between tickers so a long run can be
// stopped cleanly; per-ticker failures are counted, not raised.
type Collector struct {
	stocks     contracts.StockRepository
	prices     contracts.PriceRepository
	research   contracts.ResearchRepository
	financials *financial.Service
	kis        PriceSource
	naver      ResearchSource
	logger     *logger.Logger
}

// NewCollector creates a new bulk collector
func NewCollector(
	stocks contracts.StockRepository,
	prices contracts.PriceRepository,
	research contracts.ResearchRepository,
	financials *financial.Service,
	kisClient PriceSource,
	naverClient ResearchSource,
	log *logger.Logger,
) *Collector {
	return &Collector{
		stocks:     stocks,
		prices:     prices,
		research:   research,
		financials: financials,
		kis:        kisClient,
		naver:      naverClient,
		logger:     log.WithField("module", "batch"),
	}
}

func (c *Collector) universe(ctx context.Context, market string, limit int) ([]*contracts.Stock, error) {
	stocks, err := c.stocks.ListActive(ctx, market, limit)
	if err != nil {
		return nil, fmt.Errorf("list active stocks: %w", err)
	}
	return stocks, nil
}

// CollectFinancials ingests annual statements for the universe, and the
// given year's quarterly actuals when withQuarterly is set (year 0 =
// current year).
func (c *Collector) CollectFinancials(ctx context.Context, market string, limit int, withQuarterly bool, year int) (*Report, error) {
	stocks, err := c.universe(ctx, market, limit)
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(stocks)}
	start := time.Now()

	for _, stock := range stocks {
		select {
		case <-ctx.Done():
			report.Duration = time.Since(start)
			return report, ctx.Err()
		default:
		}

		result, err := c.financials.IngestAnnual(ctx, stock.Ticker)
		if err != nil {
			report.Failed++
			c.logger.WithError(err).WithField("ticker", stock.Ticker).Error("Annual collection failed")
			continue
		}

		if withQuarterly {
			if _, err := c.financials.IngestQuarterly(ctx, stock.Ticker, year); err != nil {
				report.Failed++
				c.logger.WithError(err).WithField("ticker", stock.Ticker).Error("Quarterly collection failed")
				continue
			}
		}

		switch result.Status {
		case contracts.StatusSuccess:
			report.Succeeded++
		case contracts.StatusNoData:
			report.NoData++
		default:
			report.Failed++
		}
	}

	report.Duration = time.Since(start)
	c.logger.WithFields(map[string]interface{}{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"no_data":   report.NoData,
		"failed":    report.Failed,
		"duration":  report.Duration.String(),
	}).Info("Financial collection finished")

	return report, nil
}

// CollectPrices pulls recent daily prices for the universe.
func (c *Collector) CollectPrices(ctx context.Context, market string, limit int) (*Report, error) {
	stocks, err := c.universe(ctx, market, limit)
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(stocks)}
	start := time.Now()

	for _, stock := range stocks {
		select {
		case <-ctx.Done():
			report.Duration = time.Since(start)
			return report, ctx.Err()
		default:
		}

		daily, err := c.kis.GetDailyPrices(ctx, stock.Ticker)
		if err != nil {
			report.Failed++
			c.logger.WithError(err).WithField("ticker", stock.Ticker).Error("Price fetch failed")
			continue
		}
		if len(daily) == 0 {
			report.NoData++
			continue
		}

		rows := make([]*contracts.Price, 0, len(daily))
		for _, d := range daily {
			tradeDate, err := d.Date()
			if err != nil {
				continue
			}
			rows = append(rows, &contracts.Price{
				Ticker:       stock.Ticker,
				TradeDate:    tradeDate,
				Open:         d.Open,
				High:         d.High,
				Low:          d.Low,
				Close:        d.Close,
				Volume:       d.Volume,
				TradingValue: d.TradingValue,
			})
		}

		if _, err := c.prices.UpsertBatch(ctx, rows); err != nil {
			report.Failed++
			c.logger.WithError(err).WithField("ticker", stock.Ticker).Error("Price save failed")
			continue
		}
		report.Succeeded++
	}

	report.Duration = time.Since(start)
	c.logger.WithFields(map[string]interface{}{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	}).Info("Price collection finished")

	return report, nil
}

// CollectResearch crawls recent broker research for the universe.
func (c *Collector) CollectResearch(ctx context.Context, market string, limit, maxPages int) (*Report, error) {
	stocks, err := c.universe(ctx, market, limit)
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(stocks)}
	start := time.Now()

	for _, stock := range stocks {
		select {
		case <-ctx.Done():
			report.Duration = time.Since(start)
			return report, ctx.Err()
		default:
		}

		reports, err := c.naver.FetchResearchReports(ctx, stock.Ticker, maxPages)
		if err != nil {
			report.Failed++
			c.logger.WithError(err).WithField("ticker", stock.Ticker).Error("Research crawl failed")
			continue
		}
		if len(reports) == 0 {
			report.NoData++
			continue
		}

		if _, err := c.research.UpsertBatch(ctx, reports); err != nil {
			report.Failed++
			c.logger.WithError(err).WithField("ticker", stock.Ticker).Error("Research save failed")
			continue
		}
		report.Succeeded++
	}

	report.Duration = time.Since(start)
	return report, nil
}

// SyncStock refreshes one stock directory entry from the current-price
// quote, which carries the listed name and market.
func (c *Collector) SyncStock(ctx context.Context, ticker string) error {
	quote, err := c.kis.GetCurrentPrice(ctx, ticker)
	if err != nil {
		return fmt.Errorf("fetch quote for %s: %w", ticker, err)
	}
	if quote.Name == "" {
		return fmt.Errorf("no listing info for %s", ticker)
	}

	return c.stocks.Upsert(ctx, &contracts.Stock{
		Ticker:   ticker,
		Name:     quote.Name,
		Market:   quote.Market,
		IsActive: true,
	})
}
