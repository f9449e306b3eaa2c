package commands

import (
	"fmt"

	"github.com/wonny/kfin/internal/batch"
	"github.com/wonny/kfin/internal/external/kis"
	"github.com/wonny/kfin/internal/external/naver"
	"github.com/wonny/kfin/internal/financial"
	"github.com/wonny/kfin/internal/storage"
	"github.com/wonny/kfin/internal/valuation"
	"github.com/wonny/kfin/pkg/config"
	"github.com/wonny/kfin/pkg/database"
	"github.com/wonny/kfin/pkg/httputil"
	"github.com/wonny/kfin/pkg/logger"
	"github.com/wonny/kfin/pkg/redis"
)

// deps holds the wired application graph shared by every command.
type deps struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	financialRepo *storage.FinancialRepository
	priceRepo     *storage.PriceRepository
	stockRepo     *storage.StockRepository
	valuationRepo *storage.ValuationRepository
	researchRepo  *storage.ResearchRepository

	financials *financial.Service
	valuations *valuation.Service
	collector  *batch.Collector
}

// buildDeps wires the full application graph from configuration.
func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rds, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	limiter := redis.NewRateLimiter(rds, "kfin")

	kisHTTP := httputil.New(log).WithRateLimiter(limiter, redis.KISRateLimit.WithLimit(cfg.KIS.RatePerSecond))
	naverHTTP := httputil.New(log).WithRateLimiter(limiter, redis.NaverRateLimit)

	kisClient := kis.NewClient(cfg.KIS, kisHTTP, rds, log)
	naverClient := naver.NewClient(cfg.Naver, naverHTTP, log)

	d := &deps{
		cfg:           cfg,
		log:           log,
		db:            db,
		redis:         rds,
		financialRepo: storage.NewFinancialRepository(db.Pool),
		priceRepo:     storage.NewPriceRepository(db.Pool),
		stockRepo:     storage.NewStockRepository(db.Pool),
		valuationRepo: storage.NewValuationRepository(db.Pool),
		researchRepo:  storage.NewResearchRepository(db.Pool),
	}

	d.valuations = valuation.NewService(
		d.financialRepo, d.priceRepo, d.stockRepo, d.valuationRepo,
		cfg.Valuation, log,
	).WithSummaryCache(redis.NewCache(rds, "kfin"))

	d.financials = financial.NewService(kisClient, d.stockRepo, d.financialRepo, log).
		WithCacheRefresher(d.valuations)

	d.collector = batch.NewCollector(
		d.stockRepo, d.priceRepo, d.researchRepo, d.financials,
		kisClient, naverClient, log,
	)

	return d, nil
}

// close releases connections.
func (d *deps) close() {
	if d.redis != nil {
		d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}
