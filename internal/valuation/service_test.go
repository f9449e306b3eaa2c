package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/pkg/config"
	"github.com/wonny/kfin/pkg/logger"
	"github.com/wonny/kfin/pkg/redis"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

type fakeFinancialRepo struct {
	quarters []*contracts.FinancialStatement // newest first
	annual   *contracts.FinancialStatement
}

func (f *fakeFinancialRepo) UpsertBatch(_ context.Context, s []*contracts.FinancialStatement) (int, error) {
	return len(s), nil
}

func (f *fakeFinancialRepo) GetLatest(_ context.Context, _ string, kind contracts.PeriodKind) (*contracts.FinancialStatement, error) {
	if kind == contracts.PeriodAnnual {
		if f.annual == nil {
			return nil, contracts.ErrNotFound
		}
		return f.annual, nil
	}
	if len(f.quarters) == 0 {
		return nil, contracts.ErrNotFound
	}
	return f.quarters[0], nil
}

func (f *fakeFinancialRepo) GetByPeriod(_ context.Context, _, _ string, _ contracts.PeriodKind) (*contracts.FinancialStatement, error) {
	return nil, contracts.ErrNotFound
}

func (f *fakeFinancialRepo) List(_ context.Context, _ string, _ contracts.PeriodKind, limit int) ([]*contracts.FinancialStatement, error) {
	if limit > len(f.quarters) {
		limit = len(f.quarters)
	}
	return f.quarters[:limit], nil
}

func (f *fakeFinancialRepo) RecentQuarters(_ context.Context, _, asOf string, n int) ([]*contracts.FinancialStatement, error) {
	out := make([]*contracts.FinancialStatement, 0, n)
	for _, q := range f.quarters {
		if asOf != "" && q.PeriodLabel > asOf {
			continue
		}
		out = append(out, q)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

type fakePriceRepo struct {
	latest *contracts.Price
}

func (f *fakePriceRepo) GetLatestByTicker(_ context.Context, _ string) (*contracts.Price, error) {
	if f.latest == nil {
		return nil, contracts.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakePriceRepo) UpsertBatch(_ context.Context, p []*contracts.Price) (int, error) {
	return len(p), nil
}

type fakeStockRepo struct {
	stocks map[string]*contracts.Stock
	active []*contracts.Stock
}

func (f *fakeStockRepo) GetByTicker(_ context.Context, ticker string) (*contracts.Stock, error) {
	if s, ok := f.stocks[ticker]; ok {
		return s, nil
	}
	return nil, contracts.ErrNotFound
}

func (f *fakeStockRepo) ListActive(_ context.Context, _ string, limit int) ([]*contracts.Stock, error) {
	if limit > 0 && limit < len(f.active) {
		return f.active[:limit], nil
	}
	return f.active, nil
}

func (f *fakeStockRepo) Upsert(_ context.Context, _ *contracts.Stock) error { return nil }

type fakeValuationRepo struct {
	upserted    map[string]*contracts.ValuationCache
	refreshAlls int
	screenLimit int
	screenRows  []*contracts.ScreenRow
}

func (f *fakeValuationRepo) Upsert(_ context.Context, v *contracts.ValuationCache) error {
	if f.upserted == nil {
		f.upserted = make(map[string]*contracts.ValuationCache)
	}
	f.upserted[v.Ticker] = v
	return nil
}

func (f *fakeValuationRepo) GetByTicker(_ context.Context, ticker string) (*contracts.ValuationCache, error) {
	if v, ok := f.upserted[ticker]; ok {
		return v, nil
	}
	return nil, contracts.ErrNotFound
}

func (f *fakeValuationRepo) RefreshAll(_ context.Context) (int, error) {
	f.refreshAlls++
	return 2500, nil
}

func (f *fakeValuationRepo) Screen(_ context.Context, _ contracts.ScreenFilter, limit int) ([]*contracts.ScreenRow, error) {
	f.screenLimit = limit
	return f.screenRows, nil
}

// quarterRow builds one quarterly actual with net income and paid-in
// capital in 억원.
func quarterRow(label string, netIncome, paidIn int64) *contracts.FinancialStatement {
	return &contracts.FinancialStatement{
		Ticker:          "005930",
		PeriodLabel:     label,
		PeriodKind:      contracts.PeriodQuarterly,
		Sales:           i64(netIncome * 10),
		OperatingIncome: i64(netIncome * 2),
		NetIncome:       i64(netIncome),
		PaidInCapital:   i64(paidIn),
	}
}

func newTestService(fin *fakeFinancialRepo, prices *fakePriceRepo, stocks *fakeStockRepo, cache *fakeValuationRepo) *Service {
	return NewService(fin, prices, stocks, cache, config.ValuationConfig{ParValue: 5000}, logger.NewNop())
}

func TestCalculateTTM_Success(t *testing.T) {
	fin := &fakeFinancialRepo{
		quarters: []*contracts.FinancialStatement{
			quarterRow("202506", 500, 5000),
			quarterRow("202503", 800, 5000),
			quarterRow("202412", 600, 5000),
			quarterRow("202409", 500, 5000),
			quarterRow("202406", 999, 5000), // 5번째 분기는 창 밖
		},
	}
	prices := &fakePriceRepo{latest: &contracts.Price{
		Ticker:    "005930",
		TradeDate: time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC),
		Close:     24000,
	}}
	svc := newTestService(fin, prices, &fakeStockRepo{}, &fakeValuationRepo{})

	result, err := svc.CalculateTTM(context.Background(), "005930", "")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusSuccess, result.Status)
	assert.Equal(t, "202506", result.BaseQuarter)
	assert.Equal(t, []string{"202506", "202503", "202412", "202409"}, result.Quarters)
	assert.Equal(t, int64(2400), result.NetIncome)
	assert.Equal(t, int64(24000), result.Sales)

	// 자본금 5000억 / 액면가 5000원 = 1억주 → EPS 2400원, PER 10
	require.NotNil(t, result.EPS)
	assert.InDelta(t, 2400, *result.EPS, 0.01)
	require.NotNil(t, result.PER)
	assert.InDelta(t, 10, *result.PER, 0.01)
	assert.Equal(t, "2025-08-29", result.PriceDate)
}

func TestCalculateTTM_AsOfWindowsBackwards(t *testing.T) {
	fin := &fakeFinancialRepo{
		quarters: []*contracts.FinancialStatement{
			quarterRow("202506", 500, 5000),
			quarterRow("202503", 800, 5000),
			quarterRow("202412", 600, 5000),
			quarterRow("202409", 500, 5000),
			quarterRow("202406", 400, 5000),
		},
	}
	svc := newTestService(fin, &fakePriceRepo{}, &fakeStockRepo{}, &fakeValuationRepo{})

	result, err := svc.CalculateTTM(context.Background(), "005930", "202503")
	require.NoError(t, err)

	assert.Equal(t, "202503", result.BaseQuarter)
	assert.Equal(t, int64(800+600+500+400), result.NetIncome)
}

func TestCalculateTTM_InsufficientQuarters(t *testing.T) {
	fin := &fakeFinancialRepo{
		quarters: []*contracts.FinancialStatement{
			quarterRow("202506", 500, 5000),
			quarterRow("202503", 800, 5000),
			quarterRow("202412", 600, 5000),
		},
	}
	svc := newTestService(fin, &fakePriceRepo{}, &fakeStockRepo{}, &fakeValuationRepo{})

	result, err := svc.CalculateTTM(context.Background(), "005930", "")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusError, result.Status)
	assert.Equal(t, "insufficient data: need 4 quarters, found 3", result.Message)
}

func TestCalculateTTM_NoQuarterlyData(t *testing.T) {
	svc := newTestService(&fakeFinancialRepo{}, &fakePriceRepo{}, &fakeStockRepo{}, &fakeValuationRepo{})

	result, err := svc.CalculateTTM(context.Background(), "005930", "")
	require.NoError(t, err)

	// 분기가 하나도 없는 것과 부족한 것은 다르게 보고
	assert.Equal(t, contracts.StatusNoData, result.Status)
	assert.Equal(t, "no quarterly data", result.Message)
}

func TestCalculateTTM_NegativeEarningsOmitPER(t *testing.T) {
	fin := &fakeFinancialRepo{
		quarters: []*contracts.FinancialStatement{
			quarterRow("202506", -900, 5000),
			quarterRow("202503", 100, 5000),
			quarterRow("202412", 200, 5000),
			quarterRow("202409", 100, 5000),
		},
	}
	prices := &fakePriceRepo{latest: &contracts.Price{Close: 24000, TradeDate: time.Now()}}
	svc := newTestService(fin, prices, &fakeStockRepo{}, &fakeValuationRepo{})

	result, err := svc.CalculateTTM(context.Background(), "005930", "")
	require.NoError(t, err)

	assert.Equal(t, int64(-500), result.NetIncome)
	require.NotNil(t, result.EPS)
	assert.Negative(t, *result.EPS)
	assert.Nil(t, result.PER, "PER is meaningless for loss-makers")
}

func TestCalculateTTM_NoPrice(t *testing.T) {
	fin := &fakeFinancialRepo{
		quarters: []*contracts.FinancialStatement{
			quarterRow("202506", 500, 5000),
			quarterRow("202503", 800, 5000),
			quarterRow("202412", 600, 5000),
			quarterRow("202409", 500, 5000),
		},
	}
	svc := newTestService(fin, &fakePriceRepo{}, &fakeStockRepo{}, &fakeValuationRepo{})

	result, err := svc.CalculateTTM(context.Background(), "005930", "")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusSuccess, result.Status)
	assert.NotNil(t, result.EPS)
	assert.Nil(t, result.PER)
	assert.Nil(t, result.CurrentPrice)
}

func TestRefreshValuationCache_Success(t *testing.T) {
	fin := &fakeFinancialRepo{
		annual: &contracts.FinancialStatement{
			Ticker:      "005930",
			PeriodLabel: "202412",
			PeriodKind:  contracts.PeriodAnnual,
			EPS:         f64(2000),
			BPS:         f64(40000),
			ROE:         f64(9.5),
		},
	}
	prices := &fakePriceRepo{latest: &contracts.Price{
		Close:     20000,
		TradeDate: time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC),
	}}
	cache := &fakeValuationRepo{}
	svc := newTestService(fin, prices, &fakeStockRepo{}, cache)

	result, err := svc.RefreshValuationCache(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusSuccess, result.Status)
	v := cache.upserted["005930"]
	require.NotNil(t, v)
	assert.Equal(t, "202412", v.BasisPeriodLabel)
	assert.InDelta(t, 10, *v.PER, 0.01)
	assert.InDelta(t, 0.5, *v.PBR, 0.01)
	assert.Equal(t, 9.5, *v.ROE)
}

func TestRefreshValuationCache_NegativeEPS(t *testing.T) {
	fin := &fakeFinancialRepo{
		annual: &contracts.FinancialStatement{
			Ticker:      "005930",
			PeriodLabel: "202412",
			EPS:         f64(-350),
			BPS:         f64(10000),
		},
	}
	prices := &fakePriceRepo{latest: &contracts.Price{Close: 5000, TradeDate: time.Now()}}
	cache := &fakeValuationRepo{}
	svc := newTestService(fin, prices, &fakeStockRepo{}, cache)

	result, err := svc.RefreshValuationCache(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusSuccess, result.Status)
	assert.Nil(t, cache.upserted["005930"].PER)
	assert.NotNil(t, cache.upserted["005930"].PBR)
}

func TestRefreshValuationCache_NoData(t *testing.T) {
	svc := newTestService(&fakeFinancialRepo{}, &fakePriceRepo{}, &fakeStockRepo{}, &fakeValuationRepo{})

	result, err := svc.RefreshValuationCache(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusNoData, result.Status)
	assert.Equal(t, "no annual statements", result.Message)
}

func TestRefreshAll_BulkWithoutLimit(t *testing.T) {
	cache := &fakeValuationRepo{}
	svc := newTestService(&fakeFinancialRepo{}, &fakePriceRepo{}, &fakeStockRepo{}, cache)

	result, err := svc.RefreshAll(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.refreshAlls)
	assert.Equal(t, 2500, result.Refreshed)
}

func TestRefreshAll_PerTickerWithLimit(t *testing.T) {
	fin := &fakeFinancialRepo{
		annual: &contracts.FinancialStatement{PeriodLabel: "202412", EPS: f64(1000)},
	}
	prices := &fakePriceRepo{latest: &contracts.Price{Close: 10000, TradeDate: time.Now()}}
	stocks := &fakeStockRepo{active: []*contracts.Stock{
		{Ticker: "005930"},
		{Ticker: "000660"},
		{Ticker: "035420"},
	}}
	cache := &fakeValuationRepo{}
	svc := newTestService(fin, prices, stocks, cache)

	result, err := svc.RefreshAll(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Refreshed)
	assert.Equal(t, 0, cache.refreshAlls, "limited run must not bulk-refresh")
}

func TestRefreshAll_CancelledBetweenTickers(t *testing.T) {
	stocks := &fakeStockRepo{active: []*contracts.Stock{{Ticker: "005930"}}}
	svc := newTestService(&fakeFinancialRepo{}, &fakePriceRepo{}, stocks, &fakeValuationRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RefreshAll(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScreen_DefaultLimit(t *testing.T) {
	cache := &fakeValuationRepo{screenRows: []*contracts.ScreenRow{
		{Ticker: "005930", PER: 8, PBR: 0.9},
	}}
	svc := newTestService(&fakeFinancialRepo{}, &fakePriceRepo{}, &fakeStockRepo{}, cache)

	rows, err := svc.Screen(context.Background(), contracts.ScreenFilter{MaxPER: f64(10)}, 0)
	require.NoError(t, err)

	assert.Len(t, rows, 1)
	assert.Equal(t, 100, cache.screenLimit)
}

func TestGetValuation_CacheDisabledFallsThrough(t *testing.T) {
	cache := &fakeValuationRepo{}
	require.NoError(t, cache.Upsert(context.Background(), &contracts.ValuationCache{
		Ticker:       "005930",
		CurrentPrice: 24000,
		PER:          f64(10),
	}))

	// Redis 꺼진 환경에서도 조회는 저장소로 내려간다
	rds, err := redis.New(&config.Config{})
	require.NoError(t, err)

	svc := newTestService(&fakeFinancialRepo{}, &fakePriceRepo{}, &fakeStockRepo{}, cache).
		WithSummaryCache(redis.NewCache(rds, "kfin"))

	v, err := svc.GetValuation(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, float64(24000), v.CurrentPrice)

	_, err = svc.GetValuation(context.Background(), "999999")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestGetTTMSummary_UnknownTicker(t *testing.T) {
	svc := newTestService(&fakeFinancialRepo{}, &fakePriceRepo{}, &fakeStockRepo{}, &fakeValuationRepo{})

	summary, err := svc.GetTTMSummary(context.Background(), "999999", "")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusError, summary.Status)
	assert.Equal(t, "stock not found", summary.Message)
}

func TestGetTTMSummary_CombinesTTMAndAnnual(t *testing.T) {
	fin := &fakeFinancialRepo{
		quarters: []*contracts.FinancialStatement{
			quarterRow("202506", 500, 5000),
			quarterRow("202503", 800, 5000),
			quarterRow("202412", 600, 5000),
			quarterRow("202409", 500, 5000),
		},
		annual: &contracts.FinancialStatement{
			PeriodLabel: "202412",
			Sales:       i64(25000),
			NetIncome:   i64(2400),
			EPS:         f64(2400),
			BPS:         f64(48000),
		},
	}
	prices := &fakePriceRepo{latest: &contracts.Price{
		Close:     24000,
		TradeDate: time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC),
	}}
	stocks := &fakeStockRepo{stocks: map[string]*contracts.Stock{
		"005930": {Ticker: "005930", Name: "삼성전자"},
	}}
	svc := newTestService(fin, prices, stocks, &fakeValuationRepo{})

	summary, err := svc.GetTTMSummary(context.Background(), "005930", "")
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusSuccess, summary.Status)
	assert.Equal(t, "삼성전자", summary.StockName)
	require.NotNil(t, summary.TTM)
	require.NotNil(t, summary.Annual)
	assert.InDelta(t, 10, *summary.Annual.PER, 0.01)
	assert.InDelta(t, 0.5, *summary.Annual.PBR, 0.01)
}

func TestGetQuarterlyEPSTrend_ChronologicalWithDerivedEPS(t *testing.T) {
	fin := &fakeFinancialRepo{
		quarters: []*contracts.FinancialStatement{
			quarterRow("202506", 500, 5000),
			quarterRow("202503", 800, 5000),
			quarterRow("202412", 600, 5000),
		},
	}
	svc := newTestService(fin, &fakePriceRepo{}, &fakeStockRepo{}, &fakeValuationRepo{})

	trend, err := svc.GetQuarterlyEPSTrend(context.Background(), "005930", 3)
	require.NoError(t, err)

	require.Len(t, trend, 3)
	assert.Equal(t, "202412", trend[0].PeriodLabel)
	assert.Equal(t, "202506", trend[2].PeriodLabel)

	// 순이익 500억 / 1억주 = 주당 500원
	require.NotNil(t, trend[2].EPS)
	assert.InDelta(t, 500, *trend[2].EPS, 0.01)
}
