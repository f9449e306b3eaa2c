package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kfin/internal/contracts"
)

func TestBuildScreenQuery(t *testing.T) {
	// 필터 없이도 null PER/PBR 제외 조건은 항상 들어간다
	query, args := buildScreenQuery(contracts.ScreenFilter{}, 100)
	assert.Contains(t, query, "v.per IS NOT NULL")
	assert.Contains(t, query, "v.pbr IS NOT NULL")
	assert.Contains(t, query, "ORDER BY v.per ASC")
	assert.Contains(t, query, "LIMIT $1")
	assert.Equal(t, []interface{}{100}, args)

	query, args = buildScreenQuery(contracts.ScreenFilter{
		MaxPER: f64p(10),
		MinROE: f64p(5),
	}, 50)
	assert.Contains(t, query, "v.per IS NOT NULL")
	assert.Contains(t, query, "v.per <= $1")
	assert.Contains(t, query, "v.roe >= $2")
	assert.Contains(t, query, "LIMIT $3")
	assert.Equal(t, []interface{}{10.0, 5.0, 50}, args)

	query, args = buildScreenQuery(contracts.ScreenFilter{
		MinPER: f64p(1),
		MaxPBR: f64p(1.5),
	}, 20)
	assert.Contains(t, query, "v.per >= $1")
	assert.Contains(t, query, "v.pbr <= $2")
	assert.Equal(t, []interface{}{1.0, 1.5, 20}, args)
}

func TestScreen_ExcludesNullRatios(t *testing.T) {
	pool := testPool(t)
	valuations := NewValuationRepository(pool)
	stocks := NewStockRepository(pool)
	ctx := context.Background()

	for _, ticker := range []string{"ZZVAL1", "ZZVAL2"} {
		cleanupTicker(t, pool, "valuation_cache", ticker)
		cleanupTicker(t, pool, "stocks", ticker)
		require.NoError(t, stocks.Upsert(ctx, &contracts.Stock{
			Ticker:   ticker,
			Name:     "스크리닝 " + ticker,
			IsActive: true,
		}))
	}

	priced := &contracts.ValuationCache{
		Ticker:           "ZZVAL1",
		CurrentPrice:     10000,
		PriceDate:        time.Now(),
		EPS:              f64p(1000),
		PER:              f64p(10),
		BPS:              f64p(20000),
		PBR:              f64p(0.5),
		BasisPeriodLabel: "209912",
		LastCalculatedAt: time.Now(),
	}
	// 적자 기업: PER/PBR 없음
	lossMaker := &contracts.ValuationCache{
		Ticker:           "ZZVAL2",
		CurrentPrice:     5000,
		PriceDate:        time.Now(),
		EPS:              f64p(-200),
		BasisPeriodLabel: "209912",
		LastCalculatedAt: time.Now(),
	}
	require.NoError(t, valuations.Upsert(ctx, priced))
	require.NoError(t, valuations.Upsert(ctx, lossMaker))

	rows, err := valuations.Screen(ctx, contracts.ScreenFilter{}, 100000)
	require.NoError(t, err)

	found := map[string]bool{}
	for _, row := range rows {
		found[row.Ticker] = true
	}
	assert.True(t, found["ZZVAL1"])
	assert.False(t, found["ZZVAL2"], "null PER/PBR rows must never screen in")
}

func TestValuationUpsert_Overwrites(t *testing.T) {
	pool := testPool(t)
	repo := NewValuationRepository(pool)
	ctx := context.Background()

	const ticker = "ZZVAL3"
	cleanupTicker(t, pool, "valuation_cache", ticker)

	require.NoError(t, repo.Upsert(ctx, &contracts.ValuationCache{
		Ticker:           ticker,
		CurrentPrice:     10000,
		PriceDate:        time.Now(),
		PER:              f64p(10),
		BasisPeriodLabel: "209812",
		LastCalculatedAt: time.Now(),
	}))

	// 밸류에이션 캐시는 부분 병합이 아니라 전체 덮어쓰기
	require.NoError(t, repo.Upsert(ctx, &contracts.ValuationCache{
		Ticker:           ticker,
		CurrentPrice:     12000,
		PriceDate:        time.Now(),
		BasisPeriodLabel: "209912",
		LastCalculatedAt: time.Now(),
	}))

	got, err := repo.GetByTicker(ctx, ticker)
	require.NoError(t, err)
	assert.Equal(t, float64(12000), got.CurrentPrice)
	assert.Equal(t, "209912", got.BasisPeriodLabel)
	assert.Nil(t, got.PER)
}
