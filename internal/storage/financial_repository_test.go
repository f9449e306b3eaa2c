package storage

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kfin/internal/contracts"
)

func i64p(v int64) *int64     { return &v }
func f64p(v float64) *float64 { return &v }

// testPool connects to the database named by DATABASE_URL. Repository
// tests run against db/schema.sql and clean up their own rows.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func cleanupTicker(t *testing.T, pool *pgxpool.Pool, table, ticker string) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM "+table+" WHERE ticker = $1", ticker)
	})
}

func TestUpsertBatch_PartialOverlayKeepsUnion(t *testing.T) {
	pool := testPool(t)
	repo := NewFinancialRepository(pool)
	ctx := context.Background()

	const ticker = "ZZFIN1"
	cleanupTicker(t, pool, "financial_statements", ticker)

	// 대차대조표 슬라이스만 도착한 첫 저장
	first := &contracts.FinancialStatement{
		Ticker:      ticker,
		PeriodLabel: "209912",
		PeriodKind:  contracts.PeriodAnnual,
		TotalAssets: i64p(4500),
		TotalEquity: i64p(3000),
	}
	n, err := repo.UpsertBatch(ctx, []*contracts.FinancialStatement{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 손익 필드만 채운 두 번째 저장: nil 필드는 기존 값을 지우지 않는다
	second := &contracts.FinancialStatement{
		Ticker:      ticker,
		PeriodLabel: "209912",
		PeriodKind:  contracts.PeriodAnnual,
		Sales:       i64p(10000),
		NetIncome:   i64p(800),
		TotalEquity: i64p(3100),
	}
	_, err = repo.UpsertBatch(ctx, []*contracts.FinancialStatement{second})
	require.NoError(t, err)

	got, err := repo.GetByPeriod(ctx, ticker, "209912", contracts.PeriodAnnual)
	require.NoError(t, err)

	// 두 저장의 non-null 합집합이 한 행에 남는다
	require.NotNil(t, got.TotalAssets)
	assert.Equal(t, int64(4500), *got.TotalAssets)
	require.NotNil(t, got.Sales)
	assert.Equal(t, int64(10000), *got.Sales)
	require.NotNil(t, got.NetIncome)
	assert.Equal(t, int64(800), *got.NetIncome)
	require.NotNil(t, got.TotalEquity)
	assert.Equal(t, int64(3100), *got.TotalEquity, "non-null values do overwrite")
	assert.Nil(t, got.EPS)

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM financial_statements WHERE ticker = $1`, ticker).Scan(&count))
	assert.Equal(t, 1, count, "one row per (ticker, period_label, period_kind)")
}

func TestRecentQuarters_AsOfBoundsWindow(t *testing.T) {
	pool := testPool(t)
	repo := NewFinancialRepository(pool)
	ctx := context.Background()

	const ticker = "ZZFIN2"
	cleanupTicker(t, pool, "financial_statements", ticker)

	var rows []*contracts.FinancialStatement
	for _, label := range []string{"209903", "209906", "209909", "209912"} {
		rows = append(rows, &contracts.FinancialStatement{
			Ticker:      ticker,
			PeriodLabel: label,
			PeriodKind:  contracts.PeriodQuarterly,
			NetIncome:   i64p(100),
		})
	}
	_, err := repo.UpsertBatch(ctx, rows)
	require.NoError(t, err)

	got, err := repo.RecentQuarters(ctx, ticker, "209909", 4)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "209909", got[0].PeriodLabel)

	// asOf 없으면 상한 없음
	got, err = repo.RecentQuarters(ctx, ticker, "", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "209912", got[0].PeriodLabel)
}
