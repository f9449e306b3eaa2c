package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kfin/internal/contracts"
)

// ValuationRepository implements contracts.ValuationRepository.
// 밸류에이션 캐시는 파생 데이터: 언제든 재계산 가능
type ValuationRepository struct {
	pool *pgxpool.Pool
}

// NewValuationRepository creates a new valuation cache repository
func NewValuationRepository(pool *pgxpool.Pool) *ValuationRepository {
	return &ValuationRepository{pool: pool}
}

// Upsert writes one valuation cache row.
func (r *ValuationRepository) Upsert(ctx context.Context, v *contracts.ValuationCache) error {
	query := `
		INSERT INTO valuation_cache (
			ticker, current_price, price_date, eps, per, bps, pbr, roe,
			basis_period_label, last_calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ticker) DO UPDATE SET
			current_price = EXCLUDED.current_price,
			price_date = EXCLUDED.price_date,
			eps = EXCLUDED.eps,
			per = EXCLUDED.per,
			bps = EXCLUDED.bps,
			pbr = EXCLUDED.pbr,
			roe = EXCLUDED.roe,
			basis_period_label = EXCLUDED.basis_period_label,
			last_calculated_at = EXCLUDED.last_calculated_at
	`

	_, err := r.pool.Exec(ctx, query,
		v.Ticker, v.CurrentPrice, v.PriceDate, v.EPS, v.PER, v.BPS, v.PBR, v.ROE,
		v.BasisPeriodLabel, v.LastCalculatedAt,
	)
	return err
}

// GetByTicker returns the cached valuation row for one ticker.
func (r *ValuationRepository) GetByTicker(ctx context.Context, ticker string) (*contracts.ValuationCache, error) {
	query := `
		SELECT ticker, current_price, price_date, eps, per, bps, pbr, roe,
		       basis_period_label, last_calculated_at
		FROM valuation_cache
		WHERE ticker = $1
	`

	var v contracts.ValuationCache
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&v.Ticker, &v.CurrentPrice, &v.PriceDate, &v.EPS, &v.PER, &v.BPS, &v.PBR,
		&v.ROE, &v.BasisPeriodLabel, &v.LastCalculatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, contracts.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// RefreshAll rebuilds the whole cache in a single statement from the
// latest annual statement and latest price per ticker. PER/PBR stay
// NULL for loss-makers and impaired equity.
func (r *ValuationRepository) RefreshAll(ctx context.Context) (int, error) {
	query := `
		INSERT INTO valuation_cache (
			ticker, current_price, price_date, eps, per, bps, pbr, roe,
			basis_period_label, last_calculated_at
		)
		SELECT fs.ticker,
		       p.close_price,
		       p.trade_date,
		       fs.eps,
		       CASE WHEN fs.eps > 0 THEN p.close_price / fs.eps END,
		       fs.bps,
		       CASE WHEN fs.bps > 0 THEN p.close_price / fs.bps END,
		       fs.roe,
		       fs.period_label,
		       now()
		FROM (
			SELECT DISTINCT ON (ticker) ticker, period_label, eps, bps, roe
			FROM financial_statements
			WHERE period_kind = 'Y'
			ORDER BY ticker, period_label DESC
		) fs
		JOIN (
			SELECT DISTINCT ON (ticker) ticker, trade_date, close_price
			FROM stock_prices
			ORDER BY ticker, trade_date DESC
		) p ON p.ticker = fs.ticker
		ON CONFLICT (ticker) DO UPDATE SET
			current_price = EXCLUDED.current_price,
			price_date = EXCLUDED.price_date,
			eps = EXCLUDED.eps,
			per = EXCLUDED.per,
			bps = EXCLUDED.bps,
			pbr = EXCLUDED.pbr,
			roe = EXCLUDED.roe,
			basis_period_label = EXCLUDED.basis_period_label,
			last_calculated_at = EXCLUDED.last_calculated_at
	`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("bulk refresh: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// buildScreenQuery composes the screening SQL from the optional filter
// bounds. Rows missing PER or PBR are excluded regardless of the filter.
func buildScreenQuery(filter contracts.ScreenFilter, limit int) (string, []interface{}) {
	conditions := []string{"v.per IS NOT NULL", "v.pbr IS NOT NULL"}
	args := []interface{}{}

	addCond := func(expr string, val *float64) {
		if val == nil {
			return
		}
		args = append(args, *val)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	addCond("v.per >= $%d", filter.MinPER)
	addCond("v.per <= $%d", filter.MaxPER)
	addCond("v.pbr >= $%d", filter.MinPBR)
	addCond("v.pbr <= $%d", filter.MaxPBR)
	addCond("v.roe >= $%d", filter.MinROE)

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT v.ticker, s.name, v.current_price, v.per, v.pbr, v.roe,
		       v.eps, v.bps, v.price_date
		FROM valuation_cache v
		JOIN stocks s ON s.ticker = v.ticker
		WHERE %s
		ORDER BY v.per ASC
		LIMIT $%d
	`, strings.Join(conditions, " AND "), len(args))

	return query, args
}

// Screen filters the cache, cheapest PER first.
func (r *ValuationRepository) Screen(ctx context.Context, filter contracts.ScreenFilter, limit int) ([]*contracts.ScreenRow, error) {
	query, args := buildScreenQuery(filter, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.ScreenRow
	for rows.Next() {
		var row contracts.ScreenRow
		if err := rows.Scan(
			&row.Ticker, &row.StockName, &row.CurrentPrice, &row.PER, &row.PBR,
			&row.ROE, &row.EPS, &row.BPS, &row.PriceDate,
		); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}
