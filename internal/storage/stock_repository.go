package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kfin/internal/contracts"
)

// StockRepository implements contracts.StockRepository.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new stock directory repository
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// GetByTicker returns one stock by ticker.
func (r *StockRepository) GetByTicker(ctx context.Context, ticker string) (*contracts.Stock, error) {
	query := `
		SELECT ticker, name, name_en, market, industry, listed_date, is_active,
		       created_at, updated_at
		FROM stocks
		WHERE ticker = $1
	`

	var s contracts.Stock
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&s.Ticker, &s.Name, &s.NameEn, &s.Market, &s.Industry, &s.ListedDate,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, contracts.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListActive returns active tickers, optionally filtered by market.
func (r *StockRepository) ListActive(ctx context.Context, market string, limit int) ([]*contracts.Stock, error) {
	query := `
		SELECT ticker, name, name_en, market, industry, listed_date, is_active,
		       created_at, updated_at
		FROM stocks
		WHERE is_active = true AND ($1 = '' OR market = $1)
		ORDER BY ticker
	`
	args := []interface{}{market}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.Stock
	for rows.Next() {
		var s contracts.Stock
		if err := rows.Scan(
			&s.Ticker, &s.Name, &s.NameEn, &s.Market, &s.Industry, &s.ListedDate,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Upsert inserts or updates one stock directory entry.
func (r *StockRepository) Upsert(ctx context.Context, stock *contracts.Stock) error {
	query := `
		INSERT INTO stocks (ticker, name, name_en, market, industry, listed_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			name_en = EXCLUDED.name_en,
			market = EXCLUDED.market,
			industry = EXCLUDED.industry,
			listed_date = EXCLUDED.listed_date,
			is_active = EXCLUDED.is_active,
			updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query,
		stock.Ticker, stock.Name, stock.NameEn, stock.Market, stock.Industry,
		stock.ListedDate, stock.IsActive,
	)
	return err
}
