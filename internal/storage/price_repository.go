package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kfin/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetLatestByTicker returns the most recent price row for a ticker.
func (r *PriceRepository) GetLatestByTicker(ctx context.Context, ticker string) (*contracts.Price, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price,
		       volume, trading_value, created_at
		FROM stock_prices
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var p contracts.Price
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&p.Ticker, &p.TradeDate, &p.Open, &p.High, &p.Low, &p.Close,
		&p.Volume, &p.TradingValue, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, contracts.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpsertBatch saves daily prices in one transaction. Re-collected days
// overwrite: 수정주가 반영.
func (r *PriceRepository) UpsertBatch(ctx context.Context, prices []*contracts.Price) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO stock_prices (
			ticker, trade_date, open_price, high_price, low_price, close_price,
			volume, trading_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			trading_value = EXCLUDED.trading_value
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range prices {
		_, err := tx.Exec(ctx, query,
			p.Ticker, p.TradeDate, p.Open, p.High, p.Low, p.Close,
			p.Volume, p.TradingValue,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert price %s/%s: %w", p.Ticker, p.TradeDate.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return len(prices), nil
}
