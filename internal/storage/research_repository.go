package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kfin/internal/contracts"
)

// ResearchRepository implements contracts.ResearchRepository.
type ResearchRepository struct {
	pool *pgxpool.Pool
}

// NewResearchRepository creates a new research report repository
func NewResearchRepository(pool *pgxpool.Pool) *ResearchRepository {
	return &ResearchRepository{pool: pool}
}

// UpsertBatch saves crawled reports; re-crawled entries are skipped.
// Returns the number of newly inserted rows.
func (r *ResearchRepository) UpsertBatch(ctx context.Context, reports []*contracts.ResearchReport) (int, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO research_reports (
			ticker, title, broker, target_price, opinion, report_date, report_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, report_date, broker, title) DO NOTHING
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, report := range reports {
		tag, err := tx.Exec(ctx, query,
			report.Ticker, report.Title, report.Broker, report.TargetPrice,
			report.Opinion, report.ReportDate, report.ReportURL,
		)
		if err != nil {
			return 0, fmt.Errorf("insert report %s/%s: %w", report.Ticker, report.Title, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return inserted, nil
}

// ListByTicker returns recent reports for a ticker, newest first.
func (r *ResearchRepository) ListByTicker(ctx context.Context, ticker string, limit int) ([]*contracts.ResearchReport, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ticker, title, broker, target_price, opinion, report_date,
		       report_url, created_at
		FROM research_reports
		WHERE ticker = $1
		ORDER BY report_date DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.ResearchReport
	for rows.Next() {
		var report contracts.ResearchReport
		if err := rows.Scan(
			&report.Ticker, &report.Title, &report.Broker, &report.TargetPrice,
			&report.Opinion, &report.ReportDate, &report.ReportURL, &report.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &report)
	}
	return out, rows.Err()
}
