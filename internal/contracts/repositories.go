package contracts

import "context"

// FinancialRepository persists normalized financial statements.
// Upserts for the same (ticker, period, kind) key must be serialized by
// the implementation; a batch commits atomically.
type FinancialRepository interface {
	// UpsertBatch inserts or partially updates statements in one
	// transaction and returns the number of records processed.
	UpsertBatch(ctx context.Context, statements []*FinancialStatement) (int, error)

	// GetLatest returns the most recent statement of the given kind.
	GetLatest(ctx context.Context, ticker string, kind PeriodKind) (*FinancialStatement, error)

	// GetByPeriod returns the statement for an exact period label.
	GetByPeriod(ctx context.Context, ticker, periodLabel string, kind PeriodKind) (*FinancialStatement, error)

	// List returns statements ordered by period label descending.
	// kind "" means both kinds.
	List(ctx context.Context, ticker string, kind PeriodKind, limit int) ([]*FinancialStatement, error)

	// RecentQuarters returns up to n quarterly statements with
	// period label <= asOf, most recent first.
	RecentQuarters(ctx context.Context, ticker, asOf string, n int) ([]*FinancialStatement, error)
}

// PriceRepository is the price store read/write surface.
type PriceRepository interface {
	GetLatestByTicker(ctx context.Context, ticker string) (*Price, error)
	UpsertBatch(ctx context.Context, prices []*Price) (int, error)
}

// StockRepository is the stock directory.
type StockRepository interface {
	GetByTicker(ctx context.Context, ticker string) (*Stock, error)
	// ListActive returns active tickers, optionally filtered by market.
	// limit <= 0 means no limit.
	ListActive(ctx context.Context, market string, limit int) ([]*Stock, error)
	Upsert(ctx context.Context, stock *Stock) error
}

// ValuationRepository maintains the per-ticker valuation cache.
type ValuationRepository interface {
	Upsert(ctx context.Context, v *ValuationCache) error
	GetByTicker(ctx context.Context, ticker string) (*ValuationCache, error)
	// RefreshAll recomputes the whole cache database-side and returns
	// the resulting row count.
	RefreshAll(ctx context.Context) (int, error)
	Screen(ctx context.Context, filter ScreenFilter, limit int) ([]*ScreenRow, error)
}

// ResearchRepository persists crawled broker research.
type ResearchRepository interface {
	UpsertBatch(ctx context.Context, reports []*ResearchReport) (int, error)
	ListByTicker(ctx context.Context, ticker string, limit int) ([]*ResearchReport, error)
}
