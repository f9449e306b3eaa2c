package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kfin/internal/contracts"
)

// FinancialRepository implements contracts.FinancialRepository.
// 재무제표 저장소는 여기서만
type FinancialRepository struct {
	pool *pgxpool.Pool
}

// NewFinancialRepository creates a new financial statement repository
func NewFinancialRepository(pool *pgxpool.Pool) *FinancialRepository {
	return &FinancialRepository{pool: pool}
}

const financialColumns = `
	ticker, period_label, period_kind,
	current_assets, fixed_assets, total_assets,
	current_liabilities, fixed_liabilities, total_liabilities,
	paid_in_capital, total_equity,
	sales, cost_of_sales, gross_profit, operating_income,
	special_gains, special_losses, net_income,
	sales_growth, op_income_growth, net_income_growth,
	roe, eps, sps, bps, reserve_rate, liability_rate,
	roa, return_on_own_equity, net_margin, gross_margin,
	eva, ebitda, ev_ebitda, equity_growth, asset_growth,
	created_at, updated_at`

func scanStatement(row pgx.Row) (*contracts.FinancialStatement, error) {
	var fs contracts.FinancialStatement
	err := row.Scan(
		&fs.Ticker, &fs.PeriodLabel, &fs.PeriodKind,
		&fs.CurrentAssets, &fs.FixedAssets, &fs.TotalAssets,
		&fs.CurrentLiabilities, &fs.FixedLiabilities, &fs.TotalLiabilities,
		&fs.PaidInCapital, &fs.TotalEquity,
		&fs.Sales, &fs.CostOfSales, &fs.GrossProfit, &fs.OperatingIncome,
		&fs.SpecialGains, &fs.SpecialLosses, &fs.NetIncome,
		&fs.SalesGrowth, &fs.OpIncomeGrowth, &fs.NetIncomeGrowth,
		&fs.ROE, &fs.EPS, &fs.SPS, &fs.BPS, &fs.ReserveRate, &fs.LiabilityRate,
		&fs.ROA, &fs.ReturnOnOwnEq, &fs.NetMargin, &fs.GrossMargin,
		&fs.EVA, &fs.EBITDA, &fs.EVEBITDA, &fs.EquityGrowth, &fs.AssetGrowth,
		&fs.CreatedAt, &fs.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, contracts.ErrNotFound
		}
		return nil, err
	}
	return &fs, nil
}

// UpsertBatch inserts or partially updates statements in one transaction.
// NULL fields in a new record never overwrite stored values: each update
// column takes COALESCE(EXCLUDED.col, stored).
func (r *FinancialRepository) UpsertBatch(ctx context.Context, statements []*contracts.FinancialStatement) (int, error) {
	if len(statements) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO financial_statements (
			ticker, period_label, period_kind,
			current_assets, fixed_assets, total_assets,
			current_liabilities, fixed_liabilities, total_liabilities,
			paid_in_capital, total_equity,
			sales, cost_of_sales, gross_profit, operating_income,
			special_gains, special_losses, net_income,
			sales_growth, op_income_growth, net_income_growth,
			roe, eps, sps, bps, reserve_rate, liability_rate,
			roa, return_on_own_equity, net_margin, gross_margin,
			eva, ebitda, ev_ebitda, equity_growth, asset_growth
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24,
			$25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36
		)
		ON CONFLICT (ticker, period_label, period_kind) DO UPDATE SET
			current_assets = COALESCE(EXCLUDED.current_assets, financial_statements.current_assets),
			fixed_assets = COALESCE(EXCLUDED.fixed_assets, financial_statements.fixed_assets),
			total_assets = COALESCE(EXCLUDED.total_assets, financial_statements.total_assets),
			current_liabilities = COALESCE(EXCLUDED.current_liabilities, financial_statements.current_liabilities),
			fixed_liabilities = COALESCE(EXCLUDED.fixed_liabilities, financial_statements.fixed_liabilities),
			total_liabilities = COALESCE(EXCLUDED.total_liabilities, financial_statements.total_liabilities),
			paid_in_capital = COALESCE(EXCLUDED.paid_in_capital, financial_statements.paid_in_capital),
			total_equity = COALESCE(EXCLUDED.total_equity, financial_statements.total_equity),
			sales = COALESCE(EXCLUDED.sales, financial_statements.sales),
			cost_of_sales = COALESCE(EXCLUDED.cost_of_sales, financial_statements.cost_of_sales),
			gross_profit = COALESCE(EXCLUDED.gross_profit, financial_statements.gross_profit),
			operating_income = COALESCE(EXCLUDED.operating_income, financial_statements.operating_income),
			special_gains = COALESCE(EXCLUDED.special_gains, financial_statements.special_gains),
			special_losses = COALESCE(EXCLUDED.special_losses, financial_statements.special_losses),
			net_income = COALESCE(EXCLUDED.net_income, financial_statements.net_income),
			sales_growth = COALESCE(EXCLUDED.sales_growth, financial_statements.sales_growth),
			op_income_growth = COALESCE(EXCLUDED.op_income_growth, financial_statements.op_income_growth),
			net_income_growth = COALESCE(EXCLUDED.net_income_growth, financial_statements.net_income_growth),
			roe = COALESCE(EXCLUDED.roe, financial_statements.roe),
			eps = COALESCE(EXCLUDED.eps, financial_statements.eps),
			sps = COALESCE(EXCLUDED.sps, financial_statements.sps),
			bps = COALESCE(EXCLUDED.bps, financial_statements.bps),
			reserve_rate = COALESCE(EXCLUDED.reserve_rate, financial_statements.reserve_rate),
			liability_rate = COALESCE(EXCLUDED.liability_rate, financial_statements.liability_rate),
			roa = COALESCE(EXCLUDED.roa, financial_statements.roa),
			return_on_own_equity = COALESCE(EXCLUDED.return_on_own_equity, financial_statements.return_on_own_equity),
			net_margin = COALESCE(EXCLUDED.net_margin, financial_statements.net_margin),
			gross_margin = COALESCE(EXCLUDED.gross_margin, financial_statements.gross_margin),
			eva = COALESCE(EXCLUDED.eva, financial_statements.eva),
			ebitda = COALESCE(EXCLUDED.ebitda, financial_statements.ebitda),
			ev_ebitda = COALESCE(EXCLUDED.ev_ebitda, financial_statements.ev_ebitda),
			equity_growth = COALESCE(EXCLUDED.equity_growth, financial_statements.equity_growth),
			asset_growth = COALESCE(EXCLUDED.asset_growth, financial_statements.asset_growth),
			updated_at = now()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, fs := range statements {
		_, err := tx.Exec(ctx, query,
			fs.Ticker, fs.PeriodLabel, fs.PeriodKind,
			fs.CurrentAssets, fs.FixedAssets, fs.TotalAssets,
			fs.CurrentLiabilities, fs.FixedLiabilities, fs.TotalLiabilities,
			fs.PaidInCapital, fs.TotalEquity,
			fs.Sales, fs.CostOfSales, fs.GrossProfit, fs.OperatingIncome,
			fs.SpecialGains, fs.SpecialLosses, fs.NetIncome,
			fs.SalesGrowth, fs.OpIncomeGrowth, fs.NetIncomeGrowth,
			fs.ROE, fs.EPS, fs.SPS, fs.BPS, fs.ReserveRate, fs.LiabilityRate,
			fs.ROA, fs.ReturnOnOwnEq, fs.NetMargin, fs.GrossMargin,
			fs.EVA, fs.EBITDA, fs.EVEBITDA, fs.EquityGrowth, fs.AssetGrowth,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert statement %s/%s: %w", fs.Ticker, fs.PeriodLabel, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return len(statements), nil
}

// GetLatest returns the most recent statement of the given kind.
func (r *FinancialRepository) GetLatest(ctx context.Context, ticker string, kind contracts.PeriodKind) (*contracts.FinancialStatement, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM financial_statements
		WHERE ticker = $1 AND period_kind = $2
		ORDER BY period_label DESC
		LIMIT 1
	`, financialColumns)

	return scanStatement(r.pool.QueryRow(ctx, query, ticker, kind))
}

// GetByPeriod returns the statement for an exact period label.
func (r *FinancialRepository) GetByPeriod(ctx context.Context, ticker, periodLabel string, kind contracts.PeriodKind) (*contracts.FinancialStatement, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM financial_statements
		WHERE ticker = $1 AND period_label = $2 AND period_kind = $3
	`, financialColumns)

	return scanStatement(r.pool.QueryRow(ctx, query, ticker, periodLabel, kind))
}

// List returns statements ordered by period label descending.
func (r *FinancialRepository) List(ctx context.Context, ticker string, kind contracts.PeriodKind, limit int) ([]*contracts.FinancialStatement, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM financial_statements
		WHERE ticker = $1 AND ($2 = '' OR period_kind = $2)
		ORDER BY period_label DESC
		LIMIT $3
	`, financialColumns)

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, query, ticker, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStatements(rows)
}

// RecentQuarters returns up to n quarterly statements at or before asOf,
// most recent first. asOf "" means no upper bound.
func (r *FinancialRepository) RecentQuarters(ctx context.Context, ticker, asOf string, n int) ([]*contracts.FinancialStatement, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM financial_statements
		WHERE ticker = $1 AND period_kind = 'Q'
		  AND ($2 = '' OR period_label <= $2)
		ORDER BY period_label DESC
		LIMIT $3
	`, financialColumns)

	rows, err := r.pool.Query(ctx, query, ticker, asOf, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStatements(rows)
}

func collectStatements(rows pgx.Rows) ([]*contracts.FinancialStatement, error) {
	var out []*contracts.FinancialStatement
	for rows.Next() {
		fs, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}
