package kis

import (
	"context"
	"fmt"
)

// FinanceRow is one flat record from a KIS finance endpoint. Every value
// arrives as a string; the stac_yymm key identifies the fiscal period.
type FinanceRow map[string]string

// PeriodLabel returns the 결산년월 (YYYYMM) of the row, or "".
func (r FinanceRow) PeriodLabel() string {
	return r["stac_yymm"]
}

// FID_DIV_CLS_CODE values. The quarterly mode returns every available
// quarter across all years in a single call.
const (
	DivisionAnnual    = "0"
	DivisionQuarterly = "1"
)

// The six statement slices share one request shape; only path and tr_id
// differ (KIS v1_국내주식-078 ~ 085).
func (c *Client) fetchFinance(ctx context.Context, path, trID, ticker, division string) ([]FinanceRow, error) {
	query := fmt.Sprintf("FID_DIV_CLS_CODE=%s&fid_cond_mrkt_div_code=J&fid_input_iscd=%s",
		division, ticker)

	var result struct {
		apiEnvelope
		Output []FinanceRow `json:"output"`
	}

	if err := c.get(ctx, path, trID, query, &result); err != nil {
		return nil, err
	}

	if result.RtCd != "0" {
		return nil, fmt.Errorf("API error: %s - %s", result.MsgCd, result.Msg1)
	}

	return result.Output, nil
}

// BalanceSheet fetches 대차대조표 rows for a ticker.
func (c *Client) BalanceSheet(ctx context.Context, ticker, division string) ([]FinanceRow, error) {
	return c.fetchFinance(ctx, "/uapi/domestic-stock/v1/finance/balance-sheet", "FHKST66430200", ticker, division)
}

// IncomeStatement fetches 손익계산서 rows for a ticker. Quarterly rows
// report fiscal-year cumulative flows, not single-quarter actuals.
func (c *Client) IncomeStatement(ctx context.Context, ticker, division string) ([]FinanceRow, error) {
	return c.fetchFinance(ctx, "/uapi/domestic-stock/v1/finance/income-statement", "FHKST66430300", ticker, division)
}

// FinancialRatios fetches 재무비율 rows for a ticker.
func (c *Client) FinancialRatios(ctx context.Context, ticker, division string) ([]FinanceRow, error) {
	return c.fetchFinance(ctx, "/uapi/domestic-stock/v1/finance/financial-ratio", "FHKST66430400", ticker, division)
}

// ProfitRatios fetches 수익성비율 rows for a ticker.
func (c *Client) ProfitRatios(ctx context.Context, ticker, division string) ([]FinanceRow, error) {
	return c.fetchFinance(ctx, "/uapi/domestic-stock/v1/finance/profit-ratio", "FHKST66430500", ticker, division)
}

// OtherMajorRatios fetches 기타주요비율 rows for a ticker.
func (c *Client) OtherMajorRatios(ctx context.Context, ticker, division string) ([]FinanceRow, error) {
	return c.fetchFinance(ctx, "/uapi/domestic-stock/v1/finance/other-major-ratios", "FHKST66430600", ticker, division)
}

// GrowthRatios fetches 성장성비율 rows for a ticker.
func (c *Client) GrowthRatios(ctx context.Context, ticker, division string) ([]FinanceRow, error) {
	return c.fetchFinance(ctx, "/uapi/domestic-stock/v1/finance/growth-ratio", "FHKST66430900", ticker, division)
}
