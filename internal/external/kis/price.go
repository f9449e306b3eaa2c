package kis

import (
	"context"
	"fmt"
	"time"
)

// DailyPrice represents one daily price row from KIS
type DailyPrice struct {
	TradeDate    string  `json:"stck_bsop_date"`
	Open         float64 `json:"stck_oprc,string"`
	High         float64 `json:"stck_hgpr,string"`
	Low          float64 `json:"stck_lwpr,string"`
	Close        float64 `json:"stck_clpr,string"`
	Volume       int64   `json:"acml_vol,string"`
	TradingValue int64   `json:"acml_tr_pbmn,string"`
}

// Date parses the trade date (YYYYMMDD).
func (p DailyPrice) Date() (time.Time, error) {
	return time.Parse("20060102", p.TradeDate)
}

// GetDailyPrices fetches recent daily prices for a stock
// (주식현재가 일자별, 최근 30영업일).
func (c *Client) GetDailyPrices(ctx context.Context, ticker string) ([]DailyPrice, error) {
	path := "/uapi/domestic-stock/v1/quotations/inquire-daily-price"
	trID := "FHKST01010400"

	query := fmt.Sprintf("fid_cond_mrkt_div_code=J&fid_input_iscd=%s&fid_period_div_code=D&fid_org_adj_prc=0",
		ticker)

	var result struct {
		apiEnvelope
		Output []DailyPrice `json:"output"`
	}

	if err := c.get(ctx, path, trID, query, &result); err != nil {
		return nil, err
	}

	if result.RtCd != "0" {
		return nil, fmt.Errorf("API error: %s - %s", result.MsgCd, result.Msg1)
	}

	return result.Output, nil
}

// CurrentPrice represents the real-time quote output
type CurrentPrice struct {
	Price        float64 `json:"stck_prpr,string"`
	Open         float64 `json:"stck_oprc,string"`
	High         float64 `json:"stck_hgpr,string"`
	Low          float64 `json:"stck_lwpr,string"`
	Volume       int64   `json:"acml_vol,string"`
	TradingValue int64   `json:"acml_tr_pbmn,string"`
	Name         string  `json:"hts_kor_isnm"`
	Market       string  `json:"rprs_mrkt_kor_name"`
}

// GetCurrentPrice fetches the real-time current price for a stock
// (주식현재가 시세).
func (c *Client) GetCurrentPrice(ctx context.Context, ticker string) (*CurrentPrice, error) {
	path := "/uapi/domestic-stock/v1/quotations/inquire-price"
	trID := "FHKST01010100"

	query := fmt.Sprintf("fid_cond_mrkt_div_code=J&fid_input_iscd=%s", ticker)

	var result struct {
		apiEnvelope
		Output CurrentPrice `json:"output"`
	}

	if err := c.get(ctx, path, trID, query, &result); err != nil {
		return nil, err
	}

	if result.RtCd != "0" {
		return nil, fmt.Errorf("API error: %s - %s", result.MsgCd, result.Msg1)
	}

	return &result.Output, nil
}
