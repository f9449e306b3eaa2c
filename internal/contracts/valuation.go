package contracts

import "time"

// ValuationCache is the materialized valuation row per ticker. It is
// derived data: losing it loses nothing, it can be recomputed from
// financial statements plus the latest price at any time.
type ValuationCache struct {
	Ticker           string    `json:"ticker"`
	CurrentPrice     float64   `json:"current_price"`
	PriceDate        time.Time `json:"price_date"`
	EPS              *float64  `json:"eps,omitempty"`
	PER              *float64  `json:"per,omitempty"`
	BPS              *float64  `json:"bps,omitempty"`
	PBR              *float64  `json:"pbr,omitempty"`
	ROE              *float64  `json:"roe,omitempty"`
	BasisPeriodLabel string    `json:"basis_period_label"` // 기준 결산년월 YYYYMM
	LastCalculatedAt time.Time `json:"last_calculated_at"`
}

// ScreenFilter holds optional inequality constraints for screening the
// valuation cache. Nil means the constraint is not applied.
type ScreenFilter struct {
	MinPER *float64
	MaxPER *float64
	MinPBR *float64
	MaxPBR *float64
	MinROE *float64
}

// ScreenRow is one screening hit, cheapest PER first.
type ScreenRow struct {
	Ticker       string    `json:"ticker"`
	StockName    string    `json:"stock_name"`
	CurrentPrice float64   `json:"current_price"`
	PER          float64   `json:"per"`
	PBR          float64   `json:"pbr"`
	ROE          *float64  `json:"roe,omitempty"`
	EPS          *float64  `json:"eps,omitempty"`
	BPS          *float64  `json:"bps,omitempty"`
	PriceDate    time.Time `json:"price_date"`
}
