package contracts

import "time"

// Stock is one listed instrument in the stock directory.
type Stock struct {
	Ticker     string     `json:"ticker"`
	Name       string     `json:"name"` // HTS 한글종목명
	NameEn     string     `json:"name_en,omitempty"`
	Market     string     `json:"market"` // KOSPI / KOSDAQ
	Industry   string     `json:"industry,omitempty"` // 업종한글종목명
	ListedDate *time.Time `json:"listed_date,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Price is one daily price row for a ticker.
type Price struct {
	Ticker       string    `json:"ticker"`
	TradeDate    time.Time `json:"trade_date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
	TradingValue int64     `json:"trading_value"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResearchReport is one broker research entry crawled from Naver Finance.
type ResearchReport struct {
	Ticker      string    `json:"ticker"`
	Title       string    `json:"title"`
	Broker      string    `json:"broker"`
	TargetPrice *int64    `json:"target_price,omitempty"`
	Opinion     string    `json:"opinion,omitempty"`
	ReportDate  time.Time `json:"report_date"`
	ReportURL   string    `json:"report_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
