package contracts

import "time"

// PeriodKind distinguishes annual from quarterly statement rows.
type PeriodKind string

const (
	PeriodAnnual    PeriodKind = "Y"
	PeriodQuarterly PeriodKind = "Q"
)

// FinancialStatement is one normalized statement row per
// (ticker, period label, period kind). Nil pointers mean the upstream API
// never reported the field; zero values are real zeros.
//
// Income statement fields on quarterly rows hold single-quarter actuals,
// not the fiscal-year cumulative figures the KIS API reports.
type FinancialStatement struct {
	Ticker      string     `json:"ticker"`
	PeriodLabel string     `json:"period_label"` // 결산년월 YYYYMM
	PeriodKind  PeriodKind `json:"period_kind"`

	// Balance sheet (point-in-time)
	CurrentAssets      *int64 `json:"current_assets,omitempty"`      // cras
	FixedAssets        *int64 `json:"fixed_assets,omitempty"`        // fxas
	TotalAssets        *int64 `json:"total_assets,omitempty"`        // total_aset
	CurrentLiabilities *int64 `json:"current_liabilities,omitempty"` // flow_lblt
	FixedLiabilities   *int64 `json:"fixed_liabilities,omitempty"`   // fix_lblt
	TotalLiabilities   *int64 `json:"total_liabilities,omitempty"`   // total_lblt
	PaidInCapital      *int64 `json:"paid_in_capital,omitempty"`     // cpfn
	TotalEquity        *int64 `json:"total_equity,omitempty"`        // total_cptl

	// Income statement (flow over the period)
	Sales           *int64 `json:"sales,omitempty"`            // sale_account
	CostOfSales     *int64 `json:"cost_of_sales,omitempty"`    // sale_cost
	GrossProfit     *int64 `json:"gross_profit,omitempty"`     // sale_totl_prfi
	OperatingIncome *int64 `json:"operating_income,omitempty"` // bsop_prti
	SpecialGains    *int64 `json:"special_gains,omitempty"`    // op_prfi
	SpecialLosses   *int64 `json:"special_losses,omitempty"`   // spec_prfi
	NetIncome       *int64 `json:"net_income,omitempty"`       // thtr_ntin

	// Financial ratios
	SalesGrowth     *float64 `json:"sales_growth,omitempty"`      // grs
	OpIncomeGrowth  *float64 `json:"op_income_growth,omitempty"`  // bsop_prfi_inrt
	NetIncomeGrowth *float64 `json:"net_income_growth,omitempty"` // ntin_inrt
	ROE             *float64 `json:"roe,omitempty"`               // roe_val
	EPS             *float64 `json:"eps,omitempty"`               // eps
	SPS             *float64 `json:"sps,omitempty"`               // sps
	BPS             *float64 `json:"bps,omitempty"`               // bps
	ReserveRate     *float64 `json:"reserve_rate,omitempty"`      // rsrv_rate
	LiabilityRate   *float64 `json:"liability_rate,omitempty"`    // lblt_rate

	// Profitability ratios
	ROA           *float64 `json:"roa,omitempty"`                  // cptl_ntin_rate
	ReturnOnOwnEq *float64 `json:"return_on_own_equity,omitempty"` // self_cptl_ntin_inrt
	NetMargin     *float64 `json:"net_margin,omitempty"`           // sale_ntin_rate
	GrossMargin   *float64 `json:"gross_margin,omitempty"`         // sale_totl_rate

	// Other major ratios
	EVA      *int64   `json:"eva,omitempty"`       // eva
	EBITDA   *int64   `json:"ebitda,omitempty"`    // ebitda
	EVEBITDA *float64 `json:"ev_ebitda,omitempty"` // ev_ebitda

	// Growth ratios
	EquityGrowth *float64 `json:"equity_growth,omitempty"` // equt_inrt
	AssetGrowth  *float64 `json:"asset_growth,omitempty"`  // totl_aset_inrt

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Year returns the 4-character year prefix of the period label.
func (fs *FinancialStatement) Year() string {
	if len(fs.PeriodLabel) < 4 {
		return ""
	}
	return fs.PeriodLabel[:4]
}

// ApplyPatch overlays every non-nil field of patch onto a copy of existing
// and returns the result. Key fields (ticker, label, kind) are taken from
// existing; a field absent in the patch never erases a stored value.
func ApplyPatch(existing, patch *FinancialStatement) *FinancialStatement {
	out := *existing

	if patch.CurrentAssets != nil {
		out.CurrentAssets = patch.CurrentAssets
	}
	if patch.FixedAssets != nil {
		out.FixedAssets = patch.FixedAssets
	}
	if patch.TotalAssets != nil {
		out.TotalAssets = patch.TotalAssets
	}
	if patch.CurrentLiabilities != nil {
		out.CurrentLiabilities = patch.CurrentLiabilities
	}
	if patch.FixedLiabilities != nil {
		out.FixedLiabilities = patch.FixedLiabilities
	}
	if patch.TotalLiabilities != nil {
		out.TotalLiabilities = patch.TotalLiabilities
	}
	if patch.PaidInCapital != nil {
		out.PaidInCapital = patch.PaidInCapital
	}
	if patch.TotalEquity != nil {
		out.TotalEquity = patch.TotalEquity
	}
	if patch.Sales != nil {
		out.Sales = patch.Sales
	}
	if patch.CostOfSales != nil {
		out.CostOfSales = patch.CostOfSales
	}
	if patch.GrossProfit != nil {
		out.GrossProfit = patch.GrossProfit
	}
	if patch.OperatingIncome != nil {
		out.OperatingIncome = patch.OperatingIncome
	}
	if patch.SpecialGains != nil {
		out.SpecialGains = patch.SpecialGains
	}
	if patch.SpecialLosses != nil {
		out.SpecialLosses = patch.SpecialLosses
	}
	if patch.NetIncome != nil {
		out.NetIncome = patch.NetIncome
	}
	if patch.SalesGrowth != nil {
		out.SalesGrowth = patch.SalesGrowth
	}
	if patch.OpIncomeGrowth != nil {
		out.OpIncomeGrowth = patch.OpIncomeGrowth
	}
	if patch.NetIncomeGrowth != nil {
		out.NetIncomeGrowth = patch.NetIncomeGrowth
	}
	if patch.ROE != nil {
		out.ROE = patch.ROE
	}
	if patch.EPS != nil {
		out.EPS = patch.EPS
	}
	if patch.SPS != nil {
		out.SPS = patch.SPS
	}
	if patch.BPS != nil {
		out.BPS = patch.BPS
	}
	if patch.ReserveRate != nil {
		out.ReserveRate = patch.ReserveRate
	}
	if patch.LiabilityRate != nil {
		out.LiabilityRate = patch.LiabilityRate
	}
	if patch.ROA != nil {
		out.ROA = patch.ROA
	}
	if patch.ReturnOnOwnEq != nil {
		out.ReturnOnOwnEq = patch.ReturnOnOwnEq
	}
	if patch.NetMargin != nil {
		out.NetMargin = patch.NetMargin
	}
	if patch.GrossMargin != nil {
		out.GrossMargin = patch.GrossMargin
	}
	if patch.EVA != nil {
		out.EVA = patch.EVA
	}
	if patch.EBITDA != nil {
		out.EBITDA = patch.EBITDA
	}
	if patch.EVEBITDA != nil {
		out.EVEBITDA = patch.EVEBITDA
	}
	if patch.EquityGrowth != nil {
		out.EquityGrowth = patch.EquityGrowth
	}
	if patch.AssetGrowth != nil {
		out.AssetGrowth = patch.AssetGrowth
	}

	return &out
}
