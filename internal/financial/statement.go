package financial

import (
	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/internal/external/kis"
)

// newStatement converts one merged raw record into a typed statement.
// Fields that are missing or unparseable stay nil so a later upsert
// never erases a previously stored value.
func newStatement(ticker string, kind contracts.PeriodKind, row kis.FinanceRow) *contracts.FinancialStatement {
	fs := &contracts.FinancialStatement{
		Ticker:      ticker,
		PeriodLabel: row.PeriodLabel(),
		PeriodKind:  kind,
	}

	for field, raw := range row {
		applyField(fs, field, raw)
	}

	return fs
}

func magnitude(raw string) *int64 {
	v, ok := ConvertMagnitude(raw)
	if !ok {
		return nil
	}
	return &v
}

func decimal(raw string) *float64 {
	v, ok := ConvertDecimal(raw)
	if !ok {
		return nil
	}
	return &v
}

// applyField maps a KIS field name onto the statement struct. Unknown
// fields (stac_yymm 포함) are ignored.
func applyField(fs *contracts.FinancialStatement, field, raw string) {
	switch field {
	case "cras":
		fs.CurrentAssets = magnitude(raw)
	case "fxas":
		fs.FixedAssets = magnitude(raw)
	case "total_aset":
		fs.TotalAssets = magnitude(raw)
	case "flow_lblt":
		fs.CurrentLiabilities = magnitude(raw)
	case "fix_lblt":
		fs.FixedLiabilities = magnitude(raw)
	case "total_lblt":
		fs.TotalLiabilities = magnitude(raw)
	case "cpfn":
		fs.PaidInCapital = magnitude(raw)
	case "total_cptl":
		fs.TotalEquity = magnitude(raw)
	case "sale_account":
		fs.Sales = magnitude(raw)
	case "sale_cost":
		fs.CostOfSales = magnitude(raw)
	case "sale_totl_prfi":
		fs.GrossProfit = magnitude(raw)
	case "bsop_prti":
		fs.OperatingIncome = magnitude(raw)
	case "op_prfi":
		fs.SpecialGains = magnitude(raw)
	case "spec_prfi":
		fs.SpecialLosses = magnitude(raw)
	case "thtr_ntin":
		fs.NetIncome = magnitude(raw)
	case "grs":
		fs.SalesGrowth = decimal(raw)
	case "bsop_prfi_inrt":
		fs.OpIncomeGrowth = decimal(raw)
	case "ntin_inrt":
		fs.NetIncomeGrowth = decimal(raw)
	case "roe_val":
		fs.ROE = decimal(raw)
	case "eps":
		fs.EPS = decimal(raw)
	case "sps":
		fs.SPS = decimal(raw)
	case "bps":
		fs.BPS = decimal(raw)
	case "rsrv_rate":
		fs.ReserveRate = decimal(raw)
	case "lblt_rate":
		fs.LiabilityRate = decimal(raw)
	case "cptl_ntin_rate":
		fs.ROA = decimal(raw)
	case "self_cptl_ntin_inrt":
		fs.ReturnOnOwnEq = decimal(raw)
	case "sale_ntin_rate":
		fs.NetMargin = decimal(raw)
	case "sale_totl_rate":
		fs.GrossMargin = decimal(raw)
	case "eva":
		fs.EVA = magnitude(raw)
	case "ebitda":
		fs.EBITDA = magnitude(raw)
	case "ev_ebitda":
		fs.EVEBITDA = decimal(raw)
	case "equt_inrt":
		fs.EquityGrowth = decimal(raw)
	case "totl_aset_inrt":
		fs.AssetGrowth = decimal(raw)
	}
}

// setFlowField writes a derived single-quarter actual into one of the
// cumulative income-statement fields.
func setFlowField(fs *contracts.FinancialStatement, field string, v int64) {
	switch field {
	case "sale_account":
		fs.Sales = &v
	case "sale_cost":
		fs.CostOfSales = &v
	case "sale_totl_prfi":
		fs.GrossProfit = &v
	case "bsop_prti":
		fs.OperatingIncome = &v
	case "op_prfi":
		fs.SpecialGains = &v
	case "spec_prfi":
		fs.SpecialLosses = &v
	case "thtr_ntin":
		fs.NetIncome = &v
	}
}
