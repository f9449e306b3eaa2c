package financial

import (
	"strconv"
	"strings"
)

// FieldClass is the static type classification of a KIS finance field.
// The upstream API emits every value as text; these tables substitute for
// per-column schema typing.
type FieldClass int

const (
	ClassUnknown FieldClass = iota
	ClassMagnitude           // 금액 (억원 단위 정수)
	ClassDecimal             // 비율/주당지표
)

// magnitudeFields are bigint-like amounts. The source may emit them with
// a decimal point ("1234567.00"); they are truncated to integers.
var magnitudeFields = map[string]bool{
	"cras":           true, // 유동자산
	"fxas":           true, // 고정자산
	"total_aset":     true, // 자산총계
	"flow_lblt":      true, // 유동부채
	"fix_lblt":       true, // 고정부채
	"total_lblt":     true, // 부채총계
	"cpfn":           true, // 자본금
	"total_cptl":     true, // 자본총계
	"sale_account":   true, // 매출액
	"sale_cost":      true, // 매출원가
	"sale_totl_prfi": true, // 매출총이익
	"bsop_prti":      true, // 영업이익
	"op_prfi":        true, // 특별이익
	"spec_prfi":      true, // 특별손실
	"thtr_ntin":      true, // 당기순이익
	"eva":            true,
	"ebitda":         true,
}

// decimalFields are ratio and per-share fields parsed as floats.
var decimalFields = map[string]bool{
	"eps":                 true,
	"sps":                 true,
	"bps":                 true,
	"grs":                 true, // 매출액증가율
	"bsop_prfi_inrt":      true, // 영업이익증가율
	"ntin_inrt":           true, // 순이익증가율
	"roe_val":             true,
	"rsrv_rate":           true, // 유보율
	"lblt_rate":           true, // 부채비율
	"cptl_ntin_rate":      true, // 총자본순이익률
	"self_cptl_ntin_inrt": true, // 자기자본순이익률
	"sale_ntin_rate":      true, // 매출액순이익률
	"sale_totl_rate":      true, // 매출액총이익률
	"ev_ebitda":           true,
	"equt_inrt":           true, // 자기자본증가율
	"totl_aset_inrt":      true, // 총자산증가율
}

// cumulativeFlowFields are the income-statement fields the KIS API
// reports as fiscal-year-to-date totals on quarterly rows. Only these
// get the previous-quarter subtraction in deriveQuarterlyActuals.
var cumulativeFlowFields = []string{
	"sale_account",
	"sale_cost",
	"sale_totl_prfi",
	"bsop_prti",
	"op_prfi",
	"spec_prfi",
	"thtr_ntin",
}

// Classify returns the field class for a KIS field name. Unknown fields
// pass through untyped.
func Classify(field string) FieldClass {
	if magnitudeFields[field] {
		return ClassMagnitude
	}
	if decimalFields[field] {
		return ClassDecimal
	}
	return ClassUnknown
}

// cleanNumeric strips thousands separators and surrounding whitespace.
func cleanNumeric(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
}

// ConvertMagnitude parses a magnitude field value. Empty or malformed
// input reports ok=false; the caller treats that as "field not present".
func ConvertMagnitude(raw string) (int64, bool) {
	cleaned := cleanNumeric(raw)
	if cleaned == "" {
		return 0, false
	}

	// Parse as float first: the API emits "1234567.00" for integers.
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	return int64(f), true
}

// ConvertDecimal parses a ratio field value. Empty or malformed input
// reports ok=false.
func ConvertDecimal(raw string) (float64, bool) {
	cleaned := cleanNumeric(raw)
	if cleaned == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}
