package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64       { return &v }
func f64(v float64) *float64   { return &v }

func TestApplyPatch_OverlaysNonNilOnly(t *testing.T) {
	existing := &FinancialStatement{
		Ticker:      "005930",
		PeriodLabel: "202412",
		PeriodKind:  PeriodAnnual,
		TotalAssets: i64(100),
		Sales:       i64(50),
		ROE:         f64(9.5),
	}

	patch := &FinancialStatement{
		TotalAssets: i64(120),
		NetIncome:   i64(7),
		// Sales and ROE absent in patch
	}

	out := ApplyPatch(existing, patch)

	assert.Equal(t, int64(120), *out.TotalAssets, "patched field wins")
	assert.Equal(t, int64(7), *out.NetIncome, "new field added")
	assert.Equal(t, int64(50), *out.Sales, "absent field preserved")
	assert.Equal(t, 9.5, *out.ROE, "absent ratio preserved")

	// Key fields come from existing
	assert.Equal(t, "005930", out.Ticker)
	assert.Equal(t, "202412", out.PeriodLabel)
	assert.Equal(t, PeriodAnnual, out.PeriodKind)

	// Existing row untouched
	assert.Equal(t, int64(100), *existing.TotalAssets)
}

func TestApplyPatch_EmptyPatchIsIdentity(t *testing.T) {
	existing := &FinancialStatement{
		Ticker:      "000660",
		PeriodLabel: "202503",
		PeriodKind:  PeriodQuarterly,
		Sales:       i64(1000),
		BPS:         f64(45000),
	}

	out := ApplyPatch(existing, &FinancialStatement{})

	assert.Equal(t, *existing.Sales, *out.Sales)
	assert.Equal(t, *existing.BPS, *out.BPS)
}

func TestYear(t *testing.T) {
	fs := &FinancialStatement{PeriodLabel: "202506"}
	assert.Equal(t, "2025", fs.Year())

	fs = &FinancialStatement{PeriodLabel: "20"}
	assert.Equal(t, "", fs.Year())
}
