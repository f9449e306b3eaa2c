package financial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kfin/internal/external/kis"
)

func TestMergePeriods_OverlaysByPeriod(t *testing.T) {
	balance := []kis.FinanceRow{
		{"stac_yymm": "202412", "total_aset": "1000", "cpfn": "100"},
		{"stac_yymm": "202312", "total_aset": "900"},
	}
	income := []kis.FinanceRow{
		{"stac_yymm": "202412", "sale_account": "500"},
	}
	ratios := []kis.FinanceRow{
		{"stac_yymm": "202412", "roe_val": "9.1", "cpfn": "110"},
	}

	merged := MergePeriods([][]kis.FinanceRow{balance, income, ratios}, Descending)

	require.Len(t, merged, 2)
	assert.Equal(t, "202412", merged[0].PeriodLabel())
	assert.Equal(t, "202312", merged[1].PeriodLabel())

	// Fields from all slices land on the same period record
	assert.Equal(t, "1000", merged[0]["total_aset"])
	assert.Equal(t, "500", merged[0]["sale_account"])
	assert.Equal(t, "9.1", merged[0]["roe_val"])

	// Shared key: the later slice wins
	assert.Equal(t, "110", merged[0]["cpfn"])
}

func TestMergePeriods_DropsUnlabeledRows(t *testing.T) {
	rows := []kis.FinanceRow{
		{"total_aset": "1000"},
		{"stac_yymm": "", "sale_account": "1"},
		{"stac_yymm": "202403", "sale_account": "2"},
	}

	merged := MergePeriods([][]kis.FinanceRow{rows}, Ascending)

	require.Len(t, merged, 1)
	assert.Equal(t, "202403", merged[0].PeriodLabel())
}

func TestMergePeriods_Ascending(t *testing.T) {
	rows := []kis.FinanceRow{
		{"stac_yymm": "202409"},
		{"stac_yymm": "202403"},
		{"stac_yymm": "202406"},
	}

	merged := MergePeriods([][]kis.FinanceRow{rows}, Ascending)

	require.Len(t, merged, 3)
	assert.Equal(t, "202403", merged[0].PeriodLabel())
	assert.Equal(t, "202406", merged[1].PeriodLabel())
	assert.Equal(t, "202409", merged[2].PeriodLabel())
}

func TestMergePeriods_EmptySlicesTolerated(t *testing.T) {
	merged := MergePeriods([][]kis.FinanceRow{nil, {}, nil}, Descending)
	assert.Empty(t, merged)
}

func TestMergePeriods_Idempotent(t *testing.T) {
	slices := [][]kis.FinanceRow{
		{{"stac_yymm": "202412", "total_aset": "1000"}},
		{{"stac_yymm": "202412", "sale_account": "500"}},
	}

	once := MergePeriods(slices, Descending)
	twice := MergePeriods([][]kis.FinanceRow{once, once[:0]}, Descending)

	assert.Equal(t, once, twice)
}
