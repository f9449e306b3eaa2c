package financial

import (
	"sort"

	"github.com/wonny/kfin/internal/external/kis"
)

// Order controls the period ordering of merged output.
type Order int

const (
	Descending Order = iota // 최신 우선
	Ascending               // 과거 우선 (분기 누적 차감용)
)

// MergePeriods flattens the six statement slices into one record per
// period label. Later slices overlay earlier ones key-by-key, so a field
// present in two slices takes the value from the slice listed last.
// Rows without a period label are dropped.
func MergePeriods(slices [][]kis.FinanceRow, order Order) []kis.FinanceRow {
	merged := make(map[string]kis.FinanceRow)

	for _, slice := range slices {
		for _, row := range slice {
			label := row.PeriodLabel()
			if label == "" {
				continue
			}

			existing, ok := merged[label]
			if !ok {
				existing = make(kis.FinanceRow, len(row))
				merged[label] = existing
			}
			for k, v := range row {
				existing[k] = v
			}
		}
	}

	labels := make([]string, 0, len(merged))
	for label := range merged {
		labels = append(labels, label)
	}
	if order == Ascending {
		sort.Strings(labels)
	} else {
		sort.Sort(sort.Reverse(sort.StringSlice(labels)))
	}

	out := make([]kis.FinanceRow, 0, len(labels))
	for _, label := range labels {
		out = append(out, merged[label])
	}
	return out
}
