package financial

import (
	"strconv"

	"github.com/wonny/kfin/internal/contracts"
	"github.com/wonny/kfin/internal/external/kis"
	"github.com/wonny/kfin/pkg/logger"
)

// quarterOf returns the 1-based quarter of a YYYYMM label, or 0.
func quarterOf(label string) int {
	if len(label) < 6 {
		return 0
	}
	month, err := strconv.Atoi(label[4:6])
	if err != nil || month < 1 || month > 12 {
		return 0
	}
	return (month + 2) / 3
}

// deriveQuarterlyActuals converts a fiscal year of merged quarterly rows
// (ascending by period) into statements whose flow fields hold
// single-quarter actuals. The KIS income statement reports year-to-date
// cumulatives, so Q(n) actual = cumulative(n) - cumulative(n-1); the
// first row of the year is stored as reported.
//
// The subtraction baseline is always the reported cumulative of the
// previous processed row, never a derived value. When a quarter is
// missing in the middle of the year the next row still subtracts the
// last row seen; that over-wide difference is logged, not patched.
func deriveQuarterlyActuals(ticker string, rows []kis.FinanceRow, log *logger.Logger) []*contracts.FinancialStatement {
	out := make([]*contracts.FinancialStatement, 0, len(rows))

	var prev kis.FinanceRow
	prevQuarter := 0

	for _, row := range rows {
		label := row.PeriodLabel()
		if label == "" {
			continue
		}

		fs := newStatement(ticker, contracts.PeriodQuarterly, row)

		if prev != nil {
			q := quarterOf(label)
			if q != 0 && prevQuarter != 0 && q != prevQuarter+1 {
				log.WithFields(map[string]interface{}{
					"ticker":   ticker,
					"period":   label,
					"previous": prev.PeriodLabel(),
				}).Warn("Quarter gap: actuals span more than one quarter")
			}

			for _, field := range cumulativeFlowFields {
				cur, ok := ConvertMagnitude(row[field])
				if !ok {
					// stays nil via newStatement
					continue
				}
				if prevCum, ok := ConvertMagnitude(prev[field]); ok {
					setFlowField(fs, field, cur-prevCum)
				}
				// prev unparseable: keep the cumulative as reported
			}
		}

		prev = row
		prevQuarter = quarterOf(label)
		out = append(out, fs)
	}

	return out
}
