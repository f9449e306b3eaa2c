package jobs

import (
	"context"

	"github.com/wonny/kfin/internal/valuation"
)

// ValuationRefreshJob rebuilds the valuation cache nightly, after the
// daily price collection has landed.
type ValuationRefreshJob struct {
	valuations *valuation.Service
}

func NewValuationRefreshJob(v *valuation.Service) *ValuationRefreshJob {
	return &ValuationRefreshJob{valuations: v}
}

func (j *ValuationRefreshJob) Name() string { return "valuation_cache_refresh" }

// 평일 17:30 KST
func (j *ValuationRefreshJob) Schedule() string { return "0 30 17 * * MON-FRI" }

func (j *ValuationRefreshJob) Run(ctx context.Context) error {
	// 무제한: DB 일괄 재계산 경로
	_, err := j.valuations.RefreshAll(ctx, 0)
	return err
}
