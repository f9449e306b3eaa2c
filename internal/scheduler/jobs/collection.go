package jobs

import (
	"context"

	"github.com/wonny/kfin/internal/batch"
)

// DailyPriceJob collects daily prices for the active universe after the
// market close.
type DailyPriceJob struct {
	collector *batch.Collector
}

func NewDailyPriceJob(c *batch.Collector) *DailyPriceJob {
	return &DailyPriceJob{collector: c}
}

func (j *DailyPriceJob) Name() string { return "daily_price_collection" }

// 평일 16:30 KST, 장 마감 후
func (j *DailyPriceJob) Schedule() string { return "0 30 16 * * MON-FRI" }

func (j *DailyPriceJob) Run(ctx context.Context) error {
	_, err := j.collector.CollectPrices(ctx, "", 0)
	return err
}

// WeeklyFinancialJob refreshes financial statements for the whole
// universe. Statements move slowly; weekly is enough.
type WeeklyFinancialJob struct {
	collector *batch.Collector
}

func NewWeeklyFinancialJob(c *batch.Collector) *WeeklyFinancialJob {
	return &WeeklyFinancialJob{collector: c}
}

func (j *WeeklyFinancialJob) Name() string { return "weekly_financial_collection" }

// 토요일 새벽 3시
func (j *WeeklyFinancialJob) Schedule() string { return "0 0 3 * * SAT" }

func (j *WeeklyFinancialJob) Run(ctx context.Context) error {
	_, err := j.collector.CollectFinancials(ctx, "", 0, true, 0)
	return err
}

// ResearchCrawlJob crawls fresh broker research each weekday morning.
type ResearchCrawlJob struct {
	collector *batch.Collector
}

func NewResearchCrawlJob(c *batch.Collector) *ResearchCrawlJob {
	return &ResearchCrawlJob{collector: c}
}

func (j *ResearchCrawlJob) Name() string { return "research_crawl" }

func (j *ResearchCrawlJob) Schedule() string { return "0 0 8 * * MON-FRI" }

func (j *ResearchCrawlJob) Run(ctx context.Context) error {
	_, err := j.collector.CollectResearch(ctx, "", 0, 2)
	return err
}
