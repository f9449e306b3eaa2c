package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/kfin/internal/scheduler"
	"github.com/wonny/kfin/internal/scheduler/jobs"
)

// schedulerCmd runs the background job scheduler
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "배치 스케줄러 시작",
	Long: `정기 배치 작업을 실행합니다.

Jobs:
  daily_price_collection       평일 16:30  일별 시세 수집
  valuation_cache_refresh      평일 17:30  밸류에이션 캐시 갱신
  research_crawl               평일 08:00  리서치 크롤링
  weekly_financial_collection  토요일 03:00  재무제표 수집`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	sched := scheduler.New(d.log)

	for _, job := range []scheduler.Job{
		jobs.NewDailyPriceJob(d.collector),
		jobs.NewWeeklyFinancialJob(d.collector),
		jobs.NewResearchCrawlJob(d.collector),
		jobs.NewValuationRefreshJob(d.valuations),
	} {
		if err := sched.Register(job); err != nil {
			return fmt.Errorf("register %s: %w", job.Name(), err)
		}
	}

	sched.Start()
	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
