package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	collectMarket    string
	collectLimit     int
	collectQuarterly bool
	collectYear      int
	collectTicker    string
	collectPages     int
)

// collectCmd groups the bulk collection subcommands
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "데이터 수집",
}

var collectFinancialsCmd = &cobra.Command{
	Use:   "financials",
	Short: "재무제표 수집 (연간 + 선택적 분기)",
	Long: `활성 종목의 재무제표를 수집합니다.

Example:
  go run ./cmd/kfin collect financials --quarterly
  go run ./cmd/kfin collect financials --ticker 005930
  go run ./cmd/kfin collect financials --market KOSPI --limit 100`,
	RunE: runCollectFinancials,
}

var collectPricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "일별 시세 수집",
	RunE:  runCollectPrices,
}

var collectResearchCmd = &cobra.Command{
	Use:   "research",
	Short: "증권사 리서치 수집",
	RunE:  runCollectResearch,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.AddCommand(collectFinancialsCmd, collectPricesCmd, collectResearchCmd)

	collectCmd.PersistentFlags().StringVar(&collectMarket, "market", "", "시장 필터 (KOSPI|KOSDAQ)")
	collectCmd.PersistentFlags().IntVar(&collectLimit, "limit", 0, "종목 수 제한 (0 = 전체)")

	collectFinancialsCmd.Flags().BoolVar(&collectQuarterly, "quarterly", false, "분기 실적 포함")
	collectFinancialsCmd.Flags().IntVar(&collectYear, "year", 0, "분기 수집 연도 (0 = 올해)")
	collectFinancialsCmd.Flags().StringVar(&collectTicker, "ticker", "", "단일 종목만 수집")

	collectResearchCmd.Flags().IntVar(&collectPages, "pages", 2, "종목당 크롤링 페이지 수")
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so a long
// collection run stops between tickers.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()
	return ctx, cancel
}

func runCollectFinancials(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()

	if collectTicker != "" {
		result, err := d.financials.IngestAnnual(ctx, collectTicker)
		if err != nil {
			return err
		}
		fmt.Printf("annual: %s (%d periods, %d saved)\n", result.Status, result.TotalPeriods, result.Saved)

		if collectQuarterly {
			result, err = d.financials.IngestQuarterly(ctx, collectTicker, collectYear)
			if err != nil {
				return err
			}
			fmt.Printf("quarterly %s: %s (%d saved)\n", result.Year, result.Status, result.Saved)
		}
		return nil
	}

	report, err := d.collector.CollectFinancials(ctx, collectMarket, collectLimit, collectQuarterly, collectYear)
	if err != nil {
		return err
	}

	fmt.Printf("done: %d total, %d ok, %d no data, %d failed (%s)\n",
		report.Total, report.Succeeded, report.NoData, report.Failed, report.Duration)
	return nil
}

func runCollectPrices(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()

	report, err := d.collector.CollectPrices(ctx, collectMarket, collectLimit)
	if err != nil {
		return err
	}

	fmt.Printf("done: %d total, %d ok, %d no data, %d failed (%s)\n",
		report.Total, report.Succeeded, report.NoData, report.Failed, report.Duration)
	return nil
}

func runCollectResearch(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()

	report, err := d.collector.CollectResearch(ctx, collectMarket, collectLimit, collectPages)
	if err != nil {
		return err
	}

	fmt.Printf("done: %d total, %d ok, %d no data, %d failed (%s)\n",
		report.Total, report.Succeeded, report.NoData, report.Failed, report.Duration)
	return nil
}
