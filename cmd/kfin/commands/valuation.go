package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	valuationLimit int
	valuationAsOf  string
)

// valuationCmd groups valuation subcommands
var valuationCmd = &cobra.Command{
	Use:   "valuation",
	Short: "밸류에이션 계산",
}

var valuationTTMCmd = &cobra.Command{
	Use:   "ttm [ticker]",
	Short: "TTM 요약 출력",
	Args:  cobra.ExactArgs(1),
	RunE:  runValuationTTM,
}

var valuationRefreshAllCmd = &cobra.Command{
	Use:   "refresh-all",
	Short: "밸류에이션 캐시 전체 갱신",
	Long: `밸류에이션 캐시를 재계산합니다.

--limit 없이 실행하면 DB에서 일괄 재계산하고,
--limit N이면 활성 종목 N개를 순회하며 종목별로 갱신합니다.`,
	RunE: runValuationRefreshAll,
}

func init() {
	rootCmd.AddCommand(valuationCmd)
	valuationCmd.AddCommand(valuationTTMCmd, valuationRefreshAllCmd)

	valuationTTMCmd.Flags().StringVar(&valuationAsOf, "as-of", "", "기준 결산년월 YYYYMM (기본: 최신)")
	valuationRefreshAllCmd.Flags().IntVar(&valuationLimit, "limit", 0, "종목 수 제한 (0 = DB 일괄)")
}

func runValuationTTM(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()

	summary, err := d.valuations.GetTTMSummary(ctx, args[0], valuationAsOf)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func runValuationRefreshAll(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := d.valuations.RefreshAll(ctx, valuationLimit)
	if err != nil {
		return err
	}

	fmt.Printf("done: %d total, %d refreshed, %d no data, %d errors\n",
		result.Total, result.Refreshed, result.NoData, result.Errors)
	return nil
}
