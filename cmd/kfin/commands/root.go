package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kfin",
	Short: "kfin - 국내주식 재무·밸류에이션 데이터 서비스",
	Long: `kfin Unified CLI

KIS OpenAPI 기반 재무제표 수집, TTM 밸류에이션 계산, 종목 스크리닝.

Usage:
  go run ./cmd/kfin [command]

Examples:
  go run ./cmd/kfin api
  go run ./cmd/kfin collect financials --quarterly
  go run ./cmd/kfin valuation refresh-all
  go run ./cmd/kfin scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
