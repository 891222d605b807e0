package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "quantsim - 단일 종목 일봉 백테스트 엔진",
	Long: `quantsim Unified CLI

일봉 시계열 위에서 전략 시그널을 만들고, 거래 비용을 반영해
포트폴리오를 시뮬레이션한 뒤 성과를 분석합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant backtest run --sample
  go run ./cmd/quant backtest run trend combined --symbol QQQ --from 2019-01-01
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "config", "", "env file (default: .env search)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
