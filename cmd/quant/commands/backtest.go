package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantsim/internal/indicator"
	"github.com/wonny/quantsim/internal/marketdata"
	"github.com/wonny/quantsim/internal/service"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "백테스트 실행 및 전략 조회",
	Long: `전략 정의 파일(YAML)에 등록된 전략을 일봉 데이터로 백테스트합니다.

데이터 소스:
- DATABASE_URL 설정 시 market.daily_bars
- 미설정 또는 --sample 사용 시 시드 기반 생성 데이터

Example:
  go run ./cmd/quant backtest list
  go run ./cmd/quant backtest run --sample
  go run ./cmd/quant backtest run trend regime --from 2015-01-01 --yearly`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run [strategy...]",
		Short: "백테스트 실행",
		Long: `지정한 전략(없으면 전체)을 같은 시계열로 실행하고 성과를 비교합니다.

Flags:
  --file     전략 정의 파일 (기본: STRATEGY_FILE)
  --symbol   종목 (기본: 파일 → REPORT_SYMBOL)
  --from     시작 날짜 (YYYY-MM-DD)
  --to       종료 날짜 (YYYY-MM-DD)
  --sample   생성 데이터 사용
  --days     생성 데이터 거래일 수
  --seed     생성 데이터 시드
  --yearly   연도별 성과 출력
  --json     JSON 출력
  --record   결과를 audit.backtest_runs에 저장`,
		RunE: runBacktest,
	}

	backtestListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 전략 목록",
		RunE:  listStrategies,
	}

	backtestIndicatorsCmd = &cobra.Command{
		Use:   "indicators",
		Short: "지표 패널 조회 (SMA/EMA/RSI/HV/ATR/MACD/Bollinger)",
		RunE:  showIndicators,
	}

	// Flags
	backtestLast   int
	backtestFile   string
	backtestSymbol string
	backtestFrom   string
	backtestTo     string
	backtestSample bool
	backtestDays   int
	backtestSeed   int64
	backtestYearly bool
	backtestJSON   bool
	backtestRecord bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd, backtestListCmd, backtestIndicatorsCmd)

	backtestCmd.PersistentFlags().StringVar(&backtestFile, "file", "", "전략 정의 YAML 경로")

	// 데이터 선택 플래그는 run/indicators 공통
	for _, c := range []*cobra.Command{backtestRunCmd, backtestIndicatorsCmd} {
		c.Flags().StringVar(&backtestSymbol, "symbol", "", "종목")
		c.Flags().StringVar(&backtestFrom, "from", "", "시작 날짜 (YYYY-MM-DD)")
		c.Flags().StringVar(&backtestTo, "to", "", "종료 날짜 (YYYY-MM-DD)")
		c.Flags().BoolVar(&backtestSample, "sample", false, "생성 데이터 사용")
		c.Flags().IntVar(&backtestDays, "days", 1260, "생성 데이터 거래일 수")
		c.Flags().Int64Var(&backtestSeed, "seed", 42, "생성 데이터 시드")
	}
	backtestIndicatorsCmd.Flags().IntVar(&backtestLast, "last", 10, "출력할 최근 거래일 수")

	f := backtestRunCmd.Flags()
	f.BoolVar(&backtestYearly, "yearly", false, "연도별 성과 출력")
	f.BoolVar(&backtestJSON, "json", false, "JSON 출력")
	f.BoolVar(&backtestRecord, "record", false, "결과 저장 (DB 필요)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, req, err := bootstrapWithRequest(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	start := time.Now()
	var outcomes []*service.Outcome
	if len(args) == 0 {
		outcomes, err = d.svc.RunAll(ctx, req)
		if err != nil {
			return err
		}
	} else {
		series, err := d.svc.LoadSeries(ctx, req)
		if err != nil {
			return err
		}
		for _, key := range args {
			out, err := d.svc.RunOn(ctx, key, series)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, out)
		}
	}

	if backtestRecord {
		if d.db == nil {
			return fmt.Errorf("--record requires DATABASE_URL and no --sample")
		}
		if err := d.svc.Record(ctx, time.Now().UTC().Truncate(24*time.Hour), outcomes); err != nil {
			return err
		}
	}

	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}

	printRunHeader(outcomes, d.svc.ConfigHash())
	printSummaryTable(outcomes)
	for _, out := range outcomes {
		printDetails(out, backtestYearly)
	}
	printCompletion(len(outcomes), time.Since(start))
	return nil
}

func listStrategies(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sample := marketdata.DefaultSampleConfig()
	d, err := bootstrap(ctx, depOptions{strategyFile: backtestFile, sample: &sample})
	if err != nil {
		return err
	}
	defer d.close()

	printStrategyList(d.svc.Strategies(), d.svc.ConfigHash())
	return nil
}

// bootstrapWithRequest applies the shared data flags
func bootstrapWithRequest(ctx context.Context) (*deps, service.Request, error) {
	req := service.Request{Symbol: backtestSymbol}
	var err error
	if req.From, err = parseDateFlag("from", backtestFrom); err != nil {
		return nil, req, err
	}
	if req.To, err = parseDateFlag("to", backtestTo); err != nil {
		return nil, req, err
	}

	opts := depOptions{strategyFile: backtestFile}
	if backtestSample {
		sample := marketdata.DefaultSampleConfig()
		sample.Days = backtestDays
		sample.Seed = backtestSeed
		opts.sample = &sample
	}

	d, err := bootstrap(ctx, opts)
	if err != nil {
		return nil, req, err
	}
	return d, req, nil
}

func showIndicators(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, req, err := bootstrapWithRequest(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	series, err := d.svc.LoadSeries(ctx, req)
	if err != nil {
		return err
	}

	cols := indicator.Panel(series)
	printIndicatorRows(series.Symbol(), cols, indicator.Rows(series, cols, backtestLast))
	return nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}
