package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/quantsim/internal/scheduler"
	"github.com/wonny/quantsim/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `일일 백테스트 리포트를 스케줄링합니다.

등록되는 작업:
- backtest_report: REPORT_CRON (기본 평일 18:30), 전체 전략 재실행 후 audit 저장

Subcommands:
  start   - 스케줄러 시작
  run     - 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler run backtest_report`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runSchedulerStart,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job]",
		Short: "작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerFile string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerFile, "file", "", "전략 정의 YAML 경로")
}

// newScheduler wires the daily report job
func newScheduler(d *deps) (*scheduler.Scheduler, error) {
	s := scheduler.New(d.log)
	job := jobs.NewBacktestReportJob(d.svc, d.cfg.Backtest.Symbol, d.cfg.Scheduler.ReportCron, d.log)
	if err := s.AddJob(job); err != nil {
		return nil, err
	}
	return s, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	d, err := bootstrap(context.Background(), depOptions{strategyFile: schedulerFile})
	if err != nil {
		return err
	}
	defer d.close()

	if d.db == nil {
		d.log.Warn("No database configured, reports are logged but not stored")
	}

	s, err := newScheduler(d)
	if err != nil {
		return err
	}
	s.Start()

	fmt.Printf("✅ Scheduler running (%d jobs). Press Ctrl+C to stop\n", len(s.Jobs()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, err := bootstrap(ctx, depOptions{strategyFile: schedulerFile})
	if err != nil {
		return err
	}
	defer d.close()

	s, err := newScheduler(d)
	if err != nil {
		return err
	}

	res, err := s.RunNow(ctx, args[0])
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("job %s failed: %s", res.JobName, res.Error)
	}
	fmt.Printf("✅ Job %s completed in %.2fs\n", res.JobName, res.Duration.Seconds())
	return nil
}
