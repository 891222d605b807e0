package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantsim/internal/service"
	"github.com/wonny/quantsim/pkg/logger"
)

// BacktestRunner is the part of service.Service the report job needs
type BacktestRunner interface {
	RunAll(ctx context.Context, req service.Request) ([]*service.Outcome, error)
	Record(ctx context.Context, runDate time.Time, outcomes []*service.Outcome) error
}

// BacktestReportJob re-runs every configured strategy after the close and
// stores the summaries in the audit trail
type BacktestReportJob struct {
	runner   BacktestRunner
	symbol   string
	schedule string
	logger   *logger.Logger
	now      func() time.Time
}

// NewBacktestReportJob creates the daily report job
func NewBacktestReportJob(runner BacktestRunner, symbol, schedule string, log *logger.Logger) *BacktestReportJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &BacktestReportJob{
		runner:   runner,
		symbol:   symbol,
		schedule: schedule,
		logger:   log.Module("jobs"),
		now:      time.Now,
	}
}

// Name returns the job name
func (j *BacktestReportJob) Name() string {
	return "backtest_report"
}

// Schedule returns the cron schedule
func (j *BacktestReportJob) Schedule() string {
	return j.schedule
}

// Run executes all strategies and records the ranked outcomes
func (j *BacktestReportJob) Run(ctx context.Context) error {
	runDate := j.now().UTC().Truncate(24 * time.Hour)

	outcomes, err := j.runner.RunAll(ctx, service.Request{Symbol: j.symbol})
	if err != nil {
		return fmt.Errorf("run strategies: %w", err)
	}

	if err := j.runner.Record(ctx, runDate, outcomes); err != nil {
		return fmt.Errorf("record runs: %w", err)
	}

	for rank, out := range service.Rank(outcomes) {
		s := out.Report.Summary
		j.logger.WithFields(map[string]interface{}{
			"rank":         rank + 1,
			"strategy":     out.Key,
			"total_return": fmt.Sprintf("%.2f%%", s.TotalReturn*100),
			"sharpe":       fmt.Sprintf("%.2f", s.Sharpe),
			"max_drawdown": fmt.Sprintf("%.2f%%", s.MaxDrawdown*100),
		}).Info("Daily backtest")
	}

	return nil
}
