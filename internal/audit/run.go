package audit

import (
	"time"

	"github.com/wonny/quantsim/internal/performance"
)

// Run is one persisted backtest outcome
type Run struct {
	ID           int64               `json:"id"`
	RunDate      time.Time           `json:"run_date"`
	StrategyKey  string              `json:"strategy_key"`
	StrategyName string              `json:"strategy_name"`
	ConfigHash   string              `json:"config_hash"`
	Symbol       string              `json:"symbol"`
	Summary      performance.Summary `json:"summary"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewRun builds a Run from an analyzed report
func NewRun(runDate time.Time, strategyKey, configHash string, report *performance.Report) Run {
	return Run{
		RunDate:      runDate,
		StrategyKey:  strategyKey,
		StrategyName: report.Strategy,
		ConfigHash:   configHash,
		Symbol:       report.Symbol,
		Summary:      report.Summary,
	}
}
