package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/strategy"
	"github.com/wonny/quantsim/pkg/logger"
)

// Runner executes the full pipeline of one strategy: decisions, then simulation.
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Runner struct {
	simulator *Simulator
	logger    *logger.Logger
}

// NewRunner creates a Runner
func NewRunner(simulator *Simulator, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{simulator: simulator, logger: log.Module("backtest")}
}

// Simulator returns the underlying simulator
func (r *Runner) Simulator() *Simulator { return r.simulator }

// Run decides and simulates strat over series
func (r *Runner) Run(ctx context.Context, strat strategy.Strategy, series *contracts.Series) (*Result, error) {
	if series == nil || series.Len() < 2 {
		return nil, contracts.ErrInsufficientData
	}

	start := time.Now()

	decisions, err := strat.Decide(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("%s: decide: %w", strat.Name(), err)
	}

	result, err := r.simulator.Simulate(series, decisions, strat.Costs())
	if err != nil {
		return nil, fmt.Errorf("%s: simulate: %w", strat.Name(), err)
	}
	result.Strategy = strat.Name()
	result.Parameters = strat.Parameters()

	r.logger.WithFields(map[string]interface{}{
		"strategy":     result.Strategy,
		"symbol":       result.Symbol,
		"bars":         len(result.Bars),
		"rebalances":   result.Rebalances,
		"total_return": fmt.Sprintf("%.2f%%", result.TotalReturn()*100),
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Debug("Backtest completed")

	return result, nil
}
