// Package composite blends several strategies into one allocation-weighted position.
package composite

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/strategy"
	"github.com/wonny/quantsim/pkg/logger"
)

// allocationTolerance is how far the allocation sum may drift from 1 before warning
const allocationTolerance = 0.001

// Allocation assigns a capital fraction to a sub-strategy
type Allocation struct {
	Strategy strategy.Strategy
	Weight   float64
}

// Config configures a Composer
type Config struct {
	Name        string
	Allocations []Allocation
	Costs       contracts.Costs
}

// DefaultCosts is the cost model of the blended re-simulation
func DefaultCosts() contracts.Costs {
	return contracts.Costs{
		Commission:         strategy.DefaultCommission,
		Slippage:           strategy.DefaultSlippage,
		RebalanceThreshold: 0.05,
	}
}

// Composer runs every sub-strategy on its own copy of the series and re-simulates
// the allocation-weighted sum of their realized weights. Sub-strategy costs are
// paid inside each sub run and again on the blended position.
type Composer struct {
	cfg    Config
	runner *backtest.Runner
	logger *logger.Logger
}

// Result holds the blended simulation plus every sub-run
type Result struct {
	*backtest.Result
	Subs    []*backtest.Result `json:"subs"`
	Weights []float64          `json:"weights"` // 비중 합성 결과 (바 단위)
}

// New validates cfg and builds a Composer. Allocations are not normalized; a sum
// other than 1 is logged as a warning.
func New(cfg Config, runner *backtest.Runner, log *logger.Logger) (*Composer, error) {
	if len(cfg.Allocations) == 0 {
		return nil, contracts.ConfigError{Field: "allocations", Message: "must not be empty"}
	}
	if runner == nil {
		return nil, contracts.ConfigError{Field: "runner", Message: "required"}
	}
	if log == nil {
		log = logger.NewNop()
	}

	sum := 0.0
	for i, a := range cfg.Allocations {
		if a.Strategy == nil {
			return nil, contracts.ConfigError{Field: fmt.Sprintf("allocations[%d].strategy", i), Message: "required"}
		}
		if a.Weight < 0 || math.IsNaN(a.Weight) {
			return nil, contracts.ConfigError{Field: fmt.Sprintf("allocations[%d].weight", i), Message: "must be >= 0"}
		}
		sum += a.Weight
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}

	c := &Composer{cfg: cfg, runner: runner, logger: log.Module("composite")}
	if math.Abs(sum-1) > allocationTolerance {
		c.logger.WithFields(map[string]interface{}{
			"composite":      c.Name(),
			"allocation_sum": sum,
		}).Warn("Allocation weights do not sum to 1, using them as given")
	}
	return c, nil
}

func (c *Composer) Name() string {
	if c.cfg.Name != "" {
		return c.cfg.Name
	}
	parts := make([]string, len(c.cfg.Allocations))
	for i, a := range c.cfg.Allocations {
		parts[i] = fmt.Sprintf("%s:%.0f%%", a.Strategy.Name(), a.Weight*100)
	}
	return "Combined[" + strings.Join(parts, "+") + "]"
}

func (c *Composer) Parameters() map[string]any {
	allocs := make([]map[string]any, len(c.cfg.Allocations))
	for i, a := range c.cfg.Allocations {
		allocs[i] = map[string]any{
			"strategy":   a.Strategy.Name(),
			"weight":     a.Weight,
			"parameters": a.Strategy.Parameters(),
		}
	}
	return map[string]any{
		"allocations":         allocs,
		"commission":          c.cfg.Costs.Commission,
		"slippage":            c.cfg.Costs.Slippage,
		"rebalance_threshold": c.cfg.Costs.RebalanceThreshold,
	}
}

func (c *Composer) Costs() contracts.Costs { return c.cfg.Costs }

// Decide implements strategy.Strategy so composites can be nested or regime-switched
func (c *Composer) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	_, decisions, err := c.compose(ctx, series)
	return decisions, err
}

// Run executes all sub pipelines and the blended simulation
func (c *Composer) Run(ctx context.Context, series *contracts.Series) (*Result, error) {
	subs, decisions, err := c.compose(ctx, series)
	if err != nil {
		return nil, err
	}

	blended, err := c.runner.Simulator().Simulate(series, decisions, c.cfg.Costs)
	if err != nil {
		return nil, fmt.Errorf("%s: simulate: %w", c.Name(), err)
	}
	blended.Strategy = c.Name()
	blended.Parameters = c.Parameters()

	weights := make([]float64, len(decisions))
	for i, d := range decisions {
		weights[i] = d.Weight
	}

	c.logger.WithFields(map[string]interface{}{
		"composite":    c.Name(),
		"subs":         len(subs),
		"rebalances":   blended.Rebalances,
		"total_return": fmt.Sprintf("%.2f%%", blended.TotalReturn()*100),
	}).Info("Composite backtest completed")

	return &Result{Result: blended, Subs: subs, Weights: weights}, nil
}

// compose runs sub-strategies concurrently, each on its own clone, and blends their weights
func (c *Composer) compose(ctx context.Context, series *contracts.Series) ([]*backtest.Result, []contracts.Decision, error) {
	if series == nil || series.Len() < 2 {
		return nil, nil, contracts.ErrInsufficientData
	}

	subs := make([]*backtest.Result, len(c.cfg.Allocations))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range c.cfg.Allocations {
		i, a := i, a
		g.Go(func() error {
			res, err := c.runner.Run(gctx, a.Strategy, series.Clone())
			if err != nil {
				return fmt.Errorf("sub-strategy %s: %w", a.Strategy.Name(), err)
			}
			subs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	decisions := make([]contracts.Decision, series.Len())
	prev := 0.0
	for bar := range decisions {
		w := 0.0
		for k, a := range c.cfg.Allocations {
			w += a.Weight * subs[k].Bars[bar].Weight
		}
		decisions[bar] = contracts.WeightDecision(transitionSignal(prev, w), w)
		prev = w
	}
	return subs, decisions, nil
}

// transitionSignal labels entries and exits of a continuous weight path so trade
// statistics can pair them
func transitionSignal(prev, curr float64) contracts.Signal {
	switch {
	case prev == 0 && curr > 0:
		return contracts.Buy
	case prev > 0 && curr == 0:
		return contracts.Sell
	default:
		return contracts.Hold
	}
}
