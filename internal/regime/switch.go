package regime

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
	"github.com/wonny/quantsim/internal/strategy"
	"github.com/wonny/quantsim/pkg/logger"
)

// SwitchConfig configures a regime Switch
type SwitchConfig struct {
	Name       string
	Classifier ClassifierConfig
	Low        strategy.Strategy
	Medium     strategy.Strategy
	High       strategy.Strategy
	Costs      contracts.Costs
}

// DefaultSwitchCosts is the cost model of the final regime-switched simulation
func DefaultSwitchCosts() contracts.Costs {
	return contracts.Costs{
		Commission:         strategy.DefaultCommission,
		Slippage:           strategy.DefaultSlippage,
		RebalanceThreshold: 0.01,
	}
}

// Switch picks, bar by bar, the decision of the strategy assigned to the current
// volatility regime. All three strategies run their full pipelines on clones.
type Switch struct {
	cfg        SwitchConfig
	classifier *Classifier
	runner     *backtest.Runner
	logger     *logger.Logger
}

// Result holds the switched simulation, the regime path and the three sub-runs
type Result struct {
	*backtest.Result
	Regimes       []Regime                    `json:"regimes"`
	Volatility    []*float64                  `json:"volatility"` // nil during warm-up
	Switches      int                         `json:"switches"`
	DaysPerRegime map[string]int              `json:"days_per_regime"`
	Subs          map[string]*backtest.Result `json:"subs"`
}

// NewSwitch validates cfg and builds a Switch
func NewSwitch(cfg SwitchConfig, runner *backtest.Runner, log *logger.Logger) (*Switch, error) {
	if cfg.Low == nil || cfg.Medium == nil || cfg.High == nil {
		return nil, contracts.ConfigError{Field: "strategies", Message: "low, medium and high strategies are required"}
	}
	if runner == nil {
		return nil, contracts.ConfigError{Field: "runner", Message: "required"}
	}
	classifier, err := NewClassifier(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Switch{cfg: cfg, classifier: classifier, runner: runner, logger: log.Module("regime")}, nil
}

func (s *Switch) Name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return fmt.Sprintf("RegimeSwitch(HV%d %.0f%%/%.0f%%)",
		s.cfg.Classifier.Period, s.cfg.Classifier.LowThreshold*100, s.cfg.Classifier.HighThreshold*100)
}

func (s *Switch) Parameters() map[string]any {
	return map[string]any{
		"volatility_period":   s.cfg.Classifier.Period,
		"low_threshold":       s.cfg.Classifier.LowThreshold,
		"high_threshold":      s.cfg.Classifier.HighThreshold,
		"low":                 s.cfg.Low.Name(),
		"medium":              s.cfg.Medium.Name(),
		"high":                s.cfg.High.Name(),
		"commission":          s.cfg.Costs.Commission,
		"slippage":            s.cfg.Costs.Slippage,
		"rebalance_threshold": s.cfg.Costs.RebalanceThreshold,
	}
}

func (s *Switch) Costs() contracts.Costs { return s.cfg.Costs }

// Decide implements strategy.Strategy
func (s *Switch) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	p, err := s.plan(ctx, series)
	if err != nil {
		return nil, err
	}
	return p.decisions, nil
}

// Run executes the sub pipelines, selects per regime and simulates the result
func (s *Switch) Run(ctx context.Context, series *contracts.Series) (*Result, error) {
	p, err := s.plan(ctx, series)
	if err != nil {
		return nil, err
	}

	switched, err := s.runner.Simulator().Simulate(series, p.decisions, s.cfg.Costs)
	if err != nil {
		return nil, fmt.Errorf("%s: simulate: %w", s.Name(), err)
	}
	switched.Strategy = s.Name()
	switched.Parameters = s.Parameters()

	res := &Result{
		Result:        switched,
		Regimes:       p.regimes,
		Volatility:    make([]*float64, series.Len()),
		DaysPerRegime: make(map[string]int),
		Subs: map[string]*backtest.Result{
			Low.String():    p.subs[Low],
			Medium.String(): p.subs[Medium],
			High.String():   p.subs[High],
		},
	}
	for i, r := range p.regimes {
		if v, ok := p.vol.At(i); ok {
			v := v
			res.Volatility[i] = &v
		}
		res.DaysPerRegime[r.String()]++
		if i > 0 && r != p.regimes[i-1] {
			res.Switches++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"strategy":        s.Name(),
		"regime_switches": res.Switches,
		"days_per_regime": res.DaysPerRegime,
		"total_return":    fmt.Sprintf("%.2f%%", switched.TotalReturn()*100),
	}).Info("Regime backtest completed")

	return res, nil
}

type plan struct {
	regimes   []Regime
	vol       indicator.Line
	subs      [High + 1]*backtest.Result
	decisions []contracts.Decision
}

// plan classifies bars, runs the three sub pipelines concurrently and stitches decisions
func (s *Switch) plan(ctx context.Context, series *contracts.Series) (*plan, error) {
	if series == nil || series.Len() < 2 {
		return nil, contracts.ErrInsufficientData
	}

	p := &plan{}
	p.regimes, p.vol = s.classifier.Classify(series)

	legs := [High + 1]strategy.Strategy{Low: s.cfg.Low, Medium: s.cfg.Medium, High: s.cfg.High}
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range []Regime{Low, Medium, High} {
		r := r
		g.Go(func() error {
			res, err := s.runner.Run(gctx, legs[r], series.Clone())
			if err != nil {
				return fmt.Errorf("%s strategy %s: %w", r, legs[r].Name(), err)
			}
			p.subs[r] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.decisions = make([]contracts.Decision, series.Len())
	for i, r := range p.regimes {
		// 워밍업 구간은 MEDIUM 전략을 따른다
		selected := p.subs[Medium]
		if r == Low || r == High {
			selected = p.subs[r]
		}
		b := selected.Bars[i]
		p.decisions[i] = contracts.WeightDecision(b.Signal, b.Weight)
	}
	return p, nil
}
