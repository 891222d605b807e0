package strategyconfig

import (
	"fmt"

	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/composite"
	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/regime"
	"github.com/wonny/quantsim/internal/strategy"
	"github.com/wonny/quantsim/pkg/logger"
)

// Builder turns a validated Config into constructed strategies
type Builder struct {
	runner     *backtest.Runner
	commission float64
	logger     *logger.Logger
}

// NewBuilder creates a Builder. Composite and regime strategies run their
// sub-strategies through runner; nil uses a runner with the default capital.
func NewBuilder(runner *backtest.Runner, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.NewNop()
	}
	if runner == nil {
		runner = backtest.NewRunner(backtest.NewSimulator(backtest.DefaultInitialCapital), log)
	}
	return &Builder{runner: runner, logger: log.Module("strategyconfig")}
}

// WithCommission replaces the default commission of every type; a file-level
// costs.commission still wins. Zero keeps the built-in defaults.
func (b *Builder) WithCommission(rate float64) *Builder {
	b.commission = rate
	return b
}

func (b *Builder) defaults(c contracts.Costs) contracts.Costs {
	if b.commission > 0 {
		c.Commission = b.commission
	}
	return c
}

// Build constructs every strategy in cfg and registers it under its name
func (b *Builder) Build(cfg *Config) (*strategy.Registry, error) {
	for _, w := range Warn(cfg) {
		b.logger.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}

	built := make(map[string]strategy.Strategy, len(cfg.Strategies))
	reg := strategy.NewRegistry()
	for _, spec := range cfg.Strategies {
		s, err := b.build(cfg, spec.Name, built)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(spec.Name, s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (b *Builder) build(cfg *Config, name string, built map[string]strategy.Strategy) (strategy.Strategy, error) {
	if s, ok := built[name]; ok {
		return s, nil
	}
	spec, ok := cfg.Find(name)
	if !ok {
		return nil, fmt.Errorf("strategy %q not defined", name)
	}

	s, err := b.construct(cfg, spec, built)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", name, err)
	}
	built[name] = s
	return s, nil
}

func (b *Builder) construct(cfg *Config, spec StrategySpec, built map[string]strategy.Strategy) (strategy.Strategy, error) {
	switch spec.Type {
	case TypeMACross:
		return strategy.NewMACross(strategy.MACrossConfig{
			ShortPeriod: orInt(spec.ShortPeriod, 5),
			LongPeriod:  orInt(spec.LongPeriod, 20),
			Costs:       spec.Costs.apply(b.defaults(strategy.DefaultCosts())),
		})

	case TypeDualMA:
		return strategy.NewDualMA(strategy.DualMAConfig{
			ShortPeriod: orInt(spec.ShortPeriod, 5),
			LongPeriod:  orInt(spec.LongPeriod, 20),
			Costs:       spec.Costs.apply(b.defaults(strategy.DefaultCosts())),
		})

	case TypeRSI:
		def := strategy.DefaultRSIConfig()
		return strategy.NewRSI(strategy.RSIConfig{
			Period:     orInt(spec.Period, def.Period),
			Oversold:   orFloat(spec.Oversold, def.Oversold),
			Overbought: orFloat(spec.Overbought, def.Overbought),
			Costs:      spec.Costs.apply(b.defaults(def.Costs)),
		})

	case TypeTrendFollowing:
		def := strategy.DefaultTrendFollowingConfig()
		return strategy.NewTrendFollowing(strategy.TrendFollowingConfig{
			ShortPeriod: orInt(spec.ShortPeriod, def.ShortPeriod),
			LongPeriod:  orInt(spec.LongPeriod, def.LongPeriod),
			Costs:       spec.Costs.apply(b.defaults(def.Costs)),
		})

	case TypeVolatilityTarget:
		def := strategy.DefaultVolatilityTargetConfig()
		return strategy.NewVolatilityTarget(strategy.VolatilityTargetConfig{
			Period:    orInt(spec.Period, def.Period),
			TargetVol: orFloat(spec.TargetVol, def.TargetVol),
			MaxWeight: orFloat(spec.MaxWeight, def.MaxWeight),
			MinWeight: orFloat(spec.MinWeight, def.MinWeight),
			Costs:     spec.Costs.apply(b.defaults(def.Costs)),
		})

	case TypeBuyAndHold:
		return strategy.NewBuyAndHold(spec.Costs.apply(b.defaults(strategy.DefaultCosts())))

	case TypeComposite:
		allocs := make([]composite.Allocation, 0, len(spec.Allocations))
		for _, a := range spec.Allocations {
			sub, err := b.build(cfg, a.Strategy, built)
			if err != nil {
				return nil, err
			}
			allocs = append(allocs, composite.Allocation{Strategy: sub, Weight: a.Weight})
		}
		return composite.New(composite.Config{
			Name:        spec.Name,
			Allocations: allocs,
			Costs:       spec.Costs.apply(b.defaults(composite.DefaultCosts())),
		}, b.runner, b.logger)

	case TypeRegimeSwitch:
		legs := [3]strategy.Strategy{}
		for i, ref := range []string{spec.Regime.Low, spec.Regime.Medium, spec.Regime.High} {
			sub, err := b.build(cfg, ref, built)
			if err != nil {
				return nil, err
			}
			legs[i] = sub
		}
		def := regime.DefaultClassifierConfig()
		return regime.NewSwitch(regime.SwitchConfig{
			Name: spec.Name,
			Classifier: regime.ClassifierConfig{
				Period:        orInt(spec.Regime.VolatilityPeriod, def.Period),
				LowThreshold:  orFloat(spec.Regime.LowThreshold, def.LowThreshold),
				HighThreshold: orFloat(spec.Regime.HighThreshold, def.HighThreshold),
			},
			Low:    legs[0],
			Medium: legs[1],
			High:   legs[2],
			Costs:  spec.Costs.apply(b.defaults(regime.DefaultSwitchCosts())),
		}, b.runner, b.logger)
	}

	return nil, contracts.ConfigError{Field: "type", Message: fmt.Sprintf("unknown type %q", spec.Type)}
}

// apply overlays the configured fields onto def
func (c *CostsSpec) apply(def contracts.Costs) contracts.Costs {
	if c == nil {
		return def
	}
	if c.Commission != nil {
		def.Commission = *c.Commission
	}
	if c.Slippage != nil {
		def.Slippage = *c.Slippage
	}
	if c.RebalanceThreshold != nil {
		def.RebalanceThreshold = *c.RebalanceThreshold
	}
	return def
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
