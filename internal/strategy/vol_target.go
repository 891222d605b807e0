package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
)

// VolatilityTargetConfig configures the volatility-targeting generator
type VolatilityTargetConfig struct {
	Period    int
	TargetVol float64
	MaxWeight float64
	MinWeight float64
	Costs     contracts.Costs
}

// DefaultVolatilityTargetConfig returns 20-day vol targeting 15% with weights in [0.1, 1.0]
func DefaultVolatilityTargetConfig() VolatilityTargetConfig {
	return VolatilityTargetConfig{
		Period:    20,
		TargetVol: 0.15,
		MaxWeight: 1.0,
		MinWeight: 0.1,
		Costs: contracts.Costs{
			Commission:         DefaultCommission,
			Slippage:           DefaultSlippage,
			RebalanceThreshold: 0.1,
		},
	}
}

// VolatilityTarget sizes the position as targetVol / laggedVol clipped to
// [MinWeight, MaxWeight]. Volatility is measured on returns strictly before the bar.
type VolatilityTarget struct {
	cfg VolatilityTargetConfig
}

// NewVolatilityTarget validates cfg and builds the generator
func NewVolatilityTarget(cfg VolatilityTargetConfig) (*VolatilityTarget, error) {
	if cfg.Period < 2 {
		return nil, contracts.ConfigError{Field: "period", Message: "must be >= 2"}
	}
	if cfg.TargetVol <= 0 {
		return nil, contracts.ConfigError{Field: "target_vol", Message: "must be > 0"}
	}
	if cfg.MinWeight < 0 || cfg.MaxWeight <= 0 || cfg.MinWeight > cfg.MaxWeight {
		return nil, contracts.ConfigError{Field: "min_weight", Message: "require 0 <= min_weight <= max_weight and max_weight > 0"}
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	return &VolatilityTarget{cfg: cfg}, nil
}

func (s *VolatilityTarget) Name() string {
	return fmt.Sprintf("VolTarget(%d,%.0f%%)", s.cfg.Period, s.cfg.TargetVol*100)
}

func (s *VolatilityTarget) Parameters() map[string]any {
	return costParams(map[string]any{
		"period":     s.cfg.Period,
		"target_vol": s.cfg.TargetVol,
		"max_weight": s.cfg.MaxWeight,
		"min_weight": s.cfg.MinWeight,
	}, s.cfg.Costs)
}

func (s *VolatilityTarget) Costs() contracts.Costs { return s.cfg.Costs }

func (s *VolatilityTarget) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	if err := checkSeries(ctx, series); err != nil {
		return nil, err
	}

	vol := indicator.LaggedVolatility(series.Returns(), s.cfg.Period)

	out := make([]contracts.Decision, series.Len())
	for i := range out {
		v, ok := vol.At(i)
		if !ok {
			out[i] = contracts.WeightDecision(contracts.Hold, 0)
			continue
		}
		out[i] = contracts.WeightDecision(contracts.Hold, s.TargetWeight(v))
	}
	return out, nil
}

// TargetWeight maps an annualized volatility to a position weight
func (s *VolatilityTarget) TargetWeight(vol float64) float64 {
	if vol <= 0 || math.IsNaN(vol) {
		return s.cfg.MaxWeight
	}
	return math.Max(s.cfg.MinWeight, math.Min(s.cfg.MaxWeight, s.cfg.TargetVol/vol))
}
